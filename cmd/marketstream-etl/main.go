/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/NikhilTalatule/MarketStream-ETL/internal/bench"
	"github.com/NikhilTalatule/MarketStream-ETL/internal/config"
	"github.com/NikhilTalatule/MarketStream-ETL/internal/pipeline"
	"github.com/NikhilTalatule/MarketStream-ETL/internal/store"
)

func main() {
	envPath := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.ConnectionString)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("store: init schema: %v", err)
	}

	driver := &pipeline.Driver{
		Config: cfg,
		Store:  db,
		Log:    log.Default(),
		Bench: bench.SinkFunc(func(r bench.Result) {
			log.Printf("%-18s %8d items  %10.0f items/sec", r.Label, r.ItemCount, r.Throughput())
		}),
	}

	result, err := driver.Run(ctx, pipeline.Stamp(time.Now()))
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	log.Printf("parsed=%d rejected=%d clean=%d indicators=%d parquet=%s",
		result.ParsedCount, result.RejectedCount, result.CleanCount, result.IndicatorCount, result.ParquetPath)
}
