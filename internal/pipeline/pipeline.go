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

/*
Pipeline stage flow

Each run of Driver.Run walks this sequence once; optimizations in any
one stage only matter as much as they move the slowest stage.

┌─────────────────────────────────────────────────────────────────────┐
│ [1] parser.ParseFile(config.InputPath)                      PARSER  │
│     • One os.ReadFile, then byte-level line/field scanning          │
└─────────────────────────────────────────────────────────────────────┘
                                │
                                ▼
┌─────────────────────────────────────────────────────────────────────┐
│ [2] validate.Batch(records, logger)                       VALIDATOR │
│     • Six ordered checks per record, rejects logged and dropped     │
└─────────────────────────────────────────────────────────────────────┘
                                │
                 ┌──────────────┴──────────────┐
                 ▼                             ▼
┌──────────────────────────────┐  ┌───────────────────────────────────┐
│ [3a] indicator.Compute(...)   │  │ [3b] store.LoadTrades(...)        │
│      + store.InsertIndicators │  │      columnar.Write(...)          │
└──────────────────────────────┘  └───────────────────────────────────┘

Stage 3a and 3b both read the clean record slice read-only and never
take ownership of it, so they can run concurrently without copying.
*/

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/NikhilTalatule/MarketStream-ETL/internal/bench"
	"github.com/NikhilTalatule/MarketStream-ETL/internal/columnar"
	"github.com/NikhilTalatule/MarketStream-ETL/internal/config"
	"github.com/NikhilTalatule/MarketStream-ETL/internal/indicator"
	"github.com/NikhilTalatule/MarketStream-ETL/internal/parser"
	"github.com/NikhilTalatule/MarketStream-ETL/internal/record"
	"github.com/NikhilTalatule/MarketStream-ETL/internal/validate"
)

// Logger receives rejection diagnostics from the validator and progress
// lines from the driver.
type Logger interface {
	Printf(format string, args ...any)
}

// Sink is the narrow seam the driver uses to reach the database; this is
// the interface tests substitute a fake for, while *store.Store is what
// production wiring passes in.
type Sink interface {
	LoadTrades(ctx context.Context, records []record.Record, workers int) error
	InsertIndicators(ctx context.Context, rows []record.IndicatorRow) error
}

// NowStamp carries one run's wall-clock reading so the IndicatorRow
// ComputedAt stamp and the columnar output filename agree on the same
// instant, and so a test can hold the run's notion of "now" fixed.
type NowStamp struct {
	UnixNanos int64
	Time      time.Time
}

// Stamp builds a NowStamp from t.
func Stamp(t time.Time) NowStamp {
	return NowStamp{UnixNanos: t.UnixNano(), Time: t}
}

// Driver wires every pipeline stage together against one Store.
type Driver struct {
	Config config.Config
	Store  Sink
	Log    Logger
	Bench  bench.Sink
}

// RunResult holds the counts of one Run and the columnar file it wrote.
// CleanCount is the number of trades handed to the store; rejected
// records are counted in RejectedCount and never loaded.
type RunResult struct {
	ParsedCount    int
	RejectedCount  int
	CleanCount     int
	IndicatorCount int
	ParquetPath    string
}

// Run executes one full pass: parse, validate, compute indicators, then
// load trades, insert indicators and write the columnar artifact, in that
// order. It returns the final counts.
func (d *Driver) Run(ctx context.Context, now NowStamp) (RunResult, error) {
	parsed, err := d.parse()
	if err != nil {
		return RunResult{}, fmt.Errorf("pipeline: parse: %w", err)
	}

	clean, rejected := d.validate(parsed)

	rows := d.computeIndicators(clean, now.UnixNanos)

	if err := d.load(ctx, clean, rows); err != nil {
		return RunResult{}, fmt.Errorf("pipeline: load: %w", err)
	}

	path, err := d.writeColumnar(clean, now)
	if err != nil {
		return RunResult{}, fmt.Errorf("pipeline: columnar: %w", err)
	}

	return RunResult{
		ParsedCount:    len(parsed),
		RejectedCount:  rejected,
		CleanCount:     len(clean),
		IndicatorCount: len(rows),
		ParquetPath:    path,
	}, nil
}

func (d *Driver) parse() ([]record.Record, error) {
	m := bench.Start(d.Bench, "parse")
	records, err := parser.ParseFile(d.Config.InputPath)
	m.Stop(int64(len(records)))
	return records, err
}

func (d *Driver) validate(records []record.Record) ([]record.Record, int) {
	m := bench.Start(d.Bench, "validate")
	clean, rejected := validate.Batch(records, d.Log)
	m.Stop(int64(len(records)))
	return clean, rejected
}

func (d *Driver) computeIndicators(clean []record.Record, computedAt int64) []record.IndicatorRow {
	m := bench.Start(d.Bench, "indicators")
	rows := indicator.Compute(clean, d.Config.IndicatorPeriod, computedAt)
	m.Stop(int64(len(rows)))
	return rows
}

// load runs the trade bulk-load and the indicator insert; both touch the
// same store but against different tables, so it is safe to run them in
// sequence on the pool's single connection budget rather than adding a
// second layer of concurrency on top of copyTrades' own worker pool.
func (d *Driver) load(ctx context.Context, clean []record.Record, rows []record.IndicatorRow) error {
	m := bench.Start(d.Bench, "load_trades")
	err := d.Store.LoadTrades(ctx, clean, d.Config.WorkerCount)
	m.Stop(int64(len(clean)))
	if err != nil {
		return err
	}

	m = bench.Start(d.Bench, "insert_indicators")
	err = d.Store.InsertIndicators(ctx, rows)
	m.Stop(int64(len(rows)))
	return err
}

func (d *Driver) writeColumnar(clean []record.Record, now NowStamp) (string, error) {
	m := bench.Start(d.Bench, "columnar_write")
	path, err := columnar.Write(d.Config.ParquetDir, clean, now.Time)
	m.Stop(int64(len(clean)))
	return path, err
}
