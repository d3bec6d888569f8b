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

// Package config loads pipeline configuration from the environment, with
// an optional .env file loaded first via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultWorkerCount     = 4
	defaultIndicatorPeriod = 5
)

// Config holds the keys the pipeline needs to run one end-to-end pass.
type Config struct {
	InputPath        string
	ConnectionString string
	WorkerCount      int
	ParquetDir       string
	IndicatorPeriod  int
}

// Load reads environment variables into a Config, first loading envPath
// (if non-empty) via godotenv so local runs can keep secrets out of the
// shell. A missing envPath is not an error: the environment may already
// carry every key.
func Load(envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: load %s: %w", envPath, err)
		}
	}

	cfg := Config{
		InputPath:        os.Getenv("INPUT_PATH"),
		ConnectionString: os.Getenv("CONNECTION_STRING"),
		ParquetDir:       os.Getenv("PARQUET_DIR"),
		WorkerCount:      defaultWorkerCount,
		IndicatorPeriod:  defaultIndicatorPeriod,
	}

	if v := os.Getenv("WORKER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: WORKER_COUNT: %w", err)
		}
		cfg.WorkerCount = n
	}
	if v := os.Getenv("INDICATOR_PERIOD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: INDICATOR_PERIOD: %w", err)
		}
		cfg.IndicatorPeriod = n
	}

	if cfg.InputPath == "" {
		return Config{}, fmt.Errorf("config: INPUT_PATH is required")
	}
	if cfg.ConnectionString == "" {
		return Config{}, fmt.Errorf("config: CONNECTION_STRING is required")
	}
	if cfg.ParquetDir == "" {
		return Config{}, fmt.Errorf("config: PARQUET_DIR is required")
	}
	return cfg, nil
}
