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

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NikhilTalatule/MarketStream-ETL/internal/config"
	"github.com/NikhilTalatule/MarketStream-ETL/internal/record"
)

type fakeSink struct {
	loadedTrades []record.Record
	insertedRows []record.IndicatorRow
	loadErr      error
	insertErr    error
	loadCalls    int
	insertCalls  int
}

func (f *fakeSink) LoadTrades(_ context.Context, records []record.Record, _ int) error {
	f.loadCalls++
	f.loadedTrades = records
	return f.loadErr
}

func (f *fakeSink) InsertIndicators(_ context.Context, rows []record.IndicatorRow) error {
	f.insertCalls++
	f.insertedRows = rows
	return f.insertErr
}

type fakeLogger struct{ lines []string }

func (f *fakeLogger) Printf(format string, args ...any) { f.lines = append(f.lines, format) }

const header = "trade_id,order_id,timestamp,symbol,price,volume,side,type,is_pro\n"

func writeInput(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trades.csv")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDriverRunEndToEnd(t *testing.T) {
	data := header +
		"1,2,1698208500000000001,RELIANCE,2456.75,100,B,L,0\n" +
		"2,3,1698208500000000002,RELIANCE,2457.00,50,S,M,0\n" +
		"3,4,0,TCS,3500.50,20,B,I,0\n" // timestamp=0, rejected

	sink := &fakeSink{}
	log := &fakeLogger{}
	d := &Driver{
		Config: config.Config{
			InputPath:       writeInput(t, data),
			ParquetDir:      t.TempDir(),
			WorkerCount:     2,
			IndicatorPeriod: 5,
		},
		Store: sink,
		Log:   log,
	}

	result, err := d.Run(context.Background(), Stamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ParsedCount != 3 {
		t.Fatalf("ParsedCount = %d, want 3", result.ParsedCount)
	}
	if result.RejectedCount != 1 {
		t.Fatalf("RejectedCount = %d, want 1", result.RejectedCount)
	}
	if result.CleanCount != 2 {
		t.Fatalf("CleanCount = %d, want 2", result.CleanCount)
	}
	if result.IndicatorCount != 1 {
		t.Fatalf("IndicatorCount = %d, want 1 (one symbol survives)", result.IndicatorCount)
	}
	if sink.loadCalls != 1 || len(sink.loadedTrades) != 2 {
		t.Fatalf("expected LoadTrades called once with 2 clean records, got %d calls with %d records", sink.loadCalls, len(sink.loadedTrades))
	}
	if sink.insertCalls != 1 || len(sink.insertedRows) != 1 {
		t.Fatalf("expected InsertIndicators called once with 1 row, got %d calls with %d rows", sink.insertCalls, len(sink.insertedRows))
	}
	if _, err := os.Stat(result.ParquetPath); err != nil {
		t.Fatalf("expected a parquet file at %s: %v", result.ParquetPath, err)
	}
}

func TestDriverRunPropagatesLoadError(t *testing.T) {
	data := header + "1,2,3,ABC,1.5,10,B,L,0\n"
	sink := &fakeSink{loadErr: context.DeadlineExceeded}
	d := &Driver{
		Config: config.Config{
			InputPath:       writeInput(t, data),
			ParquetDir:      t.TempDir(),
			WorkerCount:     1,
			IndicatorPeriod: 5,
		},
		Store: sink,
	}

	if _, err := d.Run(context.Background(), Stamp(time.Now())); err == nil {
		t.Fatalf("expected Run() to propagate the load error")
	}
}

func TestDriverRunPropagatesParseError(t *testing.T) {
	d := &Driver{
		Config: config.Config{
			InputPath:       filepath.Join(t.TempDir(), "missing.csv"),
			ParquetDir:      t.TempDir(),
			WorkerCount:     1,
			IndicatorPeriod: 5,
		},
		Store: &fakeSink{},
	}
	if _, err := d.Run(context.Background(), Stamp(time.Now())); err == nil {
		t.Fatalf("expected Run() to propagate the parse error")
	}
}
