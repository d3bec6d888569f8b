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

package columnar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NikhilTalatule/MarketStream-ETL/internal/record"
)

func sampleRecords() []record.Record {
	return []record.Record{
		{TradeID: 1, OrderID: 2, Timestamp: 1698208500000000001, Symbol: "RELIANCE", Price: 2456.75, Volume: 100, Side: record.SideBuy, Type: record.TypeLimit},
		{TradeID: 2, OrderID: 3, Timestamp: 1698208500000000002, Symbol: "RELIANCE", Price: 2457.00, Volume: 50, Side: record.SideSell, Type: record.TypeMarket},
		{TradeID: 3, OrderID: 4, Timestamp: 1698208500000000003, Symbol: "TCS", Price: 3500.50, Volume: 20, Side: record.SideBuy, Type: record.TypeIOC},
	}
}

func TestFileNameFormat(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)
	got := FileName(ts)
	want := "trades_20240315_093045.parquet"
	if got != want {
		t.Fatalf("FileName() = %q, want %q", got, want)
	}
}

func TestWriteProducesNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, sampleRecords(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat written file: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("written file is empty")
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("Write() path = %q, want directory %q", path, dir)
	}
}

func TestWriteEmptyBatch(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, nil, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Write() with no records error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected a file (with schema only) to exist: %v", err)
	}
}

func TestWriteFileOpenFailure(t *testing.T) {
	_, err := Write(filepath.Join(t.TempDir(), "does-not-exist"), sampleRecords(), time.Now())
	if err == nil {
		t.Fatalf("expected an error writing into a nonexistent directory")
	}
}

func TestBuildTableRowCount(t *testing.T) {
	table, err := buildTable(sampleRecords())
	if err != nil {
		t.Fatalf("buildTable() error = %v", err)
	}
	defer table.Release()
	if table.NumRows() != 3 {
		t.Fatalf("NumRows() = %d, want 3", table.NumRows())
	}
	if table.NumCols() != int64(len(Schema.Fields())) {
		t.Fatalf("NumCols() = %d, want %d", table.NumCols(), len(Schema.Fields()))
	}
}
