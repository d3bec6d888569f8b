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

// Package columnar converts a batch of Records into a dictionary-encoded,
// Snappy-compressed Parquet file with the schema embedded for lossless
// roundtrip.
package columnar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/NikhilTalatule/MarketStream-ETL/internal/record"
)

// Schema mirrors the trade record layout, with low-cardinality text
// fields dictionary-encoded so their dense int8 index arrays compress to
// near-zero.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "trade_id", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "order_id", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "timestamp", Type: arrow.PrimitiveTypes.Int64},
	{Name: "symbol", Type: &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}},
	{Name: "price", Type: arrow.PrimitiveTypes.Float64},
	{Name: "volume", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "side", Type: &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}},
	{Name: "type", Type: &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}},
	{Name: "is_pro", Type: arrow.FixedWidthTypes.Boolean},
}, nil)

// FileOpenFailed, EncodeFailed, and CloseFailed are the three error kinds
// this package reports. A partial file on any of these should not be
// treated as a valid artifact.
var (
	ErrFileOpenFailed = fmt.Errorf("columnar: file open failed")
	ErrEncodeFailed   = fmt.Errorf("columnar: encode failed")
	ErrCloseFailed    = fmt.Errorf("columnar: close failed")
)

// FileName derives the trades_YYYYMMDD_HHMMSS.parquet name from t.
func FileName(t time.Time) string {
	return fmt.Sprintf("trades_%s.parquet", t.Format("20060102_150405"))
}

// Write builds a single-row-group, dictionary-encoded, Snappy-compressed
// Parquet file from records under dir, named from now, and returns the
// full path written.
func Write(dir string, records []record.Record, now time.Time) (string, error) {
	table, err := buildTable(records)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	defer table.Release()

	path := filepath.Join(dir, FileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFileOpenFailed, path, err)
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		// Single row group: the whole dataset fits one batch per pipeline run.
		parquet.WithMaxRowGroupLength(int64(len(records))+1),
	)
	arrowProps := pqarrow.DefaultWriterProps()

	writeErr := pqarrow.WriteTable(table, f, table.NumRows(), props, arrowProps)
	// pqarrow.WriteTable closes f itself after writing the footer, so an
	// already-closed file here is the normal outcome, not a failure.
	if closeErr := f.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		if writeErr != nil {
			return "", fmt.Errorf("%w: %v (after encode error: %v)", ErrCloseFailed, closeErr, writeErr)
		}
		return "", fmt.Errorf("%w: %v", ErrCloseFailed, closeErr)
	}
	if writeErr != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: %v", ErrEncodeFailed, writeErr)
	}
	return path, nil
}

// buildTable allocates one builder per column, pre-reserves n slots on
// the fixed-width builders, appends every record once, then seals each
// builder into an immutable array and assembles the table.
func buildTable(records []record.Record) (arrow.Table, error) {
	pool := memory.NewGoAllocator()
	n := len(records)

	tradeID := array.NewUint64Builder(pool)
	orderID := array.NewUint64Builder(pool)
	timestamp := array.NewInt64Builder(pool)
	price := array.NewFloat64Builder(pool)
	volume := array.NewUint32Builder(pool)
	isPro := array.NewBooleanBuilder(pool)
	defer tradeID.Release()
	defer orderID.Release()
	defer timestamp.Release()
	defer price.Release()
	defer volume.Release()
	defer isPro.Release()

	tradeID.Reserve(n)
	orderID.Reserve(n)
	timestamp.Reserve(n)
	price.Reserve(n)
	volume.Reserve(n)
	isPro.Reserve(n)

	symbolType := Schema.Field(3).Type.(*arrow.DictionaryType)
	sideType := Schema.Field(6).Type.(*arrow.DictionaryType)
	typeType := Schema.Field(7).Type.(*arrow.DictionaryType)

	symbol := array.NewDictionaryBuilder(pool, symbolType).(*array.BinaryDictionaryBuilder)
	side := array.NewDictionaryBuilder(pool, sideType).(*array.BinaryDictionaryBuilder)
	typ := array.NewDictionaryBuilder(pool, typeType).(*array.BinaryDictionaryBuilder)
	defer symbol.Release()
	defer side.Release()
	defer typ.Release()

	for _, r := range records {
		tradeID.Append(r.TradeID)
		orderID.Append(r.OrderID)
		timestamp.Append(r.Timestamp)
		price.Append(r.Price)
		volume.Append(r.Volume)
		isPro.Append(r.IsPro)
		if err := symbol.AppendString(r.Symbol); err != nil {
			return nil, fmt.Errorf("append symbol %q: %w", r.Symbol, err)
		}
		if err := side.AppendString(string(r.Side)); err != nil {
			return nil, fmt.Errorf("append side %q: %w", string(r.Side), err)
		}
		if err := typ.AppendString(string(r.Type)); err != nil {
			return nil, fmt.Errorf("append type %q: %w", string(r.Type), err)
		}
	}

	cols := []arrow.Array{
		tradeID.NewArray(),
		orderID.NewArray(),
		timestamp.NewArray(),
		symbol.NewArray(),
		price.NewArray(),
		volume.NewArray(),
		side.NewArray(),
		typ.NewArray(),
		isPro.NewArray(),
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	columns := make([]arrow.Column, len(cols))
	for i, c := range cols {
		chunked := arrow.NewChunked(c.DataType(), []arrow.Array{c})
		columns[i] = *arrow.NewColumn(Schema.Field(i), chunked)
		chunked.Release()
	}
	defer func() {
		for _, c := range columns {
			c.Release()
		}
	}()

	return array.NewTable(Schema, columns, int64(n)), nil
}
