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

// Package parser reads an entire trade file in one I/O call and extracts
// Records via byte-level field slicing.
//
// HOT PATH: this file is the critical parsing path. One os.ReadFile call
// brings the whole file into a contiguous buffer; line and field
// boundaries are then found by scanning that buffer directly, so a
// Record's only allocation is for its Symbol string — every numeric
// field is decoded in place against the borrowed byte slice.
package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/NikhilTalatule/MarketStream-ETL/internal/record"
)

// Fixed column order of the input file.
// trade_id, order_id, timestamp, symbol, price, volume, side, type, is_pro

// OpenFailed and ReadFailed are the two I/O error kinds this package can
// produce. Malformed rows are never a parser error: a Record with a
// field left at its zero value is passed through for the validator to
// reject downstream.
var (
	ErrOpenFailed = fmt.Errorf("parser: open failed")
	ErrReadFailed = fmt.Errorf("parser: read failed")
)

// ParseFile reads path in one shot and returns every Record in file
// order. The first line is the header and is discarded; blank lines are
// skipped.
func ParseFile(path string) ([]record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		kind := ErrOpenFailed
		var pe *fs.PathError
		if errors.As(err, &pe) && pe.Op == "read" {
			kind = ErrReadFailed
		}
		return nil, fmt.Errorf("%w: %s: %v", kind, path, err)
	}
	return Parse(data)
}

// Parse extracts Records from an in-memory file image. data is only
// read, never retained past the call except via each Record's Symbol
// copy.
func Parse(data []byte) ([]record.Record, error) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return nil, nil
	}
	// First line is the header; discard it.
	lines = lines[1:]

	out := make([]record.Record, 0, len(lines))
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		out = append(out, parseLine(line))
	}
	return out, nil
}

// splitLines returns byte-view slices of data split on LF, with a
// trailing CR stripped from each line. No allocation beyond the
// returned slice of slice headers: every line shares data's backing
// array.
func splitLines(data []byte) [][]byte {
	lines := make([][]byte, 0, countLines(data))
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			lines = append(lines, trimCR(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, trimCR(data[start:]))
	}
	return lines
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n + 1
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}

// nextField returns the slice up to the next comma (trailing CR never
// reaches here; it was stripped per-line) and advances cursor past the
// comma. If no comma remains, the entire remainder is returned and the
// cursor becomes empty.
func nextField(cursor *[]byte) []byte {
	buf := *cursor
	for i, b := range buf {
		if b == ',' {
			*cursor = buf[i+1:]
			return buf[:i]
		}
	}
	*cursor = buf[len(buf):]
	return buf
}

// parseLine extracts one Record from a single CSV line. Numeric parse
// failures leave the field at its zero value; such Records are rejected
// by the validator, not here.
func parseLine(line []byte) record.Record {
	var r record.Record
	cursor := line

	if f := nextField(&cursor); len(f) > 0 {
		r.TradeID, _ = strconv.ParseUint(string(f), 10, 64)
	}
	if f := nextField(&cursor); len(f) > 0 {
		r.OrderID, _ = strconv.ParseUint(string(f), 10, 64)
	}
	if f := nextField(&cursor); len(f) > 0 {
		r.Timestamp, _ = strconv.ParseInt(string(f), 10, 64)
	}
	if f := nextField(&cursor); len(f) > 0 {
		r.Symbol = string(f) // the one allocation per Record
	}
	if f := nextField(&cursor); len(f) > 0 {
		r.Price, _ = strconv.ParseFloat(string(f), 64)
	}
	if f := nextField(&cursor); len(f) > 0 {
		v, _ := strconv.ParseUint(string(f), 10, 32)
		r.Volume = uint32(v)
	}
	if f := nextField(&cursor); len(f) > 0 {
		r.Side = f[0]
	} else {
		r.Side = record.SideNone
	}
	if f := nextField(&cursor); len(f) > 0 {
		r.Type = f[0]
	} else {
		r.Type = record.TypeMarket
	}
	if f := nextField(&cursor); len(f) > 0 {
		r.IsPro = f[0] == '1'
	}

	return r
}
