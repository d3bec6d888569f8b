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

// Package validate applies the fixed rule set to parsed Records,
// producing clean and rejected streams with per-record diagnostics.
package validate

import (
	"fmt"
	"regexp"

	"github.com/NikhilTalatule/MarketStream-ETL/internal/record"
)

// symbolRE is compiled once at package init rather than per call, per
// the once-initialized-regex guidance for the symbol pattern.
var symbolRE = regexp.MustCompile(`^[A-Z]{1,10}$`)

// Logger receives a formatted diagnostic line per rejected Record. It is
// expected to be safe for concurrent use; the teacher's stdlib log.Logger
// satisfies this directly.
type Logger interface {
	Printf(format string, args ...any)
}

// Validate applies the six ordered checks, returning on first failure.
func Validate(r record.Record) record.Outcome {
	if !symbolRE.MatchString(r.Symbol) {
		return record.Reject(fmt.Sprintf("invalid symbol: %q", r.Symbol))
	}
	if !(r.Price > 0 && r.Price < 1_000_000) {
		return record.Reject(fmt.Sprintf("invalid price: %v", r.Price))
	}
	if r.Volume == 0 {
		return record.Reject(fmt.Sprintf("invalid volume: %v", r.Volume))
	}
	switch r.Side {
	case record.SideBuy, record.SideSell, record.SideNone:
	default:
		return record.Reject(fmt.Sprintf("invalid side: %q", string(r.Side)))
	}
	switch r.Type {
	case record.TypeMarket, record.TypeLimit, record.TypeIOC:
	default:
		return record.Reject(fmt.Sprintf("invalid type: %q", string(r.Type)))
	}
	if r.Timestamp <= 0 {
		return record.Reject(fmt.Sprintf("invalid timestamp: %v", r.Timestamp))
	}
	return record.OK()
}

// Batch filters records, returning only those that pass Validate, in
// their original order. Rejects are reported to log (if non-nil) with
// their reason; rejectCount reports how many were dropped.
func Batch(records []record.Record, log Logger) (clean []record.Record, rejectCount int) {
	clean = make([]record.Record, 0, len(records))
	for _, r := range records {
		outcome := Validate(r)
		if outcome.Rejected {
			rejectCount++
			if log != nil {
				log.Printf("rejected trade_id=%d: %s", r.TradeID, outcome.Reason)
			}
			continue
		}
		clean = append(clean, r)
	}
	return clean, rejectCount
}
