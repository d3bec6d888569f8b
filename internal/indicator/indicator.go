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

// Package indicator groups clean Records by symbol and derives SMA,
// RSI, and VWAP per symbol, one IndicatorRow per distinct symbol.
package indicator

import (
	"github.com/NikhilTalatule/MarketStream-ETL/internal/record"
)

// series accumulates one symbol's prices and volumes in input order.
// A map keyed by symbol gives amortized O(1) insertion, the same idiom
// the teacher uses for its subscriptions map.
type series struct {
	prices  []float64
	volumes []float64
}

// Compute groups records by symbol and computes one IndicatorRow per
// distinct symbol, using effective window p = min(period, n) where n is
// the record count for that symbol. computedAt stamps every row of this
// run with the same value.
func Compute(records []record.Record, period int, computedAt int64) []record.IndicatorRow {
	order := make([]string, 0)
	bySymbol := make(map[string]*series)

	for _, r := range records {
		s, ok := bySymbol[r.Symbol]
		if !ok {
			s = &series{}
			bySymbol[r.Symbol] = s
			order = append(order, r.Symbol)
		}
		s.prices = append(s.prices, r.Price)
		s.volumes = append(s.volumes, float64(r.Volume))
	}

	rows := make([]record.IndicatorRow, 0, len(order))
	for _, symbol := range order {
		s := bySymbol[symbol]
		n := len(s.prices)
		p := period
		if n < p {
			p = n
		}
		rows = append(rows, record.IndicatorRow{
			Symbol:     symbol,
			SMA:        sma(s.prices, p),
			RSI:        rsi(s.prices, p),
			VWAP:       vwap(s.prices, s.volumes),
			Period:     p,
			ComputedAt: computedAt,
		})
	}
	return rows
}

// sma is the arithmetic mean of the last p prices. p == 0 => 0.0.
func sma(prices []float64, p int) float64 {
	if p == 0 {
		return 0
	}
	window := prices[len(prices)-p:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(p)
}

// vwap is Σ(price×volume)/Σvolume over ALL records for the symbol.
// Zero total volume => 0.0.
func vwap(prices, volumes []float64) float64 {
	var num, den float64
	for i := range prices {
		num += prices[i] * volumes[i]
		den += volumes[i]
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// rsi computes consecutive differences over the last p+1 prices (fewer
// if unavailable). No differences => 50.0 (neutral). Zero average loss
// => 100.0. Otherwise RS = avgGain/avgLoss, RSI = 100 - 100/(1+RS).
func rsi(prices []float64, p int) float64 {
	window := p + 1
	if window > len(prices) {
		window = len(prices)
	}
	if window < 2 {
		return 50
	}
	tail := prices[len(prices)-window:]

	var gain, loss float64
	diffCount := 0
	for i := 1; i < len(tail); i++ {
		d := tail[i] - tail[i-1]
		if d > 0 {
			gain += d
		} else {
			loss += -d
		}
		diffCount++
	}
	if diffCount == 0 {
		return 50
	}
	avgGain := gain / float64(diffCount)
	avgLoss := loss / float64(diffCount)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
