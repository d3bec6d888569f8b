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

// Package bench provides a scoped timer ("meter") that records elapsed
// time and item count on scope exit, following the teacher's pattern of
// deterministic release-on-exit (defer) rather than hand-coded timing
// at every call site.
package bench

import "time"

// Result is one completed measurement.
type Result struct {
	Label      string
	DurationNs int64
	ItemCount  int64
}

// Throughput returns items processed per second. Zero if DurationNs is 0.
func (r Result) Throughput() float64 {
	if r.DurationNs == 0 {
		return 0
	}
	return float64(r.ItemCount) / (float64(r.DurationNs) / 1e9)
}

// PerItemLatencyNs returns the average per-item latency in nanoseconds.
// Zero if ItemCount is 0.
func (r Result) PerItemLatencyNs() float64 {
	if r.ItemCount == 0 {
		return 0
	}
	return float64(r.DurationNs) / float64(r.ItemCount)
}

// Sink receives completed measurements. The pipeline driver implements
// this to collect timings across stages.
type Sink interface {
	Record(Result)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(Result)

// Record implements Sink.
func (f SinkFunc) Record(r Result) { f(r) }

// Meter is a started-but-not-yet-stopped measurement. Construct one with
// Start and call Stop when the scope ends (typically via defer).
type Meter struct {
	sink  Sink
	label string
	start time.Time
}

// Start begins timing label and returns a Meter. Call Stop(n) when the
// measured scope ends.
func Start(sink Sink, label string) *Meter {
	return &Meter{sink: sink, label: label, start: time.Now()}
}

// Stop records the elapsed duration since Start along with itemCount and
// pushes the result to the sink. Safe to call at most once; typically
// deferred immediately after Start.
func (m *Meter) Stop(itemCount int64) {
	if m.sink == nil {
		return
	}
	m.sink.Record(Result{
		Label:      m.label,
		DurationNs: time.Since(m.start).Nanoseconds(),
		ItemCount:  itemCount,
	})
}
