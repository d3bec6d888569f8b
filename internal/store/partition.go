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

package store

// Span is one worker's contiguous slice of the input, given as an offset
// and a count.
type Span struct {
	Offset int
	Count  int
}

// Partition splits n items across N workers as evenly as possible: the
// first n%N spans get one extra item so every item is covered exactly
// once and spans are contiguous and ordered.
func Partition(n, workers int) []Span {
	if workers < 1 {
		panic("store: workers must be >= 1")
	}
	chunk := n / workers
	remainder := n % workers

	spans := make([]Span, workers)
	offset := 0
	for i := 0; i < workers; i++ {
		count := chunk
		if i < remainder {
			count++
		}
		spans[i] = Span{Offset: offset, Count: count}
		offset += count
	}
	return spans
}
