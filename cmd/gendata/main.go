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

// Command gendata writes a synthetic trades CSV for local pipeline runs.
// It is deliberately thin: the pipeline's main entry point takes its
// input path from configuration, never from this tool's output path
// directly.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
)

var symbols = []string{"RELIANCE", "TCS", "INFY", "HDFCBANK", "ICICIBANK"}

func main() {
	rows := flag.Int("rows", 1000, "number of synthetic trade rows to generate")
	out := flag.String("out", "trades.csv", "output CSV path")
	flag.Parse()

	// An optional positional argument gives the row count: gendata [rows].
	if flag.NArg() > 0 {
		n, err := strconv.Atoi(flag.Arg(0))
		if err != nil {
			log.Fatalf("gendata: rows: %v", err)
		}
		*rows = n
	}

	if err := generate(*out, *rows); err != nil {
		log.Fatalf("gendata: %v", err)
	}
}

func generate(path string, rows int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprintln(w, "trade_id,order_id,timestamp,symbol,price,volume,side,type,is_pro")

	sides := []byte{'B', 'S'}
	types := []byte{'M', 'L', 'I'}
	var ts int64 = 1700000000000000000

	for i := 1; i <= rows; i++ {
		symbol := symbols[rand.Intn(len(symbols))]
		price := 100 + rand.Float64()*2000
		volume := 1 + rand.Intn(500)
		side := sides[rand.Intn(len(sides))]
		typ := types[rand.Intn(len(types))]
		isPro := 0
		if rand.Intn(5) == 0 {
			isPro = 1
		}
		ts += int64(rand.Intn(1_000_000))

		fmt.Fprintf(w, "%d,%d,%d,%s,%s,%d,%c,%c,%d\n",
			i, i+1, ts, symbol, strconv.FormatFloat(price, 'f', 2, 64), volume, side, typ, isPro)
	}
	return nil
}
