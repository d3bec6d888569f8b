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

// Package store is the hardest subsystem: it owns the Postgres schema
// and the three-phase parallel bulk loader (prepare, parallel COPY,
// finalize) plus indicator persistence.
//
// Connection and transaction acquisition follow scoped-acquisition
// discipline: every pool.Acquire is paired with a deferred Release so no
// connection can leak out of a call, matching the teacher's prepared-statement lifecycle in
// database/marketdata.go generalized to pgx's pool idiom.
package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NikhilTalatule/MarketStream-ETL/internal/pool"
	"github.com/NikhilTalatule/MarketStream-ETL/internal/record"
)

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id  BIGINT NOT NULL,
	order_id  BIGINT NOT NULL,
	timestamp BIGINT NOT NULL,
	symbol    TEXT NOT NULL,
	price     DOUBLE PRECISION NOT NULL CHECK (price > 0),
	volume    BIGINT NOT NULL CHECK (volume > 0),
	side      CHAR(1) NOT NULL CHECK (side IN ('B', 'S', 'N')),
	type      CHAR(1) NOT NULL CHECK (type IN ('M', 'L', 'I')),
	is_pro    BOOLEAN NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol_timestamp ON trades (symbol, timestamp);

CREATE TABLE IF NOT EXISTS indicators (
	id          BIGSERIAL PRIMARY KEY,
	symbol      TEXT NOT NULL,
	computed_at BIGINT NOT NULL,
	sma         DOUBLE PRECISION NOT NULL,
	rsi         DOUBLE PRECISION NOT NULL CHECK (rsi >= 0 AND rsi <= 100),
	vwap        DOUBLE PRECISION NOT NULL CHECK (vwap > 0),
	period      INTEGER NOT NULL CHECK (period > 0)
);

CREATE INDEX IF NOT EXISTS idx_indicators_symbol_computed_at ON indicators (symbol, computed_at);
`

const insertIndicatorSQL = `
INSERT INTO indicators (symbol, computed_at, sma, rsi, vwap, period)
VALUES ($1, $2, $3, $4, $5, $6)
`

var tradeColumns = []string{
	"trade_id", "order_id", "timestamp", "symbol", "price", "volume", "side", "type", "is_pro",
}

// Store is a handle to the Postgres connection pool backing both
// tables. Store must be closed via Close when no longer needed.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to connString and returns a Store. The schema is not
// created here; call InitSchema explicitly.
func Open(ctx context.Context, connString string) (*Store, error) {
	p, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("store: open pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{pool: p}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// InitSchema creates the trades and indicators tables if they do not
// already exist.
func (s *Store) InitSchema(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("store: acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, initSchemaSQL); err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	return nil
}

// tradeCopySource adapts a Span of a Record slice to pgx.CopyFromSource,
// streaming rows directly out of the slice with no intermediate copy.
type tradeCopySource struct {
	records []record.Record
	i       int
}

func (s *tradeCopySource) Next() bool {
	s.i++
	return s.i <= len(s.records)
}

func (s *tradeCopySource) Values() ([]any, error) {
	r := s.records[s.i-1]
	return []any{
		r.TradeID, r.OrderID, r.Timestamp, r.Symbol, r.Price,
		r.Volume, string(r.Side), string(r.Type), r.IsPro,
	}, nil
}

func (s *tradeCopySource) Err() error { return nil }

// LoadTrades runs the full prepare / parallel-COPY / finalize protocol
// against records, using workers goroutines for phase 2. Each worker's
// COPY runs in its own connection; there is no cross-worker
// transactional guarantee, so a partial phase-2 failure is recovered by
// a full redo from a fresh Prepare, never by a compensating action.
func (s *Store) LoadTrades(ctx context.Context, records []record.Record, workers int) error {
	if err := s.prepareLoad(ctx); err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	if err := s.copyTrades(ctx, records, workers); err != nil {
		return fmt.Errorf("store: copy: %w", err)
	}
	if err := s.finalizeLoad(ctx); err != nil {
		return fmt.Errorf("store: finalize: %w", err)
	}
	return nil
}

// prepareLoad drops the primary key and the (symbol, timestamp)
// secondary index (if present), then truncates the trades table so a
// rerun starts from a clean slate. Dropping both indexes before the
// parallel COPY avoids index maintenance on every inserted row.
func (s *Store) prepareLoad(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DROP INDEX IF EXISTS idx_trades_symbol_timestamp`); err != nil {
		return fmt.Errorf("drop secondary index: %w", err)
	}
	if _, err := conn.Exec(ctx, `ALTER TABLE trades DROP CONSTRAINT IF EXISTS trades_pkey`); err != nil {
		return fmt.Errorf("drop primary key: %w", err)
	}
	if _, err := conn.Exec(ctx, `TRUNCATE TABLE trades`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

// copyTrades partitions records into workers contiguous spans and
// streams each through its own CopyFrom call via a pool.Pool, then
// awaits every future explicitly: Pool.Wait alone would only report
// that tasks finished, not whether any of them failed.
func (s *Store) copyTrades(ctx context.Context, records []record.Record, workers int) error {
	spans := Partition(len(records), workers)
	p := pool.New(workers)
	defer p.Close()

	futures := make([]*pool.Future[int64], 0, len(spans))
	for _, span := range spans {
		span := span
		futures = append(futures, pool.Submit(p, func() (int64, error) {
			if span.Count == 0 {
				return 0, nil
			}
			conn, err := s.pool.Acquire(ctx)
			if err != nil {
				return 0, err
			}
			defer conn.Release()

			src := &tradeCopySource{records: records[span.Offset : span.Offset+span.Count]}
			n, err := conn.Conn().CopyFrom(ctx, pgx.Identifier{"trades"}, tradeColumns, src)
			return n, err
		}))
	}

	var total int64
	var firstErr error
	for _, f := range futures {
		n, err := f.Get()
		total += n
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return firstErr
	}
	log.Printf("store: copied %d trade rows across %d workers", total, workers)
	return nil
}

// finalizeLoad restores the primary key and both secondary indexes,
// then analyzes. ADD PRIMARY KEY will surface a ConstraintFailure-class
// error if phase 2 introduced a duplicate trade_id; the caller decides
// whether to redo the load. The (symbol, timestamp) index on trades and
// the (symbol, computed_at) index on indicators must exist after
// finalize; the indicators index is also created at InitSchema time, so
// this is an idempotent IF NOT EXISTS recreate here, not a first
// creation.
func (s *Store) finalizeLoad(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `ALTER TABLE trades ADD PRIMARY KEY (trade_id)`); err != nil {
		return fmt.Errorf("add primary key: %w", err)
	}
	if _, err := conn.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_trades_symbol_timestamp ON trades (symbol, timestamp)`); err != nil {
		return fmt.Errorf("create secondary index: %w", err)
	}
	if _, err := conn.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_indicators_symbol_computed_at ON indicators (symbol, computed_at)`); err != nil {
		return fmt.Errorf("create indicators secondary index: %w", err)
	}
	if _, err := conn.Exec(ctx, `ANALYZE trades`); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}

// InsertIndicators appends one row per IndicatorRow using the
// parameterized statement with $1..$6 bound in (symbol, computed_at,
// sma, rsi, vwap, period) order, batched in a single round trip.
func (s *Store) InsertIndicators(ctx context.Context, rows []record.IndicatorRow) error {
	if len(rows) == 0 {
		return nil
	}
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertIndicatorSQL, r.Symbol, r.ComputedAt, r.SMA, r.RSI, r.VWAP, r.Period)
	}

	results := conn.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert indicator row: %w", err)
		}
	}
	return nil
}

// CountTrades and CountIndicators support the end-to-end scenario:
// rerunning the pipeline leaves trades at the input count (truncate in
// prepare) while indicators accumulates across runs.
func (s *Store) CountTrades(ctx context.Context) (int64, error) {
	return s.count(ctx, "trades")
}

func (s *Store) CountIndicators(ctx context.Context) (int64, error) {
	return s.count(ctx, "indicators")
}

func (s *Store) count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count %s: %w", table, err)
	}
	return n, nil
}
