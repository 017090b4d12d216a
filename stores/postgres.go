//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoState.
//
// GoState is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoState is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoState. If not, see https://www.gnu.org/licenses/.

package stores

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aaronlmathis/gostate"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Package stores provides implementations of gostate.ListStore backed by various
// storage systems.
//
// This file implements a PostgreSQL-backed keyed list store. Each element is one
// row in a (state_key, seq, element) table; seq preserves append order within a
// key and cross-key ordering is undefined.

// PostgresStoreError provides structured error information for Postgres store operations.
type PostgresStoreError struct {
	Op  string // Operation that failed (e.g., "connect", "append", "snapshot")
	Key string // State key being accessed, if applicable
	Err error  // Underlying error
}

func (e *PostgresStoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("postgres store %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("postgres store %s: %v", e.Op, e.Err)
}

func (e *PostgresStoreError) Unwrap() error {
	return e.Err
}

// PostgresStoreStats holds statistics about the Postgres store's activity.
type PostgresStoreStats struct {
	Appends        int64         // Append/AppendAll calls completed
	Snapshots      int64         // Snapshot calls completed
	Removals       int64         // RemoveFirst calls that found a match
	Clears         int64         // Clear calls completed
	Replaces       int64         // ReplaceAll calls completed
	ErrorCount     int64         // Operations that returned an error
	ConnectionTime time.Duration // Time spent establishing the initial connection
	LastOpTime     time.Time     // Time of the most recent operation
}

// PostgresListStoreOptions configures the Postgres list store.
type PostgresListStoreOptions struct {
	DSN             string        // Database connection string
	Table           string        // Table holding list state rows
	ConnMaxLifetime time.Duration // Maximum connection lifetime
	ConnMaxIdleTime time.Duration // Maximum connection idle time
	MaxOpenConns    int           // Maximum open connections
	MaxIdleConns    int           // Maximum idle connections
	PingTimeout     time.Duration // Timeout for the initial connectivity check
	Logger          *zap.Logger   // Optional logger; defaults to a no-op logger
}

// PostgresListStoreOption represents a configuration function for PostgresListStoreOptions.
type PostgresListStoreOption func(*PostgresListStoreOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresListStoreOption {
	return func(opts *PostgresListStoreOptions) {
		opts.DSN = dsn
	}
}

// WithPostgresTable sets the table holding list state rows.
func WithPostgresTable(table string) PostgresListStoreOption {
	return func(opts *PostgresListStoreOptions) {
		opts.Table = table
	}
}

// WithPostgresConnectionPool configures the connection pool.
func WithPostgresConnectionPool(maxOpen, maxIdle int) PostgresListStoreOption {
	return func(opts *PostgresListStoreOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
	}
}

// WithPostgresConnectionTimeout sets connection lifetime and idle timeouts.
func WithPostgresConnectionTimeout(lifetime, idleTime time.Duration) PostgresListStoreOption {
	return func(opts *PostgresListStoreOptions) {
		opts.ConnMaxLifetime = lifetime
		opts.ConnMaxIdleTime = idleTime
	}
}

// WithPostgresPingTimeout sets the timeout for the initial connectivity check.
func WithPostgresPingTimeout(timeout time.Duration) PostgresListStoreOption {
	return func(opts *PostgresListStoreOptions) {
		opts.PingTimeout = timeout
	}
}

// WithPostgresLogger sets the logger used for connection-level events.
func WithPostgresLogger(logger *zap.Logger) PostgresListStoreOption {
	return func(opts *PostgresListStoreOptions) {
		opts.Logger = logger
	}
}

// PostgresListStore implements gostate.ListStore on a PostgreSQL table. Elements
// are stored in their encoded form; RemoveFirst matches on encoded bytes, so the
// codec must be deterministic.
type PostgresListStore[T comparable] struct {
	db     *sql.DB
	codec  gostate.Codec[T]
	table  string
	logger *zap.Logger
	mu     sync.Mutex
	stats  PostgresStoreStats
}

// NewPostgresListStore creates a PostgreSQL-backed keyed list store and verifies
// connectivity. Call Init to create the backing table if it does not exist.
func NewPostgresListStore[T comparable](codec gostate.Codec[T], options ...PostgresListStoreOption) (*PostgresListStore[T], error) {
	opts := (&PostgresListStoreOptions{}).withDefaults()

	for _, option := range options {
		option(opts)
	}

	if codec == nil {
		return nil, &PostgresStoreError{Op: "validate", Err: fmt.Errorf("codec is required")}
	}
	if opts.DSN == "" {
		return nil, &PostgresStoreError{Op: "validate", Err: fmt.Errorf("dsn is required")}
	}
	if !isValidIdentifier(opts.Table) {
		return nil, &PostgresStoreError{Op: "validate", Err: fmt.Errorf("invalid table name: %s", opts.Table)}
	}

	startTime := time.Now()
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &PostgresStoreError{Op: "connect", Err: err}
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &PostgresStoreError{Op: "ping", Err: err}
	}

	opts.Logger.Info("postgres list store ready", zap.String("table", opts.Table))

	return &PostgresListStore[T]{
		db:     db,
		codec:  codec,
		table:  opts.Table,
		logger: opts.Logger,
		stats:  PostgresStoreStats{ConnectionTime: time.Since(startTime)},
	}, nil
}

// withDefaults applies default values to PostgresListStoreOptions.
func (opts *PostgresListStoreOptions) withDefaults() *PostgresListStoreOptions {
	result := &PostgresListStoreOptions{}
	if opts != nil {
		*result = *opts
	}
	if result.Table == "" {
		result.Table = "list_state"
	}
	if result.ConnMaxLifetime <= 0 {
		result.ConnMaxLifetime = 5 * time.Minute
	}
	if result.ConnMaxIdleTime <= 0 {
		result.ConnMaxIdleTime = 1 * time.Minute
	}
	if result.MaxOpenConns <= 0 {
		result.MaxOpenConns = 10
	}
	if result.MaxIdleConns <= 0 {
		result.MaxIdleConns = 5
	}
	if result.PingTimeout <= 0 {
		result.PingTimeout = 10 * time.Second
	}
	if result.Logger == nil {
		result.Logger = zap.NewNop()
	}
	return result
}

// Init creates the backing table and its ordering index if they do not exist.
func (p *PostgresListStore[T]) Init(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		state_key TEXT NOT NULL,
		seq BIGSERIAL PRIMARY KEY,
		element BYTEA NOT NULL
	)`, p.table)
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return p.fail("init", "", err)
	}
	index := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s_key_seq ON %s (state_key, seq)",
		p.table, p.table,
	)
	if _, err := p.db.ExecContext(ctx, index); err != nil {
		return p.fail("init", "", err)
	}
	return nil
}

// Stats returns a snapshot of the store's activity counters.
func (p *PostgresListStore[T]) Stats() PostgresStoreStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Snapshot implements gostate.ListStore.
func (p *PostgresListStore[T]) Snapshot(ctx context.Context, key string) ([]T, error) {
	query := fmt.Sprintf("SELECT element FROM %s WHERE state_key = $1 ORDER BY seq", p.table)
	rows, err := p.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, p.fail("snapshot", key, err)
	}
	defer rows.Close()

	var contents []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, p.fail("snapshot", key, err)
		}
		value, err := p.codec.Decode(data)
		if err != nil {
			return nil, p.fail("snapshot", key, err)
		}
		contents = append(contents, value)
	}
	if err := rows.Err(); err != nil {
		return nil, p.fail("snapshot", key, err)
	}
	p.record(func(s *PostgresStoreStats) { s.Snapshots++ })
	return contents, nil
}

// Append implements gostate.ListStore.
func (p *PostgresListStore[T]) Append(ctx context.Context, key string, value T) error {
	data, err := p.codec.Encode(value)
	if err != nil {
		return p.fail("append", key, err)
	}
	insert := fmt.Sprintf("INSERT INTO %s (state_key, element) VALUES ($1, $2)", p.table)
	if _, err := p.db.ExecContext(ctx, insert, key, data); err != nil {
		return p.fail("append", key, err)
	}
	p.record(func(s *PostgresStoreStats) { s.Appends++ })
	return nil
}

// AppendAll implements gostate.ListStore. All values are inserted in one
// transaction so a failure appends nothing.
func (p *PostgresListStore[T]) AppendAll(ctx context.Context, key string, values []T) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return p.fail("append_all", key, err)
	}
	if err := p.insertAll(ctx, tx, key, values); err != nil {
		tx.Rollback()
		return p.fail("append_all", key, err)
	}
	if err := tx.Commit(); err != nil {
		return p.fail("append_all", key, err)
	}
	p.record(func(s *PostgresStoreStats) { s.Appends++ })
	return nil
}

// RemoveFirst implements gostate.ListStore.
func (p *PostgresListStore[T]) RemoveFirst(ctx context.Context, key string, value T) (bool, error) {
	data, err := p.codec.Encode(value)
	if err != nil {
		return false, p.fail("remove", key, err)
	}
	del := fmt.Sprintf(`DELETE FROM %s WHERE seq = (
		SELECT seq FROM %s WHERE state_key = $1 AND element = $2 ORDER BY seq LIMIT 1
	)`, p.table, p.table)
	result, err := p.db.ExecContext(ctx, del, key, data)
	if err != nil {
		return false, p.fail("remove", key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, p.fail("remove", key, err)
	}
	if affected > 0 {
		p.record(func(s *PostgresStoreStats) { s.Removals++ })
	}
	return affected > 0, nil
}

// ReplaceAll implements gostate.ListStore. The delete and inserts run in one
// transaction so readers never observe a half-replaced list.
func (p *PostgresListStore[T]) ReplaceAll(ctx context.Context, key string, values []T) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return p.fail("replace_all", key, err)
	}
	del := fmt.Sprintf("DELETE FROM %s WHERE state_key = $1", p.table)
	if _, err := tx.ExecContext(ctx, del, key); err != nil {
		tx.Rollback()
		return p.fail("replace_all", key, err)
	}
	if err := p.insertAll(ctx, tx, key, values); err != nil {
		tx.Rollback()
		return p.fail("replace_all", key, err)
	}
	if err := tx.Commit(); err != nil {
		return p.fail("replace_all", key, err)
	}
	p.record(func(s *PostgresStoreStats) { s.Replaces++ })
	return nil
}

// Clear implements gostate.ListStore.
func (p *PostgresListStore[T]) Clear(ctx context.Context, key string) error {
	del := fmt.Sprintf("DELETE FROM %s WHERE state_key = $1", p.table)
	if _, err := p.db.ExecContext(ctx, del, key); err != nil {
		return p.fail("clear", key, err)
	}
	p.record(func(s *PostgresStoreStats) { s.Clears++ })
	return nil
}

// Close releases the underlying connection pool.
func (p *PostgresListStore[T]) Close() error {
	return p.db.Close()
}

func (p *PostgresListStore[T]) insertAll(ctx context.Context, tx *sql.Tx, key string, values []T) error {
	insert := fmt.Sprintf("INSERT INTO %s (state_key, element) VALUES ($1, $2)", p.table)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, value := range values {
		data, err := p.codec.Encode(value)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, key, data); err != nil {
			return err
		}
	}
	return nil
}

func (p *PostgresListStore[T]) record(update func(*PostgresStoreStats)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	update(&p.stats)
	p.stats.LastOpTime = time.Now()
}

func (p *PostgresListStore[T]) fail(op, key string, err error) error {
	p.record(func(s *PostgresStoreStats) { s.ErrorCount++ })
	return &PostgresStoreError{Op: op, Key: key, Err: err}
}

// isValidIdentifier validates a SQL identifier to prevent injection through
// configuration.
func isValidIdentifier(name string) bool {
	for i, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return len(name) > 0 && len(name) <= 63 // PostgreSQL identifier limit
}

var _ gostate.ListStore[string] = (*PostgresListStore[string])(nil)
