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
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aaronlmathis/gostate"
)

// Package stores provides implementations of gostate.ListStore backed by various
// storage systems.
//
// This file implements a Redis-backed keyed list store on native Redis lists.
// Appends map to RPUSH, snapshots to LRANGE, removal to LREM, and bulk
// replacement to a DEL+RPUSH transaction.

// RedisStoreError provides structured error information for Redis store operations.
type RedisStoreError struct {
	Op  string // Operation that failed (e.g., "append", "snapshot", "replace_all")
	Key string // State key being accessed
	Err error  // Underlying error
}

func (e *RedisStoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("redis store %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("redis store %s: %v", e.Op, e.Err)
}

func (e *RedisStoreError) Unwrap() error {
	return e.Err
}

// RedisStoreStats holds statistics about the Redis store's activity.
type RedisStoreStats struct {
	Appends    int64     // Append/AppendAll calls completed
	Snapshots  int64     // Snapshot calls completed
	Removals   int64     // RemoveFirst calls that found a match
	Clears     int64     // Clear calls completed
	Replaces   int64     // ReplaceAll calls completed
	ErrorCount int64     // Operations that returned an error
	LastOpTime time.Time // Time of the most recent operation
}

// RedisListStoreOptions configures the Redis list store.
type RedisListStoreOptions struct {
	Addr         string        // Redis server address (host:port)
	Password     string        // Optional AUTH password
	DB           int           // Redis logical database
	KeyPrefix    string        // Prefix applied to every state key
	DialTimeout  time.Duration // Connection dial timeout
	ReadTimeout  time.Duration // Per-command read timeout
	WriteTimeout time.Duration // Per-command write timeout
	PoolSize     int           // Connection pool size
	Client       *redis.Client // Pre-built client; overrides the fields above
	Logger       *zap.Logger   // Optional logger; defaults to a no-op logger
}

// RedisListStoreOption represents a configuration function for RedisListStoreOptions.
type RedisListStoreOption func(*RedisListStoreOptions)

// WithRedisAddr sets the Redis server address.
func WithRedisAddr(addr string) RedisListStoreOption {
	return func(opts *RedisListStoreOptions) {
		opts.Addr = addr
	}
}

// WithRedisAuth sets the AUTH password and logical database.
func WithRedisAuth(password string, db int) RedisListStoreOption {
	return func(opts *RedisListStoreOptions) {
		opts.Password = password
		opts.DB = db
	}
}

// WithRedisKeyPrefix sets the prefix applied to every state key.
func WithRedisKeyPrefix(prefix string) RedisListStoreOption {
	return func(opts *RedisListStoreOptions) {
		opts.KeyPrefix = prefix
	}
}

// WithRedisTimeouts sets the dial, read, and write timeouts.
func WithRedisTimeouts(dial, read, write time.Duration) RedisListStoreOption {
	return func(opts *RedisListStoreOptions) {
		opts.DialTimeout = dial
		opts.ReadTimeout = read
		opts.WriteTimeout = write
	}
}

// WithRedisPoolSize sets the connection pool size.
func WithRedisPoolSize(size int) RedisListStoreOption {
	return func(opts *RedisListStoreOptions) {
		opts.PoolSize = size
	}
}

// WithRedisClient supplies a pre-built client. The store will not close it.
func WithRedisClient(client *redis.Client) RedisListStoreOption {
	return func(opts *RedisListStoreOptions) {
		opts.Client = client
	}
}

// WithRedisLogger sets the logger used for connection-level events.
func WithRedisLogger(logger *zap.Logger) RedisListStoreOption {
	return func(opts *RedisListStoreOptions) {
		opts.Logger = logger
	}
}

// RedisListStore implements gostate.ListStore on Redis lists. Elements are stored
// in their encoded form; RemoveFirst matches on encoded bytes, so the codec must be
// deterministic.
type RedisListStore[T comparable] struct {
	client      *redis.Client
	codec       gostate.Codec[T]
	keyPrefix   string
	ownedClient bool
	logger      *zap.Logger
	mu          sync.Mutex
	stats       RedisStoreStats
}

// NewRedisListStore creates a Redis-backed keyed list store.
// codec encodes elements for storage and must be deterministic. Returns a
// ready-to-use store or an error.
func NewRedisListStore[T comparable](codec gostate.Codec[T], options ...RedisListStoreOption) (*RedisListStore[T], error) {
	opts := (&RedisListStoreOptions{}).withDefaults()

	for _, option := range options {
		option(opts)
	}

	if codec == nil {
		return nil, &RedisStoreError{Op: "validate", Err: fmt.Errorf("codec is required")}
	}
	if opts.Client == nil && opts.Addr == "" {
		return nil, &RedisStoreError{Op: "validate", Err: fmt.Errorf("addr or client is required")}
	}

	client := opts.Client
	owned := false
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:         opts.Addr,
			Password:     opts.Password,
			DB:           opts.DB,
			DialTimeout:  opts.DialTimeout,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			PoolSize:     opts.PoolSize,
		})
		owned = true
	}

	opts.Logger.Info("redis list store ready",
		zap.String("addr", opts.Addr),
		zap.String("key_prefix", opts.KeyPrefix),
	)

	return &RedisListStore[T]{
		client:      client,
		codec:       codec,
		keyPrefix:   opts.KeyPrefix,
		ownedClient: owned,
		logger:      opts.Logger,
	}, nil
}

// withDefaults applies default values to RedisListStoreOptions.
func (opts *RedisListStoreOptions) withDefaults() *RedisListStoreOptions {
	result := &RedisListStoreOptions{}
	if opts != nil {
		*result = *opts
	}
	if result.DialTimeout <= 0 {
		result.DialTimeout = 5 * time.Second
	}
	if result.ReadTimeout <= 0 {
		result.ReadTimeout = 3 * time.Second
	}
	if result.WriteTimeout <= 0 {
		result.WriteTimeout = 3 * time.Second
	}
	if result.PoolSize <= 0 {
		result.PoolSize = 10
	}
	if result.Logger == nil {
		result.Logger = zap.NewNop()
	}
	return result
}

// Stats returns a snapshot of the store's activity counters.
func (r *RedisListStore[T]) Stats() RedisStoreStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Snapshot implements gostate.ListStore.
func (r *RedisListStore[T]) Snapshot(ctx context.Context, key string) ([]T, error) {
	raw, err := r.client.LRange(ctx, r.storageKey(key), 0, -1).Result()
	if err != nil {
		return nil, r.fail("snapshot", key, err)
	}
	contents := make([]T, 0, len(raw))
	for _, item := range raw {
		value, err := r.codec.Decode([]byte(item))
		if err != nil {
			return nil, r.fail("snapshot", key, err)
		}
		contents = append(contents, value)
	}
	r.record(func(s *RedisStoreStats) { s.Snapshots++ })
	return contents, nil
}

// Append implements gostate.ListStore.
func (r *RedisListStore[T]) Append(ctx context.Context, key string, value T) error {
	data, err := r.codec.Encode(value)
	if err != nil {
		return r.fail("append", key, err)
	}
	if err := r.client.RPush(ctx, r.storageKey(key), data).Err(); err != nil {
		return r.fail("append", key, err)
	}
	r.record(func(s *RedisStoreStats) { s.Appends++ })
	return nil
}

// AppendAll implements gostate.ListStore.
func (r *RedisListStore[T]) AppendAll(ctx context.Context, key string, values []T) error {
	if len(values) == 0 {
		return nil
	}
	encoded, err := r.encodeAll(values)
	if err != nil {
		return r.fail("append_all", key, err)
	}
	if err := r.client.RPush(ctx, r.storageKey(key), encoded...).Err(); err != nil {
		return r.fail("append_all", key, err)
	}
	r.record(func(s *RedisStoreStats) { s.Appends++ })
	return nil
}

// RemoveFirst implements gostate.ListStore.
func (r *RedisListStore[T]) RemoveFirst(ctx context.Context, key string, value T) (bool, error) {
	data, err := r.codec.Encode(value)
	if err != nil {
		return false, r.fail("remove", key, err)
	}
	removed, err := r.client.LRem(ctx, r.storageKey(key), 1, data).Result()
	if err != nil {
		return false, r.fail("remove", key, err)
	}
	if removed > 0 {
		r.record(func(s *RedisStoreStats) { s.Removals++ })
	}
	return removed > 0, nil
}

// ReplaceAll implements gostate.ListStore. The delete and re-push run in one
// MULTI/EXEC transaction so readers never observe a half-replaced list.
func (r *RedisListStore[T]) ReplaceAll(ctx context.Context, key string, values []T) error {
	encoded, err := r.encodeAll(values)
	if err != nil {
		return r.fail("replace_all", key, err)
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.storageKey(key))
	if len(encoded) > 0 {
		pipe.RPush(ctx, r.storageKey(key), encoded...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return r.fail("replace_all", key, err)
	}
	r.record(func(s *RedisStoreStats) { s.Replaces++ })
	return nil
}

// Clear implements gostate.ListStore.
func (r *RedisListStore[T]) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.storageKey(key)).Err(); err != nil {
		return r.fail("clear", key, err)
	}
	r.record(func(s *RedisStoreStats) { s.Clears++ })
	return nil
}

// Close releases the underlying client if the store created it.
func (r *RedisListStore[T]) Close() error {
	if !r.ownedClient {
		return nil
	}
	return r.client.Close()
}

func (r *RedisListStore[T]) storageKey(key string) string {
	return r.keyPrefix + key
}

func (r *RedisListStore[T]) encodeAll(values []T) ([]interface{}, error) {
	encoded := make([]interface{}, 0, len(values))
	for _, value := range values {
		data, err := r.codec.Encode(value)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, data)
	}
	return encoded, nil
}

func (r *RedisListStore[T]) record(update func(*RedisStoreStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	update(&r.stats)
	r.stats.LastOpTime = time.Now()
}

func (r *RedisListStore[T]) fail(op, key string, err error) error {
	r.record(func(s *RedisStoreStats) { s.ErrorCount++ })
	return &RedisStoreError{Op: op, Key: key, Err: err}
}

var _ gostate.ListStore[string] = (*RedisListStore[string])(nil)
