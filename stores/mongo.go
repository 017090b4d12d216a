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
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/aaronlmathis/gostate"
)

// Package stores provides implementations of gostate.ListStore backed by various
// storage systems.
//
// This file implements a MongoDB-backed keyed list store. Each key maps to one
// document holding the ordered element array; appends use $push so the server
// preserves append order within the key.

// MongoStoreError provides structured error information for MongoDB store operations.
type MongoStoreError struct {
	Op  string // Operation that failed (e.g., "connect", "append", "snapshot")
	Key string // State key being accessed, if applicable
	Err error  // Underlying error
}

func (e *MongoStoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("mongo store %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("mongo store %s: %v", e.Op, e.Err)
}

func (e *MongoStoreError) Unwrap() error {
	return e.Err
}

// MongoStoreStats holds statistics about the Mongo store's activity.
type MongoStoreStats struct {
	Appends    int64     // Append/AppendAll calls completed
	Snapshots  int64     // Snapshot calls completed
	Removals   int64     // RemoveFirst calls that found a match
	Clears     int64     // Clear calls completed
	Replaces   int64     // ReplaceAll calls completed
	ErrorCount int64     // Operations that returned an error
	LastOpTime time.Time // Time of the most recent operation
}

// MongoListStoreOptions configures the Mongo list store.
type MongoListStoreOptions struct {
	URI         string        // MongoDB connection URI
	Database    string        // Database name
	Collection  string        // Collection holding one document per state key
	Timeout     time.Duration // Timeout for connect and ping
	MaxPoolSize uint64        // Connection pool size
	Logger      *zap.Logger   // Optional logger; defaults to a no-op logger
}

// MongoListStoreOption represents a configuration function for MongoListStoreOptions.
type MongoListStoreOption func(*MongoListStoreOptions)

// WithMongoURI sets the MongoDB connection URI.
func WithMongoURI(uri string) MongoListStoreOption {
	return func(opts *MongoListStoreOptions) {
		opts.URI = uri
	}
}

// WithMongoNamespace sets the database and collection holding list state.
func WithMongoNamespace(database, collection string) MongoListStoreOption {
	return func(opts *MongoListStoreOptions) {
		opts.Database = database
		opts.Collection = collection
	}
}

// WithMongoTimeout sets the timeout for connect and ping.
func WithMongoTimeout(timeout time.Duration) MongoListStoreOption {
	return func(opts *MongoListStoreOptions) {
		opts.Timeout = timeout
	}
}

// WithMongoPoolSize sets the connection pool size.
func WithMongoPoolSize(size uint64) MongoListStoreOption {
	return func(opts *MongoListStoreOptions) {
		opts.MaxPoolSize = size
	}
}

// WithMongoLogger sets the logger used for connection-level events.
func WithMongoLogger(logger *zap.Logger) MongoListStoreOption {
	return func(opts *MongoListStoreOptions) {
		opts.Logger = logger
	}
}

// listDocument is the persisted shape of one key's list.
type listDocument struct {
	Key      string   `bson:"_id"`
	Elements [][]byte `bson:"elements"`
}

// MongoListStore implements gostate.ListStore on a MongoDB collection. Elements
// are stored in their encoded form; RemoveFirst matches on encoded bytes, so the
// codec must be deterministic.
type MongoListStore[T comparable] struct {
	client *mongo.Client
	coll   *mongo.Collection
	codec  gostate.Codec[T]
	logger *zap.Logger
	mu     sync.Mutex
	stats  MongoStoreStats
}

// NewMongoListStore creates a MongoDB-backed keyed list store and verifies
// connectivity. Returns a ready-to-use store or an error.
func NewMongoListStore[T comparable](codec gostate.Codec[T], opt ...MongoListStoreOption) (*MongoListStore[T], error) {
	opts := (&MongoListStoreOptions{}).withDefaults()

	for _, option := range opt {
		option(opts)
	}

	if codec == nil {
		return nil, &MongoStoreError{Op: "validate", Err: fmt.Errorf("codec is required")}
	}
	if opts.URI == "" {
		return nil, &MongoStoreError{Op: "validate", Err: fmt.Errorf("uri is required")}
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, &MongoStoreError{Op: "connect", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, &MongoStoreError{Op: "ping", Err: err}
	}

	opts.Logger.Info("mongo list store ready",
		zap.String("database", opts.Database),
		zap.String("collection", opts.Collection),
	)

	return &MongoListStore[T]{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		codec:  codec,
		logger: opts.Logger,
	}, nil
}

// withDefaults applies default values to MongoListStoreOptions.
func (opts *MongoListStoreOptions) withDefaults() *MongoListStoreOptions {
	result := &MongoListStoreOptions{}
	if opts != nil {
		*result = *opts
	}
	if result.Database == "" {
		result.Database = "gostate"
	}
	if result.Collection == "" {
		result.Collection = "list_state"
	}
	if result.Timeout <= 0 {
		result.Timeout = 10 * time.Second
	}
	if result.Logger == nil {
		result.Logger = zap.NewNop()
	}
	return result
}

// Stats returns a snapshot of the store's activity counters.
func (m *MongoListStore[T]) Stats() MongoStoreStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Snapshot implements gostate.ListStore.
func (m *MongoListStore[T]) Snapshot(ctx context.Context, key string) ([]T, error) {
	doc, err := m.load(ctx, key)
	if err != nil {
		return nil, m.fail("snapshot", key, err)
	}
	contents := make([]T, 0, len(doc.Elements))
	for _, data := range doc.Elements {
		value, err := m.codec.Decode(data)
		if err != nil {
			return nil, m.fail("snapshot", key, err)
		}
		contents = append(contents, value)
	}
	m.record(func(s *MongoStoreStats) { s.Snapshots++ })
	return contents, nil
}

// Append implements gostate.ListStore.
func (m *MongoListStore[T]) Append(ctx context.Context, key string, value T) error {
	data, err := m.codec.Encode(value)
	if err != nil {
		return m.fail("append", key, err)
	}
	update := bson.M{"$push": bson.M{"elements": data}}
	if _, err := m.coll.UpdateByID(ctx, key, update, options.Update().SetUpsert(true)); err != nil {
		return m.fail("append", key, err)
	}
	m.record(func(s *MongoStoreStats) { s.Appends++ })
	return nil
}

// AppendAll implements gostate.ListStore. A single $each push keeps the append atomic.
func (m *MongoListStore[T]) AppendAll(ctx context.Context, key string, values []T) error {
	if len(values) == 0 {
		return nil
	}
	encoded := make([][]byte, 0, len(values))
	for _, value := range values {
		data, err := m.codec.Encode(value)
		if err != nil {
			return m.fail("append_all", key, err)
		}
		encoded = append(encoded, data)
	}
	update := bson.M{"$push": bson.M{"elements": bson.M{"$each": encoded}}}
	if _, err := m.coll.UpdateByID(ctx, key, update, options.Update().SetUpsert(true)); err != nil {
		return m.fail("append_all", key, err)
	}
	m.record(func(s *MongoStoreStats) { s.Appends++ })
	return nil
}

// RemoveFirst implements gostate.ListStore. MongoDB's $pull removes every match,
// so the first occurrence is located client-side and the array rewritten. The
// single-writer-per-key ownership model makes the read-modify-write safe.
func (m *MongoListStore[T]) RemoveFirst(ctx context.Context, key string, value T) (bool, error) {
	target, err := m.codec.Encode(value)
	if err != nil {
		return false, m.fail("remove", key, err)
	}
	doc, err := m.load(ctx, key)
	if err != nil {
		return false, m.fail("remove", key, err)
	}
	for i, data := range doc.Elements {
		if bytes.Equal(data, target) {
			remaining := append(doc.Elements[:i], doc.Elements[i+1:]...)
			update := bson.M{"$set": bson.M{"elements": remaining}}
			if _, err := m.coll.UpdateByID(ctx, key, update); err != nil {
				return false, m.fail("remove", key, err)
			}
			m.record(func(s *MongoStoreStats) { s.Removals++ })
			return true, nil
		}
	}
	return false, nil
}

// ReplaceAll implements gostate.ListStore.
func (m *MongoListStore[T]) ReplaceAll(ctx context.Context, key string, values []T) error {
	encoded := make([][]byte, 0, len(values))
	for _, value := range values {
		data, err := m.codec.Encode(value)
		if err != nil {
			return m.fail("replace_all", key, err)
		}
		encoded = append(encoded, data)
	}
	doc := listDocument{Key: key, Elements: encoded}
	if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true)); err != nil {
		return m.fail("replace_all", key, err)
	}
	m.record(func(s *MongoStoreStats) { s.Replaces++ })
	return nil
}

// Clear implements gostate.ListStore.
func (m *MongoListStore[T]) Clear(ctx context.Context, key string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return m.fail("clear", key, err)
	}
	m.record(func(s *MongoStoreStats) { s.Clears++ })
	return nil
}

// Close disconnects the underlying client.
func (m *MongoListStore[T]) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// load fetches the document for key, returning an empty document when none exists.
func (m *MongoListStore[T]) load(ctx context.Context, key string) (listDocument, error) {
	var doc listDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return listDocument{Key: key}, nil
	}
	if err != nil {
		return listDocument{}, err
	}
	return doc, nil
}

func (m *MongoListStore[T]) record(update func(*MongoStoreStats)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	update(&m.stats)
	m.stats.LastOpTime = time.Now()
}

func (m *MongoListStore[T]) fail(op, key string, err error) error {
	m.record(func(s *MongoStoreStats) { s.ErrorCount++ })
	return &MongoStoreError{Op: op, Key: key, Err: err}
}

var _ gostate.ListStore[string] = (*MongoListStore[string])(nil)
