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

package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/gostate"
	"github.com/aaronlmathis/gostate/dataview"
)

// Package snapshot exports view contents to offline files for inspection and
// archival. It is an export utility, not a recovery mechanism: nothing here reads
// snapshots back into live state.
//
// This file implements a Parquet exporter. Each element becomes one row carrying
// its position and encoded form, so the file preserves the view's order.

// ParquetError wraps Parquet snapshot failures with context about the operation.
type ParquetError struct {
	Op  string // Operation that failed (e.g., "open_file", "encode", "write")
	Err error  // Underlying error
}

func (e *ParquetError) Error() string {
	return fmt.Sprintf("parquet snapshot %s: %v", e.Op, e.Err)
}

func (e *ParquetError) Unwrap() error {
	return e.Err
}

// ParquetStats holds statistics about the snapshotter's activity.
type ParquetStats struct {
	SnapshotsWritten int64     // Files written
	ElementsWritten  int64     // Total rows written across files
	LastWriteTime    time.Time // Time of the most recent write
}

// ParquetSnapshotterOptions configures the Parquet snapshotter.
type ParquetSnapshotterOptions struct {
	Compression compress.Compression // Parquet compression algorithm
	Metadata    map[string]string    // Extra key/value pairs stored in the file schema
}

// ParquetOption represents a configuration function for ParquetSnapshotterOptions.
type ParquetOption func(*ParquetSnapshotterOptions)

// WithCompression sets the Parquet compression algorithm.
func WithCompression(compression compress.Compression) ParquetOption {
	return func(opts *ParquetSnapshotterOptions) {
		opts.Compression = compression
	}
}

// WithMetadata adds key/value metadata to every written file.
func WithMetadata(metadata map[string]string) ParquetOption {
	return func(opts *ParquetSnapshotterOptions) {
		if opts.Metadata == nil {
			opts.Metadata = make(map[string]string)
		}
		for k, v := range metadata {
			opts.Metadata[k] = v
		}
	}
}

// ParquetSnapshotter writes the contents of list views to Parquet files, one row
// per element in view order. Columns: pos (BIGINT) and element (BINARY, the codec's
// encoding). The view's state key is recorded in the schema metadata.
type ParquetSnapshotter[T comparable] struct {
	codec     gostate.Codec[T]
	opts      *ParquetSnapshotterOptions
	allocator memory.Allocator
	mu        sync.Mutex
	stats     ParquetStats
}

// NewParquetSnapshotter creates a Parquet snapshotter that encodes elements with codec.
func NewParquetSnapshotter[T comparable](codec gostate.Codec[T], options ...ParquetOption) (*ParquetSnapshotter[T], error) {
	opts := (&ParquetSnapshotterOptions{}).withDefaults()

	for _, option := range options {
		option(opts)
	}

	if codec == nil {
		return nil, &ParquetError{Op: "validate", Err: fmt.Errorf("codec is required")}
	}

	return &ParquetSnapshotter[T]{
		codec:     codec,
		opts:      opts,
		allocator: memory.NewGoAllocator(),
	}, nil
}

// withDefaults applies default values to ParquetSnapshotterOptions.
func (opts *ParquetSnapshotterOptions) withDefaults() *ParquetSnapshotterOptions {
	result := &ParquetSnapshotterOptions{}
	if opts != nil {
		*result = *opts
	}
	if result.Compression == 0 {
		result.Compression = compress.Codecs.Snappy
	}
	if result.Metadata == nil {
		result.Metadata = make(map[string]string)
	}
	return result
}

// Stats returns a snapshot of the snapshotter's activity counters.
func (w *ParquetSnapshotter[T]) Stats() ParquetStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Write exports the current contents of view to a Parquet file at filename.
// Reading a durable-backed view may fail with a gostate.StateAccessError, which is
// returned unwrapped so callers can distinguish store failures from file failures.
func (w *ParquetSnapshotter[T]) Write(ctx context.Context, view *dataview.ListView[T], filename string) error {
	contents, err := view.GetList(ctx)
	if err != nil {
		return err
	}

	encoded := make([][]byte, 0, len(contents))
	for _, value := range contents {
		data, err := w.codec.Encode(value)
		if err != nil {
			return &ParquetError{Op: "encode", Err: err}
		}
		encoded = append(encoded, data)
	}

	dir := filepath.Dir(filename)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &ParquetError{Op: "create_directory", Err: err}
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return &ParquetError{Op: "open_file", Err: err}
	}

	schema := w.buildSchema(view.Key())
	props := parquet.NewWriterProperties(parquet.WithCompression(w.opts.Compression))
	writer, err := pqarrow.NewFileWriter(schema, file, props, pqarrow.DefaultWriterProps())
	if err != nil {
		file.Close()
		return &ParquetError{Op: "create_writer", Err: err}
	}

	record := w.buildRecord(schema, encoded)
	defer record.Release()

	if err := writer.Write(record); err != nil {
		writer.Close()
		return &ParquetError{Op: "write", Err: err}
	}
	if err := writer.Close(); err != nil {
		return &ParquetError{Op: "close_writer", Err: err}
	}

	w.mu.Lock()
	w.stats.SnapshotsWritten++
	w.stats.ElementsWritten += int64(len(encoded))
	w.stats.LastWriteTime = time.Now()
	w.mu.Unlock()

	return nil
}

// buildSchema constructs the two-column schema, carrying the state key and any
// configured metadata.
func (w *ParquetSnapshotter[T]) buildSchema(stateKey string) *arrow.Schema {
	keys := []string{"state_key"}
	values := []string{stateKey}
	for k, v := range w.opts.Metadata {
		keys = append(keys, k)
		values = append(values, v)
	}
	md := arrow.NewMetadata(keys, values)

	fields := []arrow.Field{
		{Name: "pos", Type: arrow.PrimitiveTypes.Int64},
		{Name: "element", Type: arrow.BinaryTypes.Binary},
	}
	return arrow.NewSchema(fields, &md)
}

// buildRecord converts the encoded elements into a single Arrow record batch.
func (w *ParquetSnapshotter[T]) buildRecord(schema *arrow.Schema, encoded [][]byte) arrow.Record {
	posBuilder := array.NewInt64Builder(w.allocator)
	defer posBuilder.Release()
	elementBuilder := array.NewBinaryBuilder(w.allocator, arrow.BinaryTypes.Binary)
	defer elementBuilder.Release()

	for i, data := range encoded {
		posBuilder.Append(int64(i))
		elementBuilder.Append(data)
	}

	posArray := posBuilder.NewArray()
	defer posArray.Release()
	elementArray := elementBuilder.NewArray()
	defer elementArray.Release()

	return array.NewRecord(schema, []arrow.Array{posArray, elementArray}, int64(len(encoded)))
}
