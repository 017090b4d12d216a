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

package gostate

import (
	"context"
)

// Package gostate defines the core interfaces and types for the GoState library.
//
// GoState is a keyed-state and data-view library for incremental aggregation in Go,
// designed so that the same accumulator code runs unchanged whether its state lives in
// process memory or in an external store.
//
// This file contains the primary interfaces for iteration, keyed list storage,
// element encoding, and data views.

// Iterator streams the elements of a view in order.
// Implementations return io.EOF once the sequence is exhausted. An iterator reflects
// the contents as of the call that produced it; it is not required to be restartable.
type Iterator[T any] interface {
	// Next returns the next element or io.EOF when no more elements are available.
	Next(ctx context.Context) (T, error)
}

// ListStore defines the durable, key-scoped list storage consumed by durable-backed
// views. Each key owns an independent ordered list; ordering across keys is undefined.
// Implementations may block on external I/O and are expected to be safe for use by
// callers operating on distinct keys.
type ListStore[T comparable] interface {
	// Snapshot returns the current contents for key in append order.
	Snapshot(ctx context.Context, key string) ([]T, error)
	// Append adds value to the end of key's list.
	Append(ctx context.Context, key string, value T) error
	// AppendAll adds all values to the end of key's list, preserving their order.
	AppendAll(ctx context.Context, key string, values []T) error
	// RemoveFirst removes the first element of key's list equal to value.
	// Returns whether a match was found.
	RemoveFirst(ctx context.Context, key string, value T) (bool, error)
	// ReplaceAll discards key's list and replaces it with values.
	ReplaceAll(ctx context.Context, key string, values []T) error
	// Clear removes all elements for key.
	Clear(ctx context.Context, key string) error
}

// Codec encodes elements for storage and decodes them back.
// The encoded form is an internal representation: equality and hashing observed
// through a view always use the external (Go-visible) value, never the bytes a
// codec produces. Stores that match elements by encoded bytes require the codec
// to be deterministic.
type Codec[T any] interface {
	// Encode serializes value for storage.
	Encode(value T) ([]byte, error)
	// Decode reconstructs a value from its stored form.
	Decode(data []byte) (T, error)
}

// DataView marks a type as a valid, engine-manageable field of an accumulator.
// Concrete views live in the dataview package.
type DataView interface {
	// Clear removes all elements from the view.
	Clear(ctx context.Context) error
}
