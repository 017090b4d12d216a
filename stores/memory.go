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
	"sync"

	"github.com/aaronlmathis/gostate"
)

// Package stores provides implementations of gostate.ListStore backed by various
// storage systems.
//
// This file implements an in-process keyed store. It is the reference
// implementation of the store contract, used in tests and local runs.

// MemoryListStore keeps every key's list in process memory.
// Unlike a view, the store is shared across keys and guards its map with a mutex so
// accumulators for distinct keys can live on different goroutines.
type MemoryListStore[T comparable] struct {
	mu    sync.Mutex
	lists map[string][]T
}

// NewMemoryListStore creates an empty in-memory keyed list store.
func NewMemoryListStore[T comparable]() *MemoryListStore[T] {
	return &MemoryListStore[T]{lists: make(map[string][]T)}
}

// Snapshot implements gostate.ListStore.
func (m *MemoryListStore[T]) Snapshot(ctx context.Context, key string) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contents := m.lists[key]
	out := make([]T, len(contents))
	copy(out, contents)
	return out, nil
}

// Append implements gostate.ListStore.
func (m *MemoryListStore[T]) Append(ctx context.Context, key string, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[key] = append(m.lists[key], value)
	return nil
}

// AppendAll implements gostate.ListStore.
func (m *MemoryListStore[T]) AppendAll(ctx context.Context, key string, values []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[key] = append(m.lists[key], values...)
	return nil
}

// RemoveFirst implements gostate.ListStore.
func (m *MemoryListStore[T]) RemoveFirst(ctx context.Context, key string, value T) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contents := m.lists[key]
	for i, existing := range contents {
		if existing == value {
			m.lists[key] = append(contents[:i], contents[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ReplaceAll implements gostate.ListStore.
func (m *MemoryListStore[T]) ReplaceAll(ctx context.Context, key string, values []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	replacement := make([]T, len(values))
	copy(replacement, values)
	m.lists[key] = replacement
	return nil
}

// Clear implements gostate.ListStore.
func (m *MemoryListStore[T]) Clear(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lists, key)
	return nil
}

// Keys returns the keys currently holding a list, in unspecified order.
func (m *MemoryListStore[T]) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.lists))
	for key := range m.lists {
		keys = append(keys, key)
	}
	return keys
}

var _ gostate.ListStore[string] = (*MemoryListStore[string])(nil)
