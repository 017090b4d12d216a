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

package dataview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/gostate"
)

// mockListStore is a keyed in-memory store with failure toggles for testing
// durable views without an external system.
type mockListStore[T comparable] struct {
	mu    sync.Mutex
	lists map[string][]T

	shouldFailSnapshot bool
	shouldFailAppend   bool
	shouldFailRemove   bool
	shouldFailReplace  bool
	shouldFailClear    bool
}

func newMockListStore[T comparable]() *mockListStore[T] {
	return &mockListStore[T]{lists: make(map[string][]T)}
}

func (m *mockListStore[T]) Snapshot(ctx context.Context, key string) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailSnapshot {
		return nil, fmt.Errorf("mock snapshot failure")
	}
	snapshot := make([]T, len(m.lists[key]))
	copy(snapshot, m.lists[key])
	return snapshot, nil
}

func (m *mockListStore[T]) Append(ctx context.Context, key string, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailAppend {
		return fmt.Errorf("mock append failure")
	}
	m.lists[key] = append(m.lists[key], value)
	return nil
}

func (m *mockListStore[T]) AppendAll(ctx context.Context, key string, values []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailAppend {
		return fmt.Errorf("mock append failure")
	}
	m.lists[key] = append(m.lists[key], values...)
	return nil
}

func (m *mockListStore[T]) RemoveFirst(ctx context.Context, key string, value T) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailRemove {
		return false, fmt.Errorf("mock remove failure")
	}
	list := m.lists[key]
	for i, existing := range list {
		if existing == value {
			m.lists[key] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockListStore[T]) ReplaceAll(ctx context.Context, key string, values []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailReplace {
		return fmt.Errorf("mock replace failure")
	}
	replacement := make([]T, len(values))
	copy(replacement, values)
	m.lists[key] = replacement
	return nil
}

func (m *mockListStore[T]) Clear(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailClear {
		return fmt.Errorf("mock clear failure")
	}
	delete(m.lists, key)
	return nil
}

// TestListView_AddPreservesOrder tests that elements come back in insertion order.
func TestListView_AddPreservesOrder(t *testing.T) {
	ctx := context.Background()
	view := NewListView[string]()

	for _, value := range []string{"a", "b", "c"} {
		require.NoError(t, view.Add(ctx, value))
	}

	contents, err := view.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, contents)
}

// TestListView_AddAllMatchesRepeatedAdd tests that AddAll behaves like one Add per element.
func TestListView_AddAllMatchesRepeatedAdd(t *testing.T) {
	ctx := context.Background()

	single := NewListView[int]()
	for _, value := range []int{1, 2, 3} {
		require.NoError(t, single.Add(ctx, value))
	}

	bulk := NewListView[int]()
	require.NoError(t, bulk.AddAll(ctx, []int{1, 2, 3}))

	equal, err := single.Equal(ctx, bulk)
	require.NoError(t, err)
	assert.True(t, equal)

	// Empty bulk add is a no-op.
	require.NoError(t, bulk.AddAll(ctx, nil))
	contents, err := bulk.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, contents)
}

// TestListView_NilElementRejected tests nil rejection for Add, AddAll, and SetList.
func TestListView_NilElementRejected(t *testing.T) {
	ctx := context.Background()
	view := NewListView[*string]()
	value := "x"

	err := view.Add(ctx, nil)
	var invalidErr *gostate.InvalidElementError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "add", invalidErr.Op)

	// A failed bulk add must leave the view untouched.
	err = view.AddAll(ctx, []*string{&value, nil})
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "add_all", invalidErr.Op)
	assert.Equal(t, 1, invalidErr.Index)

	contents, err := view.GetList(ctx)
	require.NoError(t, err)
	assert.Empty(t, contents)

	err = view.SetList(ctx, []*string{nil})
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "set_list", invalidErr.Op)
}

// TestListView_RemoveFirstMatchOnly tests that Remove takes out only the first duplicate.
func TestListView_RemoveFirstMatchOnly(t *testing.T) {
	ctx := context.Background()
	view := NewListView[string]()
	require.NoError(t, view.AddAll(ctx, []string{"a", "b", "a", "c"}))

	removed, err := view.Remove(ctx, "a")
	require.NoError(t, err)
	assert.True(t, removed)

	contents, err := view.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, contents)

	removed, err = view.Remove(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, removed)
}

// TestListView_Clear tests that a cleared view is empty and reusable.
func TestListView_Clear(t *testing.T) {
	ctx := context.Background()
	view := NewListView[int]()
	require.NoError(t, view.AddAll(ctx, []int{1, 2}))

	require.NoError(t, view.Clear(ctx))

	contents, err := view.GetList(ctx)
	require.NoError(t, err)
	assert.Empty(t, contents)

	require.NoError(t, view.Add(ctx, 7))
	contents, err = view.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, contents)
}

// TestListView_SetListReplacesContents tests wholesale replacement.
func TestListView_SetListReplacesContents(t *testing.T) {
	ctx := context.Background()
	view := NewListView[string]()
	require.NoError(t, view.AddAll(ctx, []string{"old1", "old2"}))

	replacement := []string{"new1", "new2", "new3"}
	require.NoError(t, view.SetList(ctx, replacement))

	// Mutating the caller's slice afterward must not leak into the view.
	replacement[0] = "mutated"

	contents, err := view.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new1", "new2", "new3"}, contents)
}

// TestListView_Iterator tests iterator exhaustion and per-call freshness.
func TestListView_Iterator(t *testing.T) {
	ctx := context.Background()
	view := NewListView[string]()
	require.NoError(t, view.AddAll(ctx, []string{"a", "b"}))

	it, err := view.Get(ctx)
	require.NoError(t, err)

	collected, err := Collect(ctx, it)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, collected)

	_, err = it.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	// A new iterator reflects state added after the first Get.
	require.NoError(t, view.Add(ctx, "c"))
	it, err = view.Get(ctx)
	require.NoError(t, err)
	collected, err = Collect(ctx, it)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, collected)
}

// TestListView_IteratorContextCancellation tests that a cancelled context stops iteration.
func TestListView_IteratorContextCancellation(t *testing.T) {
	ctx := context.Background()
	view := NewListView[int]()
	require.NoError(t, view.AddAll(ctx, []int{1, 2, 3}))

	it, err := view.Get(ctx)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = it.Next(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestListView_EqualAcrossBackings tests that equality depends only on contents.
func TestListView_EqualAcrossBackings(t *testing.T) {
	ctx := context.Background()

	transient := NewListView[string]()
	durable := NewDurableListView[string](newMockListStore[string](), "key-1")

	for _, value := range []string{"x", "y"} {
		require.NoError(t, transient.Add(ctx, value))
		require.NoError(t, durable.Add(ctx, value))
	}

	equal, err := transient.Equal(ctx, durable)
	require.NoError(t, err)
	assert.True(t, equal)

	require.NoError(t, durable.Add(ctx, "z"))
	equal, err = transient.Equal(ctx, durable)
	require.NoError(t, err)
	assert.False(t, equal)

	equal, err = transient.Equal(ctx, nil)
	require.NoError(t, err)
	assert.False(t, equal)
}

// TestListView_HashAcrossBackings tests that the content hash ignores the backing.
func TestListView_HashAcrossBackings(t *testing.T) {
	ctx := context.Background()

	transient := NewListView[string]()
	durable := NewDurableListView[string](newMockListStore[string](), "key-1")
	require.NoError(t, transient.AddAll(ctx, []string{"a", "b"}))
	require.NoError(t, durable.AddAll(ctx, []string{"a", "b"}))

	h1, err := transient.Hash(ctx)
	require.NoError(t, err)
	h2, err := durable.Hash(ctx)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	// Order matters.
	other := NewListView[string]()
	require.NoError(t, other.AddAll(ctx, []string{"b", "a"}))
	h3, err := other.Hash(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)

	// Element boundaries matter: ["ab"] must not collide with ["a","b"].
	joined := NewListView[string]()
	require.NoError(t, joined.Add(ctx, "ab"))
	h4, err := joined.Hash(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h4)
}

// TestListView_DurableBinding tests key and backing introspection.
func TestListView_DurableBinding(t *testing.T) {
	store := newMockListStore[string]()

	durable := NewDurableListView[string](store, "user-42")
	assert.True(t, durable.Durable())
	assert.Equal(t, "user-42", durable.Key())

	transient := NewListView[string]()
	assert.False(t, transient.Durable())
	assert.Equal(t, "", transient.Key())
}

// TestListView_DurableKeyScoping tests that two views on the same store but
// different keys never see each other's elements.
func TestListView_DurableKeyScoping(t *testing.T) {
	ctx := context.Background()
	store := newMockListStore[string]()

	first := NewDurableListView[string](store, "key-a")
	second := NewDurableListView[string](store, "key-b")

	require.NoError(t, first.Add(ctx, "for-a"))
	require.NoError(t, second.Add(ctx, "for-b"))

	contents, err := first.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"for-a"}, contents)

	contents, err = second.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"for-b"}, contents)
}

// TestListView_StateAccessErrors tests that store failures surface as
// StateAccessError with the failing operation and key attached.
func TestListView_StateAccessErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setup      func(*mockListStore[string])
		call       func(*ListView[string]) error
		expectedOp string
	}{
		{
			name:       "snapshot failure",
			setup:      func(s *mockListStore[string]) { s.shouldFailSnapshot = true },
			call:       func(v *ListView[string]) error { _, err := v.GetList(ctx); return err },
			expectedOp: "snapshot",
		},
		{
			name:       "append failure",
			setup:      func(s *mockListStore[string]) { s.shouldFailAppend = true },
			call:       func(v *ListView[string]) error { return v.Add(ctx, "x") },
			expectedOp: "append",
		},
		{
			name:       "remove failure",
			setup:      func(s *mockListStore[string]) { s.shouldFailRemove = true },
			call:       func(v *ListView[string]) error { _, err := v.Remove(ctx, "x"); return err },
			expectedOp: "remove",
		},
		{
			name:       "replace failure",
			setup:      func(s *mockListStore[string]) { s.shouldFailReplace = true },
			call:       func(v *ListView[string]) error { return v.SetList(ctx, []string{"x"}) },
			expectedOp: "replace_all",
		},
		{
			name:       "clear failure",
			setup:      func(s *mockListStore[string]) { s.shouldFailClear = true },
			call:       func(v *ListView[string]) error { return v.Clear(ctx) },
			expectedOp: "clear",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockListStore[string]()
			tt.setup(store)
			view := NewDurableListView[string](store, "key-1")

			err := tt.call(view)
			var accessErr *gostate.StateAccessError
			require.True(t, errors.As(err, &accessErr))
			assert.Equal(t, tt.expectedOp, accessErr.Op)
			assert.Equal(t, "key-1", accessErr.Key)
			assert.Error(t, accessErr.Unwrap())
		})
	}
}

// TestListView_DurableLifecycle walks a durable view through add, bulk add,
// remove, replace, and clear against the same store key.
func TestListView_DurableLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMockListStore[string]()
	view := NewDurableListView[string](store, "events")

	require.NoError(t, view.Add(ctx, "e1"))
	require.NoError(t, view.AddAll(ctx, []string{"e2", "e3"}))

	contents, err := view.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2", "e3"}, contents)

	removed, err := view.Remove(ctx, "e2")
	require.NoError(t, err)
	assert.True(t, removed)

	require.NoError(t, view.SetList(ctx, []string{"r1", "r2"}))
	contents, err = view.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, contents)

	require.NoError(t, view.Clear(ctx))
	contents, err = view.GetList(ctx)
	require.NoError(t, err)
	assert.Empty(t, contents)
}

// TestListView_Lifecycle walks one view through the full operation sequence.
func TestListView_Lifecycle(t *testing.T) {
	ctx := context.Background()
	view := NewListView[string]()

	contents, err := view.GetList(ctx)
	require.NoError(t, err)
	assert.Empty(t, contents)

	require.NoError(t, view.Add(ctx, "a"))
	require.NoError(t, view.Add(ctx, "b"))
	require.NoError(t, view.AddAll(ctx, []string{"c", "d"}))

	contents, err = view.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, contents)

	removed, err := view.Remove(ctx, "b")
	require.NoError(t, err)
	assert.True(t, removed)
	contents, err = view.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, contents)

	removed, err = view.Remove(ctx, "z")
	require.NoError(t, err)
	assert.False(t, removed)
	contents, err = view.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, contents)

	require.NoError(t, view.Clear(ctx))
	contents, err = view.GetList(ctx)
	require.NoError(t, err)
	assert.Empty(t, contents)

	// A cleared view equals any other empty view.
	equal, err := view.Equal(ctx, NewListView[string]())
	require.NoError(t, err)
	assert.True(t, equal)
}

// BenchmarkListView_Add benchmarks transient appends.
func BenchmarkListView_Add(b *testing.B) {
	ctx := context.Background()
	view := NewListView[int]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = view.Add(ctx, i)
	}
}

// BenchmarkListView_Hash benchmarks content hashing of a thousand elements.
func BenchmarkListView_Hash(b *testing.B) {
	ctx := context.Background()
	view := NewListView[int]()
	for i := 0; i < 1000; i++ {
		_ = view.Add(ctx, i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = view.Hash(ctx)
	}
}
