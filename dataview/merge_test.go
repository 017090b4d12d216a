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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/gostate"
)

// TestMerge_Concatenation tests that merge appends source after target, in order.
func TestMerge_Concatenation(t *testing.T) {
	ctx := context.Background()

	target := NewListView[string]()
	require.NoError(t, target.AddAll(ctx, []string{"a1", "a2"}))
	source := NewListView[string]()
	require.NoError(t, source.Add(ctx, "b1"))

	require.NoError(t, target.Merge(ctx, source))

	contents, err := target.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1"}, contents)
}

// TestMerge_KeepsDuplicates tests that merge performs no deduplication.
func TestMerge_KeepsDuplicates(t *testing.T) {
	ctx := context.Background()

	target := NewListView[int]()
	require.NoError(t, target.AddAll(ctx, []int{1, 2}))
	source := NewListView[int]()
	require.NoError(t, source.AddAll(ctx, []int{2, 3}))

	require.NoError(t, target.Merge(ctx, source))

	contents, err := target.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2, 3}, contents)
}

// TestMerge_EmptySource tests that merging an empty view changes nothing.
func TestMerge_EmptySource(t *testing.T) {
	ctx := context.Background()

	target := NewListView[string]()
	require.NoError(t, target.Add(ctx, "only"))

	require.NoError(t, target.Merge(ctx, NewListView[string]()))

	contents, err := target.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, contents)
}

// TestMerge_NotIdempotent tests that merging the same source twice doubles its
// contribution.
func TestMerge_NotIdempotent(t *testing.T) {
	ctx := context.Background()

	target := NewListView[string]()
	source := NewListView[string]()
	require.NoError(t, source.Add(ctx, "x"))

	require.NoError(t, target.Merge(ctx, source))
	require.NoError(t, target.Merge(ctx, source))

	contents, err := target.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x"}, contents)
}

// TestMerge_KeyMismatch tests that durable views bound to different keys refuse
// to merge, leaving the target unchanged.
func TestMerge_KeyMismatch(t *testing.T) {
	ctx := context.Background()
	store := newMockListStore[string]()

	target := NewDurableListView[string](store, "key-a")
	require.NoError(t, target.Add(ctx, "a1"))
	source := NewDurableListView[string](store, "key-b")
	require.NoError(t, source.Add(ctx, "b1"))

	err := target.Merge(ctx, source)
	var mismatchErr *gostate.KeyMismatchError
	require.True(t, errors.As(err, &mismatchErr))
	assert.Equal(t, "key-a", mismatchErr.TargetKey)
	assert.Equal(t, "key-b", mismatchErr.SourceKey)

	contents, err := target.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, contents)
}

// TestMerge_SameDurableKey tests merging two views bound to the same key scope.
func TestMerge_SameDurableKey(t *testing.T) {
	ctx := context.Background()

	// Distinct stores emulate partial state for the same logical key arriving
	// from two tasks.
	target := NewDurableListView[string](newMockListStore[string](), "key-a")
	require.NoError(t, target.Add(ctx, "t1"))
	source := NewDurableListView[string](newMockListStore[string](), "key-a")
	require.NoError(t, source.Add(ctx, "s1"))

	require.NoError(t, target.Merge(ctx, source))

	contents, err := target.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "s1"}, contents)
}

// TestMerge_MixedBackings tests merging a transient partial into a durable view
// and the reverse direction.
func TestMerge_MixedBackings(t *testing.T) {
	ctx := context.Background()

	t.Run("transient into durable", func(t *testing.T) {
		durable := NewDurableListView[string](newMockListStore[string](), "key-a")
		require.NoError(t, durable.Add(ctx, "d1"))
		partial := NewListView[string]()
		require.NoError(t, partial.AddAll(ctx, []string{"p1", "p2"}))

		require.NoError(t, durable.Merge(ctx, partial))

		contents, err := durable.GetList(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"d1", "p1", "p2"}, contents)
	})

	t.Run("durable into transient", func(t *testing.T) {
		durable := NewDurableListView[string](newMockListStore[string](), "key-a")
		require.NoError(t, durable.Add(ctx, "d1"))
		transient := NewListView[string]()
		require.NoError(t, transient.Add(ctx, "t1"))

		require.NoError(t, transient.Merge(ctx, durable))

		contents, err := transient.GetList(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "d1"}, contents)
	})
}

// TestMerge_SourceReadFailure tests that a failing source read aborts the merge
// without touching the target.
func TestMerge_SourceReadFailure(t *testing.T) {
	ctx := context.Background()

	store := newMockListStore[string]()
	source := NewDurableListView[string](store, "key-a")
	require.NoError(t, source.Add(ctx, "s1"))
	store.shouldFailSnapshot = true

	target := NewListView[string]()
	require.NoError(t, target.Add(ctx, "t1"))

	err := target.Merge(ctx, source)
	var accessErr *gostate.StateAccessError
	require.True(t, errors.As(err, &accessErr))

	contents, err := target.GetList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, contents)
}
