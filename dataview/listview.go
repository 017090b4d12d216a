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
	"reflect"

	"github.com/aaronlmathis/gostate"
)

// ListView provides list-like functionality as a field of an aggregation accumulator.
//
// A ListView is backed either by an in-process slice or by an external key-scoped
// list store, depending on how the owner constructs it. Accumulator code calls the
// same operations in both cases; only ordering of elements within the view's own key
// is defined. Elements must not be nil.
//
// A ListView is exclusively owned by one accumulator and operated on by one logical
// task at a time. It performs no internal locking, buffering, or retries; durable
// operations block the caller until the store answers.
type ListView[T comparable] struct {
	backing Backing[T]
	key     string
	durable bool
}

// NewListView creates an empty view with the default transient backing.
// Use it for short-lived, memory-resident accumulators such as pre-aggregation or
// combiner stages.
func NewListView[T comparable]() *ListView[T] {
	return &ListView[T]{backing: &transientBacking[T]{}}
}

// NewDurableListView creates an empty view bound to a key scope of the given store.
// Use it when the accumulator is the authoritative per-key state of an unbounded or
// windowed computation. The binding is fixed for the lifetime of the view.
func NewDurableListView[T comparable](store gostate.ListStore[T], key string) *ListView[T] {
	return &ListView[T]{
		backing: &durableBacking[T]{store: store, key: key},
		key:     key,
		durable: true,
	}
}

// Key returns the state key a durable view is bound to, or "" for transient views.
func (v *ListView[T]) Key() string {
	return v.key
}

// Durable reports whether the view is bound to an external store.
func (v *ListView[T]) Durable() bool {
	return v.durable
}

// Get returns an iterator over the current contents. Each call reflects the state as
// of the call; nothing is cached across calls. Iterating a durable-backed view may
// fail with a gostate.StateAccessError.
func (v *ListView[T]) Get(ctx context.Context) (gostate.Iterator[T], error) {
	snapshot, err := v.backing.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &sliceIterator[T]{elements: snapshot}, nil
}

// Add appends value to the end of the view. A nil value fails with a
// gostate.InvalidElementError and leaves the contents unchanged.
func (v *ListView[T]) Add(ctx context.Context, value T) error {
	if isNilElement(value) {
		return &gostate.InvalidElementError{Op: "add"}
	}
	return v.backing.Append(ctx, value)
}

// AddAll appends all values in order, behaving as if Add were called once per
// element. If any value is nil the whole call fails with a
// gostate.InvalidElementError before anything is appended.
func (v *ListView[T]) AddAll(ctx context.Context, values []T) error {
	for i, value := range values {
		if isNilElement(value) {
			return &gostate.InvalidElementError{Op: "add_all", Index: i}
		}
	}
	if len(values) == 0 {
		return nil
	}
	return v.backing.AppendAll(ctx, values)
}

// Remove removes the first element equal to value, reporting whether a match was
// found. Later duplicates are unaffected.
func (v *ListView[T]) Remove(ctx context.Context, value T) (bool, error) {
	return v.backing.RemoveFirst(ctx, value)
}

// Clear removes all elements from the view.
func (v *ListView[T]) Clear(ctx context.Context) error {
	return v.backing.Clear(ctx)
}

// GetList returns the entire contents of the view in order.
func (v *ListView[T]) GetList(ctx context.Context) ([]T, error) {
	return v.backing.Snapshot(ctx)
}

// SetList replaces the entire contents of the view with values, atomically from the
// caller's perspective. Iterators obtained from an earlier Get are invalidated.
// A nil value fails with a gostate.InvalidElementError before anything is replaced.
func (v *ListView[T]) SetList(ctx context.Context, values []T) error {
	for i, value := range values {
		if isNilElement(value) {
			return &gostate.InvalidElementError{Op: "set_list", Index: i}
		}
	}
	return v.backing.ReplaceAll(ctx, values)
}

// Equal reports whether both views hold element-wise equal contents. The comparison
// depends only on logical content; a transient view and a durable view with the same
// contents are equal.
func (v *ListView[T]) Equal(ctx context.Context, other *ListView[T]) (bool, error) {
	if other == nil {
		return false, nil
	}
	if v == other {
		return true, nil
	}
	mine, err := v.GetList(ctx)
	if err != nil {
		return false, err
	}
	theirs, err := other.GetList(ctx)
	if err != nil {
		return false, err
	}
	if len(mine) != len(theirs) {
		return false, nil
	}
	for i := range mine {
		if mine[i] != theirs[i] {
			return false, nil
		}
	}
	return true, nil
}

// Hash returns a content hash of the view. Views with equal contents hash equally
// regardless of backing; the hash uses the external representation of elements,
// never a codec's encoded form.
func (v *ListView[T]) Hash(ctx context.Context) (uint64, error) {
	contents, err := v.GetList(ctx)
	if err != nil {
		return 0, err
	}
	return hashContents(contents), nil
}

// Merge appends the contents of source after the receiver's contents, concatenation
// in that fixed order with no deduplication or reordering. Both views must represent
// partial results for the same logical key: if both are durably bound and their keys
// differ, Merge fails with a gostate.KeyMismatchError before any mutation.
//
// Merge is not idempotent; callers must treat it as consuming source into the
// receiver and not merge the same pair twice.
func (v *ListView[T]) Merge(ctx context.Context, source *ListView[T]) error {
	if v.durable && source.durable && v.key != source.key {
		return &gostate.KeyMismatchError{TargetKey: v.key, SourceKey: source.key}
	}
	contents, err := source.GetList(ctx)
	if err != nil {
		return err
	}
	if len(contents) == 0 {
		return nil
	}
	return v.backing.AppendAll(ctx, contents)
}

// isNilElement reports whether value is a nil pointer, interface, or channel.
// Value types can never be nil and pass without reflection overhead beyond the
// kind check.
func isNilElement[T comparable](value T) bool {
	rv := reflect.ValueOf(&value).Elem()
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Chan, reflect.Func, reflect.Map, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

var _ gostate.DataView = (*ListView[string])(nil)
