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
)

// Package dataview provides collection views used as fields of aggregation
// accumulators.
//
// This file defines the storage contract behind a view and its transient,
// in-process implementation.

// Backing is the storage contract a ListView delegates to. Exactly one backing is
// bound at construction and never switched afterward; the facade contains no
// variant-specific behavior beyond this delegation.
type Backing[T comparable] interface {
	// Snapshot returns the current contents in order.
	Snapshot(ctx context.Context) ([]T, error)
	// Append adds value to the end of the contents.
	Append(ctx context.Context, value T) error
	// AppendAll adds all values to the end of the contents, preserving their order.
	AppendAll(ctx context.Context, values []T) error
	// RemoveFirst removes the first element equal to value, reporting whether a
	// match was found.
	RemoveFirst(ctx context.Context, value T) (bool, error)
	// ReplaceAll discards the contents and replaces them with values.
	ReplaceAll(ctx context.Context, values []T) error
	// Clear removes all elements.
	Clear(ctx context.Context) error
}

// transientBacking keeps contents in an in-process slice. Operations never fail
// and snapshots are restartable copies.
type transientBacking[T comparable] struct {
	elements []T
}

func (b *transientBacking[T]) Snapshot(ctx context.Context) ([]T, error) {
	out := make([]T, len(b.elements))
	copy(out, b.elements)
	return out, nil
}

func (b *transientBacking[T]) Append(ctx context.Context, value T) error {
	b.elements = append(b.elements, value)
	return nil
}

func (b *transientBacking[T]) AppendAll(ctx context.Context, values []T) error {
	b.elements = append(b.elements, values...)
	return nil
}

func (b *transientBacking[T]) RemoveFirst(ctx context.Context, value T) (bool, error) {
	for i, existing := range b.elements {
		if existing == value {
			b.elements = append(b.elements[:i], b.elements[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (b *transientBacking[T]) ReplaceAll(ctx context.Context, values []T) error {
	replacement := make([]T, len(values))
	copy(replacement, values)
	b.elements = replacement
	return nil
}

func (b *transientBacking[T]) Clear(ctx context.Context) error {
	b.elements = nil
	return nil
}
