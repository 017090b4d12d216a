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

package aggregate

import (
	"context"

	"github.com/aaronlmathis/gostate"
	"github.com/aaronlmathis/gostate/dataview"
)

// CollectAccumulator is the per-key state of the Collect function: every value seen
// so far, in arrival order, plus a running count.
type CollectAccumulator[T comparable] struct {
	Elements *dataview.ListView[T]
	Count    int64
}

// Collect is an AggregateFunction that gathers all accumulated values into a list
// view. With a store configured, each key's accumulator is the authoritative durable
// state for that key; without one, accumulators are transient and suited to
// pre-aggregation stages.
type Collect[T comparable] struct {
	store gostate.ListStore[T]
}

// NewCollect creates a Collect function with transient accumulators.
func NewCollect[T comparable]() *Collect[T] {
	return &Collect[T]{}
}

// NewDurableCollect creates a Collect function whose accumulators bind their list
// view to the given store, scoped by grouping key.
func NewDurableCollect[T comparable](store gostate.ListStore[T]) *Collect[T] {
	return &Collect[T]{store: store}
}

// CreateAccumulator implements AggregateFunction.
func (c *Collect[T]) CreateAccumulator(ctx context.Context, key string) (*CollectAccumulator[T], error) {
	if c.store != nil {
		return &CollectAccumulator[T]{Elements: dataview.NewDurableListView(c.store, key)}, nil
	}
	return &CollectAccumulator[T]{Elements: dataview.NewListView[T]()}, nil
}

// Accumulate implements AggregateFunction.
func (c *Collect[T]) Accumulate(ctx context.Context, acc *CollectAccumulator[T], value T) error {
	if err := acc.Elements.Add(ctx, value); err != nil {
		return err
	}
	acc.Count++
	return nil
}

// Merge implements AggregateFunction by concatenating the partial view after the
// accumulator's own contents.
func (c *Collect[T]) Merge(ctx context.Context, acc *CollectAccumulator[T], other *CollectAccumulator[T]) error {
	if err := acc.Elements.Merge(ctx, other.Elements); err != nil {
		return err
	}
	acc.Count += other.Count
	return nil
}

// Value implements AggregateFunction, returning the collected elements in order.
func (c *Collect[T]) Value(ctx context.Context, acc *CollectAccumulator[T]) ([]T, error) {
	return acc.Elements.GetList(ctx)
}

var _ AggregateFunction[string, *CollectAccumulator[string], []string] = (*Collect[string])(nil)

// Descriptor returns the registration descriptor for the Elements state entry,
// deriving the element type from sample. Failures surface here, before any
// accumulator is created.
func (c *Collect[T]) Descriptor(name string, sample T) (gostate.StateDescriptor, error) {
	return gostate.ListStateDescriptorFor(name, sample)
}
