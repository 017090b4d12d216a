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
	"fmt"
)

// KeyedValue pairs one input value with its grouping key.
type KeyedValue[K comparable, IN any] struct {
	Key   K
	Value IN
}

// GroupedRunnerBuilder provides a fluent API for constructing a GroupedRunner.
// Use NewGroupedRunner to create a builder, then chain configuration methods and
// call Build.
type GroupedRunnerBuilder[K comparable, IN any, ACC any, OUT any] struct {
	runner *GroupedRunner[K, IN, ACC, OUT]
}

// NewGroupedRunner creates a builder for a runner that drives fn over a stream of
// keyed values, one accumulator per key.
func NewGroupedRunner[K comparable, IN any, ACC any, OUT any](fn AggregateFunction[IN, ACC, OUT]) *GroupedRunnerBuilder[K, IN, ACC, OUT] {
	return &GroupedRunnerBuilder[K, IN, ACC, OUT]{
		runner: &GroupedRunner[K, IN, ACC, OUT]{
			fn:        fn,
			partialFn: fn,
			keyFormat: func(key K) string { return fmt.Sprintf("%v", key) },
		},
	}
}

// WithPartialFunction sets the function used for the pre-aggregation (combiner)
// stage. Partial accumulators are folded into the authoritative accumulator through
// the main function's Merge. Typically the partial function is the transient variant
// of the main function.
func (b *GroupedRunnerBuilder[K, IN, ACC, OUT]) WithPartialFunction(fn AggregateFunction[IN, ACC, OUT]) *GroupedRunnerBuilder[K, IN, ACC, OUT] {
	b.runner.partialFn = fn
	return b
}

// WithCombineEvery flushes each key's partial accumulator into its authoritative
// accumulator after n accumulated values. Zero disables intermediate flushes;
// everything is merged once when the input is exhausted.
func (b *GroupedRunnerBuilder[K, IN, ACC, OUT]) WithCombineEvery(n int) *GroupedRunnerBuilder[K, IN, ACC, OUT] {
	b.runner.combineEvery = n
	return b
}

// WithKeyFormat sets how grouping keys are rendered into state key strings.
func (b *GroupedRunnerBuilder[K, IN, ACC, OUT]) WithKeyFormat(format func(K) string) *GroupedRunnerBuilder[K, IN, ACC, OUT] {
	b.runner.keyFormat = format
	return b
}

// Build validates and constructs the runner.
func (b *GroupedRunnerBuilder[K, IN, ACC, OUT]) Build() (*GroupedRunner[K, IN, ACC, OUT], error) {
	if b.runner.fn == nil {
		return nil, fmt.Errorf("grouped runner requires an aggregate function")
	}
	if b.runner.combineEvery < 0 {
		return nil, fmt.Errorf("combine interval must not be negative")
	}
	return b.runner, nil
}

// GroupedRunner drives an AggregateFunction over a stream of keyed values. Values
// accumulate into per-key partial accumulators; partials are folded into each key's
// authoritative accumulator through Merge, the same reconciliation an engine
// performs for combiner output or window-slice state. Each accumulator is owned by
// the runner's single processing loop.
type GroupedRunner[K comparable, IN any, ACC any, OUT any] struct {
	fn           AggregateFunction[IN, ACC, OUT]
	partialFn    AggregateFunction[IN, ACC, OUT]
	combineEvery int
	keyFormat    func(K) string
}

// Run consumes values until the channel closes, then returns the aggregate result
// per key. A failed accumulate, merge, or result extraction stops the run and
// surfaces the error.
func (r *GroupedRunner[K, IN, ACC, OUT]) Run(ctx context.Context, values <-chan KeyedValue[K, IN]) (map[K]OUT, error) {
	partials := make(map[K]ACC)
	pending := make(map[K]int)
	finals := make(map[K]ACC)

	for kv := range values {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		partial, ok := partials[kv.Key]
		if !ok {
			created, err := r.partialFn.CreateAccumulator(ctx, r.keyFormat(kv.Key))
			if err != nil {
				return nil, fmt.Errorf("creating partial accumulator for key %v: %w", kv.Key, err)
			}
			partial = created
			partials[kv.Key] = partial
		}

		if err := r.partialFn.Accumulate(ctx, partial, kv.Value); err != nil {
			return nil, fmt.Errorf("accumulating value for key %v: %w", kv.Key, err)
		}
		pending[kv.Key]++

		if r.combineEvery > 0 && pending[kv.Key] >= r.combineEvery {
			if err := r.flush(ctx, kv.Key, partials, pending, finals); err != nil {
				return nil, err
			}
		}
	}

	for key := range partials {
		if err := r.flush(ctx, key, partials, pending, finals); err != nil {
			return nil, err
		}
	}

	results := make(map[K]OUT, len(finals))
	for key, acc := range finals {
		out, err := r.fn.Value(ctx, acc)
		if err != nil {
			return nil, fmt.Errorf("extracting result for key %v: %w", key, err)
		}
		results[key] = out
	}
	return results, nil
}

// flush merges a key's partial accumulator into its authoritative accumulator and
// discards the partial, so the next value for the key starts a fresh one.
func (r *GroupedRunner[K, IN, ACC, OUT]) flush(ctx context.Context, key K, partials map[K]ACC, pending map[K]int, finals map[K]ACC) error {
	partial, ok := partials[key]
	if !ok {
		return nil
	}
	final, ok := finals[key]
	if !ok {
		created, err := r.fn.CreateAccumulator(ctx, r.keyFormat(key))
		if err != nil {
			return fmt.Errorf("creating accumulator for key %v: %w", key, err)
		}
		final = created
		finals[key] = final
	}
	if err := r.fn.Merge(ctx, final, partial); err != nil {
		return fmt.Errorf("merging partial result for key %v: %w", key, err)
	}
	delete(partials, key)
	delete(pending, key)
	return nil
}
