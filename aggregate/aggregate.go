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
)

// Package aggregate defines incremental aggregation over per-key accumulators whose
// state fields may be data views.
//
// This file contains the aggregation function contract.

// AggregateFunction computes an incremental aggregate. An accumulator of type ACC is
// created per grouping key, updated once per input value, and optionally merged with
// partial accumulators produced by pre-aggregation stages.
//
// The key passed to CreateAccumulator scopes any durable state the accumulator owns;
// implementations backing their views transiently may ignore it.
type AggregateFunction[IN any, ACC any, OUT any] interface {
	// CreateAccumulator returns an empty accumulator scoped to key.
	CreateAccumulator(ctx context.Context, key string) (ACC, error)
	// Accumulate folds value into acc.
	Accumulate(ctx context.Context, acc ACC, value IN) error
	// Merge folds the partial result other into acc. Callers must treat other as
	// consumed afterward.
	Merge(ctx context.Context, acc ACC, other ACC) error
	// Value computes the aggregate result from acc.
	Value(ctx context.Context, acc ACC) (OUT, error)
}
