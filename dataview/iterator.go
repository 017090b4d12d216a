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
	"io"

	"github.com/aaronlmathis/gostate"
)

// sliceIterator walks a materialized snapshot. The gostate.Iterator contract stays
// lazy so a streaming store can replace this without changing callers.
type sliceIterator[T any] struct {
	elements []T
	pos      int
}

// Next returns the next element or io.EOF when the snapshot is exhausted.
func (it *sliceIterator[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	default:
	}
	if it.pos >= len(it.elements) {
		return zero, io.EOF
	}
	value := it.elements[it.pos]
	it.pos++
	return value, nil
}

// Collect drains an iterator into a slice. It is a convenience for callers and tests.
func Collect[T any](ctx context.Context, it gostate.Iterator[T]) ([]T, error) {
	var out []T
	for {
		value, err := it.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
}
