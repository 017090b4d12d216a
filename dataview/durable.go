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

	"github.com/aaronlmathis/gostate"
)

// durableBacking delegates every operation to an externally supplied key-scoped
// list store. Calls may block on external I/O; failures are wrapped in a
// gostate.StateAccessError carrying the operation and key. Nothing is retried here.
type durableBacking[T comparable] struct {
	store gostate.ListStore[T]
	key   string
}

func (b *durableBacking[T]) Snapshot(ctx context.Context) ([]T, error) {
	contents, err := b.store.Snapshot(ctx, b.key)
	if err != nil {
		return nil, &gostate.StateAccessError{Op: "snapshot", Key: b.key, Err: err}
	}
	return contents, nil
}

func (b *durableBacking[T]) Append(ctx context.Context, value T) error {
	if err := b.store.Append(ctx, b.key, value); err != nil {
		return &gostate.StateAccessError{Op: "append", Key: b.key, Err: err}
	}
	return nil
}

func (b *durableBacking[T]) AppendAll(ctx context.Context, values []T) error {
	if err := b.store.AppendAll(ctx, b.key, values); err != nil {
		return &gostate.StateAccessError{Op: "append_all", Key: b.key, Err: err}
	}
	return nil
}

func (b *durableBacking[T]) RemoveFirst(ctx context.Context, value T) (bool, error) {
	found, err := b.store.RemoveFirst(ctx, b.key, value)
	if err != nil {
		return false, &gostate.StateAccessError{Op: "remove", Key: b.key, Err: err}
	}
	return found, nil
}

func (b *durableBacking[T]) ReplaceAll(ctx context.Context, values []T) error {
	if err := b.store.ReplaceAll(ctx, b.key, values); err != nil {
		return &gostate.StateAccessError{Op: "replace_all", Key: b.key, Err: err}
	}
	return nil
}

func (b *durableBacking[T]) Clear(ctx context.Context) error {
	if err := b.store.Clear(ctx, b.key); err != nil {
		return &gostate.StateAccessError{Op: "clear", Key: b.key, Err: err}
	}
	return nil
}
