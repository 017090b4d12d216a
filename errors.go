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

package gostate

import "fmt"

// Package gostate defines the error taxonomy shared by views and stores.
//
// All failures are surfaced synchronously to the caller of the triggering
// operation; nothing is retried or swallowed inside the library.

// InvalidElementError reports a nil element supplied to a mutating view operation.
// The operation fails fast and leaves the view's contents unchanged.
type InvalidElementError struct {
	Op    string // Operation that rejected the element (e.g., "add", "add_all", "set_list")
	Index int    // Position of the offending element within the supplied values
}

func (e *InvalidElementError) Error() string {
	return fmt.Sprintf("list view %s: nil element at index %d", e.Op, e.Index)
}

// StateAccessError reports a read or write that the durable backing store could not
// complete. The underlying store error is reachable through errors.Unwrap.
type StateAccessError struct {
	Op  string // Operation that failed (e.g., "snapshot", "append", "remove", "clear")
	Key string // State key the operation was scoped to
	Err error  // Underlying store error
}

func (e *StateAccessError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("state access %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("state access %s: %v", e.Op, e.Err)
}

func (e *StateAccessError) Unwrap() error {
	return e.Err
}

// KeyMismatchError reports a merge invoked on views bound to different state keys.
// This is a caller precondition violation; no mutation has occurred.
type KeyMismatchError struct {
	TargetKey string // Key of the view being merged into
	SourceKey string // Key of the view supplying elements
}

func (e *KeyMismatchError) Error() string {
	return fmt.Sprintf("merge key mismatch: target %q, source %q", e.TargetKey, e.SourceKey)
}

// TypeExtractionError reports that an element data type could not be derived.
// It is raised at registration/build time, never during per-element operations.
type TypeExtractionError struct {
	Field string // State entry or field being registered, if known
	Err   error  // Underlying cause
}

func (e *TypeExtractionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("type extraction [%s]: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("type extraction: %v", e.Err)
}

func (e *TypeExtractionError) Unwrap() error {
	return e.Err
}
