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

package codec

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/aaronlmathis/gostate"
)

// Package codec provides element codecs for durable list stores.
//
// Codecs serialize the internal storage representation only; equality and hashing
// observed through a view always use the external value.

// CodecError wraps encode/decode failures with the direction that failed.
type CodecError struct {
	Op  string // "encode" or "decode"
	Err error  // Underlying error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// JSON encodes elements as JSON. Marshalling of a given value is deterministic
// (struct fields keep declaration order), which makes the codec suitable for
// stores that match elements by encoded bytes.
type JSON[T any] struct{}

// NewJSON creates a JSON codec for T.
func NewJSON[T any]() JSON[T] {
	return JSON[T]{}
}

// Encode implements gostate.Codec.
func (JSON[T]) Encode(value T) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, &CodecError{Op: "encode", Err: err}
	}
	return data, nil
}

// Decode implements gostate.Codec.
func (JSON[T]) Decode(data []byte) (T, error) {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		var zero T
		return zero, &CodecError{Op: "decode", Err: err}
	}
	return value, nil
}

var _ gostate.Codec[string] = JSON[string]{}
