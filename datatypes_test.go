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

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestListViewOf tests the structured shape of a list view descriptor.
func TestListViewOf(t *testing.T) {
	dt := ListViewOf(String)

	assert.Equal(t, KindStructured, dt.Kind())
	assert.Equal(t, "ListView", dt.Name())

	fields := dt.Fields()
	require.Len(t, fields, 1)
	assert.Equal(t, "list", fields[0].Name)
	assert.Equal(t, KindArray, fields[0].Type.Kind())

	element, ok := fields[0].Type.Element()
	require.True(t, ok)
	assert.True(t, element.Equal(String))

	assert.Equal(t, "STRUCTURED<ListView, list ARRAY<STRING>>", dt.String())
}

// TestDataType_Equal tests structural equality across constructions.
func TestDataType_Equal(t *testing.T) {
	assert.True(t, ListViewOf(Int64).Equal(ListViewOf(Int64)))
	assert.False(t, ListViewOf(Int64).Equal(ListViewOf(String)))
	assert.True(t, ArrayOf(Boolean).Equal(ArrayOf(Boolean)))
	assert.False(t, ArrayOf(Boolean).Equal(Boolean))
	assert.False(t, Structured("A", NewField("x", Int64)).Equal(Structured("B", NewField("x", Int64))))
}

// hintedElement carries an explicit descriptor for ElementTypeOf.
type hintedElement struct {
	ID int64
}

func (hintedElement) DataTypeHint() DataType {
	return Structured("HintedElement", NewField("id", Int64))
}

// TestElementTypeOf tests primitive mapping, hint precedence, and failure.
func TestElementTypeOf(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected DataType
	}{
		{"bool", true, Boolean},
		{"int", int(1), Int64},
		{"int32", int32(1), Int64},
		{"int64", int64(1), Int64},
		{"float32", float32(1.5), Float64},
		{"float64", 1.5, Float64},
		{"string", "x", String},
		{"bytes", []byte("x"), Bytes},
		{"timestamp", time.Now(), Timestamp},
		{"hinted", hintedElement{ID: 1}, Structured("HintedElement", NewField("id", Int64))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt, err := ElementTypeOf(tt.value)
			require.NoError(t, err)
			assert.True(t, dt.Equal(tt.expected), "got %s, want %s", dt, tt.expected)
		})
	}

	t.Run("unmappable", func(t *testing.T) {
		_, err := ElementTypeOf(struct{ X int }{})
		var extractionErr *TypeExtractionError
		require.True(t, errors.As(err, &extractionErr))
		assert.Error(t, extractionErr.Unwrap())
	})
}

// TestListStateDescriptorFor tests descriptor derivation from sample values.
func TestListStateDescriptorFor(t *testing.T) {
	desc, err := ListStateDescriptorFor("events", "sample")
	require.NoError(t, err)
	assert.Equal(t, "events", desc.Name)
	assert.True(t, desc.Type.Equal(ListViewOf(String)))

	// Failures carry the state entry name.
	_, err = ListStateDescriptorFor("events", struct{}{})
	var extractionErr *TypeExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, "events", extractionErr.Field)
}

// TestErrorMessages tests the rendered form of the error taxonomy.
func TestErrorMessages(t *testing.T) {
	invalid := &InvalidElementError{Op: "add_all", Index: 2}
	assert.Equal(t, "list view add_all: nil element at index 2", invalid.Error())

	base := errors.New("connection refused")
	access := &StateAccessError{Op: "append", Key: "user-1", Err: base}
	assert.Equal(t, "state access append [user-1]: connection refused", access.Error())
	assert.Equal(t, base, access.Unwrap())

	mismatch := &KeyMismatchError{TargetKey: "a", SourceKey: "b"}
	assert.Equal(t, `merge key mismatch: target "a", source "b"`, mismatch.Error())

	extraction := &TypeExtractionError{Field: "events", Err: base}
	assert.Equal(t, "type extraction [events]: connection refused", extraction.Error())
	assert.Equal(t, base, extraction.Unwrap())
}
