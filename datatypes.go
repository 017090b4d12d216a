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
	"fmt"
	"strings"
	"time"
)

// Package gostate defines the data type descriptors used when registering
// accumulator state with a surrounding engine.
//
// Descriptors are supplied statically: a type either implements TypeHinted or the
// caller passes an explicit descriptor. There is no runtime introspection of
// accumulator definitions; derivation failures surface at registration time as
// TypeExtractionError, before any view instance is used.

// Kind enumerates the shapes a DataType can take.
type Kind int

const (
	// KindBoolean is a true/false element type.
	KindBoolean Kind = iota
	// KindInt64 is a 64-bit signed integer element type.
	KindInt64
	// KindFloat64 is a 64-bit floating point element type.
	KindFloat64
	// KindString is a UTF-8 string element type.
	KindString
	// KindBytes is a raw byte sequence element type.
	KindBytes
	// KindTimestamp is a point-in-time element type.
	KindTimestamp
	// KindArray is an ordered sequence of one element type.
	KindArray
	// KindStructured is a named composite of typed fields.
	KindStructured
)

// Field is one named, typed member of a structured data type.
type Field struct {
	Name string
	Type DataType
}

// NewField creates a structured-type field.
func NewField(name string, t DataType) Field {
	return Field{Name: name, Type: t}
}

// DataType describes the logical type of a state entry or its elements.
// Values are immutable once constructed.
type DataType struct {
	kind    Kind
	name    string // structured type name
	element *DataType
	fields  []Field
}

// Atomic data types.
var (
	Boolean   = DataType{kind: KindBoolean}
	Int64     = DataType{kind: KindInt64}
	Float64   = DataType{kind: KindFloat64}
	String    = DataType{kind: KindString}
	Bytes     = DataType{kind: KindBytes}
	Timestamp = DataType{kind: KindTimestamp}
)

// ArrayOf returns the data type of an ordered sequence of element.
func ArrayOf(element DataType) DataType {
	e := element
	return DataType{kind: KindArray, element: &e}
}

// Structured returns a named composite data type with the given fields.
func Structured(name string, fields ...Field) DataType {
	fs := make([]Field, len(fields))
	copy(fs, fields)
	return DataType{kind: KindStructured, name: name, fields: fs}
}

// ListViewOf returns the structured descriptor describing a list view of the given
// element type. It is consumed by external type-registration components; the library
// never evaluates it during view operations.
func ListViewOf(element DataType) DataType {
	return Structured("ListView", NewField("list", ArrayOf(element)))
}

// Kind returns the shape of the data type.
func (t DataType) Kind() Kind {
	return t.kind
}

// Element returns the element type of an array data type.
func (t DataType) Element() (DataType, bool) {
	if t.kind != KindArray || t.element == nil {
		return DataType{}, false
	}
	return *t.element, true
}

// Fields returns the fields of a structured data type.
func (t DataType) Fields() []Field {
	fs := make([]Field, len(t.fields))
	copy(fs, t.fields)
	return fs
}

// Name returns the name of a structured data type, or "" for other kinds.
func (t DataType) Name() string {
	return t.name
}

// Equal reports whether two data types describe the same logical type.
func (t DataType) Equal(other DataType) bool {
	if t.kind != other.kind || t.name != other.name {
		return false
	}
	if t.kind == KindArray {
		te, _ := t.Element()
		oe, _ := other.Element()
		return te.Equal(oe)
	}
	if len(t.fields) != len(other.fields) {
		return false
	}
	for i := range t.fields {
		if t.fields[i].Name != other.fields[i].Name || !t.fields[i].Type.Equal(other.fields[i].Type) {
			return false
		}
	}
	return true
}

// String renders the data type in a SQL-flavored notation, e.g.
// STRUCTURED<ListView, list ARRAY<STRING>>.
func (t DataType) String() string {
	switch t.kind {
	case KindBoolean:
		return "BOOLEAN"
	case KindInt64:
		return "BIGINT"
	case KindFloat64:
		return "DOUBLE"
	case KindString:
		return "STRING"
	case KindBytes:
		return "BYTES"
	case KindTimestamp:
		return "TIMESTAMP"
	case KindArray:
		e, _ := t.Element()
		return fmt.Sprintf("ARRAY<%s>", e)
	case KindStructured:
		parts := make([]string, 0, len(t.fields))
		for _, f := range t.fields {
			parts = append(parts, fmt.Sprintf("%s %s", f.Name, f.Type))
		}
		return fmt.Sprintf("STRUCTURED<%s, %s>", t.name, strings.Join(parts, ", "))
	default:
		return "UNKNOWN"
	}
}

// TypeHinted supplies an explicit element data type for types the library cannot
// map on its own. Implement it on the element type used inside a view.
type TypeHinted interface {
	// DataTypeHint returns the descriptor for values of this type.
	DataTypeHint() DataType
}

// ElementTypeOf derives the data type descriptor for an element value.
// An explicit TypeHinted implementation wins; otherwise a fixed set of Go
// primitives is mapped. Anything else fails with a TypeExtractionError.
func ElementTypeOf(v any) (DataType, error) {
	if h, ok := v.(TypeHinted); ok {
		return h.DataTypeHint(), nil
	}
	switch v.(type) {
	case bool:
		return Boolean, nil
	case int, int32, int64:
		return Int64, nil
	case float32, float64:
		return Float64, nil
	case string:
		return String, nil
	case []byte:
		return Bytes, nil
	case time.Time:
		return Timestamp, nil
	default:
		return DataType{}, &TypeExtractionError{
			Err: fmt.Errorf("no data type mapping for %T; implement gostate.TypeHinted or pass an explicit descriptor", v),
		}
	}
}

// StateDescriptor names and types one accumulator state entry for registration
// with the surrounding engine.
type StateDescriptor struct {
	Name string
	Type DataType
}

// NewListStateDescriptor builds the descriptor for a list-view state entry with the
// given element type.
func NewListStateDescriptor(name string, element DataType) StateDescriptor {
	return StateDescriptor{Name: name, Type: ListViewOf(element)}
}

// ListStateDescriptorFor builds the descriptor for a list-view state entry, deriving
// the element type from a sample value. Derivation failures are reported here, at
// registration time.
func ListStateDescriptorFor(name string, sample any) (StateDescriptor, error) {
	element, err := ElementTypeOf(sample)
	if err != nil {
		var te *TypeExtractionError
		if errors.As(err, &te) {
			return StateDescriptor{}, &TypeExtractionError{Field: name, Err: te.Err}
		}
		return StateDescriptor{}, err
	}
	return NewListStateDescriptor(name, element), nil
}
