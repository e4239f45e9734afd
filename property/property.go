// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package property defines the typed model shared by the schema, the
// reconciliation engine and the mutation API.
package property

import (
	"slices"
	"strconv"
	"strings"
)

// Value is the value of a single property. It is one of [Bool], [Array]
// or [String].
type Value interface {
	// String returns the text written to the properties file.
	String() string

	value()
}

// Bool is a boolean property value.
type Bool bool

func (Bool) value() {}

// String implements the [Value] interface.
func (v Bool) String() string {
	return strconv.FormatBool(bool(v))
}

// Array is a set of string values. Its text form is de-duplicated,
// sorted and comma joined.
type Array []string

func (Array) value() {}

// String implements the [Value] interface.
func (v Array) String() string {
	return strings.Join(v.Normalize(), ",")
}

// Normalize returns a de-duplicated, lexicographically sorted copy of v.
func (v Array) Normalize() Array {
	xs := append(Array{}, v...)
	slices.Sort(xs)
	return slices.Compact(xs)
}

// Contains reports whether s is one of the array's elements.
func (v Array) Contains(s string) bool {
	return slices.Contains(v, s)
}

// String is a free form text property value.
type String string

func (String) value() {}

// String implements the [Value] interface.
func (v String) String() string {
	return string(v)
}

// Source records where a reconciled property came from.
type Source int

const (
	// Both means the key is defined in the schema and present in the file.
	Both Source = iota

	// FileOnly means the key is present in the file but not in the schema.
	FileOnly

	// SchemaOnly means the key is defined in the schema but missing from the file.
	SchemaOnly
)

// String implements the [fmt.Stringer] interface.
func (s Source) String() string {
	switch s {
	case Both:
		return "both"
	case FileOnly:
		return "file"
	case SchemaOnly:
		return "schema"
	default:
		return "unknown"
	}
}

// Definition is the schema entry for a key.
type Definition struct {
	Key  string
	Type Type

	// Default is nil when the schema gives no default value.
	Default Value

	Description string
}

// Property is a reconciled, displayable key/value record.
type Property struct {
	Key         string
	Value       Value
	Description string
	Source      Source
}

// Preset is a named bundle of property values applied in one operation.
type Preset struct {
	Name        string
	Description string
	Properties  []Property
}
