// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"fmt"

	"github.com/z5labs/propedit/property"
)

// ReadError occurs when the schema file can't be opened.
type ReadError struct {
	Path  string
	Cause error
}

// Error implements the [error] interface.
func (e ReadError) Error() string {
	return fmt.Sprintf("failed to read schema file %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ReadError) Unwrap() error {
	return e.Cause
}

// ParseError occurs when the schema document isn't valid JSON or doesn't
// have the expected shape.
type ParseError struct {
	Cause error
}

// Error implements the [error] interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("invalid schema json: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ParseError) Unwrap() error {
	return e.Cause
}

// BlankPresetNameError occurs when a preset has an empty or whitespace name.
type BlankPresetNameError struct {
	Index int
}

// Error implements the [error] interface.
func (e BlankPresetNameError) Error() string {
	return fmt.Sprintf("preset name cannot be empty (preset #%d)", e.Index+1)
}

// UnknownPresetKeyError occurs when a preset sets a key the schema doesn't define.
type UnknownPresetKeyError struct {
	Preset string
	Key    string
}

// Error implements the [error] interface.
func (e UnknownPresetKeyError) Error() string {
	return fmt.Sprintf("unknown property in preset %s: %s", e.Preset, e.Key)
}

// InvalidDefaultError occurs when a default value doesn't have the JSON
// type its definition requires.
type InvalidDefaultError struct {
	Key   string
	Kind  property.Kind
	Value any
}

// Error implements the [error] interface.
func (e InvalidDefaultError) Error() string {
	return fmt.Sprintf("default value of %s must be a %s: got %v", e.Key, jsonKind(e.Kind), e.Value)
}

// InvalidPresetValueError occurs when a preset value is missing or doesn't
// have the JSON type its definition requires.
type InvalidPresetValueError struct {
	Preset string
	Key    string
	Kind   property.Kind
	Value  any
}

// Error implements the [error] interface.
func (e InvalidPresetValueError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("preset %s has no value for %s", e.Preset, e.Key)
	}
	return fmt.Sprintf("preset %s value of %s must be a %s: got %v", e.Preset, e.Key, jsonKind(e.Kind), e.Value)
}

func jsonKind(k property.Kind) string {
	switch k {
	case property.KindBoolean:
		return "boolean"
	case property.KindArray:
		return "list"
	default:
		return "scalar"
	}
}
