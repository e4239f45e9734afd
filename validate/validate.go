// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package validate checks candidate property values against their schema
// definitions before they are written.
package validate

import (
	"fmt"
	"strings"

	"github.com/z5labs/propedit/property"
)

// InvalidValueError occurs when a value doesn't satisfy its definition.
type InvalidValueError struct {
	Key     string
	Kind    property.Kind
	Allowed []string
	Reason  string
}

// Error implements the [error] interface.
func (e *InvalidValueError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid value for %s: %s", e.Key, e.Reason)
	if len(e.Allowed) > 0 {
		fmt.Fprintf(&sb, " (allowed values: %s)", strings.Join(e.Allowed, ", "))
	}
	return sb.String()
}

// Property validates p against def. Properties without a definition are
// free form and always pass.
func Property(p property.Property, def *property.Definition) error {
	if def == nil {
		return nil
	}
	return Value(p.Value, *def)
}

// Value validates v against def.
//
// An array is valid when it is empty or shares at least one element with
// the allowed values. An enum must be exactly one of the allowed values.
func Value(v property.Value, def property.Definition) error {
	switch def.Type.Kind {
	case property.KindBoolean:
		if _, ok := v.(property.Bool); !ok {
			return mismatch(def, v)
		}
	case property.KindArray:
		arr, ok := v.(property.Array)
		if !ok {
			return mismatch(def, v)
		}
		if len(arr) == 0 {
			return nil
		}
		for _, x := range arr {
			if def.Type.Allows(x) {
				return nil
			}
		}
		return &InvalidValueError{
			Key:     def.Key,
			Kind:    def.Type.Kind,
			Allowed: def.Type.Values,
			Reason:  fmt.Sprintf("none of [%s] are allowed", strings.Join(arr, ", ")),
		}
	case property.KindEnum:
		s, ok := v.(property.String)
		if !ok {
			return mismatch(def, v)
		}
		if !def.Type.Allows(string(s)) {
			return &InvalidValueError{
				Key:     def.Key,
				Kind:    def.Type.Kind,
				Allowed: def.Type.Values,
				Reason:  fmt.Sprintf("%q is not allowed", string(s)),
			}
		}
	default:
		if _, ok := v.(property.String); !ok {
			return mismatch(def, v)
		}
	}
	return nil
}

func mismatch(def property.Definition, v property.Value) *InvalidValueError {
	return &InvalidValueError{
		Key:     def.Key,
		Kind:    def.Type.Kind,
		Allowed: def.Type.Values,
		Reason:  fmt.Sprintf("expected a %s value, got %s", def.Type.Kind, describe(v)),
	}
}

func describe(v property.Value) string {
	switch v.(type) {
	case nil:
		return "no value"
	case property.Bool:
		return "a boolean"
	case property.Array:
		return "an array"
	default:
		return "a string"
	}
}
