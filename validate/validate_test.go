// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validate

import (
	"testing"

	"github.com/z5labs/propedit/property"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	boolDef := property.Definition{Key: "b", Type: property.BooleanType()}
	arrDef := property.Definition{Key: "arr", Type: property.ArrayType("a", "b")}
	enumDef := property.Definition{Key: "mode", Type: property.EnumType("fast", "slow")}
	strDef := property.Definition{Key: "s", Type: property.StringType()}

	testCases := []struct {
		name  string
		def   property.Definition
		value property.Value
		valid bool
	}{
		{name: "boolean accepts a Bool", def: boolDef, value: property.Bool(true), valid: true},
		{name: "boolean rejects a String", def: boolDef, value: property.String("true")},
		{name: "boolean rejects nil", def: boolDef, value: nil},
		{name: "array accepts empty", def: arrDef, value: property.Array{}, valid: true},
		{name: "array accepts a partial match", def: arrDef, value: property.Array{"a", "x"}, valid: true},
		{name: "array accepts a full match", def: arrDef, value: property.Array{"b", "a"}, valid: true},
		{name: "array rejects no match", def: arrDef, value: property.Array{"x"}},
		{name: "array rejects a String", def: arrDef, value: property.String("a")},
		{name: "enum accepts an allowed value", def: enumDef, value: property.String("slow"), valid: true},
		{name: "enum rejects an unknown value", def: enumDef, value: property.String("warp")},
		{name: "enum is case sensitive", def: enumDef, value: property.String("FAST")},
		{name: "enum rejects an Array", def: enumDef, value: property.Array{"fast"}},
		{name: "string accepts anything textual", def: strDef, value: property.String(""), valid: true},
		{name: "string rejects a Bool", def: strDef, value: property.Bool(false)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Value(tc.value, tc.def)
			if tc.valid {
				if !assert.NoError(t, err) {
					return
				}
				return
			}

			var verr *InvalidValueError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			if !assert.Equal(t, tc.def.Key, verr.Key) {
				return
			}
			if !assert.Equal(t, tc.def.Type.Kind, verr.Kind) {
				return
			}
		})
	}
}

func TestInvalidValueError_Error(t *testing.T) {
	t.Run("will name the allowed values", func(t *testing.T) {
		def := property.Definition{Key: "mode", Type: property.EnumType("fast", "slow")}

		err := Value(property.String("warp"), def)
		if !assert.EqualError(t, err, `invalid value for mode: "warp" is not allowed (allowed values: fast, slow)`) {
			return
		}
	})

	t.Run("will omit the allowed values if there are none", func(t *testing.T) {
		def := property.Definition{Key: "s", Type: property.StringType()}

		err := Value(property.Bool(true), def)
		if !assert.EqualError(t, err, "invalid value for s: expected a string value, got a boolean") {
			return
		}
	})
}

func TestProperty(t *testing.T) {
	t.Run("will pass if there is no definition", func(t *testing.T) {
		p := property.Property{Key: "x", Value: property.Bool(true), Source: property.FileOnly}

		if !assert.NoError(t, Property(p, nil)) {
			return
		}
	})

	t.Run("will validate against the definition", func(t *testing.T) {
		def := property.Definition{Key: "mode", Type: property.EnumType("fast")}
		p := property.Property{Key: "mode", Value: property.String("slow")}

		if !assert.Error(t, Property(p, &def)) {
			return
		}
	})
}
