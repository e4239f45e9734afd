// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package property

import (
	"slices"
	"strings"
)

// Kind identifies the shape of values a key accepts.
type Kind int

const (
	KindString Kind = iota
	KindBoolean
	KindArray
	KindEnum
)

// String implements the [fmt.Stringer] interface.
func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindEnum:
		return "enum"
	default:
		return "string"
	}
}

// ParseKind maps a schema type name onto a Kind. Matching is case-insensitive
// and anything unrecognised is a free form string.
func ParseKind(s string) Kind {
	switch strings.ToLower(s) {
	case "boolean":
		return KindBoolean
	case "array":
		return KindArray
	case "enum":
		return KindEnum
	default:
		return KindString
	}
}

// Type is the validity constraint for a key. Values holds the allowed
// values of array and enum types, in schema order.
type Type struct {
	Kind   Kind
	Values []string
}

// BooleanType returns the boolean Type.
func BooleanType() Type { return Type{Kind: KindBoolean} }

// StringType returns the free form string Type.
func StringType() Type { return Type{Kind: KindString} }

// ArrayType returns an array Type accepting the given values.
func ArrayType(values ...string) Type {
	return Type{Kind: KindArray, Values: values}
}

// EnumType returns an enum Type accepting exactly one of the given values.
func EnumType(values ...string) Type {
	return Type{Kind: KindEnum, Values: values}
}

// Allows reports whether s is one of the type's allowed values.
func (t Type) Allows(s string) bool {
	return slices.Contains(t.Values, s)
}

// Zero returns the value used for a key that is neither in the file nor
// given a default by the schema.
func (t Type) Zero() Value {
	switch t.Kind {
	case KindBoolean:
		return Bool(false)
	case KindArray:
		return Array{}
	case KindEnum:
		return String(t.first())
	default:
		return String("")
	}
}

// Parse converts a raw value read from the properties file into a typed
// Value. It never fails; input that doesn't fit the type falls back to a
// sensible value.
func (t Type) Parse(raw string) Value {
	switch t.Kind {
	case KindBoolean:
		return Bool(strings.ToLower(strings.TrimSpace(raw)) == "true")
	case KindArray:
		var xs Array
		for _, tok := range strings.Split(raw, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" || !t.Allows(tok) {
				continue
			}
			xs = append(xs, tok)
		}
		return xs.Normalize()
	case KindEnum:
		if t.Allows(raw) {
			return String(raw)
		}
		return String(t.first())
	default:
		return String(raw)
	}
}

func (t Type) first() string {
	if len(t.Values) == 0 {
		return ""
	}
	return t.Values[0]
}
