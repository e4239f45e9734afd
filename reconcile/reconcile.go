// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package reconcile merges schema definitions with the values of a
// properties file into a single list of sourced, typed properties.
package reconcile

import (
	"github.com/z5labs/propedit/property"
)

// UndefinedDescription is the description given to keys which are present
// in the file but not defined by the schema.
const UndefinedDescription = "Undefined in the schema"

// Source is a read only view of raw file values. [properties.Store]
// implements it.
type Source interface {
	Get(key string) (string, bool)
	Keys() []string
}

// Reconcile returns every defined key, in definition order, followed by
// every undefined key found in src, in src order.
//
// Defined keys missing from src take the definition default, or the type's
// zero value when there is none. Present keys are parsed by their type.
func Reconcile(defs []property.Definition, src Source) []property.Property {
	props := make([]property.Property, 0, len(defs))
	defined := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		defined[def.Key] = struct{}{}
		props = append(props, Definition(def, src))
	}

	for _, key := range src.Keys() {
		if _, ok := defined[key]; ok {
			continue
		}
		raw, _ := src.Get(key)
		props = append(props, property.Property{
			Key:         key,
			Value:       property.String(raw),
			Description: UndefinedDescription,
			Source:      property.FileOnly,
		})
	}
	return props
}

// Definition reconciles a single definition against src.
func Definition(def property.Definition, src Source) property.Property {
	p := property.Property{
		Key:         def.Key,
		Description: def.Description,
	}

	raw, ok := src.Get(def.Key)
	if ok {
		p.Source = property.Both
		p.Value = def.Type.Parse(raw)
		return p
	}

	p.Source = property.SchemaOnly
	p.Value = def.Default
	if p.Value == nil {
		p.Value = def.Type.Zero()
	}
	return p
}
