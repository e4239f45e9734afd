// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package schema loads the JSON schema describing which keys a properties
// file may hold, their types, defaults and named presets.
package schema

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/z5labs/propedit/internal/try"
	"github.com/z5labs/propedit/property"
)

// Schema is the typed form of a [Document].
type Schema struct {
	Definitions []property.Definition
	Presets     []property.Preset
}

// Parse reads a schema document from r. Any invalid preset or default
// value fails the whole parse.
func Parse(r io.Reader) (*Schema, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc Document
	err := dec.Decode(&doc)
	if err != nil {
		return nil, ParseError{Cause: err}
	}
	return FromDocument(doc)
}

// LoadFile parses the schema file at path.
func LoadFile(path string) (_ *Schema, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadError{Path: path, Cause: err}
	}
	defer try.Close(&err, f)

	return Parse(f)
}

// FromDocument maps and validates an already decoded document.
func FromDocument(doc Document) (*Schema, error) {
	s := &Schema{
		Definitions: make([]property.Definition, 0, len(doc.Properties)),
	}
	for _, pd := range doc.Properties {
		def, err := MapDefinition(pd)
		if err != nil {
			return nil, err
		}
		s.Definitions = append(s.Definitions, def)
	}

	for i, pd := range doc.Presets {
		err := s.validatePreset(i, pd)
		if err != nil {
			return nil, err
		}

		preset, err := MapPreset(pd, s.Definitions)
		if err != nil {
			return nil, err
		}
		s.Presets = append(s.Presets, preset)
	}
	return s, nil
}

func (s *Schema) validatePreset(index int, pd PresetDoc) error {
	if strings.TrimSpace(pd.Name) == "" {
		return BlankPresetNameError{Index: index}
	}
	for _, entry := range pd.Properties {
		if _, ok := s.Definition(entry.Key); !ok {
			return UnknownPresetKeyError{Preset: pd.Name, Key: entry.Key}
		}
	}
	return nil
}

// Definition returns the definition of key.
func (s *Schema) Definition(key string) (property.Definition, bool) {
	return find(s.Definitions, key)
}

// Preset returns the preset called name.
func (s *Schema) Preset(name string) (property.Preset, bool) {
	for _, p := range s.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return property.Preset{}, false
}

func find(defs []property.Definition, key string) (property.Definition, bool) {
	for _, def := range defs {
		if def.Key == key {
			return def, true
		}
	}
	return property.Definition{}, false
}
