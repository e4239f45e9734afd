// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// Document is the JSON layout of a schema file.
type Document struct {
	Properties []PropertyDoc `json:"properties"`
	Presets    []PresetDoc   `json:"presets,omitempty"`
}

// PropertyDoc is a raw property definition.
type PropertyDoc struct {
	Key          string   `json:"key"`
	Type         string   `json:"type"`
	DefaultValue any      `json:"defaultValue,omitempty"`
	Description  string   `json:"description"`
	Values       []string `json:"values,omitempty"`
}

// PresetDoc is a raw preset.
type PresetDoc struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Properties  PresetEntries `json:"properties"`
}

// PresetEntry is a single key of a preset. Value holds the decoded JSON
// value: nil, bool, string, [json.Number] or []any.
type PresetEntry struct {
	Key   string
	Value any
}

// PresetEntries keeps the entries of a preset's "properties" object in
// document order.
type PresetEntries []PresetEntry

var errPresetEntriesNotObject = errors.New("preset properties must be a JSON object")

// UnmarshalJSON implements the [json.Unmarshaler] interface.
func (e *PresetEntries) UnmarshalJSON(b []byte) error {
	r := gjson.ParseBytes(b)
	if r.Type == gjson.Null {
		*e = nil
		return nil
	}
	if !r.IsObject() {
		return errPresetEntriesNotObject
	}

	var entries PresetEntries
	r.ForEach(func(k, v gjson.Result) bool {
		entries = append(entries, PresetEntry{
			Key:   k.String(),
			Value: decodeResult(v.Get("value")),
		})
		return true
	})
	*e = entries
	return nil
}

func decodeResult(r gjson.Result) any {
	switch r.Type {
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return json.Number(r.Raw)
	case gjson.String:
		return r.Str
	case gjson.JSON:
		if !r.IsArray() {
			return r.Raw
		}
		var xs []any
		for _, x := range r.Array() {
			xs = append(xs, decodeResult(x))
		}
		if xs == nil {
			xs = []any{}
		}
		return xs
	default:
		return nil
	}
}
