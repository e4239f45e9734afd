// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/z5labs/propedit/property"
)

// MapDefinition converts a raw definition into its typed form. The default
// value is converted according to the declared type.
func MapDefinition(pd PropertyDoc) (property.Definition, error) {
	typ := property.Type{Kind: property.ParseKind(pd.Type)}
	if typ.Kind == property.KindArray || typ.Kind == property.KindEnum {
		typ.Values = pd.Values
		if typ.Values == nil {
			typ.Values = []string{}
		}
	}

	def := property.Definition{
		Key:         pd.Key,
		Type:        typ,
		Description: pd.Description,
	}
	if pd.DefaultValue == nil {
		return def, nil
	}

	v, ok := convert(typ.Kind, pd.DefaultValue)
	if !ok {
		return def, InvalidDefaultError{Key: pd.Key, Kind: typ.Kind, Value: pd.DefaultValue}
	}
	def.Default = v
	return def, nil
}

// MapPreset converts a raw preset using the types of defs. Entries for
// keys without a definition are dropped.
func MapPreset(pd PresetDoc, defs []property.Definition) (property.Preset, error) {
	preset := property.Preset{
		Name:        pd.Name,
		Description: pd.Description,
	}
	for _, entry := range pd.Properties {
		def, ok := find(defs, entry.Key)
		if !ok {
			continue
		}

		v, ok := convert(def.Type.Kind, entry.Value)
		if !ok || entry.Value == nil {
			return preset, InvalidPresetValueError{
				Preset: pd.Name,
				Key:    entry.Key,
				Kind:   def.Type.Kind,
				Value:  entry.Value,
			}
		}
		preset.Properties = append(preset.Properties, property.Property{
			Key:         entry.Key,
			Value:       v,
			Description: def.Description,
			Source:      property.Both,
		})
	}
	return preset, nil
}

// convert is type directed: booleans and arrays must already have the
// matching JSON type, everything else is coerced to its string form.
// Enum values aren't checked against the allowed values here.
func convert(kind property.Kind, raw any) (property.Value, bool) {
	switch kind {
	case property.KindBoolean:
		b, ok := raw.(bool)
		return property.Bool(b), ok
	case property.KindArray:
		xs, ok := raw.([]any)
		if !ok {
			return nil, false
		}
		arr := property.Array{}
		for _, x := range xs {
			if x == nil {
				continue
			}
			arr = append(arr, stringify(x))
		}
		return arr, true
	default:
		return property.String(stringify(raw)), true
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
