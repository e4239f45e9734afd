// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/z5labs/propedit/property"

	"github.com/fatih/color"
	"github.com/magiconair/properties"
)

// UnknownSortError is returned for an unsupported --sort value.
type UnknownSortError struct {
	Sort string
}

// Error implements the [error] interface.
func (e UnknownSortError) Error() string {
	return fmt.Sprintf("unknown sort order: %s (use natural, key-asc, key-desc or type)", e.Sort)
}

// UnknownSourceError is returned for an unsupported --source value.
type UnknownSourceError struct {
	Source string
}

// Error implements the [error] interface.
func (e UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source: %s (use all, file, schema or both)", e.Source)
}

// InvalidInputError is returned when a value given on the command line
// can't be read as the type its key is defined with.
type InvalidInputError struct {
	Key   string
	Input string
	Cause error
}

// Error implements the [error] interface.
func (e InvalidInputError) Error() string {
	return fmt.Sprintf("invalid value for %s: %q: %s", e.Key, e.Input, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidInputError) Unwrap() error {
	return e.Cause
}

// UnknownKeyError is returned by get for a key that is neither defined nor
// present in the properties file.
type UnknownKeyError struct {
	Key string
}

// Error implements the [error] interface.
func (e UnknownKeyError) Error() string {
	return "unknown property: " + e.Key
}

func matchSource(source string) (func(property.Property) bool, error) {
	switch source {
	case "", "all":
		return func(property.Property) bool { return true }, nil
	case "file":
		return func(p property.Property) bool { return p.Source == property.FileOnly }, nil
	case "schema":
		return func(p property.Property) bool { return p.Source == property.SchemaOnly }, nil
	case "both":
		return func(p property.Property) bool { return p.Source == property.Both }, nil
	default:
		return nil, UnknownSourceError{Source: source}
	}
}

// filter keeps the properties whose key, value or description contains
// text, ignoring case.
func filter(props []property.Property, text string) []property.Property {
	if text == "" {
		return props
	}
	text = strings.ToLower(text)

	var out []property.Property
	for _, p := range props {
		if contains(p.Key, text) || contains(valueString(p.Value), text) || contains(p.Description, text) {
			out = append(out, p)
		}
	}
	return out
}

func contains(s, lowered string) bool {
	return strings.Contains(strings.ToLower(s), lowered)
}

func sortProperties(props []property.Property, order string) error {
	switch order {
	case "", "natural":
	case "key-asc":
		slices.SortStableFunc(props, func(a, b property.Property) int {
			return strings.Compare(a.Key, b.Key)
		})
	case "key-desc":
		slices.SortStableFunc(props, func(a, b property.Property) int {
			return strings.Compare(b.Key, a.Key)
		})
	case "type":
		slices.SortStableFunc(props, func(a, b property.Property) int {
			return strings.Compare(typeName(a.Value), typeName(b.Value))
		})
	default:
		return UnknownSortError{Sort: order}
	}
	return nil
}

func typeName(v property.Value) string {
	switch v.(type) {
	case property.Array:
		return "array"
	case property.Bool:
		return "boolean"
	case property.String:
		return "string"
	default:
		return ""
	}
}

func valueString(v property.Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// parseInput reads a command line value as the type of def. Keys without
// a definition take the input as a string.
func parseInput(key, input string, def *property.Definition) (property.Value, error) {
	if def == nil {
		return property.String(input), nil
	}

	switch def.Type.Kind {
	case property.KindBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(input))
		if err != nil {
			return nil, InvalidInputError{Key: key, Input: input, Cause: err}
		}
		return property.Bool(b), nil
	case property.KindArray:
		var items property.Array
		for _, s := range strings.Split(input, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			items = append(items, s)
		}
		return items, nil
	default:
		return property.String(input), nil
	}
}

type printer struct {
	color bool
}

func (pr printer) source(s property.Source) string {
	switch s {
	case property.Both:
		return pr.colorize(s.String(), color.FgGreen)
	case property.FileOnly:
		return pr.colorize(s.String(), color.FgYellow)
	default:
		return pr.colorize(s.String(), color.FgCyan)
	}
}

func (pr printer) colorize(text string, attrs ...color.Attribute) string {
	if !pr.color {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

func (pr printer) list(w io.Writer, props []property.Property) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tTYPE\tSOURCE\tDESCRIPTION")
	for _, p := range props {
		fmt.Fprintf(
			tw,
			"%s\t%s\t%s\t%s\t%s\n",
			p.Key,
			valueString(p.Value),
			typeName(p.Value),
			pr.source(p.Source),
			p.Description,
		)
	}
	return tw.Flush()
}

func (pr printer) presets(w io.Writer, presets []property.Preset) error {
	for i, preset := range presets {
		if i > 0 {
			fmt.Fprintln(w)
		}
		name := pr.colorize(preset.Name, color.Bold)
		if preset.Description == "" {
			fmt.Fprintln(w, name)
		} else {
			fmt.Fprintf(w, "%s: %s\n", name, preset.Description)
		}
		for _, p := range preset.Properties {
			_, err := fmt.Fprintf(w, "  %s=%s\n", p.Key, valueString(p.Value))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// export writes props as a properties document in the order given.
func export(w io.Writer, props []property.Property) error {
	doc := properties.NewProperties()
	doc.DisableExpansion = true
	for _, p := range props {
		_, _, err := doc.Set(p.Key, valueString(p.Value))
		if err != nil {
			return err
		}
	}
	_, err := doc.Write(w, properties.UTF8)
	return err
}
