// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield provides [slog.Attr] constructors with the attribute
// names used across propedit.
package slogfield

import (
	"log/slog"
	"time"
)

// Bool returns an slog.Attr for a bool.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Strings returns an slog.Attr for a slice of strings.
func Strings(key string, values []string) slog.Attr {
	return slog.Any(key, values)
}

// Int returns an slog.Attr for a int.
func Int(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Attribute keys used by [Key] and [Value].
const (
	KeyName   = "property_key"
	ValueName = "property_value"
)

// Key returns an slog.Attr for a property key.
func Key(key string) slog.Attr {
	return slog.String(KeyName, key)
}

// Value returns an slog.Attr for the serialized form of a property value.
func Value(value string) slog.Attr {
	return slog.String(ValueName, value)
}

// Path returns an slog.Attr for a file path.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// Preset returns an slog.Attr for a preset name.
func Preset(name string) slog.Attr {
	return slog.String("preset", name)
}
