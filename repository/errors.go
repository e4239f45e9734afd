// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"errors"
	"fmt"
)

// ErrNotLoaded is returned by mutations attempted before a successful
// [Repository.LoadConfiguration].
var ErrNotLoaded = errors.New("configuration has not been loaded")

// LoadError occurs when the schema or the properties file can't be loaded.
// The previously loaded configuration, if any, is kept.
type LoadError struct {
	Path  string
	Cause error
}

// Error implements the [error] interface.
func (e LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load configuration: %s", e.Cause)
	}
	return fmt.Sprintf("failed to load configuration from %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e LoadError) Unwrap() error {
	return e.Cause
}

// SaveError occurs when the properties file can't be written.
type SaveError struct {
	Path  string
	Cause error
}

// Error implements the [error] interface.
func (e SaveError) Error() string {
	return fmt.Sprintf("failed to save %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e SaveError) Unwrap() error {
	return e.Cause
}

// NotFoundError occurs when a preset is requested by a name the schema
// doesn't define.
type NotFoundError struct {
	Preset string
}

// Error implements the [error] interface.
func (e NotFoundError) Error() string {
	return fmt.Sprintf("unknown preset: %s", e.Preset)
}
