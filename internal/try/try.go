// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package try provides helpers for scoped resource cleanup and panic
// recovery that fold their failures into a named error return.
package try

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// PanicError wraps a value recovered from a panic.
type PanicError struct {
	Value any
}

// Error implements the [error] interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("recovered from panic: %v", e.Value)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Recover must be deferred. It converts a panic into a [PanicError] which is
// joined with whatever *err already holds.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	*err = errors.Join(*err, PanicError{Value: r})
}

// CloseError occurs when releasing a resource fails.
type CloseError struct {
	Name  string
	Cause error
}

// Error implements the [error] interface.
func (e CloseError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to close: %s", e.Cause)
	}
	return fmt.Sprintf("failed to close %s: %s", e.Name, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e CloseError) Unwrap() error {
	return e.Cause
}

// Close must be deferred. It closes v if v is an [io.Closer] and joins any
// failure, wrapped in a [CloseError], into *err.
func Close(err *error, v any) {
	c, ok := v.(io.Closer)
	if !ok || c == nil {
		return
	}

	var name string
	if f, ok := c.(*os.File); ok {
		name = f.Name()
	}

	cerr := c.Close()
	if cerr == nil {
		return
	}
	*err = errors.Join(*err, CloseError{Name: name, Cause: cerr})
}
