// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package properties provides a .properties file store which keeps the
// original key order, the comment block above each key and the header
// line, so that writing an edited file changes as few lines as possible.
//
// Value parsing (escapes, continuations, encoding) is delegated to
// [github.com/magiconair/properties]; this package only layers order and
// comment tracking on top of it.
package properties

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/z5labs/propedit/internal/try"

	"github.com/magiconair/properties"
)

// headerPattern matches the timestamp comment java.util.Properties writes
// as the first line, e.g. "#Thu Feb 27 20:09:21 EET 2025".
var headerPattern = regexp.MustCompile(`^[#!](Mon|Tue|Wed|Thu|Fri|Sat|Sun)\s+\w+\s+\d+\s+\d+:\d+:\d+\s+\w+\s+\d{4}$`)

const headerMarker = "Property file created on"

// ReadError occurs when the properties source can't be read.
type ReadError struct {
	Path  string
	Cause error
}

// Error implements the [error] interface.
func (e ReadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to read properties: %s", e.Cause)
	}
	return fmt.Sprintf("failed to read properties file %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ReadError) Unwrap() error {
	return e.Cause
}

// WriteError occurs when the formatted output can't be written. Degraded
// reports whether a plain key=value dump, without comments, was written
// in its place.
type WriteError struct {
	Path     string
	Degraded bool
	Cause    error
}

// Error implements the [error] interface.
func (e WriteError) Error() string {
	msg := "failed to write properties"
	if e.Path != "" {
		msg += " file " + e.Path
	}
	if e.Degraded {
		msg += " (wrote plain dump instead)"
	}
	return fmt.Sprintf("%s: %s", msg, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e WriteError) Unwrap() error {
	return e.Cause
}

// Store is an ordered, comment preserving key/value store. All methods
// are safe for concurrent use.
type Store struct {
	mu sync.Mutex

	order    []string
	tracked  map[string]struct{}
	values   map[string]string
	comments map[string]string

	header   string
	trailer  string
	degraded bool
}

// New returns an empty Store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.order = nil
	s.tracked = make(map[string]struct{})
	s.values = make(map[string]string)
	s.comments = make(map[string]string)
	s.header = ""
	s.trailer = ""
	s.degraded = false
}

// Load replaces the contents of the store with the properties read from r.
//
// If r fails part way through, whatever was read is parsed without order
// or comment tracking and a [ReadError] is returned. If the text can't be
// parsed as a whole, each line is parsed on its own, again without
// tracking; see [Store.Degraded].
func (s *Store) Load(r io.Reader) error {
	return s.load(r, "")
}

// LoadFile is like [Store.Load] but reads the file at path.
func (s *Store) LoadFile(path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return ReadError{Path: path, Cause: err}
	}
	defer try.Close(&err, f)

	return s.load(f, path)
}

func (s *Store) load(r io.Reader, path string) error {
	b, readErr := io.ReadAll(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	lines := splitLines(string(b))
	if readErr != nil {
		s.values = parseLenient(lines)
		s.degraded = true
		return ReadError{Path: path, Cause: readErr}
	}

	values, err := parse(strings.Join(lines, "\n"))
	if err != nil {
		s.values = parseLenient(lines)
		s.degraded = true
		return nil
	}
	s.values = values
	s.track(lines)
	return nil
}

func (s *Store) track(lines []string) {
	var comment strings.Builder
	continued := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if i == 0 && isHeader(trimmed) {
			s.header = line
			continue
		}
		if continued {
			continued = continues(line)
			continue
		}

		switch {
		case trimmed == "":
			if comment.Len() > 0 {
				comment.WriteByte('\n')
			}
		case isComment(trimmed):
			if comment.Len() > 0 {
				comment.WriteByte('\n')
			}
			comment.WriteString(line)
		default:
			continued = continues(line)
			key, ok := splitKey(line)
			if !ok {
				continue
			}
			if comment.Len() > 0 {
				s.attachComment(key, comment.String())
				comment.Reset()
			}
			s.trackKey(key)
		}
	}
	s.trailer = comment.String()
}

func (s *Store) attachComment(key, comment string) {
	if prev, ok := s.comments[key]; ok {
		comment = prev + "\n" + comment
	}
	s.comments[key] = comment
}

func (s *Store) trackKey(key string) {
	if _, ok := s.tracked[key]; ok {
		return
	}
	s.tracked[key] = struct{}{}
	s.order = append(s.order, key)
}

// Store writes the properties to w. The header line read by Load is
// written first; when there is none, a non-empty comment is written as
// "# comment" instead.
func (s *Store) Store(w io.Writer, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store(w, comment, "")
}

// SaveFile is like [Store.Store] but replaces the file at path. The
// properties are written to a temporary file in the same directory which
// is renamed over path, so a failed save leaves the previous file in
// place. The exception is a degraded write: the plain dump is still moved
// into place and the [WriteError] reports Degraded.
func (s *Store) SaveFile(path, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return WriteError{Path: path, Cause: err}
	}
	tmp := f.Name()

	err = s.writeTemp(f, comment, path)
	if err != nil && !degraded(err) {
		_ = os.Remove(tmp)
		return asWriteError(err, path)
	}

	mode := os.FileMode(0o644)
	if fi, statErr := os.Stat(path); statErr == nil {
		mode = fi.Mode().Perm()
	}
	renameErr := os.Chmod(tmp, mode)
	if renameErr == nil {
		renameErr = os.Rename(tmp, path)
	}
	if renameErr != nil {
		_ = os.Remove(tmp)
		return WriteError{Path: path, Cause: renameErr}
	}
	return err
}

func (s *Store) writeTemp(f *os.File, comment, path string) (err error) {
	defer try.Close(&err, f)

	return s.store(f, comment, path)
}

// degraded reports whether err is only a degraded write, i.e. the plain
// dump reached the file in full.
func degraded(err error) bool {
	var cerr try.CloseError
	if errors.As(err, &cerr) {
		return false
	}
	var werr WriteError
	return errors.As(err, &werr) && werr.Degraded
}

func asWriteError(err error, path string) error {
	if werr, ok := err.(WriteError); ok {
		return werr
	}
	return WriteError{Path: path, Cause: err}
}

func (s *Store) store(w io.Writer, comment, path string) error {
	var buf bytes.Buffer
	s.render(&buf, comment)

	_, err := w.Write(buf.Bytes())
	if err == nil {
		return nil
	}

	werr := WriteError{Path: path, Cause: err}
	if derr := s.dump(w, comment); derr != nil {
		werr.Cause = errors.Join(err, derr)
		return werr
	}
	werr.Degraded = true
	return werr
}

func (s *Store) render(buf *bytes.Buffer, comment string) {
	writeLine := func(line string) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	switch {
	case s.header != "":
		writeLine(s.header)
	case comment != "":
		writeLine("# " + comment)
	}

	for _, key := range s.order {
		value, ok := s.values[key]
		if !ok {
			continue
		}
		if c := s.comments[key]; c != "" {
			writeLine(c)
		}
		writeLine(escapeKey(key) + "=" + escapeValue(value))
	}
	for _, key := range s.untracked() {
		writeLine(escapeKey(key) + "=" + escapeValue(s.values[key]))
	}

	if s.trailer != "" {
		writeLine(s.trailer)
	}
}

// dump writes a plain key=value document with no comment tracking.
func (s *Store) dump(w io.Writer, comment string) error {
	p := properties.NewProperties()
	p.DisableExpansion = true
	for _, key := range s.keys() {
		_, _, err := p.Set(key, s.values[key])
		if err != nil {
			return err
		}
	}
	if comment != "" {
		_, err := fmt.Fprintf(w, "# %s\n", comment)
		if err != nil {
			return err
		}
	}
	_, err := p.Write(w, properties.UTF8)
	return err
}

// Get returns the value stored for key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key has a value.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set upserts the value for key. A new key is appended after every
// existing key.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trackKey(key)
	s.values[key] = value
}

// Remove deletes key along with its comment block and returns the value
// it held.
func (s *Store) Remove(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tracked[key]; ok {
		delete(s.tracked, key)
		s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
	}
	delete(s.comments, key)

	v, ok := s.values[key]
	delete(s.values, key)
	return v, ok
}

// Clear removes every key, comment and the header line.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
}

// Keys returns the keys holding a value, in file order. Keys which were
// never tracked, which only happens after a degraded load, follow in
// lexicographic order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.keys()
}

func (s *Store) keys() []string {
	keys := make([]string, 0, len(s.values))
	for _, key := range s.order {
		if _, ok := s.values[key]; ok {
			keys = append(keys, key)
		}
	}
	return append(keys, s.untracked()...)
}

func (s *Store) untracked() []string {
	var keys []string
	for key := range s.values {
		if _, ok := s.tracked[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys holding a value.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.values)
}

// Comment returns the comment block written above key, if any.
func (s *Store) Comment(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.comments[key]
}

// Header returns the header line recognised by the last Load.
func (s *Store) Header() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.header
}

// Degraded reports whether the last Load lost order and comment tracking.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.degraded
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := New()
	c.order = slices.Clone(s.order)
	for k := range s.tracked {
		c.tracked[k] = struct{}{}
	}
	for k, v := range s.values {
		c.values[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	c.header = s.header
	c.trailer = s.trailer
	c.degraded = s.degraded
	return c
}
