// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settings

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/z5labs/propedit/internal/try"
)

const (
	// DefaultPropertiesFile is the properties file name used when none is configured.
	DefaultPropertiesFile = "local.properties"

	// DefaultSchemaFile is the schema file name used when none is configured.
	DefaultSchemaFile = "property_schema.json"
)

// FileSettings are the two paths the editor works on.
type FileSettings struct {
	PropertiesFile string `config:"properties_file"`
	SchemaFile     string `config:"schema_file"`
}

// Provider supplies [FileSettings] on demand.
type Provider interface {
	FileSettings() (FileSettings, error)
}

// Static is a [Provider] which always returns the same paths.
type Static FileSettings

// FileSettings implements the [Provider] interface.
func (s Static) FileSettings() (FileSettings, error) {
	return FileSettings(s), nil
}

// Defaults returns a source holding the default file names inside projectDir.
func Defaults(projectDir string) Source {
	return Map{
		"properties_file": filepath.Join(projectDir, DefaultPropertiesFile),
		"schema_file":     filepath.Join(projectDir, DefaultSchemaFile),
	}
}

// Resolve layers srcs over the defaults for projectDir. Relative paths are
// taken relative to projectDir.
func Resolve(projectDir string, srcs ...Source) (FileSettings, error) {
	m, err := Read(append([]Source{Defaults(projectDir)}, srcs...)...)
	if err != nil {
		return FileSettings{}, err
	}

	var files FileSettings
	err = m.Unmarshal(&files)
	if err != nil {
		return FileSettings{}, err
	}
	files.PropertiesFile = absolute(projectDir, files.PropertiesFile)
	files.SchemaFile = absolute(projectDir, files.SchemaFile)
	return files, nil
}

func absolute(dir, path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

// UnsupportedFormatError occurs when a settings file extension is neither
// YAML nor JSON.
type UnsupportedFormatError struct {
	Path string
}

// Error implements the [error] interface.
func (e UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported settings file format: %s", e.Path)
}

// FileProvider re-reads an optional settings file every time paths are
// requested, so edits to it apply without restarting.
//
// The settings file is rendered as a text/template, with an "env" func
// for reading environment variables, before being parsed as YAML or JSON
// depending on its extension. A missing settings file is not an error.
type FileProvider struct {
	ProjectDir string
	Path       string

	// Overrides are applied after the settings file.
	Overrides Source
}

// FileSettings implements the [Provider] interface.
func (p FileProvider) FileSettings() (FileSettings, error) {
	srcs := make([]Source, 0, 2)
	if p.Path != "" {
		src, err := p.fileSource()
		if err != nil {
			return FileSettings{}, err
		}
		srcs = append(srcs, src)
	}
	srcs = append(srcs, p.Overrides)
	return Resolve(p.ProjectDir, srcs...)
}

func (p FileProvider) fileSource() (Source, error) {
	f, err := os.Open(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r := RenderTextTemplate(f, TemplateFunc("env", os.Getenv))
	src := closingSource{closer: f}
	switch strings.ToLower(filepath.Ext(p.Path)) {
	case ".yaml", ".yml":
		src.Source = FromYaml(r)
	case ".json":
		src.Source = FromJson(r)
	default:
		f.Close()
		return nil, UnsupportedFormatError{Path: p.Path}
	}
	return src, nil
}

// closingSource closes the settings file once its source has been applied.
type closingSource struct {
	Source
	closer io.Closer
}

func (s closingSource) Apply(store Store) (err error) {
	defer try.Close(&err, s.closer)
	return s.Source.Apply(store)
}
