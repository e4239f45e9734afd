// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package repository is the mutation API over a schema and the properties
// file it describes.
//
// A [Repository] loads both files, reconciles them on demand and applies
// validated edits while keeping the file's order and comments intact.
package repository

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/z5labs/propedit/internal/logging"
	"github.com/z5labs/propedit/internal/slogfield"
	"github.com/z5labs/propedit/properties"
	"github.com/z5labs/propedit/property"
	"github.com/z5labs/propedit/reconcile"
	"github.com/z5labs/propedit/schema"
	"github.com/z5labs/propedit/settings"
	"github.com/z5labs/propedit/validate"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/z5labs/propedit/repository"

// Option configures a [Repository].
type Option func(*Repository)

// Logger sets the logger. Nothing is logged by default.
func Logger(log *slog.Logger) Option {
	return func(r *Repository) {
		r.log = log
	}
}

// Refresher sets the collaborator told about every write of the
// properties file.
func Refresher(fr FileRefresher) Option {
	return func(r *Repository) {
		r.refresher = fr
	}
}

// Tracer sets the tracer used for spans around every operation. The global
// tracer provider is used by default.
func Tracer(t trace.Tracer) Option {
	return func(r *Repository) {
		r.tracer = t
	}
}

// Repository holds the currently loaded schema and properties file.
type Repository struct {
	provider  settings.Provider
	log       *slog.Logger
	tracer    trace.Tracer
	refresher FileRefresher

	*listeners

	mu     sync.RWMutex
	files  settings.FileSettings
	schema *schema.Schema
	store  *properties.Store
}

// New returns a Repository which asks provider for the file paths on every
// load.
func New(provider settings.Provider, opts ...Option) *Repository {
	r := &Repository{
		provider:  provider,
		log:       logging.Discard(),
		tracer:    otel.Tracer(tracerName),
		refresher: RefresherFunc(func(string) {}),
		listeners: newListeners(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers o to be notified after every successful load, reset,
// delete and preset application.
func (r *Repository) Subscribe(o Observer) *Subscription {
	return r.subscribe(o)
}

// OnError registers f to receive the error of every failed operation, and
// nil after every successful one.
func (r *Repository) OnError(f func(error)) *Subscription {
	return r.subscribeErrors(f)
}

// LoadConfiguration loads the schema and the properties file. They are
// only swapped in when both load, otherwise the previous configuration is
// kept and a [LoadError] is returned.
func (r *Repository) LoadConfiguration(ctx context.Context) (err error) {
	ctx, span := r.tracer.Start(ctx, "Repository.LoadConfiguration")
	defer span.End()
	defer func() { r.finish(ctx, span, "load configuration", err) }()

	files, err := r.provider.FileSettings()
	if err != nil {
		return LoadError{Cause: err}
	}
	span.SetAttributes(
		attribute.String("propedit.properties_file", files.PropertiesFile),
		attribute.String("propedit.schema_file", files.SchemaFile),
	)

	var s *schema.Schema
	store := properties.New()

	var g errgroup.Group
	g.Go(func() error {
		var err error
		s, err = schema.LoadFile(files.SchemaFile)
		if err != nil {
			return LoadError{Path: files.SchemaFile, Cause: err}
		}
		return nil
	})
	g.Go(func() error {
		err := store.LoadFile(files.PropertiesFile)
		if err != nil {
			return LoadError{Path: files.PropertiesFile, Cause: err}
		}
		return nil
	})
	err = g.Wait()
	if err != nil {
		return err
	}
	if store.Degraded() {
		r.log.WarnContext(
			ctx,
			"properties file could not be parsed as a whole, order and comments will not be kept",
			slogfield.Path(files.PropertiesFile),
		)
	}

	r.mu.Lock()
	r.files = files
	r.schema = s
	r.store = store
	r.mu.Unlock()

	r.log.InfoContext(
		ctx,
		"loaded configuration",
		slogfield.Path(files.PropertiesFile),
		slogfield.Int("definitions", len(s.Definitions)),
		slogfield.Int("presets", len(s.Presets)),
		slogfield.Int("keys", store.Len()),
	)
	r.reloaded()
	return nil
}

// Files returns the paths of the loaded configuration.
func (r *Repository) Files() settings.FileSettings {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.files
}

// Properties reconciles the schema with the properties file. The result is
// computed fresh on every call.
func (r *Repository) Properties() []property.Property {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.schema == nil {
		return nil
	}
	return reconcile.Reconcile(r.schema.Definitions, r.store)
}

// Definitions returns every schema definition in schema order.
func (r *Repository) Definitions() []property.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.schema == nil {
		return nil
	}
	return r.schema.Definitions
}

// Definition returns the schema definition of key.
func (r *Repository) Definition(key string) (property.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.schema == nil {
		return property.Definition{}, false
	}
	return r.schema.Definition(key)
}

// Presets returns every preset in schema order.
func (r *Repository) Presets() []property.Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.schema == nil {
		return nil
	}
	return r.schema.Presets
}

// Preset returns the preset called name.
func (r *Repository) Preset(name string) (property.Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.schema == nil {
		return property.Preset{}, false
	}
	return r.schema.Preset(name)
}

// UpdateProperty validates p against its definition and writes its value
// to the properties file. An invalid value is returned as a
// [*validate.InvalidValueError] and the file is left untouched.
func (r *Repository) UpdateProperty(ctx context.Context, p property.Property) (err error) {
	ctx, span := r.tracer.Start(ctx, "Repository.UpdateProperty", trace.WithAttributes(
		attribute.String("propedit.key", p.Key),
	))
	defer span.End()
	defer func() { r.finish(ctx, span, "update property", err) }()

	err = r.mutate(ctx, func(s *schema.Schema, store *properties.Store) error {
		return update(s, store, p)
	})
	if err != nil {
		return err
	}

	r.log.InfoContext(ctx, "updated property", slogfield.Key(p.Key), slogfield.Value(p.Value.String()))
	return nil
}

// DeleteProperty removes key, and the comment block above it, from the
// properties file.
func (r *Repository) DeleteProperty(ctx context.Context, key string) (err error) {
	ctx, span := r.tracer.Start(ctx, "Repository.DeleteProperty", trace.WithAttributes(
		attribute.String("propedit.key", key),
	))
	defer span.End()
	defer func() { r.finish(ctx, span, "delete property", err) }()

	err = r.mutate(ctx, func(_ *schema.Schema, store *properties.Store) error {
		store.Remove(key)
		return nil
	})
	if err != nil {
		return err
	}

	r.log.InfoContext(ctx, "deleted property", slogfield.Key(key))
	r.reloaded()
	return nil
}

// ResetToDefaults writes the default value of every definition which has
// one. Keys whose definition has no default keep their current value.
func (r *Repository) ResetToDefaults(ctx context.Context) (err error) {
	ctx, span := r.tracer.Start(ctx, "Repository.ResetToDefaults")
	defer span.End()
	defer func() { r.finish(ctx, span, "reset to defaults", err) }()

	err = r.mutate(ctx, resetToDefaults)
	if err != nil {
		return err
	}

	r.log.InfoContext(ctx, "reset properties to their defaults")
	r.reloaded()
	return nil
}

// ApplyPreset writes every value of the named preset. All values are
// validated before any is written.
func (r *Repository) ApplyPreset(ctx context.Context, name string) (err error) {
	ctx, span := r.tracer.Start(ctx, "Repository.ApplyPreset", trace.WithAttributes(
		attribute.String("propedit.preset", name),
	))
	defer span.End()
	defer func() { r.finish(ctx, span, "apply preset", err) }()

	err = r.mutate(ctx, func(s *schema.Schema, store *properties.Store) error {
		return applyPreset(s, store, name)
	})
	if err != nil {
		return err
	}

	r.log.InfoContext(ctx, "applied preset", slogfield.Preset(name))
	r.reloaded()
	return nil
}

// Preview is the properties file before and after a change.
type Preview struct {
	Path   string
	Before string
	After  string
}

// PreviewUpdate returns what [Repository.UpdateProperty] would write,
// without writing it.
func (r *Repository) PreviewUpdate(ctx context.Context, p property.Property) (Preview, error) {
	_, span := r.tracer.Start(ctx, "Repository.PreviewUpdate", trace.WithAttributes(
		attribute.String("propedit.key", p.Key),
	))
	defer span.End()

	return r.preview(func(s *schema.Schema, store *properties.Store) error {
		return update(s, store, p)
	})
}

// PreviewPreset returns what [Repository.ApplyPreset] would write,
// without writing it.
func (r *Repository) PreviewPreset(ctx context.Context, name string) (Preview, error) {
	_, span := r.tracer.Start(ctx, "Repository.PreviewPreset", trace.WithAttributes(
		attribute.String("propedit.preset", name),
	))
	defer span.End()

	return r.preview(func(s *schema.Schema, store *properties.Store) error {
		return applyPreset(s, store, name)
	})
}

// PreviewReset returns what [Repository.ResetToDefaults] would write,
// without writing it.
func (r *Repository) PreviewReset(ctx context.Context) (Preview, error) {
	_, span := r.tracer.Start(ctx, "Repository.PreviewReset")
	defer span.End()

	return r.preview(resetToDefaults)
}

type mutation func(*schema.Schema, *properties.Store) error

// mutate applies f to a copy of the store, saves the copy and only then
// swaps it in. A rejected or unsaved change shows up neither in memory
// nor on disk.
func (r *Repository) mutate(ctx context.Context, f mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schema == nil {
		return ErrNotLoaded
	}

	next := r.store.Clone()
	err := f(r.schema, next)
	if err != nil {
		return err
	}

	path := r.files.PropertiesFile
	err = next.SaveFile(path, "")
	var werr properties.WriteError
	if err != nil && !(errors.As(err, &werr) && werr.Degraded) {
		return SaveError{Path: path, Cause: err}
	}
	// a degraded save still put every value on disk
	r.store = next
	r.refresher.Refresh(path)
	if err != nil {
		return SaveError{Path: path, Cause: err}
	}

	r.log.DebugContext(ctx, "saved properties file", slogfield.Path(path))
	return nil
}

func (r *Repository) preview(f mutation) (Preview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.schema == nil {
		return Preview{}, ErrNotLoaded
	}

	var before bytes.Buffer
	err := r.store.Store(&before, "")
	if err != nil {
		return Preview{}, err
	}

	next := r.store.Clone()
	err = f(r.schema, next)
	if err != nil {
		return Preview{}, err
	}

	var after bytes.Buffer
	err = next.Store(&after, "")
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		Path:   r.files.PropertiesFile,
		Before: before.String(),
		After:  after.String(),
	}, nil
}

// finish publishes the outcome of an operation on the error channel and
// records any failure on the span.
func (r *Repository) finish(ctx context.Context, span trace.Span, op string, err error) {
	r.publish(err)
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.log.WarnContext(ctx, "failed to "+op, slogfield.Error(err))
}

func update(s *schema.Schema, store *properties.Store, p property.Property) error {
	if p.Value == nil {
		return &validate.InvalidValueError{Key: p.Key, Reason: "no value given"}
	}

	var def *property.Definition
	if d, ok := s.Definition(p.Key); ok {
		def = &d
	}
	err := validate.Property(p, def)
	if err != nil {
		return err
	}
	store.Set(p.Key, p.Value.String())
	return nil
}

func resetToDefaults(s *schema.Schema, store *properties.Store) error {
	for _, def := range s.Definitions {
		if def.Default == nil {
			continue
		}
		store.Set(def.Key, def.Default.String())
	}
	return nil
}

func applyPreset(s *schema.Schema, store *properties.Store, name string) error {
	preset, ok := s.Preset(name)
	if !ok {
		return NotFoundError{Preset: name}
	}

	for _, p := range preset.Properties {
		def, ok := s.Definition(p.Key)
		if !ok {
			continue
		}
		err := validate.Value(p.Value, def)
		if err != nil {
			return err
		}
	}
	for _, p := range preset.Properties {
		store.Set(p.Key, p.Value.String())
	}
	return nil
}
