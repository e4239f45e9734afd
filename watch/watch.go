// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package watch reloads the configuration whenever the files it was loaded
// from change on disk.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/z5labs/propedit/internal/logging"
	"github.com/z5labs/propedit/internal/slogfield"
	"github.com/z5labs/propedit/internal/try"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce = 250 * time.Millisecond
	defaultQuiet    = time.Second
)

// Option configures a [Watcher].
type Option func(*Watcher)

// Debounce sets how long the watched files must be left alone before a
// reload is triggered.
func Debounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Quiet sets how long changes to a file are ignored after [Watcher.Refresh]
// was told about it.
func Quiet(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.quiet = d
		}
	}
}

// Logger sets the logger. Nothing is logged by default.
func Logger(log *slog.Logger) Option {
	return func(w *Watcher) {
		w.log = log
	}
}

// Watcher calls a reload func when any of its files is created, written,
// removed or renamed by someone else.
//
// It implements repository.FileRefresher: writes it is told about via
// Refresh don't trigger a reload.
type Watcher struct {
	paths    map[string]struct{}
	reload   func(context.Context) error
	log      *slog.Logger
	debounce time.Duration
	quiet    time.Duration
	now      func() time.Time

	mu      sync.Mutex
	written map[string]time.Time
}

// New returns a Watcher for paths.
func New(reload func(context.Context) error, paths []string, opts ...Option) *Watcher {
	w := &Watcher{
		paths:    make(map[string]struct{}, len(paths)),
		reload:   reload,
		log:      logging.Discard(),
		debounce: defaultDebounce,
		quiet:    defaultQuiet,
		now:      time.Now,
		written:  make(map[string]time.Time),
	}
	for _, path := range paths {
		w.paths[clean(path)] = struct{}{}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Refresh records that path was just written by this process.
func (w *Watcher) Refresh(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.written[clean(path)] = w.now()
}

// Run watches until ctx is cancelled. Reload failures are logged and
// don't stop the watcher.
func (w *Watcher) Run(ctx context.Context) (err error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer try.Close(&err, fsw)

	// parent directories, so a file replaced by a rename is still seen
	dirs := make(map[string]struct{})
	for path := range w.paths {
		dir := filepath.Dir(path)
		if _, ok := dirs[dir]; ok {
			continue
		}
		dirs[dir] = struct{}{}

		err = fsw.Add(dir)
		if err != nil {
			return err
		}
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.DebugContext(ctx, "file changed", slogfield.Path(event.Name), slogfield.String("op", event.Op.String()))

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WarnContext(ctx, "file watcher error", slogfield.Error(err))
		case <-fire:
			fire = nil
			err := w.reload(ctx)
			if err != nil {
				w.log.WarnContext(ctx, "failed to reload after file change", slogfield.Error(err))
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	path := clean(event.Name)
	if _, ok := w.paths[path]; !ok {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	at, ok := w.written[path]
	if !ok {
		return true
	}
	if w.now().Sub(at) < w.quiet {
		return false
	}
	delete(w.written, path)
	return true
}

func clean(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
