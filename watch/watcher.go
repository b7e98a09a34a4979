// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package watch keeps the retrieval index in step with the file system.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/fileoracle/filesearch"
	"github.com/poiesic/fileoracle/ingestion"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Indexer is the part of the ingestion pipeline the watcher drives.
type Indexer interface {
	IngestFile(ctx context.Context, path string, force bool) ingestion.FileResult
	Remove(ctx context.Context, source string) error
}

var _ Indexer = (*ingestion.Pipeline)(nil)

type change int

const (
	changeIndex change = iota
	changeRemove
)

// Watcher re-indexes files under watched directories as they change.
// Bursts of events are debounced and each path is processed once per burst.
type Watcher struct {
	indexer    Indexer
	fsw        *fsnotify.Watcher
	extensions []string
	limits     filesearch.Limits
	debounce   time.Duration
	onResult   func(ingestion.FileResult)
	logger     *slog.Logger

	pending map[string]change
}

// Option configures a Watcher.
type Option func(*Watcher) error

// WithExtensions restricts indexing to files with these extensions.
func WithExtensions(extensions []string) Option {
	return func(w *Watcher) error {
		w.extensions = ingestion.NormalizeExtensions(extensions)
		return nil
	}
}

// WithLimits sets the directory exclusions honored when adding directories.
func WithLimits(limits filesearch.Limits) Option {
	return func(w *Watcher) error {
		w.limits = limits
		return nil
	}
}

// WithDebounce sets the quiet period before pending changes are processed.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) error {
		if d <= 0 {
			return fmt.Errorf("debounce must be positive, got %v", d)
		}
		w.debounce = d
		return nil
	}
}

// WithResultHandler receives the outcome of every re-indexed file.
func WithResultHandler(fn func(ingestion.FileResult)) Option {
	return func(w *Watcher) error {
		w.onResult = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// New creates a Watcher. Call Add for each directory tree, then Run.
func New(indexer Indexer, opts ...Option) (*Watcher, error) {
	if indexer == nil {
		return nil, errors.New("indexer required")
	}
	w := &Watcher{
		indexer:    indexer,
		extensions: ingestion.NormalizeExtensions(nil),
		limits:     filesearch.DefaultLimits(),
		debounce:   DefaultDebounce,
		logger:     slog.Default(),
		pending:    make(map[string]change),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	w.logger = w.logger.With("component", "watcher")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w.fsw = fsw
	return w, nil
}

// Add watches root and every directory below it that is not hidden or excluded.
func (w *Watcher) Add(root string) error {
	return w.addTree(root, false)
}

// addTree registers directories under root. When queue is set, files already
// present are scheduled for indexing; they may predate the watch.
func (w *Watcher) addTree(root string, queue bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != root && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			if queue && w.wanted(path) {
				w.pending[path] = changeIndex
			}
			return nil
		}
		if path != root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

// Run processes events until ctx is done or the watcher is closed.
// Pending changes are flushed before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		timerC = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.flush(context.WithoutCancel(ctx))
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				w.flush(ctx)
				return nil
			}
			if w.handle(event) {
				schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.flush(ctx)
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case <-timerC:
			timerC = nil
			w.flush(ctx)
		}
	}
}

// Close stops watching. A running Run returns after flushing.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// handle records the change event describes and reports whether anything is pending.
func (w *Watcher) handle(event fsnotify.Event) bool {
	path := event.Name
	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if w.skipDir(filepath.Base(path)) {
				return false
			}
			if err := w.addTree(path, true); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "err", err)
			}
			return len(w.pending) > 0
		}
		if !w.wanted(path) {
			return false
		}
		w.pending[path] = changeIndex
	case event.Has(fsnotify.Write):
		if !w.wanted(path) {
			return false
		}
		w.pending[path] = changeIndex
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !w.wanted(path) {
			return false
		}
		w.pending[path] = changeRemove
	default:
		return false
	}
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	w.logger.Debug("processing changes", "paths", len(w.pending))
	pending := w.pending
	w.pending = make(map[string]change)

	for path, c := range pending {
		if c == changeIndex {
			result := w.indexer.IngestFile(ctx, path, false)
			if result.Status == ingestion.StatusFailed && errors.Is(result.Err, fs.ErrNotExist) {
				c = changeRemove
			} else {
				w.report(result)
				continue
			}
		}
		if c == changeRemove {
			if err := w.indexer.Remove(ctx, path); err != nil {
				w.logger.Warn("failed to remove source", "path", path, "err", err)
				continue
			}
			w.logger.Info("removed from index", "path", path)
		}
	}
}

func (w *Watcher) report(result ingestion.FileResult) {
	switch result.Status {
	case ingestion.StatusFailed:
		w.logger.Warn("failed to re-index file", "path", result.Path, "err", result.Err)
	case ingestion.StatusIndexed:
		w.logger.Info("re-indexed file", "path", result.Path, "chunks", result.Chunks)
	}
	if w.onResult != nil {
		w.onResult(result)
	}
}

func (w *Watcher) wanted(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return ingestion.HasExtension(path, w.extensions)
}

func (w *Watcher) skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || w.limits.ExcludesDir(name)
}
