// Package watch reloads the search snapshot when a build finishes writing a
// new index pair, including builds run by another process.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cyoasearch/cyoasearch/internal/logger"
)

// DefaultDebounce collapses the burst of events a single save produces.
const DefaultDebounce = 500 * time.Millisecond

// Reloader swaps in the latest persisted index pair.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Watcher triggers Reload after the index file is rewritten or the build
// lock is released.
type Watcher struct {
	dir       string
	indexFile string
	lockFile  string
	debounce  time.Duration
	reloader  Reloader

	mu      sync.Mutex
	reloads int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for dir. indexFile is the name of the file a build
// writes last; lockFile is removed when the build ends.
func New(dir, indexFile, lockFile string, reloader Reloader, opts ...Option) *Watcher {
	w := &Watcher{
		dir:       dir,
		indexFile: indexFile,
		lockFile:  lockFile,
		debounce:  DefaultDebounce,
		reloader:  reloader,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for new index builds", w.dir)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

// handleEvent reports whether event signals a finished write of the pair.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if filepath.Dir(event.Name) != filepath.Clean(w.dir) {
		return false
	}
	switch filepath.Base(event.Name) {
	case w.indexFile:
		return event.Has(fsnotify.Create) || event.Has(fsnotify.Write)
	case w.lockFile:
		return event.Has(fsnotify.Remove)
	default:
		return false
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if err := w.reloader.Reload(ctx); err != nil {
		logger.Warn("reload after index change failed: %v", err)
		return
	}
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	logger.Info("Index reloaded after change on disk")
}

// Reloads returns the number of successful reloads.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}
