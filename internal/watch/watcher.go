// Package watch keeps the catalog in sync with on-disk changes, via
// filesystem notifications and an optional cron-based full refresh.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"fsql/internal/catalog"
)

const (
	// debounceWindow coalesces bursts of events (editors often write a
	// file several times in quick succession) into one refresh.
	debounceWindow = 500 * time.Millisecond

	// syncInterval is how often the set of watched directories is
	// reconciled against the attached databases.
	syncInterval = 30 * time.Second
)

// Watcher refreshes attached databases when their folders change on disk.
type Watcher struct {
	cat *catalog.Catalog
	fsw *fsnotify.Watcher
	log *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer // alias → debounce timer
	watched map[string]bool        // directories currently watched
}

// New creates a Watcher. Call Run to start it.
func New(cat *catalog.Catalog, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		cat:     cat,
		fsw:     fsw,
		log:     log,
		pending: make(map[string]*time.Timer),
		watched: make(map[string]bool),
	}, nil
}

// Run watches until ctx is canceled. It reconciles watched directories
// periodically so databases attached after startup are picked up too.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	w.sync()
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sync()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

// sync reconciles the watched directory set with the attached databases.
// Each database root and its schema subfolders get their own watch.
func (w *Watcher) sync() {
	want := make(map[string]bool)
	for _, d := range w.cat.Databases() {
		for _, s := range d.Schemas {
			want[s.Path] = true
		}
		want[d.Path] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := range want {
		if w.watched[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			w.log.Warn("watch directory failed", "dir", dir, "error", err)
			continue
		}
		w.watched[dir] = true
	}
	for dir := range w.watched {
		if want[dir] {
			continue
		}
		_ = w.fsw.Remove(dir)
		delete(w.watched, dir)
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if ignorePath(event.Name) {
		return
	}
	alias, ok := w.cat.AliasForPath(event.Name)
	if !ok {
		return
	}
	w.scheduleRefresh(alias)
}

// scheduleRefresh debounces refreshes per alias.
func (w *Watcher) scheduleRefresh(alias string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[alias]; ok {
		t.Reset(debounceWindow)
		return
	}
	w.pending[alias] = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		delete(w.pending, alias)
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := w.cat.Refresh(ctx, alias); err != nil {
			w.log.Warn("refresh after file change failed", "alias", alias, "error", err)
			return
		}
		w.log.Info("refreshed after file change", "alias", alias)
	})
}

// ignorePath filters out events for files that never affect the catalog:
// our own backups, temp files from atomic replaces, and dot-files.
func ignorePath(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	return strings.HasSuffix(base, ".bak")
}
