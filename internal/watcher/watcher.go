// Package watcher keeps indexed artifacts in sync with files on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bull/groundchat/internal/indexer"
)

// DefaultDebounce collapses bursts of writes from editors into one re-index.
const DefaultDebounce = 250 * time.Millisecond

// Target is what the watcher drives, normally *indexer.Indexer.
type Target interface {
	Index(ctx context.Context, sourceID, content string) (*indexer.Result, error)
	DeleteBySource(ctx context.Context, sourceID string) error
}

// Watcher re-indexes files when they change and drops them when they are removed.
type Watcher struct {
	target   Target
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher. A non-positive debounce uses DefaultDebounce.
func New(target Target, debounce time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{target: target, debounce: debounce, logger: logger}
}

// SourceID is the artifact name a file is indexed under.
func SourceID(path string) string {
	return filepath.Base(path)
}

// Watch indexes every file once, then follows changes until ctx is done.
func (w *Watcher) Watch(ctx context.Context, paths []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	// Watch directories so editors that replace files on save are still seen.
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	for path := range files {
		w.sync(ctx, path)
	}

	pending := make(map[string]bool)
	var flush <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if !files[path] || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[path] = true
			flush = time.After(w.debounce)

		case <-flush:
			for path := range pending {
				w.sync(ctx, path)
			}
			pending = make(map[string]bool)
			flush = nil

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)
		}
	}
}

// sync makes the index match the file's current state. A missing file is
// removed from the index; an existing one replaces its previous chunks.
func (w *Watcher) sync(ctx context.Context, path string) {
	source := SourceID(path)

	if err := w.target.DeleteBySource(ctx, source); err != nil {
		w.logger.Warn("Failed to drop stale chunks", "source", source, "error", err)
		return
	}

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		w.logger.Info("File removed, dropped from index", "source", source)
		return
	}
	if err != nil {
		w.logger.Warn("Failed to read file", "path", path, "error", err)
		return
	}

	if _, err := w.target.Index(ctx, source, string(content)); err != nil {
		w.logger.Warn("Failed to index file", "source", source, "error", err)
	}
}
