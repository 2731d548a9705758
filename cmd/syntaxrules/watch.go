package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/syntaxrules/rules"
)

// DefaultDebounce is how long changes are collected before a re-run.
const DefaultDebounce = 300 * time.Millisecond

// RulesWatcher watches ruleset files, and any extra files, and calls back
// once per burst of changes.
type RulesWatcher struct {
	patterns []string
	extra    map[string]bool
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
}

// NewRulesWatcher watches the directories the patterns can match in.
func NewRulesWatcher(patterns, extra []string, debounce time.Duration, logger *slog.Logger) (*RulesWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &RulesWatcher{
		patterns: patterns,
		extra:    make(map[string]bool),
		debounce: debounce,
		logger:   logger,
		watcher:  fsw,
		pending:  make(map[string]fsnotify.Op),
	}
	for _, p := range extra {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		w.extra[abs] = true
	}

	for _, dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("Failed to watch directory", "path", dir, "error", err)
		} else {
			w.logger.Debug("Watching directory", "path", dir)
		}
	}
	return w, nil
}

// dirs returns the static base of each pattern with its subdirectories, and
// the directories of extra files.
func (w *RulesWatcher) dirs() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for _, p := range w.patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
		root := filepath.FromSlash(base)
		info, err := os.Stat(root)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			add(filepath.Dir(root))
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err == nil && d.IsDir() {
				add(path)
			}
			return nil
		})
	}
	for f := range w.extra {
		add(filepath.Dir(f))
	}
	return out
}

// relevant reports whether a changed path is a ruleset or an extra file.
func (w *RulesWatcher) relevant(path string) bool {
	if abs, err := filepath.Abs(path); err == nil && w.extra[abs] {
		return true
	}
	if _, err := rules.FormatForPath(path); err != nil {
		return false
	}
	for _, p := range w.patterns {
		if ok, _ := doublestar.PathMatch(p, path); ok {
			return true
		}
		if filepath.Clean(p) == filepath.Clean(path) {
			return true
		}
	}
	return false
}

// Run blocks until ctx is done, calling onChange after each burst of
// relevant changes.
func (w *RulesWatcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	defer w.watcher.Close()
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			if paths := w.flushPending(); len(paths) > 0 {
				onChange(ctx, paths)
			}
		}
	}
}

func (w *RulesWatcher) handleFSEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err == nil {
				w.logger.Debug("Added watch for new directory", "path", event.Name)
			}
			return
		}
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.relevant(event.Name) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Rules change detected", "path", event.Name, "op", event.Op.String())
}

func (w *RulesWatcher) flushPending() []string {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]fsnotify.Op)
	sort.Strings(paths)
	return paths
}
