// Package watch rebuilds entities when their frame files change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"spritegg/internal/logging"
	"spritegg/internal/sprite"
)

// BuildFunc rebuilds one entity.
type BuildFunc func(ctx context.Context, entity sprite.Entity) error

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Builds        int
	Errors        int
	LastEntity    string
	LastEventTime time.Time
}

// Watcher watches a scan root, its entity folders and their action folders.
// Frame changes are debounced per entity and rebuilt one at a time from the
// watcher goroutine.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	root        string
	build       BuildFunc
	pending     map[string]time.Time // entity name -> last event
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// New creates a watcher for root.
func New(root string, build BuildFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		root:        abs,
		build:       build,
		pending:     make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// SetDebounce changes the settle window. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.debounceDur = d
	w.mu.Unlock()
}

// Start adds the directory tree and begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.root, 0); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Watch("watching %s (%d dirs)", w.root, len(w.watcher.WatchList()))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.WatchError("error closing watcher: %v", err)
	}
	logging.Watch("stopped")
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// WatchedDirs returns the watched directories.
func (w *Watcher) WatchedDirs() []string {
	dirs := w.watcher.WatchList()
	sort.Strings(dirs)
	return dirs
}

// addTree watches dir and its non-hidden sub-directories down to the action
// folder level.
func (w *Watcher) addTree(dir string, depth int) error {
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	if depth >= 2 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := w.addTree(filepath.Join(dir, e.Name()), depth+1); err != nil {
			logging.WatchError("watch %s: %v", filepath.Join(dir, e.Name()), err)
		}
	}
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	w.mu.RLock()
	tick := w.debounceDur / 5
	w.mu.RUnlock()
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.WatchError("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-debounceTicker.C:
			w.processSettled(ctx)
		}
	}
}

// handleEvent maps a filesystem event to the entity it belongs to.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for _, p := range parts {
		if strings.HasPrefix(p, ".") {
			return
		}
	}

	if event.Op&fsnotify.Create != 0 && len(parts) <= 2 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name, len(parts)); err != nil {
				logging.WatchError("watch %s: %v", event.Name, err)
			}
		}
	}

	relevant := false
	switch len(parts) {
	case 3:
		relevant = strings.EqualFold(filepath.Ext(parts[2]), ".png") &&
			event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
	case 2:
		// An action folder appeared or went away.
		relevant = event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 || isDir(event.Name)
	}
	if !relevant {
		return
	}

	logging.WatchDebug("%s %s", event.Op, event.Name)
	w.mu.Lock()
	w.pending[parts[0]] = time.Now()
	w.stats.Events++
	w.stats.LastEventTime = time.Now()
	w.mu.Unlock()
}

// processSettled rebuilds entities whose last event is older than the
// debounce window.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for name, last := range w.pending {
		if now.Sub(last) >= w.debounceDur {
			ready = append(ready, name)
			delete(w.pending, name)
		}
	}
	w.mu.Unlock()
	sort.Strings(ready)

	for _, name := range ready {
		path := filepath.Join(w.root, name)
		if !isDir(path) {
			continue
		}
		logging.Watch("rebuilding %s", name)
		err := w.build(ctx, sprite.Entity{Name: name, Path: path})

		w.mu.Lock()
		w.stats.Builds++
		w.stats.LastEntity = name
		if err != nil {
			w.stats.Errors++
		}
		w.mu.Unlock()
		if err != nil {
			logging.WatchError("rebuild %s: %v", name, err)
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
