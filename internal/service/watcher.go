package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ── Watcher (fsnotify) ─────────────────────────────────────

// DefaultDebounce is how long the watcher waits after the last event on a
// file before invalidating it.
const DefaultDebounce = 200 * time.Millisecond

// Watcher drops cached entries of local sources when their files change.
// Paths are tracked as they are loaded; the parent directory of each file
// is watched so editors that replace files still trigger an event.
type Watcher struct {
	root       string
	isLocal    func(path string) bool
	invalidate func(path string) int
	debounce   time.Duration
	logger     *slog.Logger

	fw     *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	paths  map[string]map[string]bool // absolute file -> source paths
	dirs   map[string]bool
	timers map[string]*time.Timer
}

// NewWatcher starts a watcher resolving relative source paths against root.
// isLocal filters out paths served by non-filesystem readers.
func NewWatcher(root string, isLocal func(string) bool, invalidate func(string) int) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		root:       root,
		isLocal:    isLocal,
		invalidate: invalidate,
		debounce:   DefaultDebounce,
		logger:     slog.Default(),
		fw:         fw,
		cancel:     cancel,
		done:       make(chan struct{}),
		paths:      make(map[string]map[string]bool),
		dirs:       make(map[string]bool),
		timers:     make(map[string]*time.Timer),
	}
	go w.run(ctx)
	return w, nil
}

// Track starts watching the file behind a source path. Non-local paths and
// already tracked paths are ignored.
func (w *Watcher) Track(path string) error {
	if w.isLocal != nil && !w.isLocal(path) {
		return nil
	}
	abs, err := filepath.Abs(filepath.Join(w.root, strings.TrimPrefix(path, "file://")))
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.paths[abs] == nil {
		w.paths[abs] = make(map[string]bool)
	}
	w.paths[abs][path] = true

	dir := filepath.Dir(abs)
	if w.dirs[dir] {
		return nil
	}
	if err := w.fw.Add(dir); err != nil {
		return err
	}
	w.dirs[dir] = true
	w.logger.Debug("fixture watcher: watching directory", "dir", dir)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			w.schedule(abs)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fixture watcher: error", "error", err)
		}
	}
}

func (w *Watcher) schedule(abs string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.paths[abs]) == 0 {
		return
	}
	if t, ok := w.timers[abs]; ok {
		t.Stop()
	}
	w.timers[abs] = time.AfterFunc(w.debounce, func() { w.fire(abs) })
}

func (w *Watcher) fire(abs string) {
	w.mu.Lock()
	delete(w.timers, abs)
	paths := make([]string, 0, len(w.paths[abs]))
	for p := range w.paths[abs] {
		paths = append(paths, p)
	}
	w.mu.Unlock()

	for _, p := range paths {
		if n := w.invalidate(p); n > 0 {
			w.logger.Info("fixture watcher: file changed, cache invalidated", "path", p, "entries", n)
		}
	}
}

// Close stops the watcher and any pending invalidation.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fw.Close()
	<-w.done

	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()
	return err
}
