package texture

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Reloader is what a Watcher hands changed paths to.
type Reloader interface {
	Reload(path string)
}

// Watcher reports texture files that change on disk. Events are collected on a background
// goroutine and handed over on the frame loop by Dispatch.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.Mutex
	changed map[string]struct{}
	dirs    map[string]struct{}
	done    chan struct{}
}

// NewWatcher starts watching for changes below root.
//
// Parameters:
//   - root: the texture root the library resolves paths against
//   - logger: the logger used for watch errors; nil uses slog.Default()
//
// Returns:
//   - *Watcher: the running watcher
//   - error: error if the platform watcher cannot be created
func NewWatcher(root string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create texture watcher: %w", err)
	}
	w := &Watcher{
		root:    root,
		watcher: fw,
		logger:  logger,
		changed: make(map[string]struct{}),
		dirs:    make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Watch starts watching the directory holding a texture.
//
// Parameters:
//   - path: slash-separated path relative to the root
//
// Returns:
//   - error: error if the directory cannot be watched
func (w *Watcher) Watch(path string) error {
	dir := filepath.Dir(filepath.Join(w.root, filepath.FromSlash(path)))
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.dirs[dir] = struct{}{}
	return nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			rel, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				continue
			}
			w.mu.Lock()
			w.changed[filepath.ToSlash(rel)] = struct{}{}
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("texture watcher error", "error", err)
		}
	}
}

// Dispatch hands every path changed since the last call to r.
//
// Returns:
//   - int: the number of paths handed over
func (w *Watcher) Dispatch(r Reloader) int {
	w.mu.Lock()
	changed := w.changed
	w.changed = make(map[string]struct{})
	w.mu.Unlock()

	for p := range changed {
		w.logger.Debug("texture changed on disk", "path", p)
		r.Reload(p)
	}
	return len(changed)
}

// Close stops watching and waits for the event goroutine to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
