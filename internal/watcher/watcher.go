// Package watcher monitors scanned roots for changes and broadcasts events via callbacks.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// EventType represents the type of file system event
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "update"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	}
	return "unknown"
}

// Event represents a file system change event
type Event struct {
	Type EventType
	Path string
	Root string
}

// Callback is a function called when file changes occur
type Callback func(Event)

// Watcher monitors every directory below the roots it has been given
type Watcher struct {
	watcher   *fsnotify.Watcher
	logger    zerolog.Logger
	callbacks []Callback
	roots     map[string]bool
	mu        sync.RWMutex
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a new file system watcher
func New(logger zerolog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: w,
		logger:  logger.With().Str("component", "watcher").Logger(),
		roots:   make(map[string]bool),
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for file change events
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins delivering events
func (w *Watcher) Start() {
	go w.eventLoop()
}

// AddRoot watches root and every directory below it. Directories that cannot
// be read are skipped. Adding a root twice is a no-op.
func (w *Watcher) AddRoot(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.roots[absRoot] {
		w.mu.Unlock()
		return nil
	}
	w.roots[absRoot] = true
	w.mu.Unlock()

	info, err := os.Stat(absRoot)
	if err != nil {
		w.forget(absRoot)
		return err
	}
	if !info.IsDir() {
		w.forget(absRoot)
		return &fs.PathError{Op: "watch", Path: absRoot, Err: fs.ErrInvalid}
	}

	_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug().Str("path", path).Err(err).Msg("cannot walk")
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn().Str("path", path).Err(err).Msg("cannot watch")
			}
		}
		return nil
	})
	w.logger.Info().Str("root", absRoot).Msg("watching root")
	return nil
}

// Roots returns the watched roots
func (w *Watcher) Roots() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.roots))
	for r := range w.roots {
		out = append(out, r)
	}
	return out
}

func (w *Watcher) forget(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.roots, root)
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
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
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreate
		// If a new directory is created, watch it
		if isDir(event.Name) {
			_ = w.watcher.Add(event.Name)
		}
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventWrite
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		eventType = EventRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventRename
	default:
		return
	}

	e := Event{
		Type: eventType,
		Path: event.Name,
		Root: w.rootOf(event.Name),
	}

	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

// rootOf returns the longest watched root containing path.
func (w *Watcher) rootOf(path string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	best := ""
	for r := range w.roots {
		if path != r && !strings.HasPrefix(path, r+string(filepath.Separator)) {
			continue
		}
		if len(r) > len(best) {
			best = r
		}
	}
	return best
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
