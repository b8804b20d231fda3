// Package watcher provides debounced file watching for rebuild loops.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config controls what the watcher observes.
type Config struct {
	// Root is the workspace directory to watch recursively.
	Root string

	// Extensions are file suffixes that trigger a rebuild.
	Extensions []string

	// IgnoreDirs are directory names skipped entirely. The driver's
	// output tree must be ignored or every build would retrigger
	// itself.
	IgnoreDirs []string

	// Debounce collapses bursts of events into one trigger.
	Debounce time.Duration
}

// DefaultConfig returns a configuration suited to a driver workspace.
func DefaultConfig(root string) Config {
	return Config{
		Root:       root,
		Extensions: []string{".rs", ".toml", ".c", ".h", ".yaml"},
		IgnoreDirs: []string{".git", "target", "out", "node_modules"},
		Debounce:   300 * time.Millisecond,
	}
}

// Watcher emits one event per debounced batch of relevant changes.
type Watcher struct {
	config  Config
	watcher *fsnotify.Watcher
	events  chan string
	errors  chan error
	done    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
	last  string
}

// New creates a watcher over the configured root.
func New(config Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:  config,
		watcher: fsWatcher,
		events:  make(chan string, 1),
		errors:  make(chan error, 1),
		done:    make(chan struct{}),
	}

	if err := w.addRecursive(config.Root); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// Events delivers the path of the last change in each debounced batch.
func (w *Watcher) Events() <-chan string { return w.events }

// Errors delivers watch failures.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	// New directories need to be picked up for recursive coverage.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.ignored(event.Name) {
				w.addRecursive(event.Name)
			}
			return
		}
	}

	if !w.relevant(event.Name) {
		return
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.last = event.Name
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		path := w.last
		w.mu.Unlock()

		select {
		case w.events <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) relevant(path string) bool {
	if w.ignored(path) {
		return false
	}
	for _, ext := range w.config.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		for _, ignore := range w.config.IgnoreDirs {
			if part == ignore {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}
