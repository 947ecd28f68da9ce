// Package watcher provides file system watching with debouncing for input
// documents and local context directories.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gofhir/jsonld/pkg/logger"
)

// Watcher monitors files and directories and reports which files changed.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	paths     []string
	exts      []string
	debounce  time.Duration
	log       *logger.Logger

	// files holds watched regular files; events on their siblings are ignored.
	files map[string]bool
	// dirs holds watched directories; every file below them is relevant.
	dirs map[string]bool

	onChange chan []string
	done     chan struct{}
	stop     sync.Once
}

// Config holds watcher configuration options.
type Config struct {
	// Paths are files or directories to watch. Directories are watched
	// non-recursively.
	Paths []string

	// Extensions restricts directory events to these file extensions,
	// compared case-insensitively. Empty means all files.
	Extensions []string

	// DebounceDur is how long the watcher waits for quiet before reporting.
	DebounceDur time.Duration

	Logger *logger.Logger
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(paths ...string) Config {
	return Config{
		Paths:       paths,
		Extensions:  []string{".jsonld", ".json", ".yaml", ".yml", ".ndjson"},
		DebounceDur: 200 * time.Millisecond,
	}
}

// New creates a new watcher.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("watcher: no paths to watch")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	exts := make([]string, len(cfg.Extensions))
	for i, e := range cfg.Extensions {
		exts[i] = strings.ToLower(e)
	}

	return &Watcher{
		fsWatcher: fsw,
		paths:     cfg.Paths,
		exts:      exts,
		debounce:  cfg.DebounceDur,
		log:       log,
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
		onChange:  make(chan []string, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives the sorted set of
// files changed since the previous notification.
func (w *Watcher) Start() (<-chan []string, error) {
	watched := make(map[string]bool)
	for _, p := range w.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}

		// Files are watched through their directory so that editors which
		// replace the file on save keep being tracked.
		dir := abs
		if info.IsDir() {
			w.dirs[abs] = true
		} else {
			w.files[abs] = true
			dir = filepath.Dir(abs)
		}
		if watched[dir] {
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
		watched[dir] = true
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	var err error
	w.stop.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = make(map[string]bool)
	)

	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			return
		}
		if !timer.Stop() {
			// Drain the timer channel if it already fired
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.debounce)
	}

	for {
		var fire <-chan time.Time
		if timer != nil {
			fire = timer.C
		}

		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			pending[filepath.Clean(event.Name)] = true
			arm()

		case <-fire:
			timer = nil
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			slices.Sort(changed)

			select {
			case w.onChange <- changed:
				clear(pending)
			default:
				// Reader is busy; keep accumulating and retry later
				arm()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent checks if the event should trigger a notification.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}

	name := filepath.Clean(event.Name)
	if w.files[name] {
		return true
	}
	if !w.dirs[filepath.Dir(name)] {
		return false
	}
	if len(w.exts) == 0 {
		return true
	}
	return slices.Contains(w.exts, strings.ToLower(filepath.Ext(name)))
}
