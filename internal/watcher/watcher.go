// Package watcher watches dvar source files (the archive and HCL files) and
// reports debounced changes.
package watcher

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/dvars/internal/log"
)

// Watcher monitors a set of files and sends the paths that changed once
// writes have settled.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	files     map[string]string // absolute path -> path as configured
	debounce  time.Duration
	onChange  chan []string
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	Files       []string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(files ...string) Config {
	return Config{
		Files:       files,
		DebounceDur: 100 * time.Millisecond,
	}
}

// New creates a watcher over cfg.Files. The files need not exist yet.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Files) == 0 {
		return nil, fmt.Errorf("watcher needs at least one file")
	}
	files := make(map[string]string, len(cfg.Files))
	for _, f := range cfg.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", f, err)
		}
		files[abs] = f
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		files:     files,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan []string, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the directories holding the files. Editors often
// replace a file instead of writing it, so directories are watched rather
// than the files themselves.
// Returns a channel that receives the configured paths that changed.
func (w *Watcher) Start() (<-chan []string, error) {
	dirs := make(map[string]bool)
	for abs := range w.files {
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}
	log.Debug(log.CatWatcher, "watching", "files", len(w.files), "dirs", len(dirs))

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		changed = make(map[string]bool)
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			path, relevant := w.relevantPath(event)
			if !relevant {
				continue
			}
			changed[path] = true

			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					// Drain the timer channel if it already fired
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if len(changed) == 0 {
				continue
			}
			paths := make([]string, 0, len(changed))
			for p := range changed {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(changed)

			// Non-blocking send - drop if the previous batch is unread
			select {
			case w.onChange <- paths:
				log.Debug(log.CatWatcher, "files changed", "paths", paths)
			default:
				log.Debug(log.CatWatcher, "change dropped, reload already pending", "paths", paths)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevantPath maps a write, create or rename of a watched file to its
// configured path.
func (w *Watcher) relevantPath(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return "", false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return "", false
	}
	path, ok := w.files[abs]
	return path, ok
}
