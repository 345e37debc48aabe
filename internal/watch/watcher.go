// Package watch notifies callers when a plan file changes on disk.
package watch

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before a change is
// reported. Editors often write a file in several bursts.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors a single file for modifications using fsnotify.
// The containing directory is watched rather than the file itself so that
// editors which save by rename-and-replace are still observed.
type Watcher struct {
	Path    string
	Changes <-chan string // Read-only external channel; carries Path

	changes  chan string
	done     chan struct{}
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// New creates a watcher for the file at path.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolving %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	ch := make(chan string, 4)
	return &Watcher{
		Path:     abs,
		Changes:  ch,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
		debounce: DefaultDebounce,
	}, nil
}

// Start begins watching. Changes are delivered on the Changes channel.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	var (
		pending bool
		last    time.Time
	)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				if pending {
					w.emit()
				}
				return
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = true
				last = time.Now()
			}

		case <-ticker.C:
			if pending && time.Since(last) >= w.debounce {
				w.emit()
				pending = false
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}

// emit delivers a change without blocking; a reload is already queued if the
// channel is full.
func (w *Watcher) emit() {
	select {
	case w.changes <- w.Path:
	default:
	}
}
