// Package watch reports filesystem changes under a set of directories. It is
// used to invalidate cached answers about whether a path exists.
package watch

import (
	"fmt"
	"os"
	"sync"
	"time"

	"workbench/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Change represents a filesystem event detected by the watcher
type Change struct {
	Path      string
	Info      os.FileInfo // nil when the path no longer exists
	Timestamp time.Time
	Op        fsnotify.Op
}

// Watcher monitors directories for changes using fsnotify
type Watcher struct {
	directories []string

	changes  chan Change
	stopChan chan struct{}
	done     chan struct{}

	fsWatcher *fsnotify.Watcher

	// Lock for running state and the directories list
	mutex sync.RWMutex

	running bool
	logger  log.Logging
}

// New creates a new directory watcher using fsnotify
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		directories: []string{},
		changes:     make(chan Change, 16),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		fsWatcher:   fsWatcher,
		logger:      log.Default(),
	}, nil
}

// AddDirectory adds a directory to watch
func (w *Watcher) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	for _, existing := range w.directories {
		if existing == dir {
			return nil
		}
	}

	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}
	w.directories = append(w.directories, dir)
	w.logger.With(log.F("directory", dir)).Debug("Watching directory")
	return nil
}

// RemoveDirectory stops watching dir. Unknown directories are ignored.
func (w *Watcher) RemoveDirectory(dir string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	for i, existing := range w.directories {
		if existing != dir {
			continue
		}
		w.directories = append(w.directories[:i], w.directories[i+1:]...)
		if err := w.fsWatcher.Remove(dir); err != nil {
			// The directory may already be gone, fsnotify drops the watch itself then.
			w.logger.With(log.F("directory", dir), log.F("error", err)).Debug("Removing watch")
		}
		return nil
	}
	return nil
}

// Changes returns the channel that delivers change events
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start begins processing fsnotify events
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mutex.Unlock()

	go func() {
		defer close(w.done)
		for {
			select {
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				if event.Op == fsnotify.Chmod {
					continue
				}

				change := Change{
					Path:      event.Name,
					Timestamp: time.Now(),
					Op:        event.Op,
				}
				if info, err := os.Stat(event.Name); err == nil {
					change.Info = info
				}

				// Non-blocking so a slow consumer cannot stall the event loop
				select {
				case w.changes <- change:
				default:
					w.logger.With(log.F("path", event.Name)).Warn("Change channel is full, dropped event")
				}

			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				w.logger.With(log.F("error", err)).Error("fsnotify watcher error")

			case <-w.stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop halts the watcher and closes the change channel
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.running {
		return
	}

	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		w.logger.With(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
	<-w.done

	w.running = false
	close(w.changes)
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// Directories returns the list of directories being watched
func (w *Watcher) Directories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirs := make([]string, len(w.directories))
	copy(dirs, w.directories)
	return dirs
}
