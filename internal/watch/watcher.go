// Package watch notices when the open file is rewritten by another program.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"metamod/internal/errors"
	"metamod/internal/log"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events a single rewrite produces
const DefaultDebounce = 250 * time.Millisecond

// FileModification represents a change to the watched file
type FileModification struct {
	Path      string
	Info      os.FileInfo
	Timestamp time.Time
	Op        fsnotify.Op
}

// Watcher follows one file. It watches the file's directory rather than the
// file itself because the metadata tool replaces files by renaming a
// temporary copy over them.
type Watcher struct {
	// Delay between the last event and the notification
	debounce time.Duration

	// Channel to receive file modifications
	changes chan FileModification

	// Channel to signal stop
	stopChan chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	// Lock for running state, the target and the pending timer
	mutex sync.RWMutex

	running bool
	target  string
	dir     string
	timer   *time.Timer
	lastOp  fsnotify.Op
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New creates a watcher that follows no file yet
func New(opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		debounce:  DefaultDebounce,
		changes:   make(chan FileModification, 1),
		stopChan:  make(chan struct{}),
		fsWatcher: fsWatcher,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch makes path the followed file, replacing any previous one
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("error resolving %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	info, err := os.Stat(dir)
	if err != nil {
		kind := errors.FileAccessDenied
		if os.IsNotExist(err) {
			kind = errors.FileNotFound
		}
		return errors.NewFileError("error accessing directory", dir, kind, err)
	}
	if !info.IsDir() {
		return errors.NewFileError("not a directory", dir, errors.InvalidPath, nil)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if dir != w.dir {
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
		}
		if w.dir != "" {
			// Removal fails harmlessly if the old directory is already gone
			_ = w.fsWatcher.Remove(w.dir)
		}
		w.dir = dir
	}
	w.target = abs
	log.LogWithFields(log.F("file", abs)).Debug("Watching file")
	return nil
}

// Current returns the followed file, or "" before the first Watch
func (w *Watcher) Current() string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.target
}

// Changes returns the channel that delivers debounced modifications.
// It is closed by Stop.
func (w *Watcher) Changes() <-chan FileModification {
	return w.changes
}

// Start begins processing events
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mutex.Unlock()

	go func() {
		log.Debug("Watcher event loop started")

		for {
			select {
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				w.handle(event)

			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

			case <-w.stopChan:
				log.Debug("Watcher event loop received stop signal")
				return
			}
		}
	}()

	return nil
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.target == "" || filepath.Clean(event.Name) != w.target {
		return
	}
	w.lastOp = event.Op
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

// fire reports the change once events have settled
func (w *Watcher) fire() {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if !w.running || w.target == "" {
		return
	}
	info, err := os.Stat(w.target)
	if err != nil {
		// Deleted again before we looked
		return
	}

	mod := FileModification{
		Path:      w.target,
		Info:      info,
		Timestamp: time.Now(),
		Op:        w.lastOp,
	}
	select {
	case w.changes <- mod:
	default:
		// One pending notification is enough; the receiver rereads the file
	}
}

// Stop halts the watcher and closes the Changes channel
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.running {
		return
	}

	close(w.stopChan)
	if w.timer != nil {
		w.timer.Stop()
	}
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}

	w.running = false
	close(w.changes)
	log.Debug("Watcher stopped")
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}
