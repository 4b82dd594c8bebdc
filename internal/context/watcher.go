package context

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yockii/yoctl/pkg/logging"
)

// DefaultDebounceInterval is how long the watcher waits after the last
// event before reporting a change.
const DefaultDebounceInterval = 500 * time.Millisecond

// Watcher reports changes to contexts.yaml. It watches the directory rather
// than the file because saves replace the file by rename.
type Watcher struct {
	storage  *Storage
	onChange func(*ContextConfig)
	debounce time.Duration

	mu        sync.Mutex
	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool
	timer     *time.Timer
}

// NewWatcher creates a watcher that calls onChange with the reloaded file.
func NewWatcher(storage *Storage, onChange func(*ContextConfig)) *Watcher {
	return &Watcher{
		storage:  storage,
		onChange: onChange,
		debounce: DefaultDebounceInterval,
	}
}

// Start begins watching. The config directory is created if needed.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	if err := os.MkdirAll(w.storage.Dir(), 0o700); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.storage.Dir()); err != nil {
		fsw.Close()
		return err
	}

	w.fsWatcher = fsw
	w.stopCh = make(chan struct{})
	w.running = true
	go w.processEvents(fsw.Events, fsw.Errors, w.stopCh)

	logging.Debug("Contexts", "Watching %s", w.storage.Path())
	return nil
}

// Stop ends watching and cancels a pending notification.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if err := w.fsWatcher.Close(); err != nil {
		logging.Warn("Contexts", "Error closing watcher: %v", err)
	}
	w.fsWatcher = nil
}

func (w *Watcher) processEvents(events <-chan fsnotify.Event, errs <-chan error, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != contextsFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-errs:
			if !ok {
				return
			}
			logging.Warn("Contexts", "Watch error: %v", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running || w.onChange == nil {
		return
	}

	cfg, err := w.storage.Load()
	if err != nil {
		logging.Warn("Contexts", "Failed to reload contexts after change: %v", err)
		return
	}
	w.onChange(cfg)
}
