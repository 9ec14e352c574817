package settings

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when watching through a closed watcher.
var ErrWatcherClosed = errors.New("file watcher is closed")

// FileWatcher watches individual files for changes with debouncing.
//
// fsnotify watches the parent directory of each file so that editors that
// replace files on save (rename-over) are still observed.
type FileWatcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	handlers []func(path string)
	closed   bool

	debounce time.Duration
	pendingM sync.Mutex
	pending  map[string]time.Time

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewFileWatcher creates and starts a file watcher.
func NewFileWatcher() (*FileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &FileWatcher{
		fsw:      fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		debounce: 200 * time.Millisecond,
		pending:  make(map[string]time.Time),
		closeCh:  make(chan struct{}),
	}

	w.wg.Add(2)
	go w.processLoop()
	go w.flushLoop()

	return w, nil
}

// Watch adds a file to the watch list.
func (w *FileWatcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.files[absPath] {
		return nil
	}

	dir := filepath.Dir(absPath)
	if !w.dirs[dir] {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	w.files[absPath] = true
	return nil
}

// OnChange registers a handler called with the path of each changed file.
func (w *FileWatcher) OnChange(handler func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Close stops the watcher.
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// processLoop queues relevant fsnotify events for debounced delivery.
func (w *FileWatcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
				!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			absPath, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			w.mu.Lock()
			watched := w.files[absPath]
			w.mu.Unlock()
			if !watched {
				continue
			}
			w.pendingM.Lock()
			w.pending[absPath] = time.Now()
			w.pendingM.Unlock()
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// flushLoop emits pending changes once they have been stable for the
// debounce window.
func (w *FileWatcher) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.closeCh:
			return
		case <-ticker.C:
			threshold := time.Now().Add(-w.debounce)

			w.pendingM.Lock()
			var ready []string
			for path, t := range w.pending {
				if t.Before(threshold) {
					ready = append(ready, path)
					delete(w.pending, path)
				}
			}
			w.pendingM.Unlock()

			if len(ready) == 0 {
				continue
			}

			w.mu.Lock()
			handlers := make([]func(string), len(w.handlers))
			copy(handlers, w.handlers)
			w.mu.Unlock()

			for _, path := range ready {
				for _, handler := range handlers {
					handler(path)
				}
			}
		}
	}
}
