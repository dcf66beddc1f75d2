// Package watcher reports external modifications to script files that are
// open in an instance, so the UI can offer to reload them.
package watcher

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ChangedHandler is called when a watched script file is written to.
type ChangedHandler func(instanceID, path string)

// Watcher tracks the on-disk files backing open instances.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange ChangedHandler
	mu       sync.RWMutex
	watching map[string]string // absolute path -> instance id
}

// New creates a Watcher and starts its event loop.
func New(onChange ChangedHandler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		onChange: onChange,
		watching: make(map[string]string),
	}

	go w.loop()

	return w, nil
}

// Watch starts watching the file backing an instance. Re-watching under the
// same instance replaces the previous path (save-as moves the backing file).
func (w *Watcher) Watch(instanceID, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	for p, id := range w.watching {
		if id == instanceID {
			delete(w.watching, p)
			break
		}
	}
	w.watching[abs] = instanceID
	w.mu.Unlock()

	// fsnotify delivers file events through the containing directory,
	// which also survives editors that replace-on-save
	return w.fsw.Add(filepath.Dir(abs))
}

// Forget stops watching whatever file the instance was bound to.
func (w *Watcher) Forget(instanceID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, id := range w.watching {
		if id == instanceID {
			delete(w.watching, path)
			break
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				abs, _ := filepath.Abs(event.Name)
				w.mu.RLock()
				instanceID, watched := w.watching[abs]
				w.mu.RUnlock()

				if watched && w.onChange != nil {
					w.onChange(instanceID, abs)
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] %v", err)
		}
	}
}
