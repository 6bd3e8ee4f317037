package plugin

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher debounces filesystem change events for plugin .wasm files and
// triggers a Runtime.Reload, used only in development mode.
type Watcher struct {
	runtime  *Runtime
	watcher  *fsnotify.Watcher
	debounce time.Duration
	mu       sync.Mutex
	timers   map[string]*time.Timer
	byPath   map[string]Descriptor
	logger   zerolog.Logger
	done     chan struct{}
}

// NewWatcher builds a Watcher that reloads plugins in runtime on file
// change.
func NewWatcher(runtime *Runtime, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("plugin: creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		runtime:  runtime,
		watcher:  fw,
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
		byPath:   make(map[string]Descriptor),
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Watch registers desc's WasmPath for change notifications.
func (w *Watcher) Watch(desc Descriptor) error {
	w.mu.Lock()
	w.byPath[desc.WasmPath] = desc
	w.mu.Unlock()
	return w.watcher.Add(desc.WasmPath)
}

// Run processes filesystem events until Close is called.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("plugin watcher error")
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleReload(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		desc, ok := w.byPath[path]
		w.mu.Unlock()
		if !ok {
			return
		}
		if err := w.runtime.Reload(desc); err != nil {
			w.logger.Error().Err(err).Str("plugin", desc.Name).Msg("plugin hot-reload failed")
			return
		}
		w.logger.Info().Str("plugin", desc.Name).Msg("plugin hot-reloaded")
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
