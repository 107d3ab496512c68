package config

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ahmad66-rgb/upscaler/internal/logging"
)

// Watcher reloads the store when its settings file is edited externally.
// Changes are debounced because editors fire several events per save.
// Reloads replace the store's configuration wholesale; callers that must
// not see mid-run changes work from the snapshot they took at start.
type Watcher struct {
	store    *Store
	debounce time.Duration
	onReload func(Config)
	logger   *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher for the store's settings file. onReload may
// be nil; when set it is invoked with each freshly loaded configuration.
func NewWatcher(store *Store, onReload func(Config)) *Watcher {
	return &Watcher{
		store:    store,
		debounce: 500 * time.Millisecond,
		onReload: onReload,
		logger:   logging.GetLogger("config"),
	}
}

// Start begins watching. The settings file must exist; save once first.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.store.Path()); err != nil {
		fw.Close()
		return err
	}

	w.mu.Lock()
	w.watcher = fw
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.watch(fw)
	return nil
}

// Stop stops watching and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
}

// Done reports watcher shutdown, for tests and orderly exits.
func (w *Watcher) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

func (w *Watcher) watch(fw *fsnotify.Watcher) {
	defer close(w.done)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("settings watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.store.Path())
	if err != nil {
		w.logger.Warn("settings reload skipped", "error", err)
		return
	}
	cfg, err := FromDocument(data)
	if err != nil {
		w.logger.Warn("settings reload: parse failed, keeping current", "error", err)
		return
	}
	w.store.replace(cfg)
	w.logger.Info("settings reloaded from disk")
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
