package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/giantswarm/lantern/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives the reloaded configuration, or the error that
// prevented loading it.
type ReloadFunc func(cfg LanternConfig, err error)

// Watcher reloads the configuration when YAML files in the config directory
// or its servers/ subdirectory change. Bursts of events are debounced into a
// single reload.
type Watcher struct {
	mu sync.Mutex

	configPath       string
	debounceInterval time.Duration
	onReload         ReloadFunc

	watcher *fsnotify.Watcher
	timer   *time.Timer
	stopCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for configPath. A zero debounce defaults to 500ms.
func NewWatcher(configPath string, debounceInterval time.Duration, onReload ReloadFunc) *Watcher {
	if debounceInterval == 0 {
		debounceInterval = 500 * time.Millisecond
	}
	return &Watcher{
		configPath:       configPath,
		debounceInterval: debounceInterval,
		onReload:         onReload,
	}
}

// Start begins watching. It returns once the watches are in place.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	serversDir := filepath.Join(w.configPath, ServersDirName)
	if err := os.MkdirAll(serversDir, 0o755); err != nil {
		_ = watcher.Close()
		return err
	}
	for _, dir := range []string{w.configPath, serversDir} {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return err
		}
		logging.Debug("ConfigWatcher", "Watching directory: %s", dir)
	}

	w.watcher = watcher
	w.stopCh = make(chan struct{})
	w.running = true

	go w.processEvents(ctx, watcher, w.stopCh)

	logging.Info("ConfigWatcher", "Started watching %s for configuration changes", w.configPath)
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher, stopCh chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isYAMLFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logging.Debug("ConfigWatcher", "Change detected: %s %s", event.Op, event.Name)
			w.scheduleReload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "Filesystem watcher error")
		}
	}
}

// scheduleReload restarts the debounce timer.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceInterval, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return
	}

	cfg, err := LoadConfig(w.configPath)
	if err != nil {
		logging.Warn("ConfigWatcher", "Reloading configuration failed: %v", err)
	}
	w.onReload(cfg, err)
}

// Stop stops watching. Pending reloads are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)
	if w.timer != nil {
		w.timer.Stop()
	}

	err := w.watcher.Close()
	w.watcher = nil
	logging.Info("ConfigWatcher", "Stopped watching %s", w.configPath)
	return err
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
