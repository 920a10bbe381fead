package conf

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nodecfg/nodecfg/errors"
	"github.com/nodecfg/nodecfg/logger"
)

// ConfigWatcher watches config files for changes and triggers reload callbacks
type ConfigWatcher struct {
	configPath      string
	watcher         *fsnotify.Watcher
	callbacks       []ReloadCallback
	mu              sync.RWMutex
	debounceTimer   *time.Timer
	debouncePeriod  time.Duration
	isOwnWrite      bool // Flag to prevent reload loops
	isOwnWriteMutex sync.Mutex
}

// ReloadCallback is called when config is reloaded.
// Receives the new config and returns any error.
type ReloadCallback func(*Config) error

// NewConfigWatcher creates a new config file watcher
func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "failed to watch config file %s", configPath)
	}

	cw := &ConfigWatcher{
		configPath:     configPath,
		watcher:        watcher,
		callbacks:      make([]ReloadCallback, 0),
		debouncePeriod: 500 * time.Millisecond, // Debounce rapid file changes
	}

	return cw, nil
}

// WatchPath adds another file to the watch set. A change to any watched
// file triggers the same debounced reload as the config file itself, so
// callers can watch resources the config points at (schema files, includes).
func (cw *ConfigWatcher) WatchPath(path string) error {
	if err := cw.watcher.Add(path); err != nil {
		return errors.Wrapf(err, "failed to watch %s", path)
	}
	return nil
}

// OnReload registers a callback to be called when config is reloaded
func (cw *ConfigWatcher) OnReload(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// MarkOwnWrite marks the next write as coming from us (prevents reload loops)
func (cw *ConfigWatcher) MarkOwnWrite() {
	cw.isOwnWriteMutex.Lock()
	defer cw.isOwnWriteMutex.Unlock()
	cw.isOwnWrite = true
}

// checkOwnWrite checks and clears the own-write flag
func (cw *ConfigWatcher) checkOwnWrite() bool {
	cw.isOwnWriteMutex.Lock()
	defer cw.isOwnWriteMutex.Unlock()

	if cw.isOwnWrite {
		cw.isOwnWrite = false
		return true
	}
	return false
}

// Start begins watching for config file changes
func (cw *ConfigWatcher) Start() {
	go cw.watchLoop()
}

// watchLoop monitors file system events
func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}

			// Only reload on Write or Create events
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if isBackupFile(event.Name) {
					continue
				}

				if cw.checkOwnWrite() {
					logger.Debugw("Config watcher ignoring own write",
						"file", event.Name)
					continue
				}

				logger.Infow("Config watcher detected change",
					"file", event.Name,
					"op", event.Op.String())
				cw.scheduleReload()
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("Config watcher error",
				"error", err)
		}
	}
}

// scheduleReload debounces rapid file changes and triggers reload
func (cw *ConfigWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}

	cw.debounceTimer = time.AfterFunc(cw.debouncePeriod, func() {
		if err := cw.reload(); err != nil {
			logger.Errorw("Config reload failed",
				"error", err)
		}
	})
}

// reload reloads the configuration and calls all callbacks
func (cw *ConfigWatcher) reload() error {
	// Reset cached config to force reload
	Reset()

	newConfig, err := Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := newConfig.Validate(); err != nil {
		return errors.Wrap(err, "reloaded config is invalid")
	}

	logger.Infow("Config reloaded successfully",
		"path", cw.configPath)

	cw.mu.RLock()
	callbacks := make([]ReloadCallback, len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback(newConfig); err != nil {
			logger.Warnw("Config reload callback error",
				"error", err)
			// Continue calling other callbacks even if one fails
		}
	}

	return nil
}

// Stop stops watching for config changes
func (cw *ConfigWatcher) Stop() error {
	return cw.watcher.Close()
}

// isBackupFile checks if the file is an editor backup or swap file
func isBackupFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".bak")
}
