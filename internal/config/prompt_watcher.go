package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"jobpilot/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// PromptWatcher watches custom prompt files for changes and reloads the
// prompt store while the service is running
type PromptWatcher struct {
	mu sync.Mutex

	cfg   *Config
	paths []string

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	logger  *errors.Logger
	running bool
}

// NewPromptWatcher creates a watcher over the config's prompt file paths.
// Returns nil when no prompt files are configured.
func NewPromptWatcher(cfg *Config, logger *errors.Logger) *PromptWatcher {
	paths := cfg.PromptFilePaths()
	if len(paths) == 0 {
		return nil
	}

	return &PromptWatcher{
		cfg:           cfg,
		paths:         paths,
		debounceDelay: time.Second,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		logger:        logger,
	}
}

// Start begins watching prompt files for changes
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("prompt watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	pw.fsWatcher = watcher

	for _, path := range pw.paths {
		if err := pw.addPath(path); err != nil && pw.logger != nil {
			pw.logger.Warn("Failed to watch prompt file", "file", path, "error", err)
		}
	}

	pw.running = true
	go pw.watchLoop()

	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher started",
			"files", pw.paths,
			"debounce_delay", pw.debounceDelay)
	}
	return nil
}

// Stop stops the prompt file watcher
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return nil
	}

	close(pw.stopChan)
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	if err := pw.fsWatcher.Close(); err != nil {
		if pw.logger != nil {
			pw.logger.LogError(err, "Failed to close prompt file watcher")
		}
		return err
	}

	pw.running = false
	return nil
}

// addPath watches a file, falling back to its directory when the file does
// not exist yet. The directory is watched as well to catch atomic writes.
func (pw *PromptWatcher) addPath(path string) error {
	if err := pw.fsWatcher.Add(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to watch file %s: %w", path, err)
		}
	}

	dir := filepath.Dir(path)
	if err := pw.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	return nil
}

func (pw *PromptWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if pw.shouldProcessEvent(event) {
				pw.scheduleReload()
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			if pw.logger != nil {
				pw.logger.LogError(err, "Prompt file watcher error")
			}

		case <-pw.reloadChan:
			if err := pw.cfg.ReloadPrompts(); err != nil {
				if pw.logger != nil {
					pw.logger.LogError(err, "Failed to reload custom prompts, keeping previous set")
				}
			} else if pw.logger != nil {
				pw.logger.Info("Custom prompts reloaded")
			}

		case <-pw.stopChan:
			return
		}
	}
}

// shouldProcessEvent reports whether an event concerns one of the watched
// prompt files
func (pw *PromptWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	watched := false
	for _, path := range pw.paths {
		if event.Name == path || filepath.Base(event.Name) == filepath.Base(path) {
			watched = true
			break
		}
	}
	if !watched {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// scheduleReload schedules a debounced reload
func (pw *PromptWatcher) scheduleReload() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, func() {
		select {
		case pw.reloadChan <- struct{}{}:
		default:
			// Reload already scheduled
		}
	})
}

// IsRunning returns whether the watcher is currently running
func (pw *PromptWatcher) IsRunning() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.running
}
