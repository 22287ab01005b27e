// Package watcher reports debounced changes to scene files.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// DefaultDebounce absorbs the burst of events an editor produces for one save
const DefaultDebounce = 200 * time.Millisecond

// FileWatcher watches files for changes and triggers callbacks.
// Parent directories are watched rather than the files themselves so that
// editors which save by rename-and-replace keep being observed.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	mu        sync.Mutex
	callbacks map[string]func(string) // keyed by absolute file path
	dirs      map[string]int          // watched directory -> number of files in it
	debounce  time.Duration
	timers    map[string]*time.Timer
	logger    core.Logger
}

// NewFileWatcher creates a new file watcher
func NewFileWatcher(debounce time.Duration, logger core.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &FileWatcher{
		watcher:   watcher,
		callbacks: make(map[string]func(string)),
		dirs:      make(map[string]int),
		debounce:  debounce,
		timers:    make(map[string]*time.Timer),
		logger:    logger,
	}, nil
}

// Watch registers callback for each of files
func (fw *FileWatcher) Watch(files []string, callback func(string)) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", file, err)
		}

		if _, watched := fw.callbacks[absPath]; !watched {
			dir := filepath.Dir(absPath)
			if fw.dirs[dir] == 0 {
				if err := fw.watcher.Add(dir); err != nil {
					return fmt.Errorf("failed to watch %s: %w", dir, err)
				}
			}
			fw.dirs[dir]++
		}

		fw.callbacks[absPath] = callback
	}

	return nil
}

// Start processes events until ctx is done or the watcher is closed
func (fw *FileWatcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					fw.handleFileChange(filepath.Clean(event.Name))
				}

			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				fw.logger.Printf("Watcher error: %v\n", err)
			}
		}
	}()
}

// handleFileChange (re)arms the debounce timer for filePath
func (fw *FileWatcher) handleFileChange(filePath string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	callback, exists := fw.callbacks[filePath]
	if !exists {
		return
	}

	if timer, exists := fw.timers[filePath]; exists {
		timer.Stop()
	}

	fw.timers[filePath] = time.AfterFunc(fw.debounce, func() {
		callback(filePath)
	})
}

// Close stops the watcher and any pending callbacks
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	for _, timer := range fw.timers {
		timer.Stop()
	}
	fw.mu.Unlock()
	return fw.watcher.Close()
}

// RemoveAll removes all watched files
func (fw *FileWatcher) RemoveAll() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for dir := range fw.dirs {
		if err := fw.watcher.Remove(dir); err != nil {
			return err
		}
	}

	for _, timer := range fw.timers {
		timer.Stop()
	}
	fw.callbacks = make(map[string]func(string))
	fw.dirs = make(map[string]int)
	fw.timers = make(map[string]*time.Timer)
	return nil
}
