// Package filewatcher reports changed files under a set of directory trees.
package filewatcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches directory trees and calls back with changed paths
// once they have been quiet for the debounce period.
type FileWatcher struct {
	watcher     *fsnotify.Watcher
	dirs        []string
	patterns    []string
	ignore      []string
	recursive   bool
	logger      *slog.Logger
	callbacks   []func(string)
	callbacksMu sync.RWMutex
	debounce    time.Duration
	changes     map[string]time.Time
	changesMu   sync.Mutex
	done        chan struct{}
	stopOnce    sync.Once
}

// New creates a FileWatcher. Nothing is watched until Start.
func New(opts ...Option) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:   watcher,
		dirs:      []string{"."},
		patterns:  []string{"*"},
		recursive: true,
		logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
		debounce:  50 * time.Millisecond,
		changes:   make(map[string]time.Time),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(fw)
	}
	return fw, nil
}

// AddCallback registers fn for every debounced change.
func (fw *FileWatcher) AddCallback(fn func(file string)) {
	fw.callbacksMu.Lock()
	defer fw.callbacksMu.Unlock()
	fw.callbacks = append(fw.callbacks, fn)
}

// Start adds every configured directory (and, when recursive, every
// non-hidden subdirectory) and begins delivering changes.
func (fw *FileWatcher) Start() error {
	for _, dir := range fw.dirs {
		if err := fw.addTree(dir); err != nil {
			return err
		}
	}
	go fw.watchLoop()
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}

// WatchList returns the directories currently registered.
func (fw *FileWatcher) WatchList() []string {
	return fw.watcher.WatchList()
}

func (fw *FileWatcher) addTree(root string) error {
	if !fw.recursive {
		fw.logger.Info("Watching directory", "dir", root)
		return fw.watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && fw.skipDir(path) {
			return filepath.SkipDir
		}
		fw.logger.Debug("Watching directory", "dir", path)
		return fw.watcher.Add(path)
	})
}

func (fw *FileWatcher) skipDir(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	return fw.ignored(base)
}

func (fw *FileWatcher) watchLoop() {
	ticker := time.NewTicker(fw.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("Watcher error", "error", err)
		case <-ticker.C:
			fw.processChanges()
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) && fw.recursive {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !fw.skipDir(event.Name) {
			if err := fw.addTree(event.Name); err != nil {
				fw.logger.Error("Failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}
	if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
		return
	}
	if !fw.matchesPattern(event.Name) {
		return
	}
	fw.changesMu.Lock()
	fw.changes[event.Name] = time.Now()
	fw.changesMu.Unlock()
}

// processChanges fires callbacks for files that have been quiet for at
// least the debounce period.
func (fw *FileWatcher) processChanges() {
	now := time.Now()
	var ready []string

	fw.changesMu.Lock()
	for file, changed := range fw.changes {
		if now.Sub(changed) >= fw.debounce {
			ready = append(ready, file)
			delete(fw.changes, file)
		}
	}
	fw.changesMu.Unlock()

	for _, file := range ready {
		fw.logger.Info("File changed", "file", file)
		fw.notifyCallbacks(file)
	}
}

func (fw *FileWatcher) notifyCallbacks(file string) {
	fw.callbacksMu.RLock()
	defer fw.callbacksMu.RUnlock()
	for _, callback := range fw.callbacks {
		callback(file)
	}
}

func (fw *FileWatcher) matchesPattern(file string) bool {
	base := filepath.Base(file)
	if fw.ignored(base) {
		return false
	}
	for _, pattern := range fw.patterns {
		matched, err := filepath.Match(pattern, base)
		if err != nil {
			fw.logger.Error("Pattern match error", "pattern", pattern, "error", err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) ignored(base string) bool {
	for _, pattern := range fw.ignore {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
