package filewatcher

import (
	"log/slog"
	"time"
)

// Option configures a FileWatcher
type Option func(*FileWatcher)

// WithLogger sets the logger for the file watcher
func WithLogger(logger *slog.Logger) Option {
	return func(fw *FileWatcher) {
		if logger != nil {
			fw.logger = logger
		}
	}
}

// WithDirs sets the root directories to watch
func WithDirs(dirs []string) Option {
	return func(fw *FileWatcher) {
		if len(dirs) > 0 {
			fw.dirs = dirs
		}
	}
}

// WithPatterns sets the base-name globs that count as changes
func WithPatterns(patterns []string) Option {
	return func(fw *FileWatcher) {
		if len(patterns) > 0 {
			fw.patterns = patterns
		}
	}
}

// WithIgnore sets base-name globs for files and directories to skip
func WithIgnore(patterns []string) Option {
	return func(fw *FileWatcher) {
		fw.ignore = patterns
	}
}

// WithRecursive controls whether subdirectories are watched too
func WithRecursive(recursive bool) Option {
	return func(fw *FileWatcher) {
		fw.recursive = recursive
	}
}

// WithDebounce sets how long a file must be quiet before it is reported
func WithDebounce(d time.Duration) Option {
	return func(fw *FileWatcher) {
		if d > 0 {
			fw.debounce = d
		}
	}
}
