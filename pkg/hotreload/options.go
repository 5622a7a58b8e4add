package hotreload

import (
	"errors"
	"log/slog"

	"github.com/lightforgemedia/go-pagesync/pkg/filewatcher"
)

// Errors
var (
	ErrNoHub         = errors.New("no hub provided")
	ErrNoFileWatcher = errors.New("no file watcher provided")
)

// Options configures the Service
type Options struct {
	// OnChange is called for every change before the reload is broadcast
	OnChange func(file string)

	// KeepHubOpen leaves the hub running when the service stops
	KeepHubOpen bool
}

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{}
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHub sets the hub reloads are broadcast on
func WithHub(hub *Hub) Option {
	return func(s *Service) {
		s.hub = hub
	}
}

// WithFileWatcher sets the file watcher for the service
func WithFileWatcher(watcher *filewatcher.FileWatcher) Option {
	return func(s *Service) {
		s.watcher = watcher
	}
}

// WithOnChange sets a callback run for each changed file
func WithOnChange(fn func(file string)) Option {
	return func(s *Service) {
		s.options.OnChange = fn
	}
}

// WithKeepHubOpen keeps the hub open after Stop
func WithKeepHubOpen(keep bool) Option {
	return func(s *Service) {
		s.options.KeepHubOpen = keep
	}
}
