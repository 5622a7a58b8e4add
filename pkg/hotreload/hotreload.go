// Package hotreload pushes reload commands to open pages when files under
// the served folder change.
package hotreload

import (
	"log/slog"
	"os"
	"sync"

	"github.com/lightforgemedia/go-pagesync/pkg/filewatcher"
)

// Service connects a file watcher to a Hub.
type Service struct {
	hub     *Hub
	watcher *filewatcher.FileWatcher
	logger  *slog.Logger
	options Options

	mu      sync.Mutex
	started bool
}

// New creates a Service. Both a hub and a watcher are required.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		logger:  slog.New(slog.NewTextHandler(os.Stderr, nil)),
		options: DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.hub == nil {
		return nil, ErrNoHub
	}
	if s.watcher == nil {
		return nil, ErrNoFileWatcher
	}
	return s, nil
}

// Hub returns the hub the service broadcasts on.
func (s *Service) Hub() *Hub {
	return s.hub
}

// Start registers the change callback and starts the watcher.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.watcher.AddCallback(s.handleFileChange)
	if err := s.watcher.Start(); err != nil {
		return err
	}
	s.started = true

	s.logger.Info("Hot reload service started")
	return nil
}

// Stop stops the watcher and, unless KeepHubOpen is set, closes the hub.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	err := s.watcher.Stop()
	if !s.options.KeepHubOpen {
		s.hub.Close()
	}
	s.logger.Info("Hot reload service stopped")
	return err
}

func (s *Service) handleFileChange(file string) {
	metricFileChanges.Inc()
	if s.options.OnChange != nil {
		s.options.OnChange(file)
	}
	s.logger.Debug("File changed, triggering hot reload", "file", file)
	s.hub.Reload(file)
}
