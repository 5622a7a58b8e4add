package server

import (
	"log/slog"

	"github.com/lightforgemedia/go-pagesync/pkg/hotreload"
)

// Options configures a Server
type Options struct {
	// Root is the folder files are served from
	Root string

	// Index is the page served on /
	Index string

	// RenderMarkdown serves .md files rendered into the default page shell
	RenderMarkdown bool

	// Minify serves the page script minified
	Minify bool

	// Metrics exposes prometheus metrics on /metrics
	Metrics bool
}

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{
		Root:    ".",
		Index:   "index.html",
		Metrics: true,
	}
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger for the server
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRoot sets the folder to serve
func WithRoot(root string) Option {
	return func(s *Server) {
		if root != "" {
			s.options.Root = root
		}
	}
}

// WithIndex sets the page served on /
func WithIndex(index string) Option {
	return func(s *Server) {
		if index != "" {
			s.options.Index = index
		}
	}
}

// WithRenderMarkdown turns markdown rendering on or off
func WithRenderMarkdown(render bool) Option {
	return func(s *Server) {
		s.options.RenderMarkdown = render
	}
}

// WithMinify serves the minified page script
func WithMinify(minify bool) Option {
	return func(s *Server) {
		s.options.Minify = minify
	}
}

// WithMetrics turns the /metrics route on or off
func WithMetrics(enabled bool) Option {
	return func(s *Server) {
		s.options.Metrics = enabled
	}
}

// WithHub sets the hub mounted on /ws
func WithHub(hub *hotreload.Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}
