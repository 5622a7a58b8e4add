// Package server is the development server: it serves a folder, renders
// markdown, injects the page script and hosts the reload channel.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lightforgemedia/go-pagesync/assets"
	"github.com/lightforgemedia/go-pagesync/pkg/hotreload"
	"github.com/lightforgemedia/go-pagesync/pkg/livereload"
)

const (
	robotsTxt       = "User-agent: *\nDisallow: /"
	shutdownTimeout = 5 * time.Second
)

// Server serves one folder.
type Server struct {
	options  Options
	logger   *slog.Logger
	hub      *hotreload.Hub
	markdown *Markdown
	router   chi.Router
}

// New creates a Server. Without WithHub it creates its own hub.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		options: DefaultOptions(),
		logger:  slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	root, err := filepath.Abs(s.options.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root folder %s is not a directory", root)
	}
	s.options.Root = root

	if strings.EqualFold(filepath.Ext(s.options.Index), ".md") {
		s.options.RenderMarkdown = true
	}
	if s.hub == nil {
		s.hub = hotreload.NewHub(hotreload.WithHubLogger(s.logger))
	}
	s.markdown = NewMarkdown()
	s.router = s.routes()
	return s, nil
}

// Hub returns the hub serving /ws.
func (s *Server) Hub() *hotreload.Hub {
	return s.hub
}

// Root returns the absolute folder being served.
func (s *Server) Root() string {
	return s.options.Root
}

// ServeHTTP dispatches to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(robotsTxt))
	})
	r.Get("/favicon.ico", http.NotFound)
	r.Get("/sitemap.xml", http.NotFound)

	s.hub.RegisterHandlers(r, livereload.DefaultPath)
	r.Get("/"+assets.ScriptName, assets.ScriptHandler(s.options.Minify, s.logger).ServeHTTP)
	if s.options.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/*", s.serveFile)
	r.Head("/*", s.serveFile)
	return r
}

// Serve accepts connections on ln until ctx is cancelled, then closes the
// hub and shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("Serving", "addr", ln.Addr().String(), "root", s.options.Root, "markdown", s.options.RenderMarkdown)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
