// Command now serves a folder with live reload and scroll memory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lightforgemedia/go-pagesync/pkg/filewatcher"
	"github.com/lightforgemedia/go-pagesync/pkg/hotreload"
	"github.com/lightforgemedia/go-pagesync/pkg/server"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	hub := hotreload.NewHub(
		hotreload.WithHubLogger(logger),
		hotreload.WithThrottle(cfg.Throttle),
	)

	fw, err := filewatcher.New(
		filewatcher.WithLogger(logger),
		filewatcher.WithDirs([]string{cfg.Folder}),
		filewatcher.WithPatterns(cfg.Patterns),
		filewatcher.WithIgnore(cfg.Ignore),
		filewatcher.WithDebounce(cfg.Debounce),
	)
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}

	svc, err := hotreload.New(
		hotreload.WithLogger(logger),
		hotreload.WithHub(hub),
		hotreload.WithFileWatcher(fw),
	)
	if err != nil {
		return fmt.Errorf("create hot reload service: %w", err)
	}

	srv, err := server.New(
		server.WithLogger(logger),
		server.WithHub(hub),
		server.WithRoot(cfg.Folder),
		server.WithIndex(cfg.Index),
		server.WithRenderMarkdown(cfg.Style),
		server.WithMinify(cfg.Minify),
		server.WithMetrics(cfg.Metrics),
	)
	if err != nil {
		fw.Stop()
		return err
	}

	if err := svc.Start(); err != nil {
		fw.Stop()
		return fmt.Errorf("start watching %s: %w", cfg.Folder, err)
	}
	defer svc.Stop()

	return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port))
}
