// Package page wires scroll memory and live reload to a page's lifecycle
// events. The host environment (a real browser tab, a test double) provides
// the Host and fires the Events.
package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lightforgemedia/go-pagesync/pkg/livereload"
	"github.com/lightforgemedia/go-pagesync/pkg/scroll"
)

// Errors
var (
	ErrNoHost   = errors.New("page: no host provided")
	ErrNoEvents = errors.New("page: no events provided")
)

// Host is everything the shell needs from a loaded page.
type Host interface {
	scroll.Viewport
	scroll.Document
	livereload.Reloader
	// Origin returns scheme://host[:port] of the page.
	Origin() (string, error)
}

// Events are the page lifecycle hooks. OnReady fires once the initial
// markup is parsed; OnBeforeUnload fires synchronously before navigation.
type Events interface {
	OnReady(func())
	OnBeforeUnload(func())
}

type shellConfig struct {
	logger        *slog.Logger
	scrollOpts    []scroll.Option
	reloadOpts    []livereload.Option
	disableScroll bool
	disableReload bool
}

// Option configures Attach.
type Option func(*shellConfig)

// WithLogger sets the logger for the shell and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(c *shellConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithScrollOptions passes options to the scroll memory.
func WithScrollOptions(opts ...scroll.Option) Option {
	return func(c *shellConfig) { c.scrollOpts = append(c.scrollOpts, opts...) }
}

// WithLiveReloadOptions passes options to the live reload client.
func WithLiveReloadOptions(opts ...livereload.Option) Option {
	return func(c *shellConfig) { c.reloadOpts = append(c.reloadOpts, opts...) }
}

// WithoutScroll leaves scroll position alone.
func WithoutScroll() Option {
	return func(c *shellConfig) { c.disableScroll = true }
}

// WithoutLiveReload does not open a reload channel.
func WithoutLiveReload() Option {
	return func(c *shellConfig) { c.disableReload = true }
}

// Shell is the attached pair of behaviours for one page.
type Shell struct {
	Memory *scroll.Memory
	Client *livereload.Client
}

// Attach binds scroll restore to ready, scroll save to before-unload, and
// starts the live reload client for the host's origin.
func Attach(ctx context.Context, host Host, events Events, opts ...Option) (*Shell, error) {
	cfg := shellConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if host == nil {
		return nil, ErrNoHost
	}
	if events == nil && !cfg.disableScroll {
		return nil, ErrNoEvents
	}

	s := &Shell{}
	if !cfg.disableReload {
		origin, err := host.Origin()
		if err != nil {
			return nil, fmt.Errorf("page: read origin: %w", err)
		}
		reloadOpts := append([]livereload.Option{livereload.WithLogger(cfg.logger)}, cfg.reloadOpts...)
		s.Client, err = livereload.New(origin, host, reloadOpts...)
		if err != nil {
			return nil, fmt.Errorf("page: live reload: %w", err)
		}
	}

	if !cfg.disableScroll {
		scrollOpts := append([]scroll.Option{scroll.WithLogger(cfg.logger)}, cfg.scrollOpts...)
		s.Memory = scroll.New(host, host, scrollOpts...)
		events.OnReady(func() { s.Memory.Load() })
		events.OnBeforeUnload(s.Memory.Save)
	}

	if s.Client != nil {
		s.Client.Start(ctx)
	}
	return s, nil
}

// Close stops the live reload client.
func (s *Shell) Close() {
	if s.Client != nil {
		s.Client.Stop()
	}
}

// Dispatcher is an in-process Events implementation. Hosts that observe
// lifecycle changes themselves call FireReady and FireBeforeUnload.
type Dispatcher struct {
	mu     sync.Mutex
	ready  []func()
	unload []func()
}

// OnReady registers fn for FireReady.
func (d *Dispatcher) OnReady(fn func()) {
	d.mu.Lock()
	d.ready = append(d.ready, fn)
	d.mu.Unlock()
}

// OnBeforeUnload registers fn for FireBeforeUnload.
func (d *Dispatcher) OnBeforeUnload(fn func()) {
	d.mu.Lock()
	d.unload = append(d.unload, fn)
	d.mu.Unlock()
}

// FireReady runs the ready handlers in registration order.
func (d *Dispatcher) FireReady() {
	d.mu.Lock()
	hs := append([]func(){}, d.ready...)
	d.mu.Unlock()
	for _, h := range hs {
		h()
	}
}

// FireBeforeUnload runs the before-unload handlers in registration order.
func (d *Dispatcher) FireBeforeUnload() {
	d.mu.Lock()
	hs := append([]func(){}, d.unload...)
	d.mu.Unlock()
	for _, h := range hs {
		h()
	}
}
