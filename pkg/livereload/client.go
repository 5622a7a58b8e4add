// Package livereload keeps a page connected to its server's reload channel
// and reloads the page when told to.
package livereload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNoReloader is returned by New when no Reloader is given.
var ErrNoReloader = errors.New("livereload: no reloader provided")

// State is the connection state of a Client.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

type clientConfig struct {
	logger   *slog.Logger
	dialer   Dialer
	path     string
	delayMin time.Duration // 0 reconnects immediately
	delayMax time.Duration
	onOpen   func()
	onClose  func(err error)
}

// Client owns the single reload connection of a page. When the connection
// drops it dials again, forever, until its context is cancelled.
type Client struct {
	config   clientConfig
	url      string
	reloader Reloader

	state    atomic.Int32
	attempts atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.config.logger = logger
		}
	}
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.config.dialer = d
		}
	}
}

// WithPath overrides the channel path on the page's host.
func WithPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.config.path = path
		}
	}
}

// WithBackoff waits between reconnects, starting at min and doubling up to
// max, with up to 25% jitter. Without it the client redials immediately.
func WithBackoff(min, max time.Duration) Option {
	return func(c *Client) {
		if min <= 0 {
			return
		}
		if max < min {
			max = min
		}
		c.config.delayMin = min
		c.config.delayMax = max
	}
}

// WithHooks registers callbacks for connection open and close.
func WithHooks(onOpen func(), onClose func(err error)) Option {
	return func(c *Client) {
		c.config.onOpen = onOpen
		c.config.onClose = onClose
	}
}

// New returns a Client for the page served from origin.
func New(origin string, r Reloader, opts ...Option) (*Client, error) {
	if r == nil {
		return nil, ErrNoReloader
	}
	c := &Client{
		config: clientConfig{
			logger: slog.Default(),
			dialer: WebSocketDialer{},
			path:   DefaultPath,
		},
		reloader: r,
	}
	for _, opt := range opts {
		opt(c)
	}

	u, err := endpointURL(origin, c.config.path)
	if err != nil {
		return nil, err
	}
	c.url = u
	return c, nil
}

// URL returns the derived channel URL.
func (c *Client) URL() string { return c.url }

// State returns the current connection state.
func (c *Client) State() State { return State(c.state.Load()) }

// Attempts returns how many times the client has dialed.
func (c *Client) Attempts() int64 { return c.attempts.Load() }

// Run connects and keeps reconnecting until ctx is cancelled, then returns
// ctx.Err(). Connection failures are logged, never returned.
func (c *Client) Run(ctx context.Context) error {
	delay := c.config.delayMin
	for {
		if err := ctx.Err(); err != nil {
			c.state.Store(int32(StateDisconnected))
			return err
		}

		c.attempts.Add(1)
		c.state.Store(int32(StateConnecting))
		conn, err := c.config.dialer.Dial(ctx, c.url)
		if err != nil {
			c.state.Store(int32(StateDisconnected))
			if ctx.Err() == nil {
				c.config.logger.Info("Connect failed", "url", c.url, "attempt", c.attempts.Load(), "error", err)
			}
		} else {
			c.state.Store(int32(StateOpen))
			c.config.logger.Info("Connected", "url", c.url)
			if c.config.onOpen != nil {
				c.config.onOpen()
			}
			delay = c.config.delayMin

			readErr := c.readLoop(ctx, conn)
			conn.Close()
			c.state.Store(int32(StateDisconnected))
			c.config.logger.Info("Disconnected.", "url", c.url, "reason", readErr)
			if c.config.onClose != nil {
				c.config.onClose(readErr)
			}
		}

		if delay <= 0 {
			continue
		}
		wait := withJitter(delay)
		c.config.logger.Debug("Waiting before reconnect", "delay", wait)
		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
		delay *= 2
		if delay > c.config.delayMax {
			delay = c.config.delayMax
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn Conn) error {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		Dispatch(data, c.reloader, c.config.logger)
	}
}

// Start runs the reconnect loop in the background.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	go func() {
		defer close(done)
		c.Run(runCtx)

		// The parent ctx may have ended the loop; forget it so Start works again.
		c.mu.Lock()
		if c.done == done {
			c.cancel, c.done = nil, nil
		}
		c.mu.Unlock()
		cancel()
	}()
}

// Stop cancels a loop started with Start and waits for it to exit.
func (c *Client) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func withJitter(d time.Duration) time.Duration {
	jitterRange := int64(d / 4)
	if jitterRange <= 0 {
		jitterRange = 1
	}
	return d + time.Duration(rand.Int63n(jitterRange))
}
