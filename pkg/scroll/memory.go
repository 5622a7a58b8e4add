// Package scroll remembers a page's scroll offset in a cookie so a reload
// or revisit resumes where the reader left off.
package scroll

import (
	"errors"
	"log/slog"
	"time"
)

// DefaultLifetime is how long a saved position is kept.
const DefaultLifetime = 365 * 24 * time.Hour

// ErrNegativeOffset is reported when the host returns a negative offset.
var ErrNegativeOffset = errors.New("scroll: negative offset")

// Viewport is the scrollable window of a page.
type Viewport interface {
	// ScrollOffset returns the current horizontal and vertical offset.
	ScrollOffset() (x, y int, err error)
	// ScrollTo asks the host to scroll to x, y. The host clamps.
	ScrollTo(x, y int) error
}

// Memory saves and restores the scroll position of one page.
type Memory struct {
	viewport Viewport
	doc      Document
	logger   *slog.Logger
	name     string
	lifetime time.Duration
	now      func() time.Time
}

// Option configures a Memory.
type Option func(*Memory)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Memory) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithCookieName overrides the cookie name.
func WithCookieName(name string) Option {
	return func(m *Memory) {
		if name != "" {
			m.name = name
		}
	}
}

// WithLifetime sets how far in the future a saved position expires.
func WithLifetime(d time.Duration) Option {
	return func(m *Memory) {
		if d > 0 {
			m.lifetime = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// New returns a Memory bound to a viewport and its document.
func New(viewport Viewport, doc Document, opts ...Option) *Memory {
	m := &Memory{
		viewport: viewport,
		doc:      doc,
		logger:   slog.Default(),
		name:     CookieName,
		lifetime: DefaultLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save records the current offset. It is meant for the before-unload hook
// and never fails loudly: a position that cannot be read is not written.
func (m *Memory) Save() {
	x, y, err := m.viewport.ScrollOffset()
	if err == nil && (x < 0 || y < 0) {
		err = ErrNegativeOffset
	}
	if err != nil {
		m.logger.Debug("Scroll offset unavailable, not saving", "error", err)
		return
	}

	value := FormatPosition(Position{X: x, Y: y})
	SetCookie(m.doc, m.name, value, m.now().Add(m.lifetime))
	m.logger.Debug("Saved scroll position", "cookie", m.name, "value", value)
}

// Saved returns the stored position, if a well-formed one exists.
func (m *Memory) Saved() (Position, bool) {
	value, ok := GetCookie(m.doc, m.name)
	if !ok {
		return Position{}, false
	}
	return ParsePosition(value)
}

// Load scrolls to the stored position and reports whether it did. An absent
// or malformed cookie means there is nothing to restore.
func (m *Memory) Load() bool {
	p, ok := m.Saved()
	if !ok {
		return false
	}
	if err := m.viewport.ScrollTo(p.X, p.Y); err != nil {
		m.logger.Debug("Scroll restore failed", "x", p.X, "y", p.Y, "error", err)
		return false
	}
	m.logger.Debug("Restored scroll position", "x", p.X, "y", p.Y)
	return true
}
