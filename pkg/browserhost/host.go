// Package browserhost drives a real browser tab through go-rod and exposes
// it as a page.Host, so scroll memory and live reload can run against an
// actual document.
package browserhost

import (
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
)

// Host adapts a rod page.
type Host struct {
	page   *rod.Page
	logger *slog.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New wraps page.
func New(page *rod.Page, opts ...Option) *Host {
	h := &Host{page: page, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Page returns the underlying rod page.
func (h *Host) Page() *rod.Page { return h.page }

// ScrollOffset prefers pageXOffset/pageYOffset and falls back to the body's
// scrollLeft/scrollTop for documents that do not report them.
func (h *Host) ScrollOffset() (int, int, error) {
	res, err := h.page.Eval(`() => {
		const body = document.body || {};
		const x = window.pageXOffset !== undefined ? window.pageXOffset : body.scrollLeft;
		const y = window.pageYOffset !== undefined ? window.pageYOffset : body.scrollTop;
		return [Math.round(x || 0), Math.round(y || 0)];
	}`)
	if err != nil {
		return 0, 0, fmt.Errorf("browserhost: read scroll offset: %w", err)
	}
	arr := res.Value.Arr()
	if len(arr) != 2 {
		return 0, 0, fmt.Errorf("browserhost: unexpected scroll offset %s", res.Value.JSON("", ""))
	}
	return arr[0].Int(), arr[1].Int(), nil
}

// ScrollTo scrolls the window.
func (h *Host) ScrollTo(x, y int) error {
	if _, err := h.page.Eval(`(x, y) => window.scrollTo(x, y)`, x, y); err != nil {
		return fmt.Errorf("browserhost: scroll to %d,%d: %w", x, y, err)
	}
	return nil
}

// Cookie returns document.cookie. Errors read as an empty jar.
func (h *Host) Cookie() string {
	res, err := h.page.Eval(`() => document.cookie`)
	if err != nil {
		h.logger.Debug("Reading document.cookie failed", "error", err)
		return ""
	}
	return res.Value.Str()
}

// SetCookie assigns to document.cookie.
func (h *Host) SetCookie(assignment string) {
	if _, err := h.page.Eval(`(c) => { document.cookie = c; }`, assignment); err != nil {
		h.logger.Debug("Writing document.cookie failed", "error", err)
	}
}

// Reload reloads the tab and waits for the new document to load.
func (h *Host) Reload() error {
	if err := h.page.Reload(); err != nil {
		return fmt.Errorf("browserhost: reload: %w", err)
	}
	return h.page.WaitLoad()
}

// Origin returns window.origin.
func (h *Host) Origin() (string, error) {
	res, err := h.page.Eval(`() => window.origin`)
	if err != nil {
		return "", fmt.Errorf("browserhost: read origin: %w", err)
	}
	return res.Value.Str(), nil
}
