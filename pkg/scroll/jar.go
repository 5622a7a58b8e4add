package scroll

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// DocumentJar is an in-memory Document with browser semantics: an
// assignment replaces the cookie of the same name, an expiry in the past
// removes it, and attributes never show up when reading.
type DocumentJar struct {
	mu      sync.Mutex
	now     func() time.Time
	cookies []*http.Cookie
}

// NewDocumentJar returns an empty jar that uses now to judge expiry.
// A nil now means time.Now.
func NewDocumentJar(now func() time.Time) *DocumentJar {
	if now == nil {
		now = time.Now
	}
	return &DocumentJar{now: now}
}

// Cookie returns the live cookies as "name=value" pairs joined by "; ".
func (j *DocumentJar) Cookie() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	pairs := make([]string, 0, len(j.cookies))
	for _, c := range j.cookies {
		if expired(c, now) {
			continue
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

// SetCookie applies one document.cookie assignment. Unparseable
// assignments are ignored, as browsers do.
func (j *DocumentJar) SetCookie(assignment string) {
	c, err := http.ParseSetCookie(assignment)
	if err != nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	for i, existing := range j.cookies {
		if existing.Name != c.Name {
			continue
		}
		if expired(c, j.now()) {
			j.cookies = append(j.cookies[:i], j.cookies[i+1:]...)
		} else {
			j.cookies[i] = c
		}
		return
	}
	if !expired(c, j.now()) {
		j.cookies = append(j.cookies, c)
	}
}

// Attributes returns the full parsed cookie stored under name, including
// expiry and scoping, for callers that need more than document.cookie shows.
func (j *DocumentJar) Attributes(name string) (*http.Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range j.cookies {
		if c.Name == name {
			cp := *c
			return &cp, true
		}
	}
	return nil, false
}

func expired(c *http.Cookie, now time.Time) bool {
	if c.MaxAge < 0 {
		return true
	}
	if c.MaxAge > 0 {
		return false
	}
	return !c.Expires.IsZero() && !c.Expires.After(now)
}
