package scroll

import (
	"net/http"
	"strings"
	"time"
)

// Document is the script-visible cookie jar of a page. Cookie returns the
// "a=1; b=2" view and SetCookie performs one assignment, exactly like
// reading and writing document.cookie.
type Document interface {
	Cookie() string
	SetCookie(assignment string)
}

// cookieAttrs holds the optional scoping of a cookie write.
type cookieAttrs struct {
	path   string
	domain string
	secure bool
}

// CookieOption scopes a cookie write or delete.
type CookieOption func(*cookieAttrs)

// WithPath limits the cookie to path.
func WithPath(path string) CookieOption {
	return func(a *cookieAttrs) { a.path = path }
}

// WithDomain limits the cookie to domain.
func WithDomain(domain string) CookieOption {
	return func(a *cookieAttrs) { a.domain = domain }
}

// WithSecure marks the cookie secure.
func WithSecure() CookieOption {
	return func(a *cookieAttrs) { a.secure = true }
}

// expiredDate is far enough in the past for every browser to drop the cookie.
var expiredDate = time.Date(1970, time.January, 1, 0, 0, 1, 0, time.UTC)

// SetCookie writes name with the escaped value and an absolute expiry.
func SetCookie(doc Document, name, value string, expires time.Time, opts ...CookieOption) {
	doc.SetCookie(cookieAssignment(name, Escape(value), expires, opts))
}

// GetCookie returns the unescaped value of name, if present.
func GetCookie(doc Document, name string) (string, bool) {
	return lookupCookie(doc.Cookie(), name)
}

// DeleteCookie expires name. Path and domain must match the original write.
func DeleteCookie(doc Document, name string, opts ...CookieOption) {
	doc.SetCookie(cookieAssignment(name, "", expiredDate, opts))
}

func cookieAssignment(name, escaped string, expires time.Time, opts []CookieOption) string {
	var attrs cookieAttrs
	for _, opt := range opts {
		opt(&attrs)
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(escaped)
	if !expires.IsZero() {
		b.WriteString("; expires=")
		b.WriteString(expires.UTC().Format(http.TimeFormat))
	}
	if attrs.path != "" {
		b.WriteString("; path=")
		b.WriteString(attrs.path)
	}
	if attrs.domain != "" {
		b.WriteString("; domain=")
		b.WriteString(attrs.domain)
	}
	if attrs.secure {
		b.WriteString("; secure")
	}
	return b.String()
}

func lookupCookie(jar, name string) (string, bool) {
	prefix := name + "="
	for _, part := range strings.Split(jar, ";") {
		part = strings.TrimLeft(part, " ")
		if strings.HasPrefix(part, prefix) {
			return Unescape(part[len(prefix):]), true
		}
	}
	return "", false
}
