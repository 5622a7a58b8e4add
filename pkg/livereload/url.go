package livereload

import (
	"errors"
	"fmt"
	"net/url"
)

// DefaultPath is where the reload channel lives on the page's own host.
const DefaultPath = "/ws"

// ErrUnsupportedScheme is returned for origins that are not http or https.
var ErrUnsupportedScheme = errors.New("livereload: unsupported origin scheme")

// EndpointURL derives the channel URL from a page origin: the scheme is
// mapped http->ws and https->wss, host and port are kept, and the path is
// DefaultPath.
func EndpointURL(origin string) (string, error) {
	return endpointURL(origin, DefaultPath)
}

func endpointURL(origin, path string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("livereload: parse origin %q: %w", origin, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, origin)
	}
	if u.Host == "" {
		return "", fmt.Errorf("livereload: origin %q has no host", origin)
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: path}).String(), nil
}
