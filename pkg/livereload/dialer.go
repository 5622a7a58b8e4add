package livereload

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

const defaultReadLimit = 1 << 20

// Conn is one open reload channel.
type Conn interface {
	// Read blocks until the next text or binary frame arrives.
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens reload channels.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer dials with github.com/coder/websocket.
type WebSocketDialer struct {
	Options *websocket.DialOptions
}

// Dial opens a WebSocket connection to url.
func (d WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	opts := d.Options
	if opts == nil {
		opts = &websocket.DialOptions{HTTPClient: http.DefaultClient}
	}
	c, resp, err := websocket.Dial(ctx, url, opts)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status: %s)", url, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c.SetReadLimit(defaultReadLimit)
	return &wsConn{conn: c}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	return data, err
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
