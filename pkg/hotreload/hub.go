package hotreload

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/cskr/pubsub"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/lightforgemedia/go-pagesync/pkg/livereload"
)

const (
	topicReload         = "reload"
	defaultQueueLength  = 8
	defaultWriteTimeout = 5 * time.Second
	defaultThrottle     = 50 * time.Millisecond
)

// Hub holds the open reload channels and broadcasts reload commands to
// all of them.
type Hub struct {
	bus           *pubsub.PubSub
	logger        *slog.Logger
	acceptOptions *websocket.AcceptOptions
	writeTimeout  time.Duration
	throttle      *rate.Sometimes

	connsMu sync.RWMutex
	conns   map[string]*connInfo

	busMu  sync.RWMutex
	closed bool
}

type connInfo struct {
	id          string
	remoteAddr  string
	userAgent   string
	connectedAt time.Time
	received    int
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub's logger.
func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithAcceptOptions sets the WebSocket accept options, e.g. origin patterns.
func WithAcceptOptions(opts *websocket.AcceptOptions) HubOption {
	return func(h *Hub) {
		h.acceptOptions = opts
	}
}

// WithThrottle sets the minimum spacing between broadcasts.
func WithThrottle(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.throttle = &rate.Sometimes{Interval: d}
		}
	}
}

// WithWriteTimeout bounds each frame written to a page.
func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		bus:          pubsub.New(defaultQueueLength),
		logger:       slog.New(slog.NewTextHandler(os.Stderr, nil)),
		writeTimeout: defaultWriteTimeout,
		throttle:     &rate.Sometimes{Interval: defaultThrottle},
		conns:        make(map[string]*connInfo),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.acceptOptions == nil {
		h.acceptOptions = &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return h
}

// Count returns the number of open channels.
func (h *Hub) Count() int {
	h.connsMu.RLock()
	defer h.connsMu.RUnlock()
	return len(h.conns)
}

// Reload tells every connected page to reload. Calls closer together than
// the throttle interval collapse into one broadcast; the return value says
// whether this call broadcast.
//
// Each page has a queue of defaultQueueLength notices. If a stalled page
// has a full queue, Reload blocks until that page's pending write fails,
// which takes at most the write timeout, and then drops it.
func (h *Hub) Reload(reason string) bool {
	h.busMu.RLock()
	defer h.busMu.RUnlock()
	if h.closed {
		return false
	}

	sent := false
	h.throttle.Do(func() {
		sent = true
		h.bus.Pub(livereload.Payload{Message: livereload.CommandReload}, topicReload)
		metricReloads.Inc()
		h.logger.Info("Broadcasting reload", "reason", reason, "clients", h.Count())
	})
	if !sent {
		h.logger.Debug("Reload throttled", "reason", reason)
	}
	return sent
}

// Close disconnects every page and stops accepting broadcasts.
func (h *Hub) Close() {
	h.busMu.Lock()
	defer h.busMu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.bus.Shutdown()
}

func (h *Hub) subscribe() (chan interface{}, bool) {
	h.busMu.RLock()
	defer h.busMu.RUnlock()
	if h.closed {
		return nil, false
	}
	return h.bus.Sub(topicReload), true
}

// unsubscribe detaches ch and drains it until the bus closes it. Unsub
// must run on another goroutine than the one consuming ch.
func (h *Hub) unsubscribe(ch chan interface{}) {
	go func() {
		h.busMu.RLock()
		defer h.busMu.RUnlock()
		if !h.closed {
			h.bus.Unsub(ch, topicReload)
		}
	}()
	for range ch {
	}
}

// ServeHTTP upgrades the request to a reload channel and keeps it open
// until the page goes away or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.subscribe()
	if !ok {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.unsubscribe(ch)

	c, err := websocket.Accept(w, r, h.acceptOptions)
	if err != nil {
		h.logger.Error("WebSocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	info := &connInfo{
		id:          uuid.NewString(),
		remoteAddr:  r.RemoteAddr,
		userAgent:   r.UserAgent(),
		connectedAt: time.Now(),
	}
	h.register(info)
	defer h.unregister(info)
	h.logger.Info("Page connected", "id", info.id, "remote", info.remoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.readLoop(ctx, cancel, c, info)

	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case msg, ok := <-ch:
			if !ok {
				c.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			writeCtx, writeCancel := context.WithTimeout(ctx, h.writeTimeout)
			err := wsjson.Write(writeCtx, c, msg)
			writeCancel()
			if err != nil {
				h.logger.Info("Write failed, dropping page", "id", info.id, "error", err)
				c.CloseNow()
				return
			}
		}
	}
}

// readLoop logs whatever the page sends and cancels the connection once
// the page stops reading.
func (h *Hub) readLoop(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, info *connInfo) {
	defer cancel()
	for {
		var p livereload.Payload
		if err := wsjson.Read(ctx, c, &p); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				h.logger.Info("Page disconnected", "id", info.id)
			} else {
				h.logger.Info("Read error", "id", info.id, "error", err)
			}
			return
		}
		h.connsMu.Lock()
		info.received++
		h.connsMu.Unlock()
		h.logger.Info("recv", "id", info.id, "message", p.Message)
	}
}

func (h *Hub) register(info *connInfo) {
	h.connsMu.Lock()
	h.conns[info.id] = info
	h.connsMu.Unlock()
	metricConnections.Inc()
}

func (h *Hub) unregister(info *connInfo) {
	h.connsMu.Lock()
	delete(h.conns, info.id)
	h.connsMu.Unlock()
	metricConnections.Dec()
}
