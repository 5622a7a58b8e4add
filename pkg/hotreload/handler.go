package hotreload

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// StatusPath is where RegisterHandlers mounts the status endpoint.
const StatusPath = "/api/pagesync/status"

// Mux is the subset of http.ServeMux and chi.Router used to mount routes.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// RegisterHandlers mounts the hub at path and the status endpoint at
// StatusPath.
func (h *Hub) RegisterHandlers(mux Mux, path string) {
	mux.Handle(path, h)
	mux.Handle(StatusPath, http.HandlerFunc(h.StatusHandler))
}

type connStatus struct {
	ID          string `json:"id"`
	RemoteAddr  string `json:"remoteAddr"`
	UserAgent   string `json:"userAgent,omitempty"`
	ConnectedAt string `json:"connectedAt"`
	Received    int    `json:"received"`
}

type statusResponse struct {
	Connections []connStatus `json:"connections"`
}

// StatusHandler reports the open reload channels as JSON.
func (h *Hub) StatusHandler(w http.ResponseWriter, r *http.Request) {
	h.connsMu.RLock()
	response := statusResponse{
		Connections: make([]connStatus, 0, len(h.conns)),
	}
	for _, c := range h.conns {
		response.Connections = append(response.Connections, connStatus{
			ID:          c.id,
			RemoteAddr:  c.remoteAddr,
			UserAgent:   c.userAgent,
			ConnectedAt: c.connectedAt.Format(time.RFC3339),
			Received:    c.received,
		})
	}
	h.connsMu.RUnlock()

	sort.Slice(response.Connections, func(i, j int) bool {
		return response.Connections[i].ConnectedAt < response.Connections[j].ConnectedAt
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to write status", "error", err)
	}
}
