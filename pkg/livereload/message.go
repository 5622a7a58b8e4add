package livereload

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// CommandReload is the only message value the client acts on.
const CommandReload = "reload"

// Payload is the JSON frame exchanged on the reload channel. Servers may
// send other values; clients ignore them.
type Payload struct {
	Message string `json:"message"`
}

// Reloader performs a full page reload.
type Reloader interface {
	Reload() error
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func() error

// Reload calls f.
func (f ReloaderFunc) Reload() error { return f() }

// ParsePayload decodes one inbound frame.
func ParsePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("livereload: decode payload: %w", err)
	}
	return p, nil
}

// Dispatch handles one inbound frame and reports whether it triggered a
// reload. Unknown commands and undecodable frames are logged and dropped.
func Dispatch(data []byte, r Reloader, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := ParsePayload(data)
	if err != nil {
		logger.Warn("Ignoring malformed message", "data", string(data), "error", err)
		return false
	}
	if p.Message != CommandReload {
		logger.Debug("Ignoring message", "message", p.Message)
		return false
	}
	logger.Info("Reload requested")
	if err := r.Reload(); err != nil {
		logger.Error("Reload failed", "error", err)
	}
	return true
}
