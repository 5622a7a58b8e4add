package assets

import (
	"log/slog"
	"net/http"
)

// ScriptHandler serves the page script.
func ScriptHandler(compact bool, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &scriptHandler{compact: compact, logger: logger}
}

type scriptHandler struct {
	compact bool
	logger  *slog.Logger
}

func (h *scriptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, err := Script(h.compact)
	if err != nil {
		h.logger.Error("Failed to load page script", "error", err)
		http.Error(w, "script unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}
