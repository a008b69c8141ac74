package handler

import (
	"net/http"
	"time"
)

// handleHealth answers GET /health while the process is up, whether or not
// the RESP listener is accepting.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.probe("alive"))
}

// handleReady answers GET /ready with 503 unless the RESP listener is
// accepting connections.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.src.Running() {
		h.writeError(w, http.StatusServiceUnavailable, CodeUnavailable, "not accepting connections")
		return
	}
	h.writeJSON(w, http.StatusOK, h.probe("ready"))
}

func (h *Handler) probe(status string) ProbeStatus {
	return ProbeStatus{
		Status:           status,
		RunID:            h.src.RunID(),
		UptimeSeconds:    int64(time.Since(h.src.StartTime()).Seconds()),
		ConnectedClients: h.src.SessionCount(),
	}
}
