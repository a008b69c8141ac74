package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/memkv-go/internal/server/redisserver"
	"github.com/yndnr/memkv-go/internal/storage/memory"
)

// Source is the server state the handlers report on.
type Source interface {
	RunID() string
	Version() string
	StartTime() time.Time
	Running() bool
	SessionCount() int
	Clients() []redisserver.ClientInfo
	Stats() redisserver.Stats
	Keyspace() *memory.Keyspace
}

// Error codes returned by the handlers.
const (
	CodeBadRequest  = "MK-ARG-4000"
	CodeDBRange     = "MK-DB-4000"
	CodeUnavailable = "MK-SYS-5030"
)

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	src    Source
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a new Handler over src.
func New(src Source, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		src:    src,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("GET /admin/v1/status/summary", h.handleStatus)
	h.mux.HandleFunc("GET /admin/v1/clients", h.handleClients)
	h.mux.HandleFunc("POST /admin/v1/flush", h.handleFlush)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	response := NewResponse(getRequestID(w), data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	response := NewErrorResponse(getRequestID(w), code, message, nil)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// getRequestID returns the ID the RequestID middleware put on the response.
func getRequestID(w http.ResponseWriter) string {
	return w.Header().Get("X-Request-ID")
}
