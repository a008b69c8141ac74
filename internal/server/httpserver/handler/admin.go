package handler

import (
	"net/http"
	"sort"
	"strconv"
	"time"
)

// handleStatus handles GET /admin/v1/status/summary.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ks := h.src.Keyspace()
	stats := h.src.Stats()

	keyspace := []DatabaseStatus{}
	for _, st := range ks.Stats() {
		keyspace = append(keyspace, DatabaseStatus{DB: st.Index, Keys: st.Keys})
	}

	h.writeJSON(w, http.StatusOK, StatusSummary{
		Version:          h.src.Version(),
		RunID:            h.src.RunID(),
		UptimeSeconds:    int64(time.Since(h.src.StartTime()) / time.Second),
		Running:          h.src.Running(),
		ConnectedClients: h.src.SessionCount(),
		TotalConnections: stats.TotalConnections,
		TotalCommands:    stats.TotalCommands,
		Rejected:         stats.Rejected,
		ProtocolErrors:   stats.ProtocolErrors,
		Databases:        ks.Len(),
		Keyspace:         keyspace,
	})
}

// handleClients handles GET /admin/v1/clients.
func (h *Handler) handleClients(w http.ResponseWriter, r *http.Request) {
	clients := h.src.Clients()
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })

	items := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		items = append(items, ClientResponse{
			ID:          c.ID,
			Addr:        c.Remote,
			DB:          c.DB,
			AgeSeconds:  int64(c.Age / time.Second),
			IdleSeconds: int64(c.Idle / time.Second),
			Commands:    c.Commands,
			State:       c.State.String(),
		})
	}
	h.writeJSON(w, http.StatusOK, ListClientsResponse{Items: items, Total: len(items)})
}

// handleFlush handles POST /admin/v1/flush[?db=N]. Without db every
// database is flushed.
func (h *Handler) handleFlush(w http.ResponseWriter, r *http.Request) {
	ks := h.src.Keyspace()

	raw := r.URL.Query().Get("db")
	if raw == "" {
		removed := ks.TotalKeys()
		ks.FlushAll()
		h.logger.Warn("flushed all databases via admin API", "keys", removed)
		h.writeJSON(w, http.StatusOK, FlushResponse{Removed: removed})
		return
	}

	idx, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, CodeBadRequest, "db must be an integer")
		return
	}
	db, err := ks.DB(idx)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, CodeDBRange, err.Error())
		return
	}
	removed := db.Len()
	db.Flush()
	h.logger.Warn("flushed database via admin API", "db", idx, "keys", removed)
	h.writeJSON(w, http.StatusOK, FlushResponse{DB: &idx, Removed: removed})
}
