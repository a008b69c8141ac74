package handler

import "time"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// ProbeStatus is the data of GET /health and GET /ready.
type ProbeStatus struct {
	Status           string `json:"status"`
	RunID            string `json:"run_id"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	ConnectedClients int    `json:"connected_clients"`
}

// StatusSummary is the data of GET /admin/v1/status/summary.
type StatusSummary struct {
	Version          string           `json:"version"`
	RunID            string           `json:"run_id"`
	UptimeSeconds    int64            `json:"uptime_seconds"`
	Running          bool             `json:"running"`
	ConnectedClients int              `json:"connected_clients"`
	TotalConnections int64            `json:"total_connections"`
	TotalCommands    int64            `json:"total_commands"`
	Rejected         int64            `json:"rejected_connections"`
	ProtocolErrors   int64            `json:"protocol_errors"`
	Databases        int              `json:"databases"`
	Keyspace         []DatabaseStatus `json:"keyspace"`
}

// DatabaseStatus is one non-empty database.
type DatabaseStatus struct {
	DB   int `json:"db"`
	Keys int `json:"keys"`
}

// ClientResponse represents a session in GET /admin/v1/clients.
type ClientResponse struct {
	ID          string `json:"id"`
	Addr        string `json:"addr"`
	DB          int    `json:"db"`
	AgeSeconds  int64  `json:"age_seconds"`
	IdleSeconds int64  `json:"idle_seconds"`
	Commands    int64  `json:"commands"`
	State       string `json:"state"`
}

// ListClientsResponse is the data of GET /admin/v1/clients.
type ListClientsResponse struct {
	Items []ClientResponse `json:"items"`
	Total int              `json:"total"`
}

// FlushResponse is the data of POST /admin/v1/flush.
type FlushResponse struct {
	// DB is the flushed database, or nil when every database was flushed.
	DB      *int `json:"db"`
	Removed int  `json:"removed"`
}
