package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/memkv-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Source is the server the admin API reports on.
	Source handler.Source

	// Metrics serves GET /metrics. The route is absent when nil.
	Metrics http.Handler

	// Logger for request logging.
	Logger *slog.Logger

	// AdminAllowList is the IP/CIDR allowlist for admin API (empty = no restriction).
	AdminAllowList []string

	// RateLimit is the rate limit per IP (requests/second, 0 disables).
	RateLimit int

	// EnableAudit logs every admin request.
	EnableAudit bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := handler.New(cfg.Source, logger)

	base := []Middleware{Recover(logger), RequestID()}
	if cfg.RateLimit > 0 {
		base = append(base, RateLimit(cfg.RateLimit))
	}

	mux := http.NewServeMux()

	// Probes and metrics stay open to scrapers.
	probes := Chain(h, base...)
	mux.Handle("GET /health", probes)
	mux.Handle("GET /ready", probes)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics, base...))
	}

	adminMiddlewares := append([]Middleware{}, base...)
	if len(cfg.AdminAllowList) > 0 {
		adminMiddlewares = append(adminMiddlewares, NetworkACL(cfg.AdminAllowList, logger))
	}
	if cfg.EnableAudit {
		adminMiddlewares = append(adminMiddlewares, Audit(logger))
	}
	admin := Chain(h, adminMiddlewares...)

	mux.Handle("GET /admin/v1/status/summary", admin)
	mux.Handle("GET /admin/v1/clients", admin)
	mux.Handle("POST /admin/v1/flush", admin)

	return mux
}
