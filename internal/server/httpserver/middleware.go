package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/memkv-go/internal/server/httpserver/handler"
)

type contextKey struct{}

// requestIDKey carries the request id set by RequestID.
var requestIDKey contextKey

// Error codes written by the middlewares.
const (
	CodeForbidden       = "MK-ADMIN-4031"
	CodeTooManyRequests = "MK-SYS-4290"
	CodeInternal        = "MK-SYS-5000"
)

const (
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 64

	// limiterIdle is how long a client's bucket survives without requests.
	limiterIdle = 3 * time.Minute
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one runs outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID echoes a well-formed inbound X-Request-ID or assigns
// "req-<ulid>", and stores it in the request context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if !validRequestID(id) {
				id = "req-" + ulid.Make().String()
			}
			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_' || c == '.') {
			return false
		}
	}
	return true
}

// RequestIDFromContext returns the id stored by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type clientLimiter struct {
	*rate.Limiter
	seen time.Time
}

// RateLimit gives each client IP a token bucket of rps requests per
// second with a one second burst. Buckets idle for limiterIdle are
// dropped.
func RateLimit(rps int) Middleware {
	var (
		mu       sync.Mutex
		limiters = make(map[netip.Addr]*clientLimiter)
		swept    = time.Now()
	)

	allow := func(ip netip.Addr) bool {
		now := time.Now()
		mu.Lock()
		defer mu.Unlock()
		if now.Sub(swept) > limiterIdle {
			for k, l := range limiters {
				if now.Sub(l.seen) > limiterIdle {
					delete(limiters, k)
				}
			}
			swept = now
		}
		l, ok := limiters[ip]
		if !ok {
			l = &clientLimiter{Limiter: rate.NewLimiter(rate.Limit(rps), rps)}
			limiters[ip] = l
		}
		l.seen = now
		return l.AllowN(now, 1)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(peerAddr(r)) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, CodeTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Audit logs one record per admin request once it completes. The level
// follows the status class.
func Audit(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			level := slog.LevelInfo
			switch {
			case rw.status >= 500:
				level = slog.LevelError
			case rw.status >= 400:
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "admin request",
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", rw.status,
				"duration", time.Since(start),
				"client_ip", peerAddr(r).String())
		})
	}
}

// Recover turns a handler panic into a 500 reply.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("admin handler panicked",
						"request_id", RequestIDFromContext(r.Context()),
						"path", r.URL.Path,
						"panic", v)
					writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NetworkACL admits only peers inside allow, a list of IPs and CIDR
// prefixes. Unparsable entries are logged and skipped. An empty list
// admits everyone.
func NetworkACL(allow []string, logger *slog.Logger) Middleware {
	prefixes := make([]netip.Prefix, 0, len(allow))
	for _, entry := range allow {
		p, err := parseAllowEntry(entry)
		if err != nil {
			logger.Warn("ignoring admin allow list entry", "entry", entry, "error", err)
			continue
		}
		prefixes = append(prefixes, p)
	}

	return func(next http.Handler) http.Handler {
		if len(allow) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := peerAddr(r)
			for _, p := range prefixes {
				if p.Contains(ip) {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.Warn("admin request denied", "client_ip", r.RemoteAddr, "path", r.URL.Path)
			writeError(w, http.StatusForbidden, CodeForbidden, "client not in admin allow list")
		})
	}
}

func parseAllowEntry(entry string) (netip.Prefix, error) {
	if strings.Contains(entry, "/") {
		p, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// peerAddr returns the IP of the TCP peer. Forwarding headers are not
// trusted. The zero Addr is returned for unparsable remotes and matches
// no prefix.
func peerAddr(r *http.Request) netip.Addr {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// writeError replies with the admin API error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	resp := handler.NewErrorResponse(w.Header().Get(requestIDHeader), code, message, nil)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
