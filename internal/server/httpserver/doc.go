// Package httpserver provides the admin HTTP listener of memkv-server.
//
// The listener serves Prometheus metrics, liveness and readiness probes,
// and a small JSON admin API under /admin/v1/. Admin routes can be
// restricted to an IP allowlist and audited; every route carries a
// request ID and panic recovery.
package httpserver
