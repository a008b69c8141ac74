// Package metric exposes MemKV metrics in Prometheus format.
//
//   - prometheus.go: the Registry with connection and command metrics, and
//     the /metrics HTTP handler
//   - collector.go: a collector reporting per-database key counts at
//     scrape time
//
// A nil *Registry is valid and records nothing, so components can take an
// optional registry without branching at every call site.
package metric
