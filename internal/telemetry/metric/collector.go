package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/memkv-go/internal/storage/memory"
)

// KeyspaceSource reports per-database key counts.
type KeyspaceSource interface {
	Stats() []memory.DBStats
}

// KeyspaceCollector reports key counts when scraped.
type KeyspaceCollector struct {
	source KeyspaceSource
	keys   *prometheus.Desc
}

// NewKeyspaceCollector creates a collector over source.
func NewKeyspaceCollector(source KeyspaceSource) *KeyspaceCollector {
	return &KeyspaceCollector{
		source: source,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "keyspace", "keys"),
			"Number of keys per non-empty database",
			[]string{"db"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *KeyspaceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
}

// Collect implements prometheus.Collector.
func (c *KeyspaceCollector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range c.source.Stats() {
		ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(st.Keys), strconv.Itoa(st.Index))
	}
}
