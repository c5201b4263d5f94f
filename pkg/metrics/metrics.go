// Copyright 2026 The CodeChain-Go Authors

// Package metrics exposes the node's Prometheus surface: the small
// set of counters, histograms and gauges an operator's dashboard
// watches (blocks imported, import latency, mempool occupancy).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry rather than using the global
// DefaultRegisterer, so a test can build one without colliding with
// another test's collectors of the same name.
type Metrics struct {
	registry *prometheus.Registry

	BlocksImported *prometheus.CounterVec
	ImportSeconds  prometheus.Histogram
	MempoolRejects *prometheus.CounterVec
}

// New builds and registers the node's metric collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		BlocksImported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codechain",
			Name:      "blocks_imported_total",
			Help:      "Blocks accepted by the importer, labeled by outcome.",
		}, []string{"result"}),
		ImportSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "codechain",
			Name:      "block_import_seconds",
			Help:      "Wall-clock time spent verifying and applying one block.",
			Buckets:   prometheus.DefBuckets,
		}),
		MempoolRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codechain",
			Name:      "mempool_rejected_total",
			Help:      "Transactions rejected on insertion, labeled by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.BlocksImported, m.ImportSeconds, m.MempoolRejects)
	return m
}

// RegisterGauge wires a polling gauge (mempool size, chain height, …)
// under name/help, calling fn every scrape. Callers register these
// once their underlying component (pool, index) exists, since the
// value function usually closes over it.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "codechain",
		Name:      name,
		Help:      help,
	}, fn))
}

// Handler serves the registry in the Prometheus text exposition
// format, mounted by the server command at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
