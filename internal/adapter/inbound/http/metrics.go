// Package http provides the HTTP transport adapter for the Tool Gateway.
package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP transport's Prometheus instrumentation. This is
// transport-layer instrumentation only (request volume/latency/SSE
// fan-out); call-level instrumentation lives on the Lifecycle Manager
// (internal/service/lifecycle/metrics.go).
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveSSEConns  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wasmcell",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by the Tool Gateway's HTTP transport",
			},
			[]string{"method", "status"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wasmcell",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		ActiveSSEConns: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "wasmcell",
				Name:      "http_active_sse_connections",
				Help:      "Number of open SSE connections awaiting tools/list_changed notifications",
			},
		),
	}
}
