package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

// tracer emits one span per execute_component_call, named
// "execute_component_call" and carrying the invoked function's name as the
// function.name attribute (SPEC_FULL.md §11 domain stack).
var tracer = otel.Tracer("github.com/Wasm-Cell/wasmcell/internal/service/lifecycle")

// Metrics holds the Lifecycle Manager's Prometheus instrumentation,
// following the teacher's own `internal/adapter/inbound/http/metrics.go`
// namespace-per-service convention.
type Metrics struct {
	componentsLoaded   prometheus.Counter
	componentsUnloaded prometheus.Counter
	callsSucceeded     prometheus.Counter
	callsFailed        prometheus.Counter
	callDuration       prometheus.Histogram
}

// newMetrics registers against a private registry per Manager instance, so
// constructing several Managers in one process (as the test suite does)
// never collides on Prometheus's global default registerer.
func newMetrics() *Metrics {
	return newMetricsWithRegisterer(prometheus.NewRegistry())
}

func newMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		componentsLoaded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "wasmcell",
			Name:      "components_loaded_total",
			Help:      "Total number of successful component loads.",
		}),
		componentsUnloaded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "wasmcell",
			Name:      "components_unloaded_total",
			Help:      "Total number of component unloads.",
		}),
		callsSucceeded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "wasmcell",
			Name:      "component_calls_succeeded_total",
			Help:      "Total number of successful execute_component_call invocations.",
		}),
		callsFailed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "wasmcell",
			Name:      "component_calls_failed_total",
			Help:      "Total number of failed execute_component_call invocations.",
		}),
		callDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "wasmcell",
			Name:      "component_call_duration_seconds",
			Help:      "execute_component_call latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
