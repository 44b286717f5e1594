// Package metrics provides Prometheus instrumentation for reynard components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for reynard components.
type Registry struct {
	// Rate Limiting Metrics
	Invocations       *prometheus.CounterVec
	Executions        *prometheus.CounterVec
	Failures          *prometheus.CounterVec
	Cancellations     *prometheus.CounterVec
	Pending           *prometheus.GaugeVec
	ExecutionDuration *prometheus.HistogramVec

	// Batch Metrics
	BatchItems   *prometheus.CounterVec
	BatchFlushes *prometheus.CounterVec
	BatchSize    *prometheus.HistogramVec
	BatchErrors  *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by reynard components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Rate Limiting Metrics
		Invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reynard",
				Subsystem: "ratelimit",
				Name:      "invocations_total",
				Help:      "Total number of wrapper invocations",
			},
			[]string{"engine", "name"},
		),

		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reynard",
				Subsystem: "ratelimit",
				Name:      "executions_total",
				Help:      "Total number of wrapped-operation executions",
			},
			[]string{"engine", "name"},
		),

		Failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reynard",
				Subsystem: "ratelimit",
				Name:      "failures_total",
				Help:      "Total number of wrapped-operation failures",
			},
			[]string{"engine", "name"},
		),

		Cancellations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reynard",
				Subsystem: "ratelimit",
				Name:      "cancellations_total",
				Help:      "Total number of Cancel calls",
			},
			[]string{"engine", "name"},
		),

		Pending: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "reynard",
				Subsystem: "ratelimit",
				Name:      "pending",
				Help:      "Whether a scheduled execution slot is outstanding (0 or 1)",
			},
			[]string{"engine", "name"},
		),

		ExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "reynard",
				Subsystem: "ratelimit",
				Name:      "execution_duration_seconds",
				Help:      "Time spent executing the wrapped operation",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"engine", "name"},
		),

		// Batch Metrics
		BatchItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reynard",
				Subsystem: "batch",
				Name:      "items_total",
				Help:      "Total number of items enqueued for batching",
			},
			[]string{"name"},
		),

		BatchFlushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reynard",
				Subsystem: "batch",
				Name:      "flushes_total",
				Help:      "Total number of batch flushes",
			},
			[]string{"name"},
		),

		BatchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "reynard",
				Subsystem: "batch",
				Name:      "size",
				Help:      "Number of items handed to the batch function per flush",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
			},
			[]string{"name"},
		),

		BatchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reynard",
				Subsystem: "batch",
				Name:      "errors_total",
				Help:      "Total number of batch function failures",
			},
			[]string{"name"},
		),
	}
}
