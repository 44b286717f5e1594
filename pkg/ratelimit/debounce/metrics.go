package debounce

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/entropy-tamer/reynard-core/pkg/metrics"
	"github.com/entropy-tamer/reynard-core/pkg/ratelimit"
)

const engineLabel = "debounce"

// MetricsDebounce wraps a Debounce with Prometheus metrics collection.
type MetricsDebounce[A, R any] struct {
	debounce *Debounce[A, R]
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a debounced wrapper with metrics enabled.
func NewWithMetrics[A, R any](fn Func[A, R], wait time.Duration, name string) (*MetricsDebounce[A, R], error) {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := DefaultConfig()
	config.Wait = wait

	return NewWithConfigAndMetrics(fn, config, name, metrics.Config{
		Enabled:  true,
		Registry: registry,
	})
}

// NewWithConfigAndMetrics creates a debounced wrapper with custom config and metrics.
func NewWithConfigAndMetrics[A, R any](fn Func[A, R], config Config, name string, metricsConfig metrics.Config) (*MetricsDebounce[A, R], error) {
	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	instrumented := fn
	if metricsConfig.Enabled {
		inner := fn
		instrumented = func(arg A) (R, error) {
			start := time.Now()
			value, err := inner(arg)
			registry.ExecutionDuration.WithLabelValues(engineLabel, name).Observe(time.Since(start).Seconds())
			registry.Executions.WithLabelValues(engineLabel, name).Inc()
			if err != nil {
				registry.Failures.WithLabelValues(engineLabel, name).Inc()
			}
			return value, err
		}
	}

	base, err := NewWithConfigSafe(instrumented, config)
	if err != nil {
		return nil, err
	}

	return &MetricsDebounce[A, R]{
		debounce: base,
		name:     name,
		registry: registry,
		enabled:  metricsConfig.Enabled,
	}, nil
}

// Invoke submits a call through the underlying debounce.
func (md *MetricsDebounce[A, R]) Invoke(arg A) *ratelimit.Result[R] {
	if md.enabled {
		md.registry.Invocations.WithLabelValues(engineLabel, md.name).Inc()
	}

	result := md.debounce.Invoke(arg)

	if md.enabled {
		pending := 0.0
		if md.debounce.IsPending() {
			pending = 1.0
		}
		md.registry.Pending.WithLabelValues(engineLabel, md.name).Set(pending)
	}
	return result
}

// Cancel cancels pending work on the underlying debounce.
func (md *MetricsDebounce[A, R]) Cancel() {
	md.debounce.Cancel()

	if md.enabled {
		md.registry.Cancellations.WithLabelValues(engineLabel, md.name).Inc()
		md.registry.Pending.WithLabelValues(engineLabel, md.name).Set(0)
	}
}

// Flush forces the pending execution on the underlying debounce.
func (md *MetricsDebounce[A, R]) Flush() (R, error) {
	value, err := md.debounce.Flush()

	if md.enabled {
		md.registry.Pending.WithLabelValues(engineLabel, md.name).Set(0)
	}
	return value, err
}

// IsPending reports whether a scheduled execution slot is outstanding.
func (md *MetricsDebounce[A, R]) IsPending() bool {
	return md.debounce.IsPending()
}

// LastResult returns the value of the most recent successful execution.
func (md *MetricsDebounce[A, R]) LastResult() R {
	return md.debounce.LastResult()
}

// EnableMetrics enables metrics collection.
func (md *MetricsDebounce[A, R]) EnableMetrics(config metrics.Config) error {
	md.enabled = config.Enabled

	if config.Registry != nil {
		md.registry = metrics.NewRegistry(config.Registry)
	}
	return nil
}

// DisableMetrics disables metrics collection.
func (md *MetricsDebounce[A, R]) DisableMetrics() {
	md.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (md *MetricsDebounce[A, R]) MetricsEnabled() bool {
	return md.enabled
}
