package throttle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/entropy-tamer/reynard-core/pkg/metrics"
	"github.com/entropy-tamer/reynard-core/pkg/ratelimit"
)

const engineLabel = "throttle"

// MetricsThrottle wraps a Throttle with Prometheus metrics collection.
type MetricsThrottle[A, R any] struct {
	throttle *Throttle[A, R]
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a throttled wrapper with metrics enabled.
func NewWithMetrics[A, R any](fn Func[A, R], wait time.Duration, name string) (*MetricsThrottle[A, R], error) {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := DefaultConfig()
	config.Wait = wait

	return NewWithConfigAndMetrics(fn, config, name, metrics.Config{
		Enabled:  true,
		Registry: registry,
	})
}

// NewWithConfigAndMetrics creates a throttled wrapper with custom config and metrics.
func NewWithConfigAndMetrics[A, R any](fn Func[A, R], config Config, name string, metricsConfig metrics.Config) (*MetricsThrottle[A, R], error) {
	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	instrumented := fn
	if metricsConfig.Enabled {
		instrumented = instrumentFunc(fn, registry, engineLabel, name)
	}

	base, err := NewWithConfigSafe(instrumented, config)
	if err != nil {
		return nil, err
	}

	return &MetricsThrottle[A, R]{
		throttle: base,
		name:     name,
		registry: registry,
		enabled:  metricsConfig.Enabled,
	}, nil
}

// instrumentFunc wraps fn so every execution is counted and timed.
func instrumentFunc[A, R any](fn Func[A, R], registry *metrics.Registry, engine, name string) Func[A, R] {
	return func(arg A) (R, error) {
		start := time.Now()
		value, err := fn(arg)
		registry.ExecutionDuration.WithLabelValues(engine, name).Observe(time.Since(start).Seconds())
		registry.Executions.WithLabelValues(engine, name).Inc()
		if err != nil {
			registry.Failures.WithLabelValues(engine, name).Inc()
		}
		return value, err
	}
}

// Invoke submits a call through the underlying throttle.
func (mt *MetricsThrottle[A, R]) Invoke(arg A) *ratelimit.Result[R] {
	if mt.enabled {
		mt.registry.Invocations.WithLabelValues(engineLabel, mt.name).Inc()
	}

	result := mt.throttle.Invoke(arg)

	if mt.enabled {
		mt.registry.Pending.WithLabelValues(engineLabel, mt.name).Set(pendingGauge(mt.throttle.IsPending()))
	}
	return result
}

// Cancel cancels pending work on the underlying throttle.
func (mt *MetricsThrottle[A, R]) Cancel() {
	mt.throttle.Cancel()

	if mt.enabled {
		mt.registry.Cancellations.WithLabelValues(engineLabel, mt.name).Inc()
		mt.registry.Pending.WithLabelValues(engineLabel, mt.name).Set(0)
	}
}

// Flush forces the pending execution on the underlying throttle.
func (mt *MetricsThrottle[A, R]) Flush() (R, error) {
	value, err := mt.throttle.Flush()

	if mt.enabled {
		mt.registry.Pending.WithLabelValues(engineLabel, mt.name).Set(0)
	}
	return value, err
}

// IsPending reports whether a scheduled execution slot is outstanding.
func (mt *MetricsThrottle[A, R]) IsPending() bool {
	return mt.throttle.IsPending()
}

// LastResult returns the value of the most recent successful execution.
func (mt *MetricsThrottle[A, R]) LastResult() R {
	return mt.throttle.LastResult()
}

// EnableMetrics enables metrics collection.
func (mt *MetricsThrottle[A, R]) EnableMetrics(config metrics.Config) error {
	mt.enabled = config.Enabled

	if config.Registry != nil {
		mt.registry = metrics.NewRegistry(config.Registry)
	}
	return nil
}

// DisableMetrics disables metrics collection.
func (mt *MetricsThrottle[A, R]) DisableMetrics() {
	mt.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mt *MetricsThrottle[A, R]) MetricsEnabled() bool {
	return mt.enabled
}

func pendingGauge(pending bool) float64 {
	if pending {
		return 1
	}
	return 0
}
