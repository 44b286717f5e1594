package batch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/entropy-tamer/reynard-core/pkg/metrics"
)

// MetricsBatcher wraps a Batcher with Prometheus metrics collection.
type MetricsBatcher[A any] struct {
	batcher  *Batcher[A]
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a batcher with metrics enabled.
func NewWithMetrics[A any](fn Func[A], wait time.Duration, name string) (*MetricsBatcher[A], error) {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()

	return NewWithConfigAndMetrics(fn, Config{Wait: wait}, name, metrics.Config{
		Enabled:  true,
		Registry: registry,
	})
}

// NewWithConfigAndMetrics creates a batcher with custom config and metrics.
func NewWithConfigAndMetrics[A any](fn Func[A], config Config, name string, metricsConfig metrics.Config) (*MetricsBatcher[A], error) {
	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	instrumented := fn
	if metricsConfig.Enabled {
		inner := fn
		instrumented = func(items []A) error {
			err := inner(items)
			registry.BatchFlushes.WithLabelValues(name).Inc()
			registry.BatchSize.WithLabelValues(name).Observe(float64(len(items)))
			if err != nil {
				registry.BatchErrors.WithLabelValues(name).Inc()
			}
			return err
		}
	}

	base, err := NewWithConfigSafe(instrumented, config)
	if err != nil {
		return nil, err
	}

	return &MetricsBatcher[A]{
		batcher:  base,
		name:     name,
		registry: registry,
		enabled:  metricsConfig.Enabled,
	}, nil
}

// Add appends an item through the underlying batcher.
func (mb *MetricsBatcher[A]) Add(item A) error {
	if mb.enabled {
		mb.registry.BatchItems.WithLabelValues(mb.name).Inc()
	}
	return mb.batcher.Add(item)
}

// Flush hands the buffered items to the batch function immediately.
func (mb *MetricsBatcher[A]) Flush() error {
	return mb.batcher.Flush()
}

// Close flushes the remaining items and rejects further Adds.
func (mb *MetricsBatcher[A]) Close() error {
	return mb.batcher.Close()
}

// Len returns the current number of buffered items.
func (mb *MetricsBatcher[A]) Len() int {
	return mb.batcher.Len()
}

// Stats returns a snapshot of the underlying batcher's counters.
func (mb *MetricsBatcher[A]) Stats() Stats {
	return mb.batcher.Stats()
}

// EnableMetrics enables metrics collection.
func (mb *MetricsBatcher[A]) EnableMetrics(config metrics.Config) error {
	mb.enabled = config.Enabled

	if config.Registry != nil {
		mb.registry = metrics.NewRegistry(config.Registry)
	}
	return nil
}

// DisableMetrics disables metrics collection.
func (mb *MetricsBatcher[A]) DisableMetrics() {
	mb.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mb *MetricsBatcher[A]) MetricsEnabled() bool {
	return mb.enabled
}
