// Package metrics provides Prometheus metrics for the rivalry service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager built by NewManager. Zero values are ignored,
// so an option fed from an unset config key keeps the default.
type Option func(*Manager)

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// WithNamespace replaces the "rivalry" namespace.
func WithNamespace(ns string) Option { return func(m *Manager) { setString(&m.namespace, ns) } }

// WithSubsystem replaces the "engine" subsystem.
func WithSubsystem(sub string) Option { return func(m *Manager) { setString(&m.subsystem, sub) } }

// WithMetricPrefix prepends prefix_ to every metric name.
func WithMetricPrefix(prefix string) Option {
	return func(m *Manager) { setString(&m.metricPrefix, prefix) }
}

// WithHistogramBuckets sets the buckets of the latency histograms, in milliseconds.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = append([]float64(nil), buckets...)
		}
	}
}

// WithMetricsEnabled false keeps every collector usable but registers them
// on a private registry that nothing serves.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) { m.enabled = enabled }
}

// WithRefreshInterval sets how often RunSystemCollector samples the runtime.
func WithRefreshInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.refreshInterval = d
		}
	}
}

// WithCustomLabels attaches constant labels, e.g. the deployment, to every metric.
func WithCustomLabels(labels map[string]string) Option {
	return func(m *Manager) {
		for k, v := range labels {
			m.customLabels[k] = v
		}
	}
}

// WithPrometheusRegistry registers collectors on r instead of the default registerer.
func WithPrometheusRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}
