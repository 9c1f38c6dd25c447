// Package metrics registers Prometheus instrumentation for the data pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the chart data core.
type Metrics struct {
	CacheHits   *prometheus.CounterVec // labels: class
	CacheMisses *prometheus.CounterVec // labels: class

	LimiterWaits       prometheus.Counter
	LimiterWaitSeconds prometheus.Histogram

	UpstreamCalls   *prometheus.CounterVec // labels: function, outcome
	UpstreamLatency prometheus.Histogram
	UpstreamRetries prometheus.Counter
}

// New creates and registers the metric set on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kandle_cache_hits_total",
			Help: "Response cache hits by data class.",
		}, []string{"class"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kandle_cache_misses_total",
			Help: "Response cache misses by data class.",
		}, []string{"class"}),
		LimiterWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kandle_ratelimit_waits_total",
			Help: "Times a caller had to wait for the rate-limit window.",
		}),
		LimiterWaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kandle_ratelimit_wait_seconds",
			Help:    "Time spent waiting for rate-limit admission.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		UpstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kandle_upstream_calls_total",
			Help: "Upstream API calls by function and outcome.",
		}, []string{"function", "outcome"}),
		UpstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kandle_upstream_latency_seconds",
			Help:    "Upstream API call latency.",
			Buckets: prometheus.DefBuckets,
		}),
		UpstreamRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kandle_upstream_retries_total",
			Help: "Retry attempts against the upstream API.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.CacheHits, m.CacheMisses,
			m.LimiterWaits, m.LimiterWaitSeconds,
			m.UpstreamCalls, m.UpstreamLatency, m.UpstreamRetries,
		)
	}
	return m
}

// NewNop returns an unregistered metric set for tests.
func NewNop() *Metrics {
	return New(nil)
}
