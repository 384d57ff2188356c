// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records counters for the authentication flow and the provider
// fan-out. A nil *Collector is a valid no-op receiver so components can be
// constructed without metrics in tests.
type Collector struct {
	authResults     *prometheus.CounterVec
	providerCalls   *prometheus.CounterVec
	providerLatency prometheus.Histogram
	classifyResults *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "textlens_auth_total",
			Help: "Authentication attempts by outcome.",
		}, []string{"outcome"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "textlens_provider_calls_total",
			Help: "Text provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		providerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "textlens_provider_latency_seconds",
			Help:    "Latency of text provider calls.",
			Buckets: prometheus.DefBuckets,
		}),
		classifyResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "textlens_classify_total",
			Help: "Image classification requests by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.authResults,
		c.providerCalls,
		c.providerLatency,
		c.classifyResults,
	)
	return c
}

// RecordAuth records one authentication attempt. Outcome is one of
// "ok", "upstream_error", "invalid_token".
func (c *Collector) RecordAuth(outcome string) {
	if c == nil {
		return
	}
	c.authResults.WithLabelValues(outcome).Inc()
}

// RecordProviderCall records one text provider call.
func (c *Collector) RecordProviderCall(provider string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.providerCalls.WithLabelValues(provider, outcome).Inc()
	c.providerLatency.Observe(duration.Seconds())
}

// RecordClassify records one image classification request.
func (c *Collector) RecordClassify(outcome string) {
	if c == nil {
		return
	}
	c.classifyResults.WithLabelValues(outcome).Inc()
}
