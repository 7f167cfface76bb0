// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrator_requests_total",
		Help: "Chat requests by query type",
	}, []string{"query_type"})

	ProviderAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrator_provider_attempts_total",
		Help: "Provider attempts by provider and outcome",
	}, []string{"provider", "outcome"})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrator_cache_hits_total",
		Help: "Requests served from the response cache",
	})

	FallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrator_fallbacks_total",
		Help: "Requests that fell past their first selected provider",
	})

	DegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrator_degraded_total",
		Help: "Requests answered with a graceful degradation message",
	})

	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orchestrator_request_duration_seconds",
		Help:    "End-to-end chat request latency",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
