// Package metrics exposes Prometheus instrumentation for the metadata core.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Response cache
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumo_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// Upstream provider
	UpstreamAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumo_upstream_attempts_total",
			Help: "Outbound HTTP attempts to the metadata provider by outcome",
		},
		[]string{"outcome"}, // "success", "retryable", "terminal"
	)

	UpstreamAttemptDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lumo_upstream_attempt_duration_seconds",
			Help:    "Duration of outbound HTTP attempts in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
	)

	UpstreamUnavailable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lumo_upstream_unavailable_total",
			Help: "Fetches that gave up and reported the provider as unavailable",
		},
	)

	BreakerOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lumo_upstream_breaker_open",
			Help: "1 while the provider circuit breaker is open",
		},
	)

	// JSON API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumo_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lumo_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

// RecordCacheLookup counts a response cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}

// RecordUpstreamAttempt records one outbound attempt.
func RecordUpstreamAttempt(outcome string, duration time.Duration) {
	UpstreamAttempts.WithLabelValues(outcome).Inc()
	UpstreamAttemptDuration.Observe(duration.Seconds())
}

// RecordUnavailable counts a fetch that exhausted its attempts.
func RecordUnavailable() {
	UpstreamUnavailable.Inc()
}

// SetBreakerOpen mirrors the circuit breaker state.
func SetBreakerOpen(open bool) {
	if open {
		BreakerOpen.Set(1)
		return
	}
	BreakerOpen.Set(0)
}

// RecordAPIRequest records an API request's status and latency.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
