// Package metrics registers the service's prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "insights"

var (
	AuthRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_requests_total",
			Help:      "Authentication gate outcomes, labeled by outcome and failure code.",
		},
		[]string{"outcome", "code"},
	)

	JWKSFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jwks_fetch_total",
			Help:      "JWKS warm/refresh attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"route", "status"},
	)

	LookupCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_cache_total",
			Help:      "Village/taluka directory cache hits and misses.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		AuthRequestsTotal,
		JWKSFetchTotal,
		HTTPRequestDurationSeconds,
		LookupCacheTotal,
	)
}
