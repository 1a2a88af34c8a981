package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records admin authentication attempts by result
	// (success|failure|locked|rate_limited).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_auth_attempts_total",
			Help: "Total number of admin authentication attempts",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks admin sessions that are active and unexpired.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_active_admin_sessions",
			Help: "Number of active admin sessions",
		},
	)

	// CacheOperations counts application cache outcomes
	// (hit|miss|write|eviction).
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_operations_total",
			Help: "Total number of application cache operations by outcome",
		},
		[]string{"outcome"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
