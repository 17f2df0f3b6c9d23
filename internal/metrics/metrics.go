package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zest_upstream_requests_total",
			Help: "Recipe API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zest_upstream_request_duration_seconds",
			Help:    "Latency of recipe API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	StaleResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zest_stale_responses_dropped_total",
			Help: "Responses discarded because a newer request was issued",
		},
		[]string{"kind"},
	)

	LikeToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zest_like_toggles_total",
			Help: "Liked set toggles by action",
		},
		[]string{"action"},
	)

	StorageDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zest_liked_storage_degraded_total",
			Help: "Sessions whose liked set fell back to memory only",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "zest_active_sessions",
			Help: "Browser sessions currently held in memory",
		},
	)
)
