package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache strategy manager Prometheus metrics.
var (
	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gitchatai",
			Name:      "cache_requests_total",
			Help:      "Cache lookups by strategy, access pattern and result",
		},
		[]string{"strategy", "pattern", "result"}, // result: "hit" / "miss" / "bypass"
	)

	CacheOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gitchatai",
			Name:      "cache_operation_duration_seconds",
			Help:      "Cache backend operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"}, // "read" / "write" / "delete" / "bulk_read" / "bulk_write"
	)

	CacheWriteBehindFlushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gitchatai",
			Name:      "cache_write_behind_flush_total",
			Help:      "Deferred write-behind flushes by outcome",
		},
		[]string{"status"}, // "ok" / "error"
	)

	CacheRefreshAheadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gitchatai",
			Name:      "cache_refresh_ahead_total",
			Help:      "Background refresh-ahead refetches by outcome",
		},
		[]string{"status"}, // "ok" / "error"
	)
)

var cacheMetricsRegistered bool

// RegisterCacheMetrics registers Prometheus cache metrics. Must be called once from main.
func RegisterCacheMetrics() {
	if cacheMetricsRegistered {
		return
	}
	prometheus.MustRegister(CacheRequestsTotal)
	prometheus.MustRegister(CacheOperationDuration)
	prometheus.MustRegister(CacheWriteBehindFlushTotal)
	prometheus.MustRegister(CacheRefreshAheadTotal)
	cacheMetricsRegistered = true
}
