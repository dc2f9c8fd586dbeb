package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolConns, dbLockWaitMs) }

var (
	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "Current state of the pgx connection pool.",
		},
		[]string{"state"}, // 'total', 'idle', 'in_use'
	)

	dbLockWaitMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_profile_lock_wait_ms",
			Help:    "Time spent acquiring the usage profile row lock, in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)

func SetDBPoolStats(total, idle, inUse int32) {
	dbPoolConns.WithLabelValues("total").Set(float64(total))
	dbPoolConns.WithLabelValues("idle").Set(float64(idle))
	dbPoolConns.WithLabelValues("in_use").Set(float64(inUse))
}

func ObserveProfileLockWait(ms int64) {
	dbLockWaitMs.Observe(float64(ms))
}
