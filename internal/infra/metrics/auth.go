package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(authRequestsTotal) }

var authRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_requests_total",
		Help: "Bearer token checks on the API.",
	},
	[]string{"result"}, // 'authorized', 'missing', 'invalid'
)

func IncAuth(result string) {
	authRequestsTotal.WithLabelValues(norm(result)).Inc()
}
