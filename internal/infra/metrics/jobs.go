package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(maintenanceRunsTotal) }

var maintenanceRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "maintenance_runs_total",
		Help: "Maintenance command runs, labeled by job and status.",
	},
	[]string{"job", "status"}, // status: 'ok', 'failed'
)

func IncMaintenanceRun(job, status string) {
	maintenanceRunsTotal.WithLabelValues(norm(job), norm(status)).Inc()
}
