package reminders

import "github.com/prometheus/client_golang/prometheus"

var (
	scanRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medtrack_scan_runs_total",
			Help: "Reminder scans by outcome",
		},
		[]string{"outcome"},
	)
	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medtrack_scan_duration_seconds",
			Help:    "Time spent on a full reminder scan",
			Buckets: prometheus.DefBuckets,
		},
	)
	userFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medtrack_scan_user_failures_total",
			Help: "Users whose evaluation failed during a scan",
		},
	)
	dueSoonFound = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medtrack_scan_due_soon_total",
			Help: "Occurrences reported as due soon",
		},
	)
)

func init() {
	prometheus.MustRegister(scanRuns, scanDuration, userFailures, dueSoonFound)
}
