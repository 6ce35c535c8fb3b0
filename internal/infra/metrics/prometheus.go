package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keyinsights_jobs_processed_total",
		Help: "Total number of jobs reaching a terminal status, by status",
	}, []string{"status"})

	JobStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "keyinsights_job_stage_duration_seconds",
		Help:    "Duration of job pipeline stages",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "keyinsights_active_jobs",
		Help: "Number of jobs currently being processed",
	})

	RateLimitRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keyinsights_rate_limit_rejected_total",
		Help: "Total number of job-creation requests rejected by admission control",
	})

	ActiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "keyinsights_active_subscribers",
		Help: "Number of live status subscribers across all requests",
	})
)
