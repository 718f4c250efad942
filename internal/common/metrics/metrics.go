package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Posting pipeline
var (
	PostingsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postings_ingested_total",
			Help: "Postings stored for the first time",
		},
	)

	PostingsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postings_skipped_total",
			Help: "Postings dropped before storage, by reason",
		},
		[]string{"reason"},
	)

	ClassificationTags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classification_tags_total",
			Help: "Practice-area tags assigned by the classifier",
		},
		[]string{"area"},
	)

	SubscribersMatched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subscribers_matched",
			Help:    "Subscribers matched per posting",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Chat deliveries by outcome",
		},
		[]string{"status"},
	)
)

// Skip reasons
const (
	SkipNoDescription = "no_description"
	SkipNoTags        = "no_tags"
	SkipDuplicate     = "duplicate"
	SkipFetchFailed   = "fetch_failed"
)
