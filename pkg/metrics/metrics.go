package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors holds the Prometheus metrics for an in-process queue.
// Using promauto for automatic registration with the default registry.
var (
	// QueuePending tracks jobs waiting in a worker's FIFO.
	QueuePending = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "skeenode",
			Subsystem: "queue",
			Name:      "pending",
			Help:      "Number of jobs waiting in a worker's FIFO",
		},
		[]string{"worker"},
	)

	// QueueRunning tracks jobs currently executing per worker.
	QueueRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "skeenode",
			Subsystem: "queue",
			Name:      "running",
			Help:      "Number of jobs currently executing for a worker",
		},
		[]string{"worker"},
	)

	// QueueDelayed tracks jobs waiting for their run_at to elapse.
	QueueDelayed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "skeenode",
			Subsystem: "queue",
			Name:      "delayed",
			Help:      "Number of jobs waiting for their delay to elapse",
		},
		[]string{"worker"},
	)

	// ExecutionDuration tracks job execution duration.
	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skeenode",
			Subsystem: "executions",
			Name:      "duration_seconds",
			Help:      "Duration of job executions in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15),
		},
		[]string{"worker", "outcome"},
	)

	// RetriesTotal counts job retries, by worker.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skeenode",
			Subsystem: "executions",
			Name:      "retries_total",
			Help:      "Total number of job retry attempts",
		},
		[]string{"worker"},
	)

	// DroppedTotal counts duplicate-suppressed submissions.
	DroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skeenode",
			Subsystem: "queue",
			Name:      "dropped_total",
			Help:      "Total number of jobs dropped as duplicates",
		},
		[]string{"worker"},
	)

	// FinishedTotal counts jobs that completed successfully.
	FinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skeenode",
			Subsystem: "executions",
			Name:      "finished_total",
			Help:      "Total number of jobs that finished successfully",
		},
		[]string{"worker"},
	)

	// FailedTotal counts jobs that exhausted their retries.
	FailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skeenode",
			Subsystem: "executions",
			Name:      "failed_total",
			Help:      "Total number of jobs that failed after exhausting retries",
		},
		[]string{"worker"},
	)
)

// RecordExecution records metrics for a single attempt of a job.
func RecordExecution(worker, outcome string, durationSeconds float64) {
	ExecutionDuration.WithLabelValues(worker, outcome).Observe(durationSeconds)
}
