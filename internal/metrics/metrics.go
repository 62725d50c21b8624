// Package metrics exposes Prometheus collectors for the harvest scheduler.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksTotal            *prometheus.CounterVec
	taskDurationSeconds   *prometheus.HistogramVec
	taskRetriesTotal      prometheus.Counter
	activeWorkers         prometheus.Gauge
	queueDepth            prometheus.Gauge
	rateLimitDelaySeconds prometheus.Histogram

	once sync.Once
)

// Init registers the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		tasksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_tasks_total",
				Help: "Total number of processed tasks, labeled by source type and status.",
			},
			[]string{"source", "status"},
		)

		taskDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvest_task_duration_seconds",
				Help:    "Wall-clock task processing time including retries and rate-limit waits.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)

		taskRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvest_task_retries_total",
				Help: "Total number of retried scrape attempts.",
			},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvest_active_workers",
				Help: "Number of workers currently processing a task.",
			},
		)

		queueDepth = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvest_queue_depth",
				Help: "Number of tasks waiting in the priority queue.",
			},
		)

		rateLimitDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvest_rate_limit_delay_seconds",
				Help:    "Time workers spent waiting on the shared rate limiter.",
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		)
	})
}

// ObserveTask records the outcome and duration of one finished task.
func ObserveTask(source string, success bool, duration time.Duration) {
	if tasksTotal == nil {
		return
	}
	status := "failed"
	if success {
		status = "succeeded"
	}
	tasksTotal.WithLabelValues(source, status).Inc()
	taskDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// IncRetry counts one retried attempt.
func IncRetry() {
	if taskRetriesTotal == nil {
		return
	}
	taskRetriesTotal.Inc()
}

// WorkerBusy adjusts the active worker gauge by delta.
func WorkerBusy(delta float64) {
	if activeWorkers == nil {
		return
	}
	activeWorkers.Add(delta)
}

// SetQueueDepth records the current queue depth.
func SetQueueDepth(depth int) {
	if queueDepth == nil {
		return
	}
	queueDepth.Set(float64(depth))
}

// ObserveRateLimitDelay records time spent waiting for a rate-limit token.
func ObserveRateLimitDelay(d time.Duration) {
	if rateLimitDelaySeconds == nil {
		return
	}
	rateLimitDelaySeconds.Observe(d.Seconds())
}
