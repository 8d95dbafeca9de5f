// Package metrics exposes batch-level Prometheus counters. They complement
// the status snapshot: the snapshot is the per-experiment source of truth,
// the counters aggregate across the process lifetime for scraping.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "audit_sessions_active",
		Help: "Audit sessions currently driving a browser",
	})

	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_tasks_completed_total",
		Help: "Tasks that produced a persisted report",
	})

	TasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_tasks_failed_total",
		Help: "Tasks abandoned after exhausting retries",
	})

	TaskRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_task_retries_total",
		Help: "Session restarts after a failed run",
	})

	RestrictedVideos = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_restricted_videos_total",
		Help: "Playback restriction notices encountered",
	})

	EmptyCollections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_empty_collections_total",
		Help: "Recommendation extractions that came back empty",
	})

	HopsCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_hops_collected_total",
		Help: "Autoplay hops recorded across all sessions",
	})

	TaskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "audit_task_duration_seconds",
		Help:    "Wall time per completed task run",
		Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
	})
)
