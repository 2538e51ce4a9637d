// Package metrics exposes runtime counters through Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksSpawned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zeno_tasks_spawned_total",
			Help: "Total number of tasks spawned",
		},
	)

	TasksFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zeno_tasks_finished_total",
			Help: "Total number of tasks that reached a terminal state",
		},
		[]string{"outcome"}, // completed, failed
	)

	TasksRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "zeno_tasks_running",
			Help: "Number of tasks currently holding a thread",
		},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zeno_task_duration_seconds",
			Help:    "Task run time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	ChannelOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zeno_channel_ops_total",
			Help: "Channel operations that moved a value or changed state",
		},
		[]string{"op"}, // send, recv, close
	)
)
