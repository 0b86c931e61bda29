// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pollwarden_polls_closed_total",
		Help: "Polls closed, by close reason.",
	}, []string{"reason"})

	remindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pollwarden_reminders_sent_total",
		Help: "Pre-deadline reminders delivered.",
	})

	refreshRenders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pollwarden_refresh_renders_total",
		Help: "Live poll display refreshes.",
	})

	taskFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pollwarden_task_failures_total",
		Help: "Background poll tasks that panicked or returned an error, by task.",
	}, []string{"task"})
)
