package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameRemindersScheduled = "reminders_scheduled_total"
	NameRemindersSkipped   = "reminders_skipped_total"
	NameRemindersCancelled = "reminders_cancelled_total"
	NameRemindersReplaced  = "reminders_replaced_total"
	NameRemindersFired     = "reminders_fired_total"
	NameRemindersPending   = "reminders_pending"
	LabelResult            = "result"

	ResultDelivered = "delivered"
	ResultFailed    = "failed"
)

var RemindersScheduled = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameRemindersScheduled,
		Help:      "Reminders queued for delivery",
		Namespace: Namespace,
	},
)

var RemindersSkipped = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameRemindersSkipped,
		Help:      "Reminders dropped because their fire time had already passed",
		Namespace: Namespace,
	},
)

var RemindersCancelled = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameRemindersCancelled,
		Help:      "Queued reminders removed before firing",
		Namespace: Namespace,
	},
)

var RemindersReplaced = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameRemindersReplaced,
		Help:      "Queued reminders superseded by a new schedule for the same task",
		Namespace: Namespace,
	},
)

var RemindersFired = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameRemindersFired,
		Help:      "Reminders handed to the notification sink",
		Namespace: Namespace,
	},
	[]string{LabelResult},
)

var RemindersPending = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name:      NameRemindersPending,
		Help:      "Reminders currently queued",
		Namespace: Namespace,
	},
)
