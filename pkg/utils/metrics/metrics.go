package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Notification outcomes
const (
	OutcomeSent       = "sent"
	OutcomeSuppressed = "suppressed"
	OutcomeFailed     = "failed"
	OutcomeUnrouted   = "unrouted"
	OutcomeIgnored    = "ignored"
)

var notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gitlab_telegram",
	Name:      "notifications_total",
	Help:      "Processed webhook events by object kind and outcome",
}, []string{"kind", "outcome"})

// CountNotification records the outcome of a dispatched event
func CountNotification(kind, outcome string) {
	notifications.WithLabelValues(kind, outcome).Inc()
}
