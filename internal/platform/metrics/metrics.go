package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AllocationsCreated prometheus.Counter
	StatusTransitions  *prometheus.CounterVec
	WitnessFailures    prometheus.Counter
	MatchesScored      prometheus.Counter
	NotificationsSent  prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AllocationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifebridge_allocations_created_total",
			Help: "Total number of allocations created",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifebridge_allocation_transitions_total",
			Help: "Allocation status transitions by target status",
		}, []string{"status"}),
		WitnessFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifebridge_witness_failures_total",
			Help: "Allocation writes that could not be externally witnessed",
		}),
		MatchesScored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifebridge_matches_scored_total",
			Help: "Candidate organs scored during discovery",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifebridge_notifications_sent_total",
			Help: "Notifications dispatched to users",
		}),
	}
}
