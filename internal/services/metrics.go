// Package services – business metrics.
//
// HTTP-level metrics live in the middleware package; this file tracks the
// domain-level counters that dashboards and alerting actually care about:
// how many requests enter the pipeline and how statuses move.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// requestsCreated counts accepted demandes by service type.
	requestsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consular_requests_created_total",
			Help: "Total number of consular requests created, by service type.",
		},
		[]string{"service_type"},
	)

	// statusTransitions counts successful transitions by source and target.
	// Both labels are bounded by the 12-status enumeration.
	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consular_status_transitions_total",
			Help: "Total number of successful status transitions, by source and target status.",
		},
		[]string{"from", "to"},
	)

	// transitionConflicts counts optimistic-concurrency losses.
	transitionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consular_transition_conflicts_total",
			Help: "Total number of status transitions rejected by the optimistic version check.",
		},
	)
)

func init() {
	prometheus.MustRegister(requestsCreated, statusTransitions, transitionConflicts)
}
