// Package services – notification wiring.
//
// The external notification collaborator (SMS/email push to the requester) is
// out of scope for this core; transitions emit a workflow.Event to whatever
// Notifier is injected. The default implementation records the event in the
// structured log so operators can trace every status change even without a
// downstream notification service attached.
package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/adiouf/go-consular-backend/internal/workflow"
)

// LogNotifier is a workflow.Notifier that writes transition events to a
// zerolog logger. It never blocks the transition path.
type LogNotifier struct {
	Log zerolog.Logger
}

// NewLogNotifier returns a LogNotifier bound to the global logger.
func NewLogNotifier() LogNotifier {
	return LogNotifier{Log: log.Logger}
}

// NotifyStatusChanged logs the completed transition with its justification.
func (n LogNotifier) NotifyStatusChanged(_ context.Context, ev workflow.Event) {
	n.Log.Info().
		Str("request_id", ev.RequestID).
		Str("ticket_number", ev.TicketNumber).
		Str("old_status", string(ev.OldStatus)).
		Str("new_status", string(ev.NewStatus)).
		Str("reason", ev.Reason).
		Str("observation", ev.Observation).
		Msg("request status changed")
}
