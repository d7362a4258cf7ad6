package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/adiouf/go-consular-backend/internal/domain"
)

// Engine-level sentinel errors. Handlers map these to stable HTTP results;
// none of them is ever retried inside the core.
var (
	// ErrInvalidTransition is returned when the target status is neither the
	// current status nor in the allowed-target set.
	ErrInvalidTransition = errors.New("transition not allowed from current status")

	// ErrMissingReason is returned when the target status mandates a reason
	// and the payload omits it.
	ErrMissingReason = errors.New("a reason is required for this transition")

	// ErrMissingObservation is returned when the target status mandates an
	// observation and the payload omits it.
	ErrMissingObservation = errors.New("an observation is required for this transition")
)

// Payload carries the optional justification text accompanying a transition.
type Payload struct {
	Reason      string
	Observation string
}

// Event describes a completed status change, published to the external
// notification collaborator after the change is persisted.
type Event struct {
	RequestID    string
	TicketNumber string
	OldStatus    domain.Status
	NewStatus    domain.Status
	Reason       string
	Observation  string
}

// Notifier consumes transition events. Implementations must not block the
// transition path on slow delivery.
type Notifier interface {
	NotifyStatusChanged(ctx context.Context, ev Event)
}

// Apply validates and applies a status transition on the request aggregate
// in memory. On success it mutates req (status, UpdatedAt, CompletionDate on
// DELIVERED, IssuedDate on the first APPROVED_BY_CONSUL) and returns the
// history entry to append. Persistence, version bumping, and conflict
// detection belong to the repository layer.
//
// A no-op transition (target equal to current status, empty payload) is
// accepted as idempotent: Apply returns a nil entry and leaves req untouched.
func Apply(req *domain.Request, target domain.Status, p Payload, actorID string, now time.Time) (*domain.StatusHistoryEntry, error) {
	if target == req.Status {
		return nil, nil
	}
	if !CanTransition(req.Status, target) {
		return nil, ErrInvalidTransition
	}

	need := RequiredJustification(target)
	reason := strings.TrimSpace(p.Reason)
	observation := strings.TrimSpace(p.Observation)
	if need.Reason && reason == "" {
		return nil, ErrMissingReason
	}
	if need.Observation && observation == "" {
		return nil, ErrMissingObservation
	}

	old := req.Status
	entry := &domain.StatusHistoryEntry{
		RequestID:   req.ID,
		OldStatus:   &old,
		NewStatus:   target,
		ChangerID:   actorID,
		ChangedAt:   now,
		Reason:      reason,
		Observation: observation,
	}

	req.Status = target
	req.UpdatedAt = now
	if target == domain.StatusDelivered && req.CompletionDate == nil {
		t := now
		req.CompletionDate = &t
	}
	if target == domain.StatusApprovedByConsul && req.IssuedDate == nil {
		t := now
		req.IssuedDate = &t
	}
	return entry, nil
}
