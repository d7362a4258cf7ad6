package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/adiouf/go-consular-backend/internal/domain"
)

func newRequest(status domain.Status) *domain.Request {
	return &domain.Request{
		ID:           "11111111-2222-4333-8444-555566667777",
		TicketNumber: "CONS-20260830-AB12CD",
		ServiceType:  domain.ServiceVisa,
		Status:       status,
		Version:      1,
	}
}

func TestCanTransition_Table(t *testing.T) {
	cases := []struct {
		from, to domain.Status
		want     bool
	}{
		// full happy path
		{domain.StatusNew, domain.StatusInReviewDocs, true},
		{domain.StatusInReviewDocs, domain.StatusApprovedByAgent, true},
		{domain.StatusApprovedByAgent, domain.StatusApprovedByChef, true},
		{domain.StatusApprovedByChef, domain.StatusApprovedByConsul, true},
		{domain.StatusApprovedByConsul, domain.StatusReadyForPickup, true},
		{domain.StatusReadyForPickup, domain.StatusDelivered, true},
		{domain.StatusDelivered, domain.StatusArchived, true},

		// document loop
		{domain.StatusNew, domain.StatusPendingAdditionalInfo, true},
		{domain.StatusInReviewDocs, domain.StatusPendingAdditionalInfo, true},
		{domain.StatusPendingAdditionalInfo, domain.StatusInReviewDocs, true},
		{domain.StatusPendingAdditionalInfo, domain.StatusRejected, true},

		// rejection and reopening
		{domain.StatusNew, domain.StatusRejected, true},
		{domain.StatusApprovedByAgent, domain.StatusRejected, true},
		{domain.StatusApprovedByChef, domain.StatusRejected, true},
		{domain.StatusRejected, domain.StatusNew, true},
		{domain.StatusRejected, domain.StatusInReviewDocs, true},

		// illegal moves
		{domain.StatusNew, domain.StatusApprovedByAgent, false},
		{domain.StatusNew, domain.StatusDelivered, false},
		{domain.StatusApprovedByConsul, domain.StatusRejected, false},
		{domain.StatusReadyForPickup, domain.StatusRejected, false},
		{domain.StatusDelivered, domain.StatusNew, false},
		{domain.StatusInReviewDocs, domain.StatusApprovedByChef, false},
		{domain.StatusApprovedByAgent, domain.StatusApprovedByConsul, false},

		// terminal statuses go nowhere
		{domain.StatusArchived, domain.StatusNew, false},
		{domain.StatusExpired, domain.StatusNew, false},
		{domain.StatusRenewalRequested, domain.StatusNew, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAllowedTargets_TerminalAndCopySemantics(t *testing.T) {
	for _, st := range []domain.Status{domain.StatusArchived, domain.StatusExpired, domain.StatusRenewalRequested} {
		if got := AllowedTargets(st); len(got) != 0 {
			t.Errorf("AllowedTargets(%s) = %v, want empty", st, got)
		}
	}

	got := AllowedTargets(domain.StatusNew)
	if len(got) != 3 {
		t.Fatalf("AllowedTargets(NEW) = %v", got)
	}
	// Mutating the returned slice must not corrupt the table.
	got[0] = domain.StatusDelivered
	if CanTransition(domain.StatusNew, domain.StatusDelivered) {
		t.Fatalf("table mutated through AllowedTargets result")
	}
}

func TestRequiredJustification(t *testing.T) {
	cases := []struct {
		target domain.Status
		want   Justification
	}{
		{domain.StatusPendingAdditionalInfo, Justification{Reason: true}},
		{domain.StatusApprovedByChef, Justification{Reason: true}},
		{domain.StatusApprovedByConsul, Justification{Reason: true}},
		{domain.StatusApprovedByAgent, Justification{Observation: true}},
		{domain.StatusRejected, Justification{Reason: true, Observation: true}},
		{domain.StatusInReviewDocs, Justification{}},
		{domain.StatusReadyForPickup, Justification{}},
		{domain.StatusDelivered, Justification{}},
		{domain.StatusArchived, Justification{}},
	}
	for _, tc := range cases {
		if got := RequiredJustification(tc.target); got != tc.want {
			t.Errorf("RequiredJustification(%s) = %+v, want %+v", tc.target, got, tc.want)
		}
	}
}

func TestApply_NoOpIsIdempotent(t *testing.T) {
	req := newRequest(domain.StatusInReviewDocs)
	before := *req

	entry, err := Apply(req, domain.StatusInReviewDocs, Payload{}, "agent-1", time.Now())
	if err != nil {
		t.Fatalf("no-op transition errored: %v", err)
	}
	if entry != nil {
		t.Fatalf("no-op transition produced a history entry: %+v", entry)
	}
	if *req != before {
		t.Fatalf("no-op transition mutated the request")
	}
}

func TestApply_InvalidTransition(t *testing.T) {
	req := newRequest(domain.StatusNew)
	_, err := Apply(req, domain.StatusDelivered, Payload{}, "agent-1", time.Now())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if req.Status != domain.StatusNew {
		t.Fatalf("failed transition mutated status to %s", req.Status)
	}
}

func TestApply_JustificationEnforcement(t *testing.T) {
	t.Run("reason required", func(t *testing.T) {
		req := newRequest(domain.StatusInReviewDocs)
		_, err := Apply(req, domain.StatusPendingAdditionalInfo, Payload{Reason: "   "}, "agent-1", time.Now())
		if !errors.Is(err, ErrMissingReason) {
			t.Fatalf("expected ErrMissingReason, got %v", err)
		}
	})

	t.Run("observation required", func(t *testing.T) {
		req := newRequest(domain.StatusInReviewDocs)
		_, err := Apply(req, domain.StatusApprovedByAgent, Payload{}, "agent-1", time.Now())
		if !errors.Is(err, ErrMissingObservation) {
			t.Fatalf("expected ErrMissingObservation, got %v", err)
		}
	})

	t.Run("rejection needs both", func(t *testing.T) {
		req := newRequest(domain.StatusNew)
		if _, err := Apply(req, domain.StatusRejected, Payload{Observation: "seen"}, "agent-1", time.Now()); !errors.Is(err, ErrMissingReason) {
			t.Fatalf("expected ErrMissingReason, got %v", err)
		}
		if _, err := Apply(req, domain.StatusRejected, Payload{Reason: "incomplete"}, "agent-1", time.Now()); !errors.Is(err, ErrMissingObservation) {
			t.Fatalf("expected ErrMissingObservation, got %v", err)
		}
		entry, err := Apply(req, domain.StatusRejected, Payload{Reason: "incomplete", Observation: "seen"}, "agent-1", time.Now())
		if err != nil || entry == nil {
			t.Fatalf("expected success with both texts, got entry=%v err=%v", entry, err)
		}
	})
}

func TestApply_SuccessMutatesRequestAndBuildsEntry(t *testing.T) {
	req := newRequest(domain.StatusNew)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	entry, err := Apply(req, domain.StatusInReviewDocs, Payload{}, "agent-7", now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if req.Status != domain.StatusInReviewDocs || !req.UpdatedAt.Equal(now) {
		t.Fatalf("request not mutated: %+v", req)
	}
	if entry.RequestID != req.ID || entry.NewStatus != domain.StatusInReviewDocs ||
		entry.OldStatus == nil || *entry.OldStatus != domain.StatusNew ||
		entry.ChangerID != "agent-7" || !entry.ChangedAt.Equal(now) {
		t.Fatalf("bad history entry: %+v", entry)
	}
}

func TestApply_TrimsJustificationText(t *testing.T) {
	req := newRequest(domain.StatusInReviewDocs)
	entry, err := Apply(req, domain.StatusApprovedByAgent, Payload{Observation: "  documents verified  "}, "agent-1", time.Now())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if entry.Observation != "documents verified" {
		t.Fatalf("observation not trimmed: %q", entry.Observation)
	}
}

func TestApply_CompletionAndIssuedDates(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("issued date set once at consul approval", func(t *testing.T) {
		req := newRequest(domain.StatusApprovedByChef)
		if _, err := Apply(req, domain.StatusApprovedByConsul, Payload{Reason: "dossier complet"}, "consul-1", now); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if req.IssuedDate == nil || !req.IssuedDate.Equal(now) {
			t.Fatalf("IssuedDate not set: %v", req.IssuedDate)
		}

		// A later re-approval after rework must not move the original date.
		later := now.Add(48 * time.Hour)
		req.Status = domain.StatusApprovedByChef
		if _, err := Apply(req, domain.StatusApprovedByConsul, Payload{Reason: "re-validated"}, "consul-1", later); err != nil {
			t.Fatalf("Apply again: %v", err)
		}
		if !req.IssuedDate.Equal(now) {
			t.Fatalf("IssuedDate moved on re-approval: %v", req.IssuedDate)
		}
	})

	t.Run("completion date set at delivery", func(t *testing.T) {
		req := newRequest(domain.StatusReadyForPickup)
		if _, err := Apply(req, domain.StatusDelivered, Payload{}, "agent-2", now); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if req.CompletionDate == nil || !req.CompletionDate.Equal(now) {
			t.Fatalf("CompletionDate not set: %v", req.CompletionDate)
		}
	})
}
