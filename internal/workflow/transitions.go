// Package workflow implements the status transition engine for consular
// requests: the declarative allowed-transition table, the per-target
// justification requirements, and the operation that applies a legal
// transition to a request aggregate.
//
// Both tables below are the single source of truth. Nothing else in the
// codebase encodes which transitions are legal or what text must accompany
// them; callers always go through the engine.
package workflow

import "github.com/adiouf/go-consular-backend/internal/domain"

// allowedTargets maps each status to the statuses it may move to.
// ARCHIVED and EXPIRED are terminal. RENEWAL_REQUESTED declares no
// transitions in the observed workflow; expiry/renewal is an out-of-band
// administrative process that does not go through the engine.
var allowedTargets = map[domain.Status][]domain.Status{
	domain.StatusNew: {
		domain.StatusInReviewDocs,
		domain.StatusPendingAdditionalInfo,
		domain.StatusRejected,
	},
	domain.StatusInReviewDocs: {
		domain.StatusApprovedByAgent,
		domain.StatusPendingAdditionalInfo,
		domain.StatusRejected,
	},
	domain.StatusPendingAdditionalInfo: {
		domain.StatusInReviewDocs,
		domain.StatusRejected,
	},
	domain.StatusApprovedByAgent: {
		domain.StatusApprovedByChef,
		domain.StatusRejected,
	},
	domain.StatusApprovedByChef: {
		domain.StatusApprovedByConsul,
		domain.StatusRejected,
	},
	domain.StatusApprovedByConsul: {
		domain.StatusReadyForPickup,
	},
	domain.StatusRejected: {
		domain.StatusNew,
		domain.StatusInReviewDocs,
	},
	domain.StatusReadyForPickup: {
		domain.StatusDelivered,
	},
	domain.StatusDelivered: {
		domain.StatusArchived,
	},
	domain.StatusArchived:         {},
	domain.StatusExpired:          {},
	domain.StatusRenewalRequested: {},
}

// CanTransition reports whether the table allows moving from one status to
// another. Identity moves are not in the table; the engine treats them as
// idempotent no-ops separately.
func CanTransition(from, to domain.Status) bool {
	for _, t := range allowedTargets[from] {
		if t == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns a copy of the legal target statuses from the given
// status. Terminal statuses yield an empty slice.
func AllowedTargets(from domain.Status) []domain.Status {
	src := allowedTargets[from]
	out := make([]domain.Status, len(src))
	copy(out, src)
	return out
}

// Justification declares which justification text a target status demands.
type Justification struct {
	Reason      bool
	Observation bool
}

// justificationByTarget is keyed by TARGET status, independently of where the
// transition comes from. It is queried before any transition is accepted.
var justificationByTarget = map[domain.Status]Justification{
	domain.StatusPendingAdditionalInfo: {Reason: true},
	domain.StatusApprovedByChef:        {Reason: true},
	domain.StatusApprovedByConsul:      {Reason: true},
	domain.StatusApprovedByAgent:       {Observation: true},
	domain.StatusRejected:              {Reason: true, Observation: true},
}

// RequiredJustification returns what text must accompany a transition into
// target. Statuses absent from the table require neither.
func RequiredJustification(target domain.Status) Justification {
	return justificationByTarget[target]
}
