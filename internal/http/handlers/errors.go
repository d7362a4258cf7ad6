// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). These codes provide
// clients with a stable, machine-readable error taxonomy that supplements
// human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case.
//   - Generic codes (bad_request, not_found, conflict, …) mirror common HTTP
//     status semantics to aid interoperability.
//   - Workflow codes (invalid_transition, missing_reason, missing_observation)
//     are business-rule rejections surfaced verbatim to the acting officer.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeValidationFailed   = "validation_failed"
	ErrCodeUnknownServiceType = "unknown_service_type"
	ErrCodeInvalidTransition  = "invalid_transition"
	ErrCodeMissingReason      = "missing_reason"
	ErrCodeMissingObservation = "missing_observation"
	ErrCodeCreateFailed       = "create_failed"
	ErrCodeListFailed         = "list_failed"
)
