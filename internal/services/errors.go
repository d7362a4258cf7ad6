// Package services defines the business logic for consular request
// management. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers with errors.Is.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Workflow-rule rejections (invalid transition, missing
// justification) live in the workflow package and pass through unchanged.
package services

import "errors"

var (
	// ErrRequestNotFound indicates that no request exists for the given id or
	// ticket number.
	ErrRequestNotFound = errors.New("request not found")

	// ErrConflict is returned when a concurrent transition won the optimistic
	// version check. The caller may reload the request and retry once against
	// the now-current state.
	ErrConflict = errors.New("request was modified concurrently")

	// ErrEmptyActor is returned when a status change is attempted without an
	// identified acting officer.
	ErrEmptyActor = errors.New("actor id is required")
)
