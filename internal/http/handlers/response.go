// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints: the structured error envelope, consistent JSON serialization,
// and helpers for common HTTP patterns. Every endpoint returns the same
// envelope shape for failures so clients can branch on `code` without
// parsing messages.
//
// Example error response:
//
//	HTTP/1.1 422 Unprocessable Entity
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "missing_reason",
//	  "message": "a reason is required for this transition"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adiouf/go-consular-backend/internal/http/middleware"
	"github.com/adiouf/go-consular-backend/internal/validation"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: correlation ID echoed from X-Request-ID, used to match
//     server logs with client-side errors.
//   - Code: a stable, machine-readable string (see errors.go constants).
//   - Message: a human-readable description, safe for display.
//   - Errors: the collected field errors, present only for
//     validation_failed responses so the caller can re-render the form in
//     one pass.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"request not found"`
	// Field-level errors for validation_failed responses
	Errors []validation.FieldError `json:"errors,omitempty"`
}

// fail aborts the request with a structured error and logs server-side
// errors. Server errors (>=500) are logged using the request-scoped logger
// from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, code, msg, nil)
}

// failWith is fail carrying the collected field errors of a rejected
// submission.
func failWith(c *gin.Context, status int, code, msg string, fieldErrs []validation.FieldError) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
		Errors:    fieldErrs,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(). External packages (router setup)
// should call Fail to return consistent error envelopes without depending on
// unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response with the given status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
