// Request HTTP handlers.
//
// This file exposes REST endpoints for consular request resources:
//   - POST /requests              (create, idempotency-key aware)
//   - GET  /requests              (list, filtered + paginated, ETag support)
//   - GET  /requests/{id}         (fetch by UUID or ticket number)
//   - POST /requests/{id}/status  (drive the workflow engine)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses (including conditional
// responses and idempotent replays).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiouf/go-consular-backend/internal/domain"
	"github.com/adiouf/go-consular-backend/internal/http/middleware"
	"github.com/adiouf/go-consular-backend/internal/repo"
	"github.com/adiouf/go-consular-backend/internal/services"
	"github.com/adiouf/go-consular-backend/internal/utils"
	"github.com/adiouf/go-consular-backend/internal/validation"
	"github.com/adiouf/go-consular-backend/internal/variants"
	"github.com/adiouf/go-consular-backend/internal/workflow"
)

//
// Service contract (context-aware)
//

// RequestService defines the request lifecycle operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context for cancellation and timeouts.
type RequestService interface {
	// Create validates a submission and persists a new request with status NEW.
	Create(ctx context.Context, serviceType string, fields map[string]any, contactPhone string) (*domain.Request, []validation.FieldError, error)
	// UpdateStatus applies one workflow transition on behalf of an officer.
	UpdateStatus(ctx context.Context, id string, target domain.Status, reason, observation, actorID string) (*domain.Request, error)
	// Get fetches a request by UUID or ticket number.
	Get(ctx context.Context, idOrTicket string) (*domain.Request, error)
	// ListPage returns a filtered page of requests and the total count.
	ListPage(ctx context.Context, f services.ListFilter, page, pageSize int) ([]domain.Request, int64, error)
	// History returns the ordered status history of a request.
	History(ctx context.Context, requestID string) ([]domain.StatusHistoryEntry, error)
	// AllowedTransitions returns the legal moves out of the current status.
	AllowedTransitions(ctx context.Context, requestID string) ([]services.TransitionOption, error)
	// Stats reports counts grouped by status and service type.
	Stats(ctx context.Context) (map[domain.Status]int64, map[domain.ServiceType]int64, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for requests, history, and statistics.
// It depends on the abstract service interface to keep transport concerns
// separate from business logic.
type Handlers struct {
	reqSvc  RequestService
	idemTTL time.Duration
}

// New constructs a Handlers instance bound to the given service. idemTTL
// controls how long a recorded Idempotency-Key replays the original result.
func New(reqSvc RequestService, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{reqSvc: reqSvc, idemTTL: idemTTL}
}

// actorID extracts the acting officer's identity from the Gin context (set
// by upstream auth middleware). It falls back to the "X-Actor-ID" header.
// Authentication itself is outside this core; the transport trusts the
// gateway in front of it.
func actorID(c *gin.Context) string {
	if v, ok := c.Get("actorID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-Actor-ID")); h != "" {
			return h
		}
	}
	return ""
}

//
// DTOs
//

// CreateRequestPayload is the JSON body for submitting a new demande.
type CreateRequestPayload struct {
	// ServiceType selects the consular service (one of the 8 variants).
	ServiceType string `json:"service_type" binding:"required" example:"VISA"`
	// Fields carries the variant-specific form values keyed by schema field name.
	Fields map[string]any `json:"fields" binding:"required"`
	// ContactPhoneNumber optionally lets the consulate reach the requester.
	ContactPhoneNumber string `json:"contact_phone_number,omitempty" example:"+221771234567"`
}

// UpdateStatusPayload is the JSON body for a workflow transition.
type UpdateStatusPayload struct {
	// Status is the target status of the transition.
	Status string `json:"status" binding:"required" example:"IN_REVIEW_DOCS"`
	// Reason is mandatory for targets the justification table marks so.
	Reason string `json:"reason,omitempty" example:"missing proof of accommodation"`
	// Observation is internal audit context, mandatory for some targets.
	Observation string `json:"observation,omitempty" example:"documents verified against originals"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRequestsResponse wraps a page of requests and pagination information.
type ListRequestsResponse struct {
	Requests   []domain.Request `json:"requests"`
	Pagination Pagination       `json:"pagination"`
}

// HistoryResponse wraps the ordered status history of a request.
type HistoryResponse struct {
	RequestID string                      `json:"request_id"`
	History   []domain.StatusHistoryEntry `json:"history"`
}

// AllowedTransitionsResponse lists the legal moves out of the current status.
type AllowedTransitionsResponse struct {
	RequestID string                      `json:"request_id"`
	Status    domain.Status               `json:"status"`
	Allowed   []services.TransitionOption `json:"allowed"`
}

// StatsResponse reports request counts for dashboards.
type StatsResponse struct {
	ByStatus      map[domain.Status]int64      `json:"by_status"`
	ByServiceType map[domain.ServiceType]int64 `json:"by_service_type"`
}

//
// Handlers
//

// CreateRequest godoc
// @ID          createRequest
// @Summary     Submit a new consular request
// @Description Validates the variant-specific fields and creates a request with status NEW.
// @Description Supports idempotency via the Idempotency-Key header (same key → same request).
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "Submitting user (demo header)" example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries" example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateRequestPayload  true  "Submission payload"
//
// @Success     201  {object}  domain.Request
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed / unknown service type"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests [post]
func (h *Handlers) CreateRequest(c *gin.Context) {
	ctx := c.Request.Context()

	var payload CreateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	// Serve an idempotent replay when the middleware detected one.
	if middleware.IsReplay(c) {
		if req, hit := h.replayCreate(c); hit {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, req)
			return
		}
	}

	req, fieldErrs, err := h.reqSvc.Create(ctx, payload.ServiceType, payload.Fields, payload.ContactPhoneNumber)
	if err != nil {
		if errors.Is(err, variants.ErrUnknownServiceType) {
			fail(c, http.StatusBadRequest, ErrCodeUnknownServiceType, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	if len(fieldErrs) > 0 {
		failWith(c, http.StatusBadRequest, ErrCodeValidationFailed, "submission is invalid", fieldErrs)
		return
	}

	h.recordIdempotency(c, req)
	ok(c, http.StatusCreated, req)
}

// replayCreate loads the previously created request for a replayed
// Idempotency-Key. Best effort: any failure falls through to normal creation.
func (h *Handlers) replayCreate(c *gin.Context) (*domain.Request, bool) {
	key, okKey := middleware.GetIdempotencyKey(c)
	if !okKey {
		return nil, false
	}
	db := h.serviceDB()
	if db == nil {
		return nil, false
	}
	ctx := c.Request.Context()
	rec, err := repo.GetIdempotency(ctx, db, middleware.UserIDFromCtx(c), key, time.Now().UTC())
	if err != nil || rec == nil {
		return nil, false
	}
	req, err := h.reqSvc.Get(ctx, rec.RequestID)
	if err != nil {
		return nil, false
	}
	return req, true
}

// recordIdempotency persists the idempotency record after a successful
// creation when the client supplied a key. Failures are swallowed: the
// request itself has been created, retried submissions just lose replay.
func (h *Handlers) recordIdempotency(c *gin.Context, req *domain.Request) {
	key, okKey := middleware.GetIdempotencyKey(c)
	if !okKey {
		return
	}
	db := h.serviceDB()
	if db == nil {
		return
	}
	_, _ = repo.CreateIdempotency(c.Request.Context(), db, middleware.UserIDFromCtx(c),
		string(req.ServiceType), key, req.ID, http.StatusCreated, h.idemTTL)
}

// serviceDB exposes the concrete service's DB handle for transport-level
// extras (ETag stats, idempotency bookkeeping). Nil when the handler was
// wired with a test double.
func (h *Handlers) serviceDB() *gorm.DB {
	if svc, ok := h.reqSvc.(*services.RequestService); ok {
		return svc.DB
	}
	return nil
}

// GetRequest godoc
// @ID          getRequest
// @Summary     Fetch a request
// @Description Returns a single request by UUID or by its public ticket number.
// @Tags        Requests
// @Produce     json
//
// @Param       id  path  string  true  "Request UUID or ticket number"  example(CONS-20250612-A3F21B)
//
// @Success     200  {object}  domain.Request
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id} [get]
func (h *Handlers) GetRequest(c *gin.Context) {
	idOrTicket := strings.TrimSpace(c.Param("id"))
	if idOrTicket == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id or ticket number required")
		return
	}

	req, err := h.reqSvc.Get(c.Request.Context(), idOrTicket)
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "request not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, req)
}

// ListRequests godoc
// @ID          listRequests
// @Summary     List requests (filtered, paginated)
// @Description Returns a page of requests. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Requests
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       status         query   string  false "Filter by status"              example(IN_REVIEW_DOCS)
// @Param       service_type   query   string  false "Filter by service type"        example(VISA)
// @Param       ticket_number  query   string  false "Filter by ticket number"
// @Param       from           query   string  false "Submission date lower bound (YYYY-MM-DD)"
// @Param       to             query   string  false "Submission date upper bound (YYYY-MM-DD)"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListRequestsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /requests [get]
func (h *Handlers) ListRequests(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := utils.ClampPagination(c.Query("page"), c.Query("page_size"))

	f, ferr := parseListFilter(c)
	if ferr != "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, ferr)
		return
	}

	// ETag pre-check (best effort, unfiltered listings only).
	if db := h.serviceDB(); db != nil && filterIsEmpty(f) {
		count, maxTS, err := repo.RequestsStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"requests:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.reqSvc.ListPage(ctx, f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListRequestsResponse{
		Requests: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// UpdateStatus godoc
// @ID          updateRequestStatus
// @Summary     Transition a request to a new status
// @Description Applies one workflow transition. The transition table decides legality;
// @Description the justification table decides whether reason/observation are mandatory.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       X-Actor-ID  header  string  true  "Acting officer"  example(agent-17)
// @Param       id          path    string  true  "Request UUID"    format(uuid)
// @Param       body        body    handlers.UpdateStatusPayload  true  "Transition payload"
//
// @Success     200  {object}  domain.Request
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Concurrent modification"
// @Failure     422  {object}  handlers.ErrorResponse  "Illegal transition or missing justification"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id}/status [post]
func (h *Handlers) UpdateStatus(c *gin.Context) {
	requestID := c.Param("id")
	if _, err := uuid.Parse(requestID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	var payload UpdateStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	target, err := domain.ParseStatus(strings.TrimSpace(payload.Status))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	actor := actorID(c)
	if actor == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "X-Actor-ID header required")
		return
	}

	req, err := h.reqSvc.UpdateStatus(c.Request.Context(), requestID, target, payload.Reason, payload.Observation, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRequestNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "request not found")
		case errors.Is(err, workflow.ErrInvalidTransition):
			fail(c, http.StatusUnprocessableEntity, ErrCodeInvalidTransition, err.Error())
		case errors.Is(err, workflow.ErrMissingReason):
			fail(c, http.StatusUnprocessableEntity, ErrCodeMissingReason, err.Error())
		case errors.Is(err, workflow.ErrMissingObservation):
			fail(c, http.StatusUnprocessableEntity, ErrCodeMissingObservation, err.Error())
		case errors.Is(err, services.ErrConflict):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, req)
}

//
// Helpers
//

// parseListFilter builds the service filter from query parameters, returning
// a non-empty message on invalid input.
func parseListFilter(c *gin.Context) (services.ListFilter, string) {
	var f services.ListFilter

	if v := strings.TrimSpace(c.Query("status")); v != "" {
		st, err := domain.ParseStatus(v)
		if err != nil {
			return f, err.Error()
		}
		f.Status = &st
	}
	if v := strings.TrimSpace(c.Query("service_type")); v != "" {
		st, err := domain.ParseServiceType(v)
		if err != nil {
			return f, err.Error()
		}
		f.ServiceType = &st
	}
	f.TicketNumber = strings.TrimSpace(c.Query("ticket_number"))

	if v := strings.TrimSpace(c.Query("from")); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return f, "from must be a date in YYYY-MM-DD format"
		}
		f.From = &t
	}
	if v := strings.TrimSpace(c.Query("to")); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return f, "to must be a date in YYYY-MM-DD format"
		}
		// Include the whole day.
		t = t.Add(24*time.Hour - time.Nanosecond)
		f.To = &t
	}
	return f, ""
}

// filterIsEmpty reports whether no filter member is set.
func filterIsEmpty(f services.ListFilter) bool {
	return f.Status == nil && f.ServiceType == nil && f.TicketNumber == "" && f.From == nil && f.To == nil
}
