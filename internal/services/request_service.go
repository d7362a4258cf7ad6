// Package services – RequestService
//
// This file implements RequestService, the application-level component that
// owns the lifecycle of consular requests. It validates submissions against
// the variant registry, generates ticket numbers, drives the workflow engine
// for status changes, and coordinates repository operations under optimistic
// concurrency.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include request/ticket identifiers and pagination parameters where
// applicable.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiouf/go-consular-backend/internal/domain"
	"github.com/adiouf/go-consular-backend/internal/repo"
	"github.com/adiouf/go-consular-backend/internal/validation"
	"github.com/adiouf/go-consular-backend/internal/variants"
	"github.com/adiouf/go-consular-backend/internal/workflow"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListFilter narrows request listings. Zero members are ignored; From/To
// bound the submission date, inclusive.
type ListFilter struct {
	Status       *domain.Status
	ServiceType  *domain.ServiceType
	TicketNumber string
	From         *time.Time
	To           *time.Time
}

// RequestRepo defines the repository contract required by RequestService.
// Implementations are responsible for persistence of request aggregates and
// their append-only status history.
type RequestRepo interface {
	// CreateRequest inserts a new request with its variant detail record.
	CreateRequest(ctx context.Context, db *gorm.DB, req *domain.Request) error

	// GetRequest fetches a request by UUID, detail record preloaded.
	GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.Request, error)

	// GetRequestByTicket fetches a request by public ticket number.
	GetRequestByTicket(ctx context.Context, db *gorm.DB, ticket string) (*domain.Request, error)

	// CountRequests returns the total matching a filter, for pagination.
	CountRequests(ctx context.Context, db *gorm.DB, f ListFilter) (int64, error)

	// ListRequestsPage returns a page of requests matching a filter.
	ListRequestsPage(ctx context.Context, db *gorm.DB, f ListFilter, offset, limit int) ([]domain.Request, error)

	// ApplyStatusChange persists a validated transition under a version CAS
	// and appends the history entry atomically.
	ApplyStatusChange(ctx context.Context, db *gorm.DB, req *domain.Request, entry *domain.StatusHistoryEntry) error

	// ListStatusHistory returns the ordered history of a request.
	ListStatusHistory(ctx context.Context, db *gorm.DB, requestID string) ([]domain.StatusHistoryEntry, error)
}

// RequestService coordinates request creation, status transitions, lookups,
// and history reads.
type RequestService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the request repository used by this service.
	Repo RequestRepo
	// Notifier consumes transition events; nil disables notification.
	Notifier workflow.Notifier

	// TicketPrefix prefixes generated ticket numbers (e.g. "CONS").
	TicketPrefix string

	// now is swappable in tests.
	now func() time.Time
}

// NewRequestService constructs a RequestService with sane defaults.
func NewRequestService(db *gorm.DB, r RequestRepo) *RequestService {
	return &RequestService{
		DB:           db,
		Repo:         r,
		TicketPrefix: "CONS",
		now:          time.Now,
	}
}

// TransitionOption describes one legal move out of the current status,
// including the justification a caller must supply with it. UIs use this to
// render only the actions the workflow will accept.
type TransitionOption struct {
	Target              domain.Status `json:"target"`
	RequiresReason      bool          `json:"requires_reason"`
	RequiresObservation bool          `json:"requires_observation"`
}

// Create validates the submitted field values for serviceType, and on
// success persists a new request with status NEW, a unique ticket number,
// the variant detail record, and the fee from the schema.
//
// The second return value carries the complete list of field errors when
// validation fails; the error return is reserved for unknown service types
// and persistence failures.
func (s *RequestService) Create(ctx context.Context, serviceType string, fields map[string]any, contactPhone string) (*domain.Request, []validation.FieldError, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("request.service_type", serviceType)),
	)
	defer span.End()

	st, err := domain.ParseServiceType(strings.TrimSpace(serviceType))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", variants.ErrUnknownServiceType, serviceType)
	}
	schema, err := variants.Get(st)
	if err != nil {
		return nil, nil, err
	}

	values, fieldErrs, err := validation.Validate(st, fields)
	if err != nil {
		return nil, nil, err
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs, nil
	}

	now := s.now().UTC()
	req := &domain.Request{
		ID:                 uuid.NewString(),
		TicketNumber:       s.newTicketNumber(now),
		ServiceType:        st,
		Status:             domain.StatusNew,
		SubmissionDate:     now,
		ContactPhoneNumber: strings.TrimSpace(contactPhone),
		Amount:             schema.Fee,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := domain.ApplyDetails(req, uuid.NewString, values); err != nil {
		return nil, nil, err
	}

	if err := s.Repo.CreateRequest(ctx, s.DB, req); err != nil {
		return nil, nil, err
	}
	requestsCreated.WithLabelValues(string(st)).Inc()
	return req, nil, nil
}

// UpdateStatus drives the workflow engine for one request.
//
// Semantics:
//   - The target must be legal per the transition table; otherwise
//     workflow.ErrInvalidTransition.
//   - Justification requirements of the target are enforced
//     (workflow.ErrMissingReason / ErrMissingObservation).
//   - target equal to the current status is an idempotent no-op: the request
//     is returned unchanged and no history entry is written.
//   - The change is persisted under an optimistic version check; a
//     concurrent winner causes ErrConflict and nothing is written.
//
// On success the request is returned with its new status, a history entry
// has been appended, and a notification event has been emitted.
func (s *RequestService) UpdateStatus(ctx context.Context, id string, target domain.Status, reason, observation, actorID string) (*domain.Request, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(
			attribute.String("request.id", id),
			attribute.String("request.target_status", string(target)),
		),
	)
	defer span.End()

	if strings.TrimSpace(actorID) == "" {
		return nil, ErrEmptyActor
	}

	req, err := s.Repo.GetRequest(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	entry, err := workflow.Apply(req, target, workflow.Payload{Reason: reason, Observation: observation}, actorID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if entry == nil {
		// Idempotent resubmission of the current status.
		return req, nil
	}

	if err := s.Repo.ApplyStatusChange(ctx, s.DB, req, entry); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			transitionConflicts.Inc()
			return nil, ErrConflict
		}
		return nil, err
	}
	statusTransitions.WithLabelValues(string(*entry.OldStatus), string(entry.NewStatus)).Inc()

	if s.Notifier != nil {
		s.Notifier.NotifyStatusChanged(ctx, workflow.Event{
			RequestID:    req.ID,
			TicketNumber: req.TicketNumber,
			OldStatus:    *entry.OldStatus,
			NewStatus:    entry.NewStatus,
			Reason:       entry.Reason,
			Observation:  entry.Observation,
		})
	}
	return req, nil
}

// Get fetches a request by UUID or, when the identifier does not parse as a
// UUID, by public ticket number.
func (s *RequestService) Get(ctx context.Context, idOrTicket string) (*domain.Request, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("request.id_or_ticket", idOrTicket)),
	)
	defer span.End()

	var (
		req *domain.Request
		err error
	)
	if _, perr := uuid.Parse(idOrTicket); perr == nil {
		req, err = s.Repo.GetRequest(ctx, s.DB, idOrTicket)
	} else {
		req, err = s.Repo.GetRequestByTicket(ctx, s.DB, idOrTicket)
	}
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// ListPage returns a page of requests matching the filter and the total
// count. Defaults are applied for invalid page/pageSize.
func (s *RequestService) ListPage(ctx context.Context, f ListFilter, page, pageSize int) ([]domain.Request, int64, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountRequests(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Request{}, 0, nil
	}

	items, err := s.Repo.ListRequestsPage(ctx, s.DB, f, offset, pageSize)
	return items, total, err
}

// History returns the ordered, append-only status history of a request.
// It fails with ErrRequestNotFound when the request does not exist.
func (s *RequestService) History(ctx context.Context, requestID string) ([]domain.StatusHistoryEntry, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(attribute.String("request.id", requestID)),
	)
	defer span.End()

	if _, err := s.Repo.GetRequest(ctx, s.DB, requestID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return s.Repo.ListStatusHistory(ctx, s.DB, requestID)
}

// AllowedTransitions returns the legal moves out of the request's current
// status, annotated with the justification each target demands.
func (s *RequestService) AllowedTransitions(ctx context.Context, requestID string) ([]TransitionOption, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "AllowedTransitions",
		trace.WithAttributes(attribute.String("request.id", requestID)),
	)
	defer span.End()

	req, err := s.Repo.GetRequest(ctx, s.DB, requestID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	targets := workflow.AllowedTargets(req.Status)
	out := make([]TransitionOption, 0, len(targets))
	for _, t := range targets {
		need := workflow.RequiredJustification(t)
		out = append(out, TransitionOption{
			Target:              t,
			RequiresReason:      need.Reason,
			RequiresObservation: need.Observation,
		})
	}
	return out, nil
}

// Stats reports request counts grouped by status and by service type.
func (s *RequestService) Stats(ctx context.Context) (map[domain.Status]int64, map[domain.ServiceType]int64, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "Stats")
	defer span.End()

	byStatus, err := repo.CountByStatus(ctx, s.DB)
	if err != nil {
		return nil, nil, err
	}
	byService, err := repo.CountByServiceType(ctx, s.DB)
	if err != nil {
		return nil, nil, err
	}
	return byStatus, byService, nil
}

// newTicketNumber builds the externally-facing tracking identifier:
// <prefix>-<YYYYMMDD>-<6 hex>. The random suffix makes collisions within a
// day vanishingly unlikely; the unique index on ticket_number backstops them.
func (s *RequestService) newTicketNumber(now time.Time) string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	prefix := s.TicketPrefix
	if prefix == "" {
		prefix = "CONS"
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), strings.ToUpper(hex.EncodeToString(b[:])))
}
