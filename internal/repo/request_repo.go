// Package repo implements the data persistence layer for consular request
// aggregates, backed by GORM. This file provides repository functions for the
// Request model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a request is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - ApplyStatusChange returns ErrConflict when the optimistic version
//     check fails (a concurrent transition won the race).
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adiouf/go-consular-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for convenience and consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrConflict is returned when a status change lost the optimistic
// concurrency race: the row's version no longer matches the version the
// caller read. The caller may reload the request and retry once.
var ErrConflict = errors.New("request was modified concurrently")

// Filter narrows ListRequestsPage and CountRequests. Nil/zero members are
// ignored. From/To bound the submission date (inclusive).
type Filter struct {
	Status       *domain.Status
	ServiceType  *domain.ServiceType
	TicketNumber string
	From         *time.Time
	To           *time.Time
}

// apply composes the filter onto a requests query.
func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.ServiceType != nil {
		q = q.Where("service_type = ?", *f.ServiceType)
	}
	if f.TicketNumber != "" {
		q = q.Where("ticket_number = ?", f.TicketNumber)
	}
	if f.From != nil {
		q = q.Where("submission_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("submission_date <= ?", *f.To)
	}
	return q
}

// CreateRequest inserts a new request together with its variant detail
// record, atomically. GORM persists the populated detail association with the
// aggregate. History starts empty; entries are appended only by transitions.
func CreateRequest(ctx context.Context, db *gorm.DB, req *domain.Request) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(req).Error
	})
}

// GetRequest fetches a request by its UUID, preloading the variant detail
// record. Returns ErrNotFound when missing.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.Request, error) {
	var r domain.Request
	err := db.WithContext(ctx).
		Preload(clause.Associations).
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRequestByTicket fetches a request by its public ticket number,
// preloading the variant detail record. Returns ErrNotFound when missing.
func GetRequestByTicket(ctx context.Context, db *gorm.DB, ticket string) (*domain.Request, error) {
	var r domain.Request
	err := db.WithContext(ctx).
		Preload(clause.Associations).
		Where("ticket_number = ?", ticket).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CountRequests returns the number of requests matching the filter.
func CountRequests(ctx context.Context, db *gorm.DB, f Filter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Request{})).Count(&total).Error
	return total, err
}

// ListRequestsPage returns a page of requests matching the filter, ordered by
// submission date descending (most recent first). Detail records are
// preloaded. The caller computes offset and limit.
func ListRequestsPage(ctx context.Context, db *gorm.DB, f Filter, offset, limit int) ([]domain.Request, error) {
	var out []domain.Request
	err := f.apply(db.WithContext(ctx).Preload(clause.Associations)).
		Order("submission_date desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ApplyStatusChange persists an already-validated transition: it updates the
// request row guarded by a compare-and-swap on version, and appends the
// history entry in the same transaction.
//
// The UPDATE is scoped to (id, version) with version taken from the aggregate
// the caller loaded. Zero rows affected means another officer transitioned
// the request first; the whole transaction is rolled back and ErrConflict is
// returned so the caller can reload and retry against current state.
func ApplyStatusChange(ctx context.Context, db *gorm.DB, req *domain.Request, entry *domain.StatusHistoryEntry) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Request{}).
			Where("id = ? AND version = ?", req.ID, req.Version).
			Updates(map[string]any{
				"status":          req.Status,
				"updated_at":      req.UpdatedAt,
				"completion_date": req.CompletionDate,
				"issued_date":     req.IssuedDate,
				"version":         req.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		req.Version++
		return tx.Create(entry).Error
	})
}
