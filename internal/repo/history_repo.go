// Package repo implements the data persistence layer for consular request
// aggregates, backed by GORM. This file provides the append-only status
// history repository.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/adiouf/go-consular-backend/internal/domain"
)

// ListStatusHistory returns every history entry for a request, ordered by
// change time ascending with the insertion sequence as a stable tie-break
// (two entries can share a timestamp at the database's resolution).
//
// Entries are never edited or removed once written; there is deliberately no
// update or delete function in this file.
func ListStatusHistory(ctx context.Context, db *gorm.DB, requestID string) ([]domain.StatusHistoryEntry, error) {
	var out []domain.StatusHistoryEntry
	err := db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("changed_at asc, seq asc").
		Find(&out).Error
	return out, err
}

// CountStatusHistory returns the number of history entries for a request.
func CountStatusHistory(ctx context.Context, db *gorm.DB, requestID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.StatusHistoryEntry{}).
		Where("request_id = ?", requestID).
		Count(&total).Error
	return total, err
}
