// Package repo implements the data persistence layer for consular request
// aggregates, backed by GORM. This file provides small aggregate/statistics
// queries used for conditional responses (ETag generation) and the dashboard
// stats endpoint.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/adiouf/go-consular-backend/internal/domain"
)

// RequestsStats returns aggregate metadata over all requests: the total row
// count and the maximum UpdatedAt timestamp. Used to derive a cheap weak ETag
// for the listing endpoint. When there are no rows, count is 0 and
// maxUpdatedAt is nil.
func RequestsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Request{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Fetch the newest row's timestamp directly (avoid MAX() -> TEXT in SQLite).
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// CountByStatus returns the number of requests per status. Statuses with no
// rows are absent from the map.
func CountByStatus(ctx context.Context, db *gorm.DB) (map[domain.Status]int64, error) {
	var rows []struct {
		Status domain.Status
		N      int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Request{}).
		Select("status, COUNT(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Status]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// CountByServiceType returns the number of requests per service type.
// Service types with no rows are absent from the map.
func CountByServiceType(ctx context.Context, db *gorm.DB) (map[domain.ServiceType]int64, error) {
	var rows []struct {
		ServiceType domain.ServiceType
		N           int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Request{}).
		Select("service_type, COUNT(*) as n").
		Group("service_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.ServiceType]int64, len(rows))
	for _, r := range rows {
		out[r.ServiceType] = r.N
	}
	return out, nil
}
