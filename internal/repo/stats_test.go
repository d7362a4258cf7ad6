package repo

import (
	"context"
	"testing"
	"time"

	"github.com/adiouf/go-consular-backend/internal/domain"
)

func TestRequestsStats_EmptyAndPopulated(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	count, max, err := RequestsStats(ctx, db)
	if err != nil {
		t.Fatalf("RequestsStats: %v", err)
	}
	if count != 0 || max != nil {
		t.Fatalf("expected empty stats, got count=%d max=%v", count, max)
	}

	seedRequest(t, db, "CONS-20260830-STAT01", time.Now().UTC())
	seedRequest(t, db, "CONS-20260830-STAT02", time.Now().UTC())

	count, max, err = RequestsStats(ctx, db)
	if err != nil {
		t.Fatalf("RequestsStats: %v", err)
	}
	if count != 2 || max == nil || max.IsZero() {
		t.Fatalf("unexpected stats: count=%d max=%v", count, max)
	}
}

func TestCountByStatus_GroupsRows(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	a := seedRequest(t, db, "CONS-20260830-GRP001", time.Now().UTC())
	seedRequest(t, db, "CONS-20260830-GRP002", time.Now().UTC())
	if err := db.Model(&domain.Request{}).Where("id = ?", a.ID).
		Update("status", domain.StatusDelivered).Error; err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := CountByStatus(ctx, db)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if got[domain.StatusNew] != 1 || got[domain.StatusDelivered] != 1 {
		t.Fatalf("unexpected grouping: %v", got)
	}
	if _, ok := got[domain.StatusRejected]; ok {
		t.Fatalf("statuses without rows must be absent: %v", got)
	}
}

func TestCountByServiceType_GroupsRows(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	seedRequest(t, db, "CONS-20260830-TYP001", time.Now().UTC())
	b := seedRequest(t, db, "CONS-20260830-TYP002", time.Now().UTC())
	if err := db.Model(&domain.Request{}).Where("id = ?", b.ID).
		Update("service_type", domain.ServiceBirthAct).Error; err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := CountByServiceType(ctx, db)
	if err != nil {
		t.Fatalf("CountByServiceType: %v", err)
	}
	if got[domain.ServiceVisa] != 1 || got[domain.ServiceBirthAct] != 1 {
		t.Fatalf("unexpected grouping: %v", got)
	}
}
