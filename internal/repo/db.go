// Package repo implements the data persistence layer for consular request
// aggregates, backed by GORM. This file contains database bootstrapping
// helpers for SQLite (pure Go driver), schema migrations, and optional query
// tracing.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/adiouf/go-consular-backend/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs tuned
// for a single-process API server.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if the parent directory does not exist instead of letting
	// the driver surface an opaque "out of memory (14)".
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// EnableTracing installs the GORM OpenTelemetry plugin so every query shows
// up as a span under the active request trace. Metrics are left to the HTTP
// layer; only tracing is wanted here.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// AutoMigrate creates or updates the schema for every persisted model:
// the request aggregate, the 8 variant detail tables, the append-only status
// history, and the idempotency ledger.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Request{},
		&domain.VisaDetails{},
		&domain.BirthActDetails{},
		&domain.ConsularCardDetails{},
		&domain.LaissezPasserDetails{},
		&domain.MarriageCapacityActDetails{},
		&domain.DeathActDetails{},
		&domain.PowerOfAttorneyDetails{},
		&domain.NationalityCertificateDetails{},
		&domain.StatusHistoryEntry{},
		&domain.Idempotency{},
	)
}
