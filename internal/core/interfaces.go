// Package core defines the ports between the report services and their data
// adapters. The core owns the interfaces; internal/data provides the
// Postgres and Redis implementations.
package core

import (
	"context"
	"time"

	"github.com/loopkitchen/storewatch/internal/domain/model"
)

// ReportRepository persists report jobs and enforces the single-flight
// invariant and the PENDING → RUNNING → {COMPLETED, FAILED} state machine.
type ReportRepository interface {
	// CreateIfNoneActive atomically creates a new PENDING report unless one is
	// already PENDING or RUNNING, in which case the existing report is
	// returned. The boolean reports whether a row was created.
	CreateIfNoneActive(ctx context.Context) (*model.Report, bool, error)

	// GetByID returns the report or data.ErrReportNotFound.
	GetByID(ctx context.Context, reportID string) (*model.Report, error)

	// ClaimPending atomically moves the pending report, if any, to RUNNING and
	// returns it. Returns data.ErrNoReportsPending when nothing is claimable.
	ClaimPending(ctx context.Context) (*model.Report, error)

	// MarkRunning applies PENDING → RUNNING. A report in any other state is
	// left untouched and (false, nil) is returned.
	MarkRunning(ctx context.Context, reportID string) (bool, error)

	// MarkCompleted applies RUNNING → COMPLETED and records the artifact URL.
	// Terminal and non-running reports are left untouched with (false, nil).
	MarkCompleted(ctx context.Context, reportID, resultURL string) (bool, error)

	// MarkFailed applies RUNNING → FAILED and records the error message.
	// Terminal and non-running reports are left untouched with (false, nil).
	MarkFailed(ctx context.Context, reportID, errMsg string) (bool, error)

	// FailStaleRunning marks RUNNING reports untouched for longer than maxAge
	// as FAILED, releasing the single-flight slot after a worker crash.
	// Returns the number of reports failed.
	FailStaleRunning(ctx context.Context, maxAge time.Duration) (int64, error)

	// List returns reports newest first.
	List(ctx context.Context, limit, offset int) ([]*model.Report, error)

	// WaitForNotification blocks until a new report is announced or the
	// context ends. Used by the report worker to avoid busy polling.
	WaitForNotification(ctx context.Context) error
}

// ObservationRepository reads the status poll feed.
type ObservationRepository interface {
	// LatestTimestamp returns MAX(timestamp_utc) over the whole feed; this is
	// the reference instant all trailing windows end at. An empty feed is an
	// error: there is nothing to report on.
	LatestTimestamp(ctx context.Context) (time.Time, error)

	// ListByStore returns a store's observations in [from, to], ascending.
	ListByStore(ctx context.Context, storeID string, from, to time.Time) ([]model.Observation, error)
}

// CatalogRepository reads the business-hours and timezone feeds and the
// store directory derived from all feeds.
type CatalogRepository interface {
	// StoreIDs returns the union of store ids across all feeds, sorted.
	StoreIDs(ctx context.Context) ([]string, error)

	// BusinessHours returns a store's schedule rows; empty means no record.
	BusinessHours(ctx context.Context, storeID string) ([]model.BusinessHoursInterval, error)

	// Timezone returns a store's IANA zone, or "" when no record exists.
	Timezone(ctx context.Context, storeID string) (string, error)
}

// CacheRepository defines the byte-oriented cache operations backing the
// catalog resolvers.
type CacheRepository interface {
	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value, or nil if the key is missing or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Health checks the cache connection.
	Health(ctx context.Context) error
}

// ReportGenerator produces the report artifact for a claimed report and
// returns its internal address. Implemented by the report writer.
type ReportGenerator interface {
	Generate(ctx context.Context, reportID string) (string, error)
}
