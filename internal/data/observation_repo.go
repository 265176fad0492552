package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/loopkitchen/storewatch/internal/domain/model"
)

// ObservationRepo reads the store_status poll feed.
type ObservationRepo struct {
	DB *sql.DB
}

// NewObservationRepo creates an ObservationRepo over the given database.
func NewObservationRepo(db *sql.DB) *ObservationRepo {
	return &ObservationRepo{DB: db}
}

// LatestTimestamp returns the most recent poll timestamp across all stores.
// The feed is static between ingests, so this doubles as the reference "now"
// for report computation. Returns ErrNoObservations on an empty feed.
func (r *ObservationRepo) LatestTimestamp(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	err := r.DB.QueryRowContext(ctx, `
		SELECT MAX(timestamp_utc) FROM store_status
	`).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest observation timestamp: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, ErrNoObservations
	}
	return latest.Time.UTC(), nil
}

// ListByStore returns the store's observations within [from, to], ascending
// by timestamp.
func (r *ObservationRepo) ListByStore(ctx context.Context, storeID string, from, to time.Time) ([]model.Observation, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT store_id, timestamp_utc, status
		FROM store_status
		WHERE store_id = $1 AND timestamp_utc >= $2 AND timestamp_utc <= $3
		ORDER BY timestamp_utc ASC
	`, storeID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var observations []model.Observation
	for rows.Next() {
		var (
			obs model.Observation
			raw string
		)
		if scanErr := rows.Scan(&obs.StoreID, &obs.Timestamp, &raw); scanErr != nil {
			return nil, fmt.Errorf("scan observation: %w", scanErr)
		}
		status, ok := model.ParseStoreStatus(raw)
		if !ok {
			// Unknown feed values carry no signal; skip them.
			continue
		}
		obs.Status = status
		obs.Timestamp = obs.Timestamp.UTC()
		observations = append(observations, obs)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list observations: %w", rowsErr)
	}
	return observations, nil
}
