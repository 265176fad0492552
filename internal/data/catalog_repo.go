package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/loopkitchen/storewatch/internal/domain/model"
)

// CatalogRepo reads the business-hours and timezone reference feeds.
type CatalogRepo struct {
	DB *sql.DB
}

// NewCatalogRepo creates a CatalogRepo over the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{DB: db}
}

// StoreIDs returns every store id known to any of the three feeds, sorted.
// A store missing from the hours or timezone feeds still gets a report row;
// the service layer fills in defaults.
func (r *CatalogRepo) StoreIDs(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT store_id FROM store_status
		UNION
		SELECT store_id FROM business_hours
		UNION
		SELECT store_id FROM store_timezones
		ORDER BY store_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list store ids: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("scan store id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list store ids: %w", rowsErr)
	}
	return ids, nil
}

// BusinessHours returns the store's weekly open intervals. An empty result
// means the store has no hours on record and is treated as open 24x7 by the
// caller.
func (r *CatalogRepo) BusinessHours(ctx context.Context, storeID string) ([]model.BusinessHoursInterval, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT store_id, day_of_week, start_time_local, end_time_local
		FROM business_hours
		WHERE store_id = $1
		ORDER BY day_of_week ASC, start_time_local ASC
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list business hours: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var intervals []model.BusinessHoursInterval
	for rows.Next() {
		var iv model.BusinessHoursInterval
		if scanErr := rows.Scan(&iv.StoreID, &iv.Weekday, &iv.StartLocal, &iv.EndLocal); scanErr != nil {
			return nil, fmt.Errorf("scan business hours: %w", scanErr)
		}
		intervals = append(intervals, iv)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list business hours: %w", rowsErr)
	}
	return intervals, nil
}

// Timezone returns the store's IANA timezone name, or "" when the store has
// no timezone on record.
func (r *CatalogRepo) Timezone(ctx context.Context, storeID string) (string, error) {
	var tz string
	err := r.DB.QueryRowContext(ctx, `
		SELECT timezone_str FROM store_timezones WHERE store_id = $1
	`, storeID).Scan(&tz)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get store timezone: %w", err)
	}
	return tz, nil
}
