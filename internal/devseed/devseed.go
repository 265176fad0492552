// Package devseed populates the upstream feed tables with a small synthetic
// fleet so a fresh development environment has something to report on. It is
// only ever invoked in dev mode; production feeds come from the ingestion
// pipeline.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// seedStore describes one synthetic store: its timezone, hours, and the shape
// of its poll history.
type seedStore struct {
	ID       string
	Timezone string
	// Hours maps weekday (0 = Monday) to a single open interval; empty means
	// no business-hours record, i.e. treated as open 24x7.
	Hours map[int][2]string
	// DownFraction is roughly how much of the seeded polls report inactive.
	DownFraction float64
}

func defaultStores() []seedStore {
	weekdays := func(start, end string) map[int][2]string {
		out := make(map[int][2]string, 5)
		for d := 0; d < 5; d++ {
			out[d] = [2]string{start, end}
		}
		return out
	}

	return []seedStore{
		{ID: "dev-chicago-1", Timezone: "America/Chicago", Hours: weekdays("09:00", "17:00")},
		{ID: "dev-denver-1", Timezone: "America/Denver", Hours: weekdays("08:00", "20:00"), DownFraction: 0.25},
		// Night store with hours wrapping past midnight.
		{ID: "dev-nyc-night", Timezone: "America/New_York", Hours: map[int][2]string{
			4: {"22:00", "04:00"},
			5: {"22:00", "04:00"},
		}},
		// No timezone or hours records at all; exercises both fallbacks.
		{ID: "dev-default-1", DownFraction: 0.5},
	}
}

// Run inserts the synthetic fleet unless the feeds already hold data. It is
// idempotent across restarts: a non-empty store_status table short-circuits.
func Run(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	var polls int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM store_status`).Scan(&polls); err != nil {
		return fmt.Errorf("check feed state: %w", err)
	}
	if polls > 0 {
		logger.DebugContext(ctx, "feeds already populated, skipping dev seed", "polls", polls)
		return nil
	}

	stores := defaultStores()
	now := time.Now().UTC().Truncate(time.Hour)

	for _, store := range stores {
		if err := seedOne(ctx, db, store, now); err != nil {
			return fmt.Errorf("seed store %s: %w", store.ID, err)
		}
	}

	logger.InfoContext(ctx, "seeded development feeds",
		"stores", len(stores),
		"newest_poll", now,
	)
	return nil
}

func seedOne(ctx context.Context, db *sql.DB, store seedStore, now time.Time) error {
	if store.Timezone != "" {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO store_timezones (store_id, timezone_str)
			VALUES ($1, $2)
			ON CONFLICT (store_id) DO NOTHING
		`, store.ID, store.Timezone); err != nil {
			return fmt.Errorf("insert timezone: %w", err)
		}
	}

	for weekday, interval := range store.Hours {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO business_hours (store_id, day_of_week, start_time_local, end_time_local)
			VALUES ($1, $2, $3, $4)
		`, store.ID, weekday, interval[0], interval[1]); err != nil {
			return fmt.Errorf("insert business hours: %w", err)
		}
	}

	// One poll per hour over the trailing week, with a deterministic stretch
	// of downtime sized by DownFraction.
	const pollsPerStore = 7 * 24
	downPolls := int(store.DownFraction * pollsPerStore)

	for i := 0; i < pollsPerStore; i++ {
		status := "active"
		if i < downPolls {
			status = "inactive"
		}
		ts := now.Add(-time.Duration(i) * time.Hour)
		if _, err := db.ExecContext(ctx, `
			INSERT INTO store_status (store_id, timestamp_utc, status)
			VALUES ($1, $2, $3)
			ON CONFLICT (store_id, timestamp_utc) DO NOTHING
		`, store.ID, ts, status); err != nil {
			return fmt.Errorf("insert poll: %w", err)
		}
	}
	return nil
}
