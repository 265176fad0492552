package data_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopkitchen/storewatch/internal/data"
	"github.com/loopkitchen/storewatch/internal/domain/model"
	"github.com/loopkitchen/storewatch/internal/testutil"
)

func seedObservation(t *testing.T, db *sql.DB, storeID string, ts time.Time, status string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO store_status (store_id, timestamp_utc, status)
		VALUES ($1, $2, $3)
	`, storeID, ts, status)
	require.NoError(t, err)
}

func TestObservationRepo_LatestTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := data.NewObservationRepo(db)
	ctx := context.Background()

	_, err := repo.LatestTimestamp(ctx)
	assert.ErrorIs(t, err, data.ErrNoObservations)

	older := time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC)
	newest := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	seedObservation(t, db, "s1", older, "active")
	seedObservation(t, db, "s2", newest, "inactive")

	got, err := repo.LatestTimestamp(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(newest), "got %v", got)
}

func TestObservationRepo_ListByStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := data.NewObservationRepo(db)
	ctx := context.Background()

	base := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	seedObservation(t, db, "s1", base.Add(2*time.Hour), "inactive")
	seedObservation(t, db, "s1", base, "active")
	seedObservation(t, db, "s1", base.Add(time.Hour), "gibberish") // unknown status, dropped
	seedObservation(t, db, "s1", base.Add(48*time.Hour), "active") // outside range
	seedObservation(t, db, "s2", base, "active")                   // different store

	got, err := repo.ListByStore(ctx, "s1", base, base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.StoreStatusActive, got[0].Status)
	assert.True(t, got[0].Timestamp.Equal(base))
	assert.Equal(t, model.StoreStatusInactive, got[1].Status)
	assert.True(t, got[1].Timestamp.Equal(base.Add(2*time.Hour)))
}

func TestCatalogRepo_StoreIDsUnionOfFeeds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := data.NewCatalogRepo(db)
	ctx := context.Background()

	seedObservation(t, db, "b", time.Now().UTC(), "active")

	_, err := db.ExecContext(ctx, `
		INSERT INTO business_hours (store_id, day_of_week, start_time_local, end_time_local)
		VALUES ('a', 0, '09:00', '17:00')
	`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO store_timezones (store_id, timezone_str)
		VALUES ('c', 'America/Denver')
	`)
	require.NoError(t, err)

	ids, err := repo.StoreIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestCatalogRepo_BusinessHours(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := data.NewCatalogRepo(db)
	ctx := context.Background()

	got, err := repo.BusinessHours(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = db.ExecContext(ctx, `
		INSERT INTO business_hours (store_id, day_of_week, start_time_local, end_time_local)
		VALUES ('s1', 1, '10:00', '18:00'),
		       ('s1', 0, '09:00', '17:00')
	`)
	require.NoError(t, err)

	got, err = repo.BusinessHours(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Weekday)
	assert.Equal(t, "09:00", got[0].StartLocal)
	assert.Equal(t, 1, got[1].Weekday)
}

func TestCatalogRepo_Timezone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := data.NewCatalogRepo(db)
	ctx := context.Background()

	got, err := repo.Timezone(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = db.ExecContext(ctx, `
		INSERT INTO store_timezones (store_id, timezone_str) VALUES ('s1', 'Asia/Kolkata')
	`)
	require.NoError(t, err)

	got, err = repo.Timezone(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", got)
}
