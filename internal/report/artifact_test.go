package report

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopkitchen/storewatch/internal/domain/model"
)

func TestCSVStoreWrite(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVStore(dir)

	rows := []model.UptimeRow{
		{
			StoreID:          "store-a",
			UptimeLastHour:   60,
			UptimeLastDay:    23.67,
			UptimeLastWeek:   166,
			DowntimeLastHour: 0,
			DowntimeLastDay:  0.33,
			DowntimeLastWeek: 2,
		},
		{StoreID: "store-b"},
	}

	address, err := store.Write(context.Background(), "r1", rows)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(address, "file://"), "address %q", address)
	assert.True(t, strings.HasSuffix(address, "/r1.csv"), "address %q", address)

	f, err := os.Open(filepath.Join(dir, "r1.csv"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"store_id",
		"uptime_last_hour", "uptime_last_day", "uptime_last_week",
		"downtime_last_hour", "downtime_last_day", "downtime_last_week",
	}, records[0])
	assert.Equal(t, []string{"store-a", "60.00", "23.67", "166.00", "0.00", "0.33", "2.00"}, records[1])
	assert.Equal(t, []string{"store-b", "0.00", "0.00", "0.00", "0.00", "0.00", "0.00"}, records[2])
}

func TestCSVStoreWrite_HeaderOnlyForEmptyFleet(t *testing.T) {
	store := NewCSVStore(t.TempDir())

	address, err := store.Write(context.Background(), "r2", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(strings.TrimPrefix(address, "file://"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(string(data)), "\n")+1)
}

func TestCSVStoreWrite_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	store := NewCSVStore(dir)

	_, err := store.Write(context.Background(), "r3", nil)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "r3.csv"))
	assert.NoError(t, err)
}

func TestCSVStoreWrite_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVStore(dir)

	_, err := store.Write(context.Background(), "r4", []model.UptimeRow{{StoreID: "s"}})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "r4.csv", entries[0].Name())
}

func TestCSVStoreWrite_CancelledContext(t *testing.T) {
	store := NewCSVStore(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Write(ctx, "r5", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "/files/reports/abc.csv", PublicURL("file:///var/reports/abc.csv"))
	assert.Equal(t, "https://bucket/abc.csv", PublicURL("https://bucket/abc.csv"))
}
