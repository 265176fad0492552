package report

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/loopkitchen/storewatch/internal/domain/model"
	"github.com/loopkitchen/storewatch/internal/mocks"
	"github.com/loopkitchen/storewatch/internal/service"
)

func newWriterFixture(t *testing.T) (*Writer, *mocks.MockObservationRepository, *mocks.MockCatalogRepository, string) {
	t.Helper()
	ctrl := gomock.NewController(t)
	observations := mocks.NewMockObservationRepository(ctrl)
	catalogRepo := mocks.NewMockCatalogRepository(ctrl)

	catalog, err := service.NewCatalogService(service.CatalogServiceOptions{Repo: catalogRepo})
	require.NoError(t, err)

	dir := t.TempDir()
	w, err := NewWriter(WriterOptions{
		Observations: observations,
		Catalog:      catalog,
		Store:        NewCSVStore(dir),
		Concurrency:  2,
	})
	require.NoError(t, err)
	return w, observations, catalogRepo, dir
}

func TestNewWriter_RequiresDependencies(t *testing.T) {
	_, err := NewWriter(WriterOptions{})
	assert.Error(t, err)
}

func TestWriterGenerate(t *testing.T) {
	w, observations, catalogRepo, _ := newWriterFixture(t)

	now := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	from := now.Add(-7 * 24 * time.Hour)

	observations.EXPECT().LatestTimestamp(gomock.Any()).Return(now, nil)
	catalogRepo.EXPECT().StoreIDs(gomock.Any()).Return([]string{"s1", "s2"}, nil)

	for _, id := range []string{"s1", "s2"} {
		catalogRepo.EXPECT().Timezone(gomock.Any(), id).Return("UTC", nil)
		catalogRepo.EXPECT().BusinessHours(gomock.Any(), id).Return(nil, nil)
	}
	observations.EXPECT().ListByStore(gomock.Any(), "s1", from, now).Return([]model.Observation{
		{StoreID: "s1", Timestamp: from, Status: model.StoreStatusActive},
	}, nil)
	observations.EXPECT().ListByStore(gomock.Any(), "s2", from, now).Return([]model.Observation{
		{StoreID: "s2", Timestamp: now.Add(-30 * time.Minute), Status: model.StoreStatusInactive},
	}, nil)

	address, err := w.Generate(context.Background(), "report-1")
	require.NoError(t, err)

	f, err := os.Open(strings.TrimPrefix(address, "file://"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Rows come out in store-directory order regardless of worker scheduling.
	assert.Equal(t, "s1", records[1][0])
	assert.Equal(t, "s2", records[2][0])

	// s1 was active the whole week under a 24x7 schedule.
	assert.Equal(t, "60.00", records[1][1])
	assert.Equal(t, "168.00", records[1][3])
	// s2's only poll is inactive, so it backward-fills the whole hour.
	assert.Equal(t, "0.00", records[2][1])
	assert.Equal(t, "60.00", records[2][4])
}

type gaugeSink struct {
	gauges map[string]float64
}

func (s *gaugeSink) Count(string, int64, map[string]string) {}

func (s *gaugeSink) Timing(string, time.Duration, map[string]string) {}
func (s *gaugeSink) Gauge(name string, value float64, _ map[string]string) {
	if s.gauges == nil {
		s.gauges = map[string]float64{}
	}
	s.gauges[name] = value
}

func TestWriterGenerate_GaugesFleetSize(t *testing.T) {
	ctrl := gomock.NewController(t)
	observations := mocks.NewMockObservationRepository(ctrl)
	catalogRepo := mocks.NewMockCatalogRepository(ctrl)

	catalog, err := service.NewCatalogService(service.CatalogServiceOptions{Repo: catalogRepo})
	require.NoError(t, err)

	sink := &gaugeSink{}
	w, err := NewWriter(WriterOptions{
		Observations: observations,
		Catalog:      catalog,
		Store:        NewCSVStore(t.TempDir()),
		Metrics:      sink,
	})
	require.NoError(t, err)

	now := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	observations.EXPECT().LatestTimestamp(gomock.Any()).Return(now, nil)
	catalogRepo.EXPECT().StoreIDs(gomock.Any()).Return([]string{"s1", "s2"}, nil)
	for _, id := range []string{"s1", "s2"} {
		catalogRepo.EXPECT().Timezone(gomock.Any(), id).Return("UTC", nil)
		catalogRepo.EXPECT().BusinessHours(gomock.Any(), id).Return(nil, nil)
		observations.EXPECT().ListByStore(gomock.Any(), id, gomock.Any(), gomock.Any()).Return(nil, nil)
	}

	_, err = w.Generate(context.Background(), "report-4")
	require.NoError(t, err)

	assert.Equal(t, 2.0, sink.gauges["report.stores"])
}

func TestWriterGenerate_EmptyFeedFails(t *testing.T) {
	w, observations, _, _ := newWriterFixture(t)

	observations.EXPECT().LatestTimestamp(gomock.Any()).Return(time.Time{}, errors.New("no observations"))

	_, err := w.Generate(context.Background(), "report-2")
	assert.ErrorContains(t, err, "resolve reference instant")
}

func TestWriterGenerate_StoreErrorAbortsRun(t *testing.T) {
	w, observations, catalogRepo, dir := newWriterFixture(t)

	now := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	observations.EXPECT().LatestTimestamp(gomock.Any()).Return(now, nil)
	catalogRepo.EXPECT().StoreIDs(gomock.Any()).Return([]string{"s1"}, nil)
	catalogRepo.EXPECT().Timezone(gomock.Any(), "s1").Return("", errors.New("feed unavailable"))

	_, err := w.Generate(context.Background(), "report-3")
	require.Error(t, err)
	assert.ErrorContains(t, err, "store s1")

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no artifact should be published for a failed run")
}
