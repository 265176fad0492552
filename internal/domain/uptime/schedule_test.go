package uptime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopkitchen/storewatch/internal/domain/model"
)

func TestParseLocalTime(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{name: "hours and minutes", raw: "09:30", want: 9*time.Hour + 30*time.Minute},
		{name: "with seconds", raw: "23:59:59", want: 23*time.Hour + 59*time.Minute + 59*time.Second},
		{name: "midnight", raw: "00:00", want: 0},
		{name: "surrounding whitespace", raw: " 08:00 ", want: 8 * time.Hour},
		{name: "missing minutes", raw: "09", wantErr: true},
		{name: "hour out of range", raw: "24:00", wantErr: true},
		{name: "minute out of range", raw: "10:61", wantErr: true},
		{name: "second out of range", raw: "10:00:60", wantErr: true},
		{name: "not numeric", raw: "ab:cd", wantErr: true},
		{name: "too many parts", raw: "10:00:00:00", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseLocalTime(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewSchedule_EmptyRowsDefaultsToAlwaysOpen(t *testing.T) {
	s, err := NewSchedule(nil)
	require.NoError(t, err)
	assert.True(t, s.AlwaysOpen())

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		ivals := s.intervalsOn(wd)
		require.Len(t, ivals, 1)
		assert.Equal(t, time.Duration(0), ivals[0].Start)
		assert.Equal(t, day, ivals[0].End)
	}
}

func TestNewSchedule_PlainInterval(t *testing.T) {
	s, err := NewSchedule([]model.BusinessHoursInterval{
		{StoreID: "s1", Weekday: 0, StartLocal: "09:00", EndLocal: "17:00"},
	})
	require.NoError(t, err)
	assert.False(t, s.AlwaysOpen())

	monday := s.intervalsOn(time.Monday)
	require.Len(t, monday, 1)
	assert.Equal(t, 9*time.Hour, monday[0].Start)
	assert.Equal(t, 17*time.Hour, monday[0].End)

	assert.Empty(t, s.intervalsOn(time.Tuesday))
	assert.Empty(t, s.intervalsOn(time.Sunday))
}

func TestNewSchedule_WrapSplitsIntoTwoSegments(t *testing.T) {
	// Friday 22:00 through 02:00 Saturday (feed weekday 4 = Friday).
	s, err := NewSchedule([]model.BusinessHoursInterval{
		{StoreID: "s1", Weekday: 4, StartLocal: "22:00", EndLocal: "02:00"},
	})
	require.NoError(t, err)

	friday := s.intervalsOn(time.Friday)
	require.Len(t, friday, 1)
	assert.Equal(t, 22*time.Hour, friday[0].Start)
	assert.Equal(t, day, friday[0].End)

	saturday := s.intervalsOn(time.Saturday)
	require.Len(t, saturday, 1)
	assert.Equal(t, time.Duration(0), saturday[0].Start)
	assert.Equal(t, 2*time.Hour, saturday[0].End)
}

func TestNewSchedule_WrapFromSundayLandsOnMonday(t *testing.T) {
	s, err := NewSchedule([]model.BusinessHoursInterval{
		{StoreID: "s1", Weekday: 6, StartLocal: "23:00", EndLocal: "01:00"},
	})
	require.NoError(t, err)

	sunday := s.intervalsOn(time.Sunday)
	require.Len(t, sunday, 1)
	assert.Equal(t, 23*time.Hour, sunday[0].Start)

	monday := s.intervalsOn(time.Monday)
	require.Len(t, monday, 1)
	assert.Equal(t, time.Hour, monday[0].End)
}

func TestNewSchedule_MidnightEndDoesNotSpillOver(t *testing.T) {
	s, err := NewSchedule([]model.BusinessHoursInterval{
		{StoreID: "s1", Weekday: 0, StartLocal: "20:00", EndLocal: "00:00"},
	})
	require.NoError(t, err)

	monday := s.intervalsOn(time.Monday)
	require.Len(t, monday, 1)
	assert.Equal(t, day, monday[0].End)
	assert.Empty(t, s.intervalsOn(time.Tuesday))
}

func TestNewSchedule_OverlappingIntervalsMerge(t *testing.T) {
	s, err := NewSchedule([]model.BusinessHoursInterval{
		{StoreID: "s1", Weekday: 2, StartLocal: "09:00", EndLocal: "13:00"},
		{StoreID: "s1", Weekday: 2, StartLocal: "12:00", EndLocal: "18:00"},
		{StoreID: "s1", Weekday: 2, StartLocal: "20:00", EndLocal: "22:00"},
	})
	require.NoError(t, err)

	wednesday := s.intervalsOn(time.Wednesday)
	require.Len(t, wednesday, 2)
	assert.Equal(t, 9*time.Hour, wednesday[0].Start)
	assert.Equal(t, 18*time.Hour, wednesday[0].End)
	assert.Equal(t, 20*time.Hour, wednesday[1].Start)
}

func TestNewSchedule_RejectsBadRows(t *testing.T) {
	_, err := NewSchedule([]model.BusinessHoursInterval{
		{StoreID: "s1", Weekday: 7, StartLocal: "09:00", EndLocal: "17:00"},
	})
	assert.Error(t, err)

	_, err = NewSchedule([]model.BusinessHoursInterval{
		{StoreID: "s1", Weekday: 0, StartLocal: "nine", EndLocal: "17:00"},
	})
	assert.Error(t, err)

	_, err = NewSchedule([]model.BusinessHoursInterval{
		{StoreID: "s1", Weekday: 0, StartLocal: "09:00", EndLocal: "25:00"},
	})
	assert.Error(t, err)
}

func TestMondayIndex(t *testing.T) {
	assert.Equal(t, 0, mondayIndex(time.Monday))
	assert.Equal(t, 4, mondayIndex(time.Friday))
	assert.Equal(t, 5, mondayIndex(time.Saturday))
	assert.Equal(t, 6, mondayIndex(time.Sunday))
}
