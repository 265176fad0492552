package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportStatusUnmarshalText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ReportStatus
		wantErr bool
	}{
		{name: "uppercase", input: "PENDING", want: ReportStatusPending},
		{name: "lowercase", input: "running", want: ReportStatusRunning},
		{name: "mixed case with whitespace", input: " Completed ", want: ReportStatusCompleted},
		{name: "failed", input: "FAILED", want: ReportStatusFailed},
		{name: "unknown value", input: "DONE", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var s ReportStatus
			err := s.UnmarshalText([]byte(tc.input))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, s)
		})
	}
}

func TestReportStatusClassification(t *testing.T) {
	assert.True(t, ReportStatusPending.Active())
	assert.True(t, ReportStatusRunning.Active())
	assert.False(t, ReportStatusCompleted.Active())
	assert.False(t, ReportStatusFailed.Active())

	assert.False(t, ReportStatusPending.Terminal())
	assert.False(t, ReportStatusRunning.Terminal())
	assert.True(t, ReportStatusCompleted.Terminal())
	assert.True(t, ReportStatusFailed.Terminal())

	assert.False(t, ReportStatus("DONE").Valid())
	assert.True(t, ReportStatusPending.Valid())
}

func TestReportStatusTransitions(t *testing.T) {
	all := []ReportStatus{
		ReportStatusPending, ReportStatusRunning,
		ReportStatusCompleted, ReportStatusFailed,
	}

	allowed := map[ReportStatus]map[ReportStatus]bool{
		ReportStatusPending: {ReportStatusRunning: true},
		ReportStatusRunning: {ReportStatusCompleted: true, ReportStatusFailed: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			assert.Equalf(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}
