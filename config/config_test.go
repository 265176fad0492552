package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[ServiceMode]bool
		wantErr bool
	}{
		{
			name:  "both services",
			input: "http,report-worker",
			want:  map[ServiceMode]bool{ServiceModeHTTP: true, ServiceModeReportWorker: true},
		},
		{
			name:  "single service",
			input: "http",
			want:  map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:  "whitespace tolerated",
			input: " http , report-worker ",
			want:  map[ServiceMode]bool{ServiceModeHTTP: true, ServiceModeReportWorker: true},
		},
		{
			name:  "duplicates collapse",
			input: "http,http",
			want:  map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{name: "empty string", input: "", wantErr: true},
		{name: "only commas", input: ",,", wantErr: true},
		{name: "unknown service", input: "http,mailer", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseServices(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestServiceFlags(t *testing.T) {
	cfg := AppConfig{Services: "http"}
	assert.True(t, cfg.IsHTTPServerEnabled())
	assert.False(t, cfg.IsReportWorkerEnabled())

	cfg.Services = "bogus"
	assert.False(t, cfg.IsHTTPServerEnabled())
	assert.False(t, cfg.IsReportWorkerEnabled())
}

func TestReportConfigSanitize(t *testing.T) {
	r := ReportConfig{Dir: "", Concurrency: 0, PollInterval: 0}
	r.Sanitize()
	assert.Equal(t, "reports", r.Dir)
	assert.Equal(t, 1, r.Concurrency)
	assert.Equal(t, time.Second, r.PollInterval)
	assert.Equal(t, time.Minute, r.RunTimeout)

	r = ReportConfig{Dir: "out", Concurrency: 500, PollInterval: time.Minute, RunTimeout: 30 * time.Minute}
	r.Sanitize()
	assert.Equal(t, "out", r.Dir)
	assert.Equal(t, 64, r.Concurrency)
	assert.Equal(t, time.Minute, r.PollInterval)
	assert.Equal(t, 30*time.Minute, r.RunTimeout)
}

func TestObservabilityMetricsSanitize(t *testing.T) {
	m := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: " statsd:8125 "}
	m.Sanitize()
	assert.Equal(t, "statsd:8125", m.StatsdAddress)
	assert.True(t, m.IsEnabled())

	m = ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "   "}
	m.Sanitize()
	assert.False(t, m.IsEnabled())
}

func TestDetectDevMode(t *testing.T) {
	cfg := AppConfig{}
	t.Setenv("NODE_ENV", "development")
	cfg.Sanitize()
	assert.True(t, cfg.IsDev)
}
