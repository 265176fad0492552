package config

import "time"

// ReportConfig contains report generation configuration.
type ReportConfig struct {
	// Dir is the directory finished CSV artifacts are written to and served
	// from.
	Dir string `env:"REPORT_DIR" envDefault:"reports"`

	// Concurrency is the number of stores computed in parallel per run.
	Concurrency int `env:"REPORT_CONCURRENCY" envDefault:"8"`

	// DefaultTimezone is the zone assumed for stores without a timezone feed
	// record.
	DefaultTimezone string `env:"REPORT_DEFAULT_TIMEZONE" envDefault:"America/Chicago"`

	// PollInterval caps how long the worker waits on a notification before
	// re-checking for claimable reports.
	PollInterval time.Duration `env:"REPORT_POLL_INTERVAL" envDefault:"30s"`

	// RunTimeout is the age past which a RUNNING report is declared FAILED.
	// A worker crash mid-run would otherwise hold the single-flight slot
	// forever.
	RunTimeout time.Duration `env:"REPORT_RUN_TIMEOUT" envDefault:"15m"`
}

// Sanitize applies guardrails to report configuration values.
func (r *ReportConfig) Sanitize() {
	if r.Dir == "" {
		r.Dir = "reports"
	}
	if r.Concurrency < 1 {
		r.Concurrency = 1
	}
	if r.Concurrency > 64 {
		r.Concurrency = 64
	}
	if r.PollInterval < time.Second {
		r.PollInterval = time.Second
	}
	if r.RunTimeout < time.Minute {
		r.RunTimeout = time.Minute
	}
}
