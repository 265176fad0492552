// Package reportrunner provides the worker adapter that executes claimed
// report runs.
package reportrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loopkitchen/storewatch/internal/core"
	"github.com/loopkitchen/storewatch/internal/data"
	"github.com/loopkitchen/storewatch/internal/domain/model"
	"github.com/loopkitchen/storewatch/internal/observability/metrics"
	"github.com/loopkitchen/storewatch/internal/observability/statsd"
	"github.com/loopkitchen/storewatch/internal/service"
)

// RunnerOptions configures the report runner adapter.
type RunnerOptions struct {
	Reports   *service.ReportService // Required: report lifecycle service
	Generator core.ReportGenerator   // Required: report artifact writer

	// PollInterval caps how long a worker waits on a notification before
	// re-checking for claimable reports; defaults to 30s. The periodic check
	// covers reports created while no listener connection was up.
	PollInterval time.Duration

	// RunTimeout is the age past which a RUNNING report is declared FAILED by
	// the stale sweep. A worker crash mid-run would otherwise hold the
	// single-flight slot forever. Zero disables the sweep.
	RunTimeout time.Duration

	// Metrics receives run outcome metrics when configured.
	Metrics statsd.Sink

	Logger *slog.Logger
}

// Runner drains pending reports: claim, generate, record the outcome. One
// runner per process is enough because at most one report is in flight.
type Runner struct {
	reports      *service.ReportService
	generator    core.ReportGenerator
	pollInterval time.Duration
	runTimeout   time.Duration
	metrics      statsd.Sink
	logger       *slog.Logger
}

// NewRunner creates a new report runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Reports == nil {
		return nil, errors.New("ReportService is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("ReportGenerator is required")
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		reports:      opts.Reports,
		generator:    opts.Generator,
		pollInterval: pollInterval,
		runTimeout:   opts.RunTimeout,
		metrics:      opts.Metrics,
		logger:       logger.With("component", "report_runner"),
	}, nil
}

// Run processes reports until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting report runner", "poll_interval", r.pollInterval)

	for ctx.Err() == nil {
		r.sweepStale(ctx)

		report, err := r.reports.ClaimPending(ctx)
		switch {
		case err == nil:
			r.processReport(ctx, report)
		case errors.Is(err, data.ErrNoReportsPending):
			if waitErr := r.waitForWork(ctx); waitErr != nil {
				return nil
			}
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		default:
			r.logger.ErrorContext(ctx, "failed to claim report", "error", err)
			return err
		}
	}
	return ctx.Err()
}

// sweepStale fails reports stuck in RUNNING past the configured timeout.
// Sweep failures are logged and skipped; the next wake-up retries.
func (r *Runner) sweepStale(ctx context.Context) {
	if r.runTimeout <= 0 {
		return
	}
	if _, err := r.reports.FailStale(ctx, r.runTimeout); err != nil && ctx.Err() == nil {
		r.logger.ErrorContext(ctx, "stale report sweep failed", "error", err)
	}
}

// processReport runs one report to a terminal state.
func (r *Runner) processReport(ctx context.Context, report *model.Report) {
	r.logger.InfoContext(ctx, "processing report", "report_id", report.ReportID)
	start := time.Now()

	address, err := r.generator.Generate(ctx, report.ReportID)
	if err != nil {
		r.logger.ErrorContext(ctx, "report generation failed",
			"report_id", report.ReportID,
			"error", err,
			"elapsed", time.Since(start),
		)
		metrics.EmitReportRun(r.metrics, metrics.ReportRun{
			Result:   metrics.ResultFailure,
			Duration: time.Since(start),
		})
		if _, ferr := r.reports.MarkFailed(ctx, report.ReportID, err.Error()); ferr != nil {
			r.logger.ErrorContext(ctx, "failed to mark report as failed",
				"report_id", report.ReportID, "error", ferr)
		}
		return
	}

	completed, err := r.reports.MarkCompleted(ctx, report.ReportID, address)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to mark report as completed",
			"report_id", report.ReportID, "error", err)
		return
	}
	if !completed {
		// Someone else already moved the report out of RUNNING; nothing to do.
		r.logger.WarnContext(ctx, "report no longer running, completion skipped",
			"report_id", report.ReportID)
		return
	}

	metrics.EmitReportRun(r.metrics, metrics.ReportRun{
		Result:   metrics.ResultSuccess,
		Duration: time.Since(start),
	})
	r.logger.InfoContext(ctx, "report run finished",
		"report_id", report.ReportID,
		"result_url", address,
		"elapsed", time.Since(start),
	)
}

// waitForWork blocks until a new report is announced or the poll interval
// elapses. Only context cancellation is surfaced as an error.
func (r *Runner) waitForWork(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, r.pollInterval)
	defer cancel()

	err := r.reports.WaitForNotification(waitCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// Poll-interval fallback; go check for work anyway.
		return nil
	}

	r.logger.WarnContext(ctx, "notification wait failed, falling back to polling", "error", err)

	select {
	case <-ctx.Done():
		return fmt.Errorf("report runner stopped: %w", ctx.Err())
	case <-time.After(r.pollInterval):
		return nil
	}
}
