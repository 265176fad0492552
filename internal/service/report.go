// Package service contains the business logic between the HTTP layer and the
// data adapters.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/loopkitchen/storewatch/internal/core"
	"github.com/loopkitchen/storewatch/internal/data"
	"github.com/loopkitchen/storewatch/internal/domain/model"
	apperrors "github.com/loopkitchen/storewatch/internal/errors"
	"github.com/loopkitchen/storewatch/internal/observability/metrics"
	"github.com/loopkitchen/storewatch/internal/observability/statsd"
)

// Advisory Retry-After hints handed to clients, in seconds.
const (
	// RetryAfterNew is suggested after a fresh report is accepted.
	RetryAfterNew = 60
	// RetryAfterExisting is suggested when a trigger joins an in-flight report.
	RetryAfterExisting = 30
	// RetryAfterPolling is suggested when polling a non-terminal report.
	RetryAfterPolling = 15
)

// ReportServiceOptions groups dependencies for ReportService.
type ReportServiceOptions struct {
	Repo    core.ReportRepository // Required: report repository
	Metrics statsd.Sink           // Optional: metrics sink
	Logger  *slog.Logger          // Optional: structured logger
}

// ReportService drives the report job lifecycle: trigger, poll, and the
// worker-side state transitions.
type ReportService struct {
	repo    core.ReportRepository
	metrics statsd.Sink
	logger  *slog.Logger
}

// NewReportService constructs a new ReportService.
func NewReportService(opts ReportServiceOptions) (*ReportService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReportRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "report_service")
	}

	return &ReportService{
		repo:    opts.Repo,
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// MustNewReportService constructs a new ReportService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewReportService(opts ReportServiceOptions) *ReportService {
	svc, err := NewReportService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ReportService: %v", err))
	}
	return svc
}

// TriggerResult is the outcome of a trigger request.
type TriggerResult struct {
	Report *model.Report
	// Created reports whether this call started a new report run, as opposed
	// to joining one already in flight.
	Created bool
	// RetryAfter is the advisory poll delay, in seconds.
	RetryAfter int
	Message    string
}

// Trigger starts a new report run, or returns the run already in flight.
// Triggering is idempotent while a report is PENDING or RUNNING.
func (s *ReportService) Trigger(ctx context.Context) (*TriggerResult, error) {
	report, created, err := s.repo.CreateIfNoneActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("trigger report: %w", err)
	}

	result := &TriggerResult{Report: report, Created: created}
	if created {
		result.RetryAfter = RetryAfterNew
		result.Message = "Report generation started"
	} else {
		result.RetryAfter = RetryAfterExisting
		result.Message = "Report generation already in progress"
	}
	metrics.EmitTrigger(s.metrics, created)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "report triggered",
			"report_id", report.ReportID,
			"status", report.Status,
			"created", created,
		)
	}

	return result, nil
}

// PollResult is the outcome of a status poll.
type PollResult struct {
	Report *model.Report
	// RetryAfter is the advisory poll delay in seconds, 0 once terminal.
	RetryAfter int
}

// Poll returns the report's current state. Unknown and malformed ids both
// surface as NotFound so callers cannot distinguish them.
func (s *ReportService) Poll(ctx context.Context, reportID string) (*PollResult, error) {
	if _, err := uuid.Parse(reportID); err != nil {
		return nil, apperrors.NotFound(fmt.Sprintf("Report %s not found", reportID))
	}

	report, err := s.repo.GetByID(ctx, reportID)
	if errors.Is(err, data.ErrReportNotFound) {
		return nil, apperrors.NotFound(fmt.Sprintf("Report %s not found", reportID))
	}
	if err != nil {
		return nil, fmt.Errorf("poll report %s: %w", reportID, err)
	}

	result := &PollResult{Report: report}
	if report.Status.Active() {
		result.RetryAfter = RetryAfterPolling
	}
	return result, nil
}

// List returns recent reports, newest first.
func (s *ReportService) List(ctx context.Context, limit, offset int) ([]*model.Report, error) {
	reports, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// ClaimPending reserves the pending report for execution, or returns
// data.ErrNoReportsPending.
func (s *ReportService) ClaimPending(ctx context.Context) (*model.Report, error) {
	report, err := s.repo.ClaimPending(ctx)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "report claimed", "report_id", report.ReportID)
	}
	return report, nil
}

// MarkCompleted records a successful run and the artifact address.
func (s *ReportService) MarkCompleted(ctx context.Context, reportID, resultURL string) (bool, error) {
	completed, err := s.repo.MarkCompleted(ctx, reportID, resultURL)
	if err != nil {
		return false, fmt.Errorf("complete report %s: %w", reportID, err)
	}

	if s.logger != nil && completed {
		s.logger.InfoContext(ctx, "report completed", "report_id", reportID, "result_url", resultURL)
	}
	return completed, nil
}

// MarkFailed records a failed run with the error message.
func (s *ReportService) MarkFailed(ctx context.Context, reportID, errMsg string) (bool, error) {
	if errMsg == "" {
		return false, errors.New("error message required")
	}

	failed, err := s.repo.MarkFailed(ctx, reportID, errMsg)
	if err != nil {
		return false, fmt.Errorf("fail report %s: %w", reportID, err)
	}

	if s.logger != nil && failed {
		s.logger.WarnContext(ctx, "report failed", "report_id", reportID, "error", errMsg)
	}
	return failed, nil
}

// FailStale marks RUNNING reports untouched for longer than maxAge as FAILED.
// This frees the single-flight slot after a worker crash mid-run; without it
// a dead worker's report would block every future trigger.
func (s *ReportService) FailStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, errors.New("max age must be greater than zero")
	}

	reaped, err := s.repo.FailStaleRunning(ctx, maxAge)
	if err != nil {
		return 0, fmt.Errorf("fail stale reports: %w", err)
	}

	if s.logger != nil && reaped > 0 {
		s.logger.WarnContext(ctx, "stale running reports failed", "count", reaped, "max_age", maxAge)
	}
	return reaped, nil
}

// WaitForNotification blocks until a new report is announced or the context
// ends.
func (s *ReportService) WaitForNotification(ctx context.Context) error {
	return s.repo.WaitForNotification(ctx)
}
