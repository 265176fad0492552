package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loopkitchen/storewatch/internal/core"
	"github.com/loopkitchen/storewatch/internal/domain/model"
	"github.com/loopkitchen/storewatch/internal/domain/uptime"
	"github.com/loopkitchen/storewatch/internal/observability/metrics"
	"github.com/loopkitchen/storewatch/internal/observability/statsd"
	"github.com/loopkitchen/storewatch/internal/service"
)

// defaultConcurrency bounds the per-store workers when no limit is configured.
const defaultConcurrency = 8

// WriterOptions groups dependencies for Writer.
type WriterOptions struct {
	Observations core.ObservationRepository // Required: status poll feed
	Catalog      *service.CatalogService    // Required: schedule and timezone resolution
	Store        ArtifactStore              // Required: artifact persistence
	Concurrency  int                        // Optional: per-store worker limit
	Metrics      statsd.Sink                // Optional: metrics sink
	Logger       *slog.Logger               // Optional: structured logger
}

// Writer computes the full report: every store known to any feed gets one
// row, computed against the shared reference instant. Implements
// core.ReportGenerator.
type Writer struct {
	observations core.ObservationRepository
	catalog      *service.CatalogService
	store        ArtifactStore
	concurrency  int
	metrics      statsd.Sink
	logger       *slog.Logger
}

// NewWriter constructs a new Writer.
func NewWriter(opts WriterOptions) (*Writer, error) {
	if opts.Observations == nil {
		return nil, errors.New("ObservationRepository is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("CatalogService is required")
	}
	if opts.Store == nil {
		return nil, errors.New("ArtifactStore is required")
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "report_writer")
	}

	return &Writer{
		observations: opts.Observations,
		catalog:      opts.Catalog,
		store:        opts.Store,
		concurrency:  concurrency,
		metrics:      opts.Metrics,
		logger:       logger,
	}, nil
}

// Generate computes every store's metrics and persists the artifact,
// returning its internal address. Any single store failing fails the whole
// run; a partial report would silently misrepresent the fleet.
func (w *Writer) Generate(ctx context.Context, reportID string) (string, error) {
	started := time.Now()

	// The feed is static between ingests, so its newest poll is the reference
	// instant every trailing window ends at.
	now, err := w.observations.LatestTimestamp(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve reference instant: %w", err)
	}

	storeIDs, err := w.catalog.StoreIDs(ctx)
	if err != nil {
		return "", fmt.Errorf("list stores: %w", err)
	}

	rows := make([]model.UptimeRow, len(storeIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, storeID := range storeIDs {
		g.Go(func() error {
			row, rowErr := w.computeStore(gctx, now, storeID)
			if rowErr != nil {
				return fmt.Errorf("store %s: %w", storeID, rowErr)
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	address, err := w.store.Write(ctx, reportID, rows)
	if err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	metrics.EmitReportStores(w.metrics, len(rows))

	if w.logger != nil {
		w.logger.InfoContext(ctx, "report generated",
			"report_id", reportID,
			"stores", len(rows),
			"reference_instant", now,
			"elapsed", time.Since(started),
		)
	}
	return address, nil
}

func (w *Writer) computeStore(ctx context.Context, now time.Time, storeID string) (model.UptimeRow, error) {
	loc, err := w.catalog.ResolveLocation(ctx, storeID)
	if err != nil {
		return model.UptimeRow{}, err
	}
	schedule, err := w.catalog.ResolveSchedule(ctx, storeID)
	if err != nil {
		return model.UptimeRow{}, err
	}

	// One fetch covers all three windows; the week window contains the rest.
	from := now.Add(-uptime.WindowLastWeek.Span)
	observations, err := w.observations.ListByStore(ctx, storeID, from, now)
	if err != nil {
		return model.UptimeRow{}, err
	}

	in := uptime.Input{
		Now:          now,
		Location:     loc,
		Schedule:     schedule,
		Observations: observations,
	}
	return uptime.ComputeRow(storeID, in), nil
}
