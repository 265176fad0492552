// Package data provides the Postgres and Redis adapters behind the core ports.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/loopkitchen/storewatch/internal/data/pgxutil"
	"github.com/loopkitchen/storewatch/internal/domain/model"
	apperrors "github.com/loopkitchen/storewatch/internal/errors"
)

// reportNotifyChannel announces freshly created reports to waiting workers.
const reportNotifyChannel = "report_created"

// createRetryAttempts bounds the create-or-return loop for the rare race
// where the active report reaches a terminal state between our failed insert
// and the follow-up read.
const createRetryAttempts = 3

// Advisory lock namespace for the stale-report sweep.
// Using two-arg pg_try_advisory_xact_lock(major, minor) for proper namespacing.
// Major key 1000 is reserved for storewatch sweep operations.
const (
	advisoryLockSweepMajor        = 1000
	advisoryLockSweepStaleRunning = 1 // minor key for FailStaleRunning
)

// staleRunningError is recorded on reports failed by the stale sweep.
const staleRunningError = "report timed out in RUNNING status"

// ReportRepoConfig holds configuration options for the report repository.
type ReportRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// ReportRepo provides database operations for the report job lifecycle.
type ReportRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewReportRepo creates a ReportRepo with the given database connection and configuration.
func NewReportRepo(db *sql.DB, cfg ReportRepoConfig) *ReportRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &ReportRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const reportColumns = `
  report_id,
  status,
  result_url,
  last_error,
  created_at,
  updated_at
`

// SQL used by ClaimPending to atomically move the waiting report to RUNNING.
const claimPendingSQL = `
  WITH cte AS (
    SELECT report_id FROM reports
    WHERE status = 'PENDING'
    ORDER BY created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE reports r
  SET status = 'RUNNING', updated_at = $1
  FROM cte
  WHERE r.report_id = cte.report_id
  RETURNING r.report_id, r.status, r.result_url, r.last_error, r.created_at, r.updated_at`

// CreateIfNoneActive creates a new PENDING report unless one is already
// active. The one-active-row rule is enforced by the partial unique index on
// reports; a concurrent loser sees a unique violation and returns the row
// that won.
func (r *ReportRepo) CreateIfNoneActive(ctx context.Context) (*model.Report, bool, error) {
	for attempt := 0; attempt < createRetryAttempts; attempt++ {
		report, err := r.insertPending(ctx)
		if err == nil {
			return report, true, nil
		}
		if !apperrors.IsConflict(apperrors.MapDBError(err)) {
			return nil, false, fmt.Errorf("create report: %w", err)
		}

		// Lost the single-flight race; hand back the active report.
		existing, getErr := r.getActive(ctx)
		if getErr == nil {
			return existing, false, nil
		}
		if !errors.Is(getErr, ErrReportNotFound) {
			return nil, false, fmt.Errorf("load active report: %w", getErr)
		}
		// The active report finished in between; try inserting again.
	}
	return nil, false, errors.New("create report: lost the active-report race repeatedly")
}

func (r *ReportRepo) insertPending(ctx context.Context) (*model.Report, error) {
	now := r.timeProvider.Now().UTC()
	id := uuid.NewString()

	var report *model.Report
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			rows, qerr := tx.Query(ctx, `
				INSERT INTO reports (report_id, status, created_at, updated_at)
				VALUES ($1, 'PENDING', $2, $2)
				RETURNING `+reportColumns, id, now)
			if qerr != nil {
				return qerr
			}
			rep, cerr := collectReportFromRows(rows)
			rows.Close()
			if cerr != nil {
				return cerr
			}

			if _, nerr := tx.Exec(ctx, `SELECT pg_notify($1::text, $2::text)`, reportNotifyChannel, rep.ReportID); nerr != nil {
				return fmt.Errorf("send report notification: %w", nerr)
			}

			report = rep
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	if r.logger != nil {
		r.logger.DebugContext(ctx, "report created", "report_id", report.ReportID)
	}
	return report, nil
}

func (r *ReportRepo) getActive(ctx context.Context) (*model.Report, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE status IN ('PENDING', 'RUNNING')
		ORDER BY created_at DESC
		LIMIT 1
	`)
	report, err := scanReportFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active report: %w", err)
	}
	return report, nil
}

// GetByID retrieves a report by its id.
func (r *ReportRepo) GetByID(ctx context.Context, reportID string) (*model.Report, error) {
	var report *model.Report
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, `
			SELECT `+reportColumns+`
			FROM reports
			WHERE report_id = $1
		`, reportID)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		rep, cerr := collectReportFromRows(rows)
		if cerr != nil {
			return cerr
		}
		report = rep
		return nil
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

// ClaimPending atomically reserves the pending report for execution.
func (r *ReportRepo) ClaimPending(ctx context.Context) (*model.Report, error) {
	var report *model.Report
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			rows, qerr := tx.Query(ctx, claimPendingSQL, r.timeProvider.Now().UTC())
			if qerr != nil {
				return fmt.Errorf("claim report: %w", qerr)
			}
			defer rows.Close()

			rep, cerr := collectReportFromRows(rows)
			if errors.Is(cerr, pgx.ErrNoRows) {
				return ErrNoReportsPending
			}
			if cerr != nil {
				return fmt.Errorf("claim report: %w", cerr)
			}
			report = rep
			return nil
		},
	})
	if err != nil {
		if errors.Is(err, ErrNoReportsPending) {
			return nil, ErrNoReportsPending
		}
		return nil, err
	}
	return report, nil
}

// MarkRunning applies PENDING → RUNNING. Reports in any other state are left
// untouched; duplicate deliveries observe (false, nil).
func (r *ReportRepo) MarkRunning(ctx context.Context, reportID string) (bool, error) {
	return r.guardedTransition(ctx, `
		UPDATE reports
		SET status = 'RUNNING', updated_at = $2
		WHERE report_id = $1 AND status = 'PENDING'
	`, reportID)
}

// MarkCompleted applies RUNNING → COMPLETED with the artifact address.
func (r *ReportRepo) MarkCompleted(ctx context.Context, reportID, resultURL string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE reports
		SET status = 'COMPLETED', result_url = $2, last_error = NULL, updated_at = $3
		WHERE report_id = $1 AND status = 'RUNNING'
	`, reportID, resultURL, now)
	if err != nil {
		return false, fmt.Errorf("complete report: %w", err)
	}
	return rowsChanged(res)
}

// MarkFailed applies RUNNING → FAILED with the recorded error.
func (r *ReportRepo) MarkFailed(ctx context.Context, reportID, errMsg string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE reports
		SET status = 'FAILED', last_error = $2, updated_at = $3
		WHERE report_id = $1 AND status = 'RUNNING'
	`, reportID, errMsg, now)
	if err != nil {
		return false, fmt.Errorf("fail report: %w", err)
	}
	return rowsChanged(res)
}

func (r *ReportRepo) guardedTransition(ctx context.Context, query, reportID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, query, reportID, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("transition report: %w", err)
	}
	return rowsChanged(res)
}

// FailStaleRunning marks RUNNING reports whose updated_at is older than
// maxAge as FAILED. A worker that dies between claiming and finishing would
// otherwise hold the single-flight slot forever. Uses an advisory lock so
// concurrent workers never sweep at the same time. Returns the number of
// reports failed.
func (r *ReportRepo) FailStaleRunning(ctx context.Context, maxAge time.Duration) (int64, error) {
	var reaped int64
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var locked bool
			if lockErr := tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1, $2)`,
				advisoryLockSweepMajor, advisoryLockSweepStaleRunning).Scan(&locked); lockErr != nil {
				return fmt.Errorf("acquire advisory lock: %w", lockErr)
			}
			if !locked {
				return nil
			}

			now := r.timeProvider.Now().UTC()
			tag, execErr := tx.Exec(ctx, `
				UPDATE reports
				SET status = 'FAILED', last_error = $1, updated_at = $2
				WHERE status = 'RUNNING' AND updated_at < $3
			`, staleRunningError, now, now.Add(-maxAge))
			if execErr != nil {
				return fmt.Errorf("fail stale reports: %w", execErr)
			}
			reaped = tag.RowsAffected()
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	if reaped > 0 && r.logger != nil {
		r.logger.WarnContext(ctx, "failed stale running reports", "count", reaped)
	}
	return reaped, nil
}

func rowsChanged(res sql.Result) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns reports newest first.
func (r *ReportRepo) List(ctx context.Context, limit, offset int) ([]*model.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var reports []*model.Report
	for rows.Next() {
		report, scanErr := scanReportFromRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan report: %w", scanErr)
		}
		reports = append(reports, report)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list reports: %w", rowsErr)
	}
	return reports, nil
}

// WaitForNotification blocks until a new report is announced on the
// notification channel or the context ends.
func (r *ReportRepo) WaitForNotification(ctx context.Context) error {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			_ = cerr
		}
	}()

	quoted := pgx.Identifier{reportNotifyChannel}.Sanitize()
	if _, execErr := conn.ExecContext(ctx, "LISTEN "+quoted); execErr != nil {
		return fmt.Errorf("listen %s: %w", reportNotifyChannel, execErr)
	}
	defer func() {
		if _, execErr := conn.ExecContext(context.Background(), "UNLISTEN "+quoted); execErr != nil {
			_ = execErr
		}
	}()

	return conn.Raw(func(dc any) error {
		sc, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		_, notifyErr := sc.Conn().WaitForNotification(ctx)
		return notifyErr
	})
}

// collectReportFromRows collects a single report from pgx rows.
func collectReportFromRows(rows pgx.Rows) (*model.Report, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	report, err := scanReportFromRow(rows)
	if err != nil {
		return nil, err
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return report, nil
}

type reportRowScanner interface {
	Scan(dest ...any) error
}

func scanReportFromRow(scanner reportRowScanner) (*model.Report, error) {
	var (
		report               model.Report
		resultURL, lastError sql.NullString
	)
	if err := scanner.Scan(
		&report.ReportID,
		&report.Status,
		&resultURL,
		&lastError,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		return nil, err
	}

	report.ResultURL = cloneNullableString(resultURL)
	report.LastError = cloneNullableString(lastError)
	report.CreatedAt = report.CreatedAt.UTC()
	report.UpdatedAt = report.UpdatedAt.UTC()
	return &report, nil
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
