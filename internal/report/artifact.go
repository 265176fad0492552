// Package report produces the uptime report artifact for a claimed report
// run: one CSV row per store, computed over the trailing windows.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/loopkitchen/storewatch/internal/domain/model"
)

// ArtifactStore persists a finished report and returns its internal address.
type ArtifactStore interface {
	Write(ctx context.Context, reportID string, rows []model.UptimeRow) (string, error)
}

// csvHeader is the artifact column order. Hour columns are minutes, day and
// week columns are hours.
var csvHeader = []string{
	"store_id",
	"uptime_last_hour",
	"uptime_last_day",
	"uptime_last_week",
	"downtime_last_hour",
	"downtime_last_day",
	"downtime_last_week",
}

// CSVStore writes report artifacts as CSV files on local disk, addressed by
// file:// URLs.
type CSVStore struct {
	// Dir is the directory artifacts are written to; created on first write.
	Dir string
}

// NewCSVStore creates a CSVStore rooted at dir.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{Dir: dir}
}

// Write stores the rows as <dir>/<reportID>.csv and returns its file:// URL.
// The file is written to a temp name first and renamed so a crashed run never
// leaves a readable partial artifact behind.
func (s *CSVStore) Write(ctx context.Context, reportID string, rows []model.UptimeRow) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	final := filepath.Join(s.Dir, reportID+".csv")
	tmp, err := os.CreateTemp(s.Dir, reportID+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err := writeCSV(tmp, rows); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("publish report file: %w", err)
	}

	abs, err := filepath.Abs(final)
	if err != nil {
		return "", fmt.Errorf("resolve report path: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

func writeCSV(f *os.File, rows []model.UptimeRow) error {
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.StoreID,
			formatMetric(row.UptimeLastHour),
			formatMetric(row.UptimeLastDay),
			formatMetric(row.UptimeLastWeek),
			formatMetric(row.DowntimeLastHour),
			formatMetric(row.DowntimeLastDay),
			formatMetric(row.DowntimeLastWeek),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// PublicURLPath is the HTTP path prefix report artifacts are served under.
const PublicURLPath = "/files/reports/"

// PublicURL converts an internal artifact address to the path clients can
// download it from. Non-file addresses pass through untouched so a future
// object-store backend can hand out its own URLs.
func PublicURL(address string) string {
	if !strings.HasPrefix(address, "file://") {
		return address
	}
	return PublicURLPath + path.Base(strings.TrimPrefix(address, "file://"))
}
