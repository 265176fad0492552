// Package model defines the core data types and structures used throughout the storewatch reporting system.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ReportStatus represents the current status of a report job.
type ReportStatus string

const (
	// ReportStatusPending indicates a report is waiting to be picked up by a worker.
	ReportStatusPending ReportStatus = "PENDING"
	// ReportStatusRunning indicates a report is currently being generated.
	ReportStatusRunning ReportStatus = "RUNNING"
	// ReportStatusCompleted indicates a report finished successfully and has an artifact.
	ReportStatusCompleted ReportStatus = "COMPLETED"
	// ReportStatusFailed indicates report generation failed.
	ReportStatusFailed ReportStatus = "FAILED"
)

// UnmarshalText implements encoding.TextUnmarshaler for ReportStatus.
func (s *ReportStatus) UnmarshalText(text []byte) error {
	v := ReportStatus(strings.ToUpper(strings.TrimSpace(string(text))))
	if v.Valid() {
		*s = v
		return nil
	}
	return fmt.Errorf("invalid ReportStatus: %q", string(text))
}

// Valid returns true if the ReportStatus is a known status value.
func (s ReportStatus) Valid() bool {
	return s == ReportStatusPending || s == ReportStatusRunning ||
		s == ReportStatusCompleted || s == ReportStatusFailed
}

// Terminal returns true once a report can no longer change state.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusCompleted || s == ReportStatusFailed
}

// Active returns true while a report still occupies the single-flight slot.
func (s ReportStatus) Active() bool {
	return s == ReportStatusPending || s == ReportStatusRunning
}

// CanTransitionTo reports whether the state machine permits moving to next.
// Allowed: PENDING -> RUNNING -> {COMPLETED, FAILED}. Everything else is rejected.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	switch s {
	case ReportStatusPending:
		return next == ReportStatusRunning
	case ReportStatusRunning:
		return next == ReportStatusCompleted || next == ReportStatusFailed
	default:
		return false
	}
}

// Report represents a report job row with its lifecycle metadata.
type Report struct {
	ReportID  string       `json:"report_id"            db:"report_id"`
	Status    ReportStatus `json:"status"               db:"status"`
	ResultURL *string      `json:"result_url,omitempty" db:"result_url"`
	LastError *string      `json:"last_error,omitempty" db:"last_error"`
	CreatedAt time.Time    `json:"created_at"           db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"           db:"updated_at"`
}
