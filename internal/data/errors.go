package data

import "errors"

var (
	// ErrReportNotFound is returned when a report id has no row.
	ErrReportNotFound = errors.New("report not found")
	// ErrNoReportsPending is returned by ClaimPending when no report is waiting.
	ErrNoReportsPending = errors.New("no reports pending")
	// ErrNoObservations is returned when the status feed is empty and no
	// reference instant can be derived.
	ErrNoObservations = errors.New("store status feed is empty")
)
