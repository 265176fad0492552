// Package uptime reconstructs a store's activity timeline from sparse status
// polls and integrates it over local business hours. Everything in this
// package is pure: inputs in, durations out, no clocks and no I/O.
package uptime

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/loopkitchen/storewatch/internal/domain/model"
)

const day = 24 * time.Hour

// localInterval is an open interval within one local day, expressed as
// offsets from local midnight. Start < End always holds; wrapping intervals
// are split during schedule construction.
type localInterval struct {
	Start time.Duration
	End   time.Duration
}

// Schedule holds a store's weekly business hours, indexed 0 = Monday through
// 6 = Sunday to match the catalog feed.
type Schedule struct {
	days       [7][]localInterval
	alwaysOpen bool
}

// DefaultSchedule returns the fallback schedule for stores with no business
// hours on record: open the full day, every day.
func DefaultSchedule() Schedule {
	var s Schedule
	s.alwaysOpen = true
	for d := range s.days {
		s.days[d] = []localInterval{{Start: 0, End: day}}
	}
	return s
}

// AlwaysOpen reports whether this schedule is the 24x7 default.
func (s Schedule) AlwaysOpen() bool { return s.alwaysOpen }

// NewSchedule builds a weekly schedule from catalog rows. Rows whose end time
// is at or before the start time wrap past midnight and are split into an
// evening segment and a next-morning segment. Overlapping intervals within a
// day are merged. An empty row set yields the 24x7 default.
func NewSchedule(rows []model.BusinessHoursInterval) (Schedule, error) {
	if len(rows) == 0 {
		return DefaultSchedule(), nil
	}

	var s Schedule
	for _, row := range rows {
		if row.Weekday < 0 || row.Weekday > 6 {
			return Schedule{}, fmt.Errorf("business hours weekday out of range: %d", row.Weekday)
		}
		start, err := parseLocalTime(row.StartLocal)
		if err != nil {
			return Schedule{}, fmt.Errorf("parse start time %q: %w", row.StartLocal, err)
		}
		end, err := parseLocalTime(row.EndLocal)
		if err != nil {
			return Schedule{}, fmt.Errorf("parse end time %q: %w", row.EndLocal, err)
		}

		if end > start {
			s.days[row.Weekday] = append(s.days[row.Weekday], localInterval{Start: start, End: end})
			continue
		}

		// Wraps past midnight: evening on this weekday, morning on the next.
		s.days[row.Weekday] = append(s.days[row.Weekday], localInterval{Start: start, End: day})
		if end > 0 {
			next := (row.Weekday + 1) % 7
			s.days[next] = append(s.days[next], localInterval{Start: 0, End: end})
		}
	}

	for d := range s.days {
		s.days[d] = mergeLocal(s.days[d])
	}
	return s, nil
}

// intervalsOn returns the open intervals for the given local calendar day.
func (s Schedule) intervalsOn(weekday time.Weekday) []localInterval {
	return s.days[mondayIndex(weekday)]
}

// mondayIndex converts time.Weekday (Sunday = 0) to the feed's Monday = 0.
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// parseLocalTime parses "HH:MM" or "HH:MM:SS" into an offset from midnight.
func parseLocalTime(raw string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("expected HH:MM[:SS], got %q", raw)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	sec := 0
	if len(parts) == 3 {
		sec, err = strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid second in %q", raw)
		}
	}

	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

func mergeLocal(ivals []localInterval) []localInterval {
	if len(ivals) < 2 {
		return ivals
	}
	sort.Slice(ivals, func(i, j int) bool { return ivals[i].Start < ivals[j].Start })

	out := ivals[:1]
	for _, iv := range ivals[1:] {
		last := &out[len(out)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
