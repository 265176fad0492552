package uptime

import (
	"math"
	"sort"
	"time"

	"github.com/loopkitchen/storewatch/internal/domain/model"
)

// Window is one trailing aggregation window ending at the reference instant.
type Window struct {
	Name string
	Span time.Duration
	// Unit is the duration represented by 1.0 in the reported numbers:
	// a minute for the hour window, an hour for the day and week windows.
	Unit time.Duration
}

// The three windows every report covers.
var (
	WindowLastHour = Window{Name: "last_hour", Span: time.Hour, Unit: time.Minute}
	WindowLastDay  = Window{Name: "last_day", Span: 24 * time.Hour, Unit: time.Hour}
	WindowLastWeek = Window{Name: "last_week", Span: 7 * 24 * time.Hour, Unit: time.Hour}
)

// Windows returns the report windows in artifact column order.
func Windows() []Window {
	return []Window{WindowLastHour, WindowLastDay, WindowLastWeek}
}

// Input carries everything needed to compute one store's metrics. Observations
// must be sorted ascending by timestamp; out-of-window samples are ignored.
type Input struct {
	// Now is the reference instant the trailing windows end at.
	Now time.Time
	// Location is the store's resolved local timezone.
	Location *time.Location
	// Schedule is the store's resolved business hours.
	Schedule Schedule
	// Observations are the store's status polls, ascending by time.
	Observations []model.Observation
}

// Result holds uptime and downtime for one window, already converted to the
// window's unit and rounded to two decimals. Uptime + Downtime always equals
// the business-hours budget intersecting the window.
type Result struct {
	Uptime   float64
	Downtime float64
}

// interval is an absolute half-open time span [Start, End).
type interval struct {
	Start time.Time
	End   time.Time
}

func (iv interval) duration() time.Duration { return iv.End.Sub(iv.Start) }

// Compute evaluates one trailing window for one store.
//
// The activity timeline is reconstructed per business interval: a poll's
// status persists until superseded by the next poll, the stretch before the
// first poll inside an interval backward-fills from that poll, and an
// interval with no polls at all counts as fully active. Time outside
// business hours contributes to neither metric.
func Compute(in Input, w Window) Result {
	windowStart := in.Now.Add(-w.Span)

	intervals := businessIntervals(in.Schedule, in.Location, windowStart, in.Now)

	var budget, up time.Duration
	for _, iv := range intervals {
		budget += iv.duration()
		up += activeWithin(iv, in.Observations)
	}

	uptime := roundTwo(float64(up) / float64(w.Unit))
	downtime := roundTwo(float64(budget-up) / float64(w.Unit))
	return Result{Uptime: uptime, Downtime: downtime}
}

// ComputeRow evaluates all report windows for one store.
func ComputeRow(storeID string, in Input) model.UptimeRow {
	hour := Compute(in, WindowLastHour)
	d := Compute(in, WindowLastDay)
	week := Compute(in, WindowLastWeek)

	return model.UptimeRow{
		StoreID:          storeID,
		UptimeLastHour:   hour.Uptime,
		UptimeLastDay:    d.Uptime,
		UptimeLastWeek:   week.Uptime,
		DowntimeLastHour: hour.Downtime,
		DowntimeLastDay:  d.Downtime,
		DowntimeLastWeek: week.Downtime,
	}
}

// businessIntervals expands the weekly schedule into absolute intervals
// intersecting [from, to), clipped to those bounds, merged and sorted.
func businessIntervals(s Schedule, loc *time.Location, from, to time.Time) []interval {
	if !from.Before(to) {
		return nil
	}

	var out []interval

	// Walk one local day beyond each bound so intervals that start before the
	// window or wrap in from the previous day are not missed.
	cursor := from.In(loc).AddDate(0, 0, -1)
	cursor = time.Date(cursor.Year(), cursor.Month(), cursor.Day(), 0, 0, 0, 0, loc)
	end := to.In(loc).AddDate(0, 0, 1)

	for d := cursor; d.Before(end); d = d.AddDate(0, 0, 1) {
		for _, li := range s.intervalsOn(d.Weekday()) {
			// Local times are fixed offsets from local midnight; on a DST
			// transition day a 09:00 open lands an hour off in wall-clock
			// terms. Matches the feed's minute-granular convention.
			iv := interval{Start: d.Add(li.Start), End: d.Add(li.End)}
			if iv.Start.Before(from) {
				iv.Start = from
			}
			if iv.End.After(to) {
				iv.End = to
			}
			if iv.Start.Before(iv.End) {
				out = append(out, iv)
			}
		}
	}

	return mergeIntervals(out)
}

func mergeIntervals(ivals []interval) []interval {
	if len(ivals) < 2 {
		return ivals
	}
	sort.Slice(ivals, func(i, j int) bool { return ivals[i].Start.Before(ivals[j].Start) })

	out := ivals[:1]
	for _, iv := range ivals[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// activeWithin integrates active time over one business interval using the
// polls that fall inside it.
func activeWithin(iv interval, obs []model.Observation) time.Duration {
	inside := obs[:0:0]
	for _, o := range obs {
		if !o.Timestamp.Before(iv.Start) && o.Timestamp.Before(iv.End) {
			inside = append(inside, o)
		}
	}

	// No polls: the optimistic default counts the whole interval as active.
	if len(inside) == 0 {
		return iv.duration()
	}

	var active time.Duration
	cursor := iv.Start
	status := inside[0].Status // backward-fill ahead of the first poll
	for _, o := range inside {
		if o.Timestamp.After(cursor) {
			if status == model.StoreStatusActive {
				active += o.Timestamp.Sub(cursor)
			}
			cursor = o.Timestamp
		}
		status = o.Status
	}
	if iv.End.After(cursor) && status == model.StoreStatusActive {
		active += iv.End.Sub(cursor)
	}
	return active
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
