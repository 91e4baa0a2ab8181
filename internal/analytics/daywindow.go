// Package analytics buckets normalized records into local calendar days and
// computes day summaries. It is independent of any rendering.
package analytics

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"dropctl/internal/telemetry"
)

// DayWindow is a half-open local-calendar-day interval [Start, End).
// Boundaries are true wall-clock midnights, so on a daylight-saving
// transition day the window is 23 or 25 hours wide, never a fixed 86400s.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// WindowForDate builds the window for the calendar day containing the given
// date in loc. time.Date normalizes day+1 across month, year, and DST
// boundaries.
func WindowForDate(year int, month time.Month, day int, loc *time.Location) DayWindow {
	if loc == nil {
		loc = time.UTC
	}
	return DayWindow{
		Start: time.Date(year, month, day, 0, 0, 0, 0, loc),
		End:   time.Date(year, month, day+1, 0, 0, 0, 0, loc),
	}
}

// WindowForTime builds the window for the local calendar day containing t.
func WindowForTime(t time.Time, loc *time.Location) DayWindow {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return WindowForDate(local.Year(), local.Month(), local.Day(), loc)
}

// Contains reports whether t falls inside the window. A record stamped at
// local midnight belongs to the starting day; one second before midnight
// belongs to the previous day.
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// FilterDay returns the records whose local timestamp falls inside w.
// Filtering an already-filtered set with the same window is a no-op.
func FilterDay(records []telemetry.Record, w DayWindow) []telemetry.Record {
	out := make([]telemetry.Record, 0, len(records))
	for _, r := range records {
		if w.Contains(r.LocalTime) {
			out = append(out, r)
		}
	}
	return out
}

// DaySummary aggregates one day's records. Means are nil when no record
// contributed a value; counts are plain zeros.
type DaySummary struct {
	TotalRows    int
	ValidFixRows int
	AvgSpeedMPS  *float64
	MeanLat      *float64
	MeanLon      *float64
}

// Summarize computes the day summary over the given records. An empty input
// yields zero counts and nil means.
func Summarize(records []telemetry.Record) DaySummary {
	s := DaySummary{TotalRows: len(records)}

	var speeds, lats, lons []float64
	for _, r := range records {
		if r.HasFix() {
			s.ValidFixRows++
		}
		if r.SpeedMPS != nil {
			speeds = append(speeds, *r.SpeedMPS)
		}
		if r.HasPosition() {
			lats = append(lats, *r.Lat)
			lons = append(lons, *r.Lon)
		}
	}
	s.AvgSpeedMPS = meanOrNil(speeds)
	s.MeanLat = meanOrNil(lats)
	s.MeanLon = meanOrNil(lons)
	return s
}

func meanOrNil(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	m := stat.Mean(xs, nil)
	return &m
}
