// Package timeframe provides inclusive calendar-date windows and the
// resolver that aligns a requested window with the retained history,
// deriving the immediately-preceding comparison window and the same window
// one year earlier.
package timeframe

import (
	"fmt"
	"time"
)

// Window is an inclusive calendar-date range. The zero value is "no window"
// and is what the resolver returns when a derived window has no room inside
// the retained history.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a validated window from two dates.
func NewWindow(start, end time.Time) (Window, error) {
	start, end = DateOf(start), DateOf(end)
	if end.Before(start) {
		return Window{}, fmt.Errorf("window end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return Window{Start: start, End: end}, nil
}

// IsZero reports whether the window is unset.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// LengthDays returns the number of days the window spans, both ends
// included. Zero for an unset window.
func (w Window) LengthDays() int {
	if w.IsZero() {
		return 0
	}
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Contains reports whether the date falls inside the window, ends included.
func (w Window) Contains(t time.Time) bool {
	if w.IsZero() {
		return false
	}
	d := DateOf(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns every date in the window in ascending order.
func (w Window) Days() []time.Time {
	if w.IsZero() {
		return nil
	}
	out := make([]time.Time, 0, w.LengthDays())
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (w Window) String() string {
	if w.IsZero() {
		return "<none>"
	}
	return w.Start.Format("2006-01-02") + ".." + w.End.Format("2006-01-02")
}

// DateOf truncates a time to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Bounds describes the dates actually present in a table.
type Bounds struct {
	Min     time.Time
	Max     time.Time
	HasData bool
}
