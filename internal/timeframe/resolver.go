package timeframe

import "time"

// Resolution is the set of aligned windows for one comparison query.
// Previous is zero when the current window starts on the first retained day
// and no preceding day exists. YearAgo is never clipped to the retained
// range; history that does not reach back a year simply aggregates to zero.
type Resolution struct {
	Current  Window
	Previous Window
	YearAgo  Window
}

// Resolve aligns a requested window with the retained history.
//
// When the request reaches past the newest retained day (a stale "today"
// request against an old snapshot), the requested span length wins over the
// requested absolute dates: the window keeps its length and is re-anchored
// so it ends on the newest day, then its start is clamped up to the oldest
// retained day. The previous window is the immediately preceding range of
// the same length, shrunk (never extended) when it would start before the
// oldest retained day; when not even one preceding day exists it comes back
// zero. YearAgo is the current window shifted back one calendar year, same
// month and day on both ends.
//
// An empty history returns the requested window untouched with zero derived
// windows; downstream aggregation then reports zeros, which is a valid
// state during cold start, not an error. A request with end before start is
// a caller contract violation and is rejected.
func Resolve(requestedStart, requestedEnd time.Time, b Bounds) (Resolution, error) {
	current, err := NewWindow(requestedStart, requestedEnd)
	if err != nil {
		return Resolution{}, err
	}

	if !b.HasData {
		return Resolution{Current: current}, nil
	}

	min, max := DateOf(b.Min), DateOf(b.Max)

	if current.Start.After(max) || current.End.After(max) {
		span := int(current.End.Sub(current.Start).Hours() / 24)
		current.End = max
		current.Start = max.AddDate(0, 0, -span)
		if current.Start.Before(min) {
			current.Start = min
		}
	}

	var previous Window
	prevEnd := current.Start.AddDate(0, 0, -1)
	if !prevEnd.Before(min) {
		prevStart := prevEnd.AddDate(0, 0, -(current.LengthDays() - 1))
		if prevStart.Before(min) {
			prevStart = min
		}
		previous = Window{Start: prevStart, End: prevEnd}
	}

	yearAgo := Window{
		Start: current.Start.AddDate(-1, 0, 0),
		End:   current.End.AddDate(-1, 0, 0),
	}

	return Resolution{Current: current, Previous: previous, YearAgo: yearAgo}, nil
}
