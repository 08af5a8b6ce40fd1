package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webpulse/internal/timeframe"
)

func bounds(min, max time.Time) timeframe.Bounds {
	return timeframe.Bounds{Min: min, Max: max, HasData: true}
}

func TestResolveRejectsReversedRequest(t *testing.T) {
	_, err := timeframe.Resolve(date(2024, 2, 7), date(2024, 2, 1),
		bounds(date(2024, 1, 1), date(2024, 1, 30)))
	assert.Error(t, err)
}

func TestResolveWithoutDataKeepsRequestedWindow(t *testing.T) {
	res, err := timeframe.Resolve(date(2024, 2, 1), date(2024, 2, 7), timeframe.Bounds{})
	require.NoError(t, err)

	assert.Equal(t, date(2024, 2, 1), res.Current.Start)
	assert.Equal(t, date(2024, 2, 7), res.Current.End)
	assert.True(t, res.Previous.IsZero())
	assert.True(t, res.YearAgo.IsZero())
}

func TestResolveReanchorsStaleRequest(t *testing.T) {
	// History covers January; the request asks for a February week that the
	// snapshot cannot serve yet. The span is preserved and re-anchored to
	// the newest retained day.
	res, err := timeframe.Resolve(date(2024, 2, 1), date(2024, 2, 7),
		bounds(date(2024, 1, 1), date(2024, 1, 30)))
	require.NoError(t, err)

	assert.Equal(t, date(2024, 1, 24), res.Current.Start)
	assert.Equal(t, date(2024, 1, 30), res.Current.End)
	assert.Equal(t, 7, res.Current.LengthDays())

	assert.Equal(t, date(2024, 1, 17), res.Previous.Start)
	assert.Equal(t, date(2024, 1, 23), res.Previous.End)
}

func TestResolveInRangeRequestUntouched(t *testing.T) {
	res, err := timeframe.Resolve(date(2024, 1, 10), date(2024, 1, 16),
		bounds(date(2024, 1, 1), date(2024, 1, 30)))
	require.NoError(t, err)

	assert.Equal(t, date(2024, 1, 10), res.Current.Start)
	assert.Equal(t, date(2024, 1, 16), res.Current.End)
	assert.Equal(t, date(2024, 1, 3), res.Previous.Start)
	assert.Equal(t, date(2024, 1, 9), res.Previous.End)
}

func TestResolvePreviousWindowShrinksAtHistoryStart(t *testing.T) {
	res, err := timeframe.Resolve(date(2024, 1, 4), date(2024, 1, 10),
		bounds(date(2024, 1, 1), date(2024, 1, 30)))
	require.NoError(t, err)

	// Only three preceding days exist; the previous window shrinks rather
	// than reaching before the retained history.
	assert.Equal(t, date(2024, 1, 1), res.Previous.Start)
	assert.Equal(t, date(2024, 1, 3), res.Previous.End)
	assert.Equal(t, 3, res.Previous.LengthDays())
}

func TestResolvePreviousWindowZeroWhenNoRoom(t *testing.T) {
	res, err := timeframe.Resolve(date(2024, 1, 1), date(2024, 1, 7),
		bounds(date(2024, 1, 1), date(2024, 1, 30)))
	require.NoError(t, err)

	assert.True(t, res.Previous.IsZero())
}

func TestResolveClippingIsIdempotent(t *testing.T) {
	b := bounds(date(2024, 1, 1), date(2024, 1, 30))

	// Re-anchored stale request: feeding the clipped window back in must
	// return it unchanged, including the derived previous window.
	res, err := timeframe.Resolve(date(2024, 2, 1), date(2024, 2, 7), b)
	require.NoError(t, err)
	again, err := timeframe.Resolve(res.Current.Start, res.Current.End, b)
	require.NoError(t, err)
	assert.Equal(t, res.Current, again.Current)
	assert.Equal(t, res.Previous, again.Previous)

	// A window ending exactly on the newest retained day is already aligned.
	aligned, err := timeframe.Resolve(date(2024, 1, 24), date(2024, 1, 30), b)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 24), aligned.Current.Start)
	assert.Equal(t, date(2024, 1, 30), aligned.Current.End)
}

func TestResolveWideRequestClampsToHistoryAndStays(t *testing.T) {
	b := bounds(date(2024, 1, 1), date(2024, 1, 30))

	// The requested span exceeds the whole history, so both ends clamp.
	wide, err := timeframe.Resolve(date(2024, 2, 1), date(2024, 3, 15), b)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 1), wide.Current.Start)
	assert.Equal(t, date(2024, 1, 30), wide.Current.End)
	assert.True(t, wide.Previous.IsZero())

	again, err := timeframe.Resolve(wide.Current.Start, wide.Current.End, b)
	require.NoError(t, err)
	assert.Equal(t, wide.Current, again.Current)
}

func TestResolveYearAgoShiftsCalendarYear(t *testing.T) {
	res, err := timeframe.Resolve(date(2024, 3, 10), date(2024, 3, 16),
		bounds(date(2023, 1, 1), date(2024, 3, 20)))
	require.NoError(t, err)

	assert.Equal(t, date(2023, 3, 10), res.YearAgo.Start)
	assert.Equal(t, date(2023, 3, 16), res.YearAgo.End)
}

func TestResolveYearAgoNotClippedToHistory(t *testing.T) {
	// History starts in 2024, so the year-ago window points at dates with
	// no data. It still comes back as the shifted window; aggregating over
	// it yields zeros.
	res, err := timeframe.Resolve(date(2024, 6, 1), date(2024, 6, 7),
		bounds(date(2024, 1, 1), date(2024, 6, 10)))
	require.NoError(t, err)

	assert.Equal(t, date(2023, 6, 1), res.YearAgo.Start)
	assert.Equal(t, date(2023, 6, 7), res.YearAgo.End)
}
