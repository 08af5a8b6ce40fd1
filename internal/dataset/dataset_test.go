// Package dataset_test contains tests for the dataset package
package dataset_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webpulse/internal/dataset"
	"webpulse/internal/timeframe"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

func sampleTemporal() dataset.Table {
	return dataset.Table{
		Kind: dataset.KindTemporal,
		Rows: []dataset.Record{
			{Date: date(2024, 1, 1), Page: "/", Country: "Spain", Channel: "Direct", Sessions: 100},
			{Date: date(2024, 1, 1), Page: "/pricing", Country: "France", Channel: "Organic Search", Sessions: 40},
			{Date: date(2024, 1, 2), Page: "/", Country: "Spain", Channel: "Organic Search", Sessions: 80},
			{Date: date(2024, 1, 3), Page: "/blog", Country: "France", Channel: "Referral", Sessions: 25},
		},
	}
}

func TestFilterByCountryPreservesOrder(t *testing.T) {
	table := sampleTemporal()
	filtered := table.Filter(dataset.FilterSpec{Country: "Spain"})

	require.Len(t, filtered.Rows, 2)
	assert.Equal(t, date(2024, 1, 1), filtered.Rows[0].Date)
	assert.Equal(t, date(2024, 1, 2), filtered.Rows[1].Date)
	for _, r := range filtered.Rows {
		assert.Equal(t, "Spain", r.Country)
	}

	// Source table untouched
	assert.Len(t, table.Rows, 4)
}

func TestFilterCombinesConstraints(t *testing.T) {
	filtered := sampleTemporal().Filter(dataset.FilterSpec{Country: "Spain", Channel: "Organic Search"})
	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, date(2024, 1, 2), filtered.Rows[0].Date)
}

func TestFilterMissingDimensionIsNoOp(t *testing.T) {
	geo := dataset.Table{
		Kind: dataset.KindGeo,
		Rows: []dataset.Record{
			{Date: date(2024, 1, 1), Country: "Spain", City: "Madrid", Sessions: 10},
		},
	}

	// Geo rows carry no page column; a page constraint must not drop them.
	filtered := geo.Filter(dataset.FilterSpec{Page: "/pricing"})
	assert.Len(t, filtered.Rows, 1)

	// But a country constraint still applies.
	filtered = geo.Filter(dataset.FilterSpec{Page: "/pricing", Country: "France"})
	assert.Empty(t, filtered.Rows)
}

func TestFilterZeroSpecReturnsSameRows(t *testing.T) {
	table := sampleTemporal()
	assert.Len(t, table.Filter(dataset.FilterSpec{}).Rows, 4)
}

func TestTableBounds(t *testing.T) {
	b := sampleTemporal().Bounds()
	require.True(t, b.HasData)
	assert.Equal(t, date(2024, 1, 1), b.Min)
	assert.Equal(t, date(2024, 1, 3), b.Max)

	empty := dataset.Table{Kind: dataset.KindTemporal}
	assert.False(t, empty.Bounds().HasData)
}

func TestTableInWindow(t *testing.T) {
	w, err := timeframe.NewWindow(date(2024, 1, 2), date(2024, 1, 3))
	require.NoError(t, err)

	view := sampleTemporal().InWindow(w)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, date(2024, 1, 2), view.Rows[0].Date)

	assert.Empty(t, sampleTemporal().InWindow(timeframe.Window{}).Rows)
}

func TestDistinctValuesFirstSeenOrder(t *testing.T) {
	countries := sampleTemporal().DistinctValues(dataset.DimCountry)
	assert.Equal(t, []string{"Spain", "France"}, countries)

	// Temporal tables have no city column.
	assert.Nil(t, sampleTemporal().DistinctValues(dataset.DimCity))
}

func TestRecordMetricOptionalFields(t *testing.T) {
	r := dataset.Record{Sessions: 5}

	_, ok := r.Metric("bounceRate")
	assert.False(t, ok)

	r.BounceRate = ptr(0.42)
	v, ok := r.Metric("bounceRate")
	require.True(t, ok)
	assert.InDelta(t, 0.42, v, 1e-9)

	v, ok = r.Metric("sessions")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, ok = r.Metric("nope")
	assert.False(t, ok)
}

func TestStoreSwapIsolation(t *testing.T) {
	store := dataset.NewStore()
	require.NotNil(t, store.Current())
	assert.True(t, store.Current().Empty())

	held := store.Current()

	next := dataset.NewSnapshot()
	next.TemporalRaw = sampleTemporal()
	store.Swap(next)

	// The reader that took the old snapshot still sees it unchanged.
	assert.True(t, held.Empty())
	assert.False(t, store.Current().Empty())
}
