// Package ingest_test contains tests for ingestion and snapshot refresh
package ingest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webpulse/internal/dataset"
	"webpulse/internal/ingest"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

func TestMaterializeTemporalResolvesColumnsOnce(t *testing.T) {
	rows := []ingest.ReportRow{
		{
			Dimensions: map[string]string{
				ingest.ColDate:    "20240115",
				ingest.ColPage:    "/pricing",
				ingest.ColCountry: "Spain",
				ingest.ColChannel: "Direct",
			},
			Metrics: map[string]float64{
				ingest.MetricSessions:   120,
				ingest.MetricBounceRate: 0.35,
			},
		},
		{
			// No optional metrics at all
			Dimensions: map[string]string{ingest.ColDate: "2024-01-16", ingest.ColPage: "/"},
			Metrics:    map[string]float64{ingest.MetricSessions: 10},
		},
	}

	table, dropped := ingest.MaterializeTemporal(rows)

	assert.Equal(t, 0, dropped)
	assert.Equal(t, dataset.KindTemporal, table.Kind)
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	assert.Equal(t, date(2024, 1, 15), first.Date)
	assert.Equal(t, "/pricing", first.Page)
	assert.Equal(t, "Spain", first.Country)
	assert.Equal(t, 120.0, first.Sessions)
	require.NotNil(t, first.BounceRate)
	assert.InDelta(t, 0.35, *first.BounceRate, 1e-9)
	assert.Nil(t, first.AvgSessionDuration)

	second := table.Rows[1]
	assert.Equal(t, date(2024, 1, 16), second.Date)
	assert.Nil(t, second.BounceRate)
}

func TestMaterializeDropsUnparseableDates(t *testing.T) {
	rows := []ingest.ReportRow{
		{Dimensions: map[string]string{ingest.ColDate: "yesterday"}},
		{Dimensions: map[string]string{ingest.ColDate: "20240101"}, Metrics: map[string]float64{ingest.MetricSessions: 1}},
		{Dimensions: map[string]string{}},
	}
	table, dropped := ingest.MaterializeTemporal(rows)

	assert.Equal(t, 2, dropped)
	assert.Len(t, table.Rows, 1)
}

func TestMaterializeGeoColumns(t *testing.T) {
	rows := []ingest.ReportRow{
		{
			Dimensions: map[string]string{
				ingest.ColDate:    "20240110",
				ingest.ColCountry: "Spain",
				ingest.ColCity:    "Madrid",
			},
			Metrics: map[string]float64{ingest.MetricSessions: 55},
		},
	}
	table, _ := ingest.MaterializeGeo(rows)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, dataset.KindGeo, table.Kind)
	assert.Equal(t, "Madrid", table.Rows[0].City)
	assert.Empty(t, table.Rows[0].Page)
}

func TestFilterQualityDropsShortSessions(t *testing.T) {
	table := dataset.Table{
		Kind: dataset.KindTemporal,
		Rows: []dataset.Record{
			{Date: date(2024, 1, 1), Sessions: 10, AvgSessionDuration: ptr(45)},
			{Date: date(2024, 1, 1), Sessions: 20, AvgSessionDuration: ptr(2)},
			{Date: date(2024, 1, 1), Sessions: 30, AvgSessionDuration: ptr(5)}, // exactly at the bar
			{Date: date(2024, 1, 1), Sessions: 40},                             // undefined while others define
		},
	}
	clean := ingest.FilterQuality(table, 5)

	require.Len(t, clean.Rows, 1)
	assert.Equal(t, 10.0, clean.Rows[0].Sessions)
	// Source unchanged
	assert.Len(t, table.Rows, 4)
}

func TestFilterQualityPassthroughWithoutDurations(t *testing.T) {
	table := dataset.Table{
		Kind: dataset.KindTemporal,
		Rows: []dataset.Record{
			{Date: date(2024, 1, 1), Sessions: 10},
			{Date: date(2024, 1, 2), Sessions: 20},
		},
	}
	clean := ingest.FilterQuality(table, 5)
	assert.Len(t, clean.Rows, 2)
}
