package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webpulse/internal/config"
	"webpulse/internal/dataset"
	"webpulse/internal/ingest"
)

type stubSource struct {
	temporal []ingest.ReportRow
	geo      []ingest.ReportRow
	err      error
	calls    int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context) ([]ingest.ReportRow, []ingest.ReportRow, error) {
	s.calls++
	return s.temporal, s.geo, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:              config.Test,
		RefreshIntervalSeconds:   3600,
		QualityMinSessionSeconds: 5,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func reportRow(day string, country string, sessions, avgDur float64) ingest.ReportRow {
	return ingest.ReportRow{
		Dimensions: map[string]string{ingest.ColDate: day, ingest.ColCountry: country},
		Metrics: map[string]float64{
			ingest.MetricSessions:    sessions,
			ingest.MetricAvgDuration: avgDur,
		},
	}
}

func TestRefreshNowPublishesRawAndCleanViews(t *testing.T) {
	source := &stubSource{
		temporal: []ingest.ReportRow{
			reportRow("20240110", "Spain", 100, 60),
			reportRow("20240110", "Testland", 50, 1.5),
		},
		geo: []ingest.ReportRow{
			reportRow("20240110", "Spain", 90, 60),
			reportRow("20240110", "Testland", 50, 1.5),
		},
	}
	store := dataset.NewStore()
	refresher := ingest.NewRefresher(testConfig(), testLogger(), store, source, nil)

	require.NoError(t, refresher.RefreshNow(context.Background()))

	sn := store.Current()
	assert.Len(t, sn.TemporalRaw.Rows, 2)
	assert.Len(t, sn.GeoRaw.Rows, 2)
	// The short-session rows survive only in the raw views.
	assert.Len(t, sn.Temporal.Rows, 1)
	assert.Len(t, sn.Geo.Rows, 1)
	assert.False(t, sn.LoadedAt.IsZero())
}

func TestRefreshNowKeepsOldSnapshotOnFetchError(t *testing.T) {
	store := dataset.NewStore()
	good := &stubSource{temporal: []ingest.ReportRow{reportRow("20240110", "Spain", 10, 60)}}
	refresher := ingest.NewRefresher(testConfig(), testLogger(), store, good, nil)
	require.NoError(t, refresher.RefreshNow(context.Background()))
	served := store.Current()

	bad := &stubSource{err: errors.New("upstream down")}
	failing := ingest.NewRefresher(testConfig(), testLogger(), store, bad, nil)
	err := failing.RefreshNow(context.Background())

	assert.Error(t, err)
	assert.Same(t, served, store.Current())
}

func TestWarmStartWithoutRepositoryIsNoOp(t *testing.T) {
	store := dataset.NewStore()
	refresher := ingest.NewRefresher(testConfig(), testLogger(), store, &stubSource{}, nil)

	require.NoError(t, refresher.WarmStart(context.Background()))
	assert.True(t, store.Current().Empty())
}
