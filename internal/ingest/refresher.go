package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"webpulse/internal/config"
	"webpulse/internal/dataset"
	"webpulse/internal/pkg/async"
	"webpulse/internal/storage"
)

// Source delivers one full extract of report rows for both sub-tables.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (temporal, geo []ReportRow, err error)
}

// Refresher keeps the live snapshot current: it fetches from the source on
// a fixed interval, materializes and quality-filters the tables, swaps the
// snapshot atomically and persists the raw tables for warm starts. Readers
// are never blocked; they keep whatever snapshot they already took.
type Refresher struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *dataset.Store
	source Source
	repo   *storage.Repository
	pool   *async.Pool
}

// NewRefresher wires a refresher. repo may be nil when persistence is not
// wanted, as in most tests.
func NewRefresher(cfg *config.Config, logger *slog.Logger, store *dataset.Store, source Source, repo *storage.Repository) *Refresher {
	return &Refresher{
		cfg:    cfg,
		logger: logger,
		store:  store,
		source: source,
		repo:   repo,
		pool:   async.NewPool(2),
	}
}

// WarmStart loads the persisted raw tables and publishes a snapshot from
// them, so requests served before the first fetch see the last known data
// instead of zeros. No persisted data is not an error.
func (r *Refresher) WarmStart(ctx context.Context) error {
	if r.repo == nil {
		return nil
	}
	temporalRaw, geoRaw, err := r.repo.LoadTables(ctx)
	if err != nil {
		return fmt.Errorf("warm start: %w", err)
	}
	if temporalRaw.Empty() && geoRaw.Empty() {
		r.logger.Info("no persisted tables, waiting for first refresh")
		return nil
	}
	r.publish(temporalRaw, geoRaw)
	r.logger.Info("warm start from persisted tables",
		slog.Int("temporal_rows", len(temporalRaw.Rows)),
		slog.Int("geo_rows", len(geoRaw.Rows)))
	return nil
}

// RefreshNow fetches from the source and publishes a new snapshot. On any
// failure the previous snapshot stays live untouched.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	start := time.Now()

	temporalRows, geoRows, err := r.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch from %s: %w", r.source.Name(), err)
	}

	results := r.pool.Execute(ctx, []async.Task{
		{Name: "temporal", Execute: func() (any, error) {
			t, dropped := MaterializeTemporal(temporalRows)
			if dropped > 0 {
				r.logger.Warn("dropped temporal rows with unparseable dates", slog.Int("count", dropped))
			}
			return t, nil
		}},
		{Name: "geo", Execute: func() (any, error) {
			t, dropped := MaterializeGeo(geoRows)
			if dropped > 0 {
				r.logger.Warn("dropped geo rows with unparseable dates", slog.Int("count", dropped))
			}
			return t, nil
		}},
	})

	temporalRes, ok := results["temporal"]
	if !ok {
		return ctx.Err()
	}
	geoRes, ok := results["geo"]
	if !ok {
		return ctx.Err()
	}
	temporalRaw := temporalRes.Data.(dataset.Table)
	geoRaw := geoRes.Data.(dataset.Table)

	r.publish(temporalRaw, geoRaw)

	if r.repo != nil {
		if err := r.repo.ReplaceTables(ctx, temporalRaw, geoRaw); err != nil {
			// The fresh snapshot is already serving; persistence failing
			// only costs the next warm start.
			r.logger.Error("failed to persist snapshot tables", slog.Any("error", err))
		}
	}

	r.logger.Info("snapshot refreshed",
		slog.String("source", r.source.Name()),
		slog.Int("temporal_rows", len(temporalRaw.Rows)),
		slog.Int("geo_rows", len(geoRaw.Rows)),
		slog.Duration("took", time.Since(start)))
	return nil
}

// Run refreshes immediately and then on the configured interval until the
// context is cancelled. Failed refreshes are logged and retried on the next
// tick; the last good snapshot keeps serving in between.
func (r *Refresher) Run(ctx context.Context) {
	if err := r.RefreshNow(ctx); err != nil {
		r.logger.Error("initial refresh failed", slog.Any("error", err))
	}

	interval := time.Duration(r.cfg.RefreshIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			if err := r.RefreshNow(ctx); err != nil {
				r.logger.Error("scheduled refresh failed", slog.Any("error", err))
			}
		}
	}
}

// publish builds the four-table snapshot from the raw tables and swaps it
// in. The quality-filtered views are derived here so every consumer sees
// raw and clean views built from the same generation.
func (r *Refresher) publish(temporalRaw, geoRaw dataset.Table) {
	sn := dataset.NewSnapshot()
	sn.TemporalRaw = temporalRaw
	sn.GeoRaw = geoRaw
	sn.Temporal = FilterQuality(temporalRaw, r.cfg.QualityMinSessionSeconds)
	sn.Geo = FilterQuality(geoRaw, r.cfg.QualityMinSessionSeconds)
	sn.LoadedAt = time.Now().UTC()
	r.store.Swap(sn)
}
