package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"webpulse/internal/config"
	"webpulse/internal/dataset"
)

const insertBatchSize = 500

// Repository reads and writes the persisted raw tables.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
	cfg    *config.Config
}

// NewRepository wires a repository over an open database.
func NewRepository(db *gorm.DB, cfg *config.Config, logger *slog.Logger) *Repository {
	return &Repository{db: db, logger: logger, cfg: cfg}
}

// ReplaceTables swaps the persisted raw tables for the given ones in a
// single transaction, so a crash mid-write never leaves a half-replaced
// history behind.
func (r *Repository) ReplaceTables(ctx context.Context, temporalRaw, geoRaw dataset.Table) error {
	start := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&TemporalRow{}).Error; err != nil {
			return fmt.Errorf("clear temporal rows: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&GeoRow{}).Error; err != nil {
			return fmt.Errorf("clear geo rows: %w", err)
		}

		if len(temporalRaw.Rows) > 0 {
			models := make([]TemporalRow, 0, len(temporalRaw.Rows))
			for _, rec := range temporalRaw.Rows {
				models = append(models, temporalFromRecord(rec))
			}
			if err := tx.CreateInBatches(models, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert temporal rows: %w", err)
			}
		}
		if len(geoRaw.Rows) > 0 {
			models := make([]GeoRow, 0, len(geoRaw.Rows))
			for _, rec := range geoRaw.Rows {
				models = append(models, geoFromRecord(rec))
			}
			if err := tx.CreateInBatches(models, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert geo rows: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("persisted snapshot tables",
		slog.Int("temporal_rows", len(temporalRaw.Rows)),
		slog.Int("geo_rows", len(geoRaw.Rows)),
		slog.Duration("took", time.Since(start)))
	return nil
}

// LoadTables reads the persisted raw tables back, ordered by date so that
// reloaded tables iterate the same way freshly ingested ones do.
func (r *Repository) LoadTables(ctx context.Context) (temporalRaw, geoRaw dataset.Table, err error) {
	temporalRaw = dataset.Table{Kind: dataset.KindTemporal}
	geoRaw = dataset.Table{Kind: dataset.KindGeo}

	var temporalModels []TemporalRow
	if err = r.db.WithContext(ctx).Order("date, id").Find(&temporalModels).Error; err != nil {
		err = fmt.Errorf("load temporal rows: %w", err)
		return
	}
	for _, m := range temporalModels {
		temporalRaw.Rows = append(temporalRaw.Rows, m.record())
	}

	var geoModels []GeoRow
	if err = r.db.WithContext(ctx).Order("date, id").Find(&geoModels).Error; err != nil {
		err = fmt.Errorf("load geo rows: %w", err)
		return
	}
	for _, m := range geoModels {
		geoRaw.Rows = append(geoRaw.Rows, m.record())
	}

	// Retention trims on read rather than delete, so a shrunken setting
	// takes effect without touching the stored history.
	if r.cfg.RetentionDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -r.cfg.RetentionDays)
		temporalRaw = trimBefore(temporalRaw, cutoff)
		geoRaw = trimBefore(geoRaw, cutoff)
	}
	return
}

func trimBefore(t dataset.Table, cutoff time.Time) dataset.Table {
	out := dataset.Table{Kind: t.Kind}
	for _, rec := range t.Rows {
		if rec.Date.Before(cutoff) {
			continue
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}
