// Package storage persists the raw snapshot tables in SQLite so a restart
// can serve data immediately instead of waiting for the next source fetch.
// Only the raw tables are stored; the quality-filtered views are cheap to
// rebuild and deriving them on load keeps a single source of truth.
package storage

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"webpulse/internal/config"
)

// NewDatabase opens the SQLite database in WAL mode, applies the
// connection-pool limits from the configuration and migrates the schema.
func NewDatabase(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	dsn := cfg.GetDatabasePath() + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.GetMaxOpenConns())
	sqlDB.SetMaxIdleConns(cfg.GetMaxIdleConns())

	if err := migrate(db); err != nil {
		logger.Error("database migration failed", slog.Any("error", err))
		return nil, err
	}

	if err := db.Exec("PRAGMA wal_checkpoint(FULL)").Error; err != nil {
		logger.Warn("WAL checkpoint after migration failed", slog.Any("error", err))
	}

	logger.Info("database ready", slog.String("path", cfg.GetDatabasePath()))
	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&TemporalRow{},
			&GeoRow{},
		)
	})
}
