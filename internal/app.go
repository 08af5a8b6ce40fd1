// Package internal wires the application together: configuration, logging,
// storage, the snapshot refresher and the HTTP server.
package internal

import (
	"context"
	"fmt"
	"log/slog"

	"webpulse/internal/config"
	"webpulse/internal/dataset"
	webhttp "webpulse/internal/http"
	"webpulse/internal/ingest"
	"webpulse/internal/logging"
	"webpulse/internal/seeder"
	"webpulse/internal/storage"
)

// Application owns the long-lived components and their lifecycle.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     *dataset.Store
	Refresher *ingest.Refresher

	server *webhttp.Server
	cancel context.CancelFunc
}

// NewApp assembles the application from the process configuration.
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig assembles the application with the provided config. The
// seeder is the report source in this build; it regenerates a deterministic
// history on every refresh.
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := logging.NewLogger(cfg)

	db, err := storage.NewDatabase(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	repo := storage.NewRepository(db, cfg, logger)

	store := dataset.NewStore()
	source := seeder.NewSeeder(logger, cfg.RetentionDays, 1)
	refresher := ingest.NewRefresher(cfg, logger, store, source, repo)

	handler := webhttp.NewHandler(cfg, logger, store, refresher)
	server := webhttp.NewServer(cfg, logger, handler)

	return &Application{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Refresher: refresher,
		server:    server,
	}, nil
}

// StartAsync warm-starts the snapshot from persisted data, launches the
// background refresher and begins serving HTTP. With SeedOnEmpty set, the
// source only runs when the warm start came up empty; the periodic loop is
// skipped so a seeded history stays put.
func (a *Application) StartAsync() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Refresher.WarmStart(ctx); err != nil {
		a.Logger.Warn("warm start failed, continuing with empty snapshot", slog.Any("error", err))
	}

	if a.Config.SeedOnEmpty {
		if a.Store.Current().Empty() {
			if err := a.Refresher.RefreshNow(ctx); err != nil {
				a.Logger.Error("seeding refresh failed", slog.Any("error", err))
			}
		}
	} else {
		go a.Refresher.Run(ctx)
	}

	go func() {
		if err := a.server.Listen(); err != nil {
			a.Logger.Error("http server stopped", slog.Any("error", err))
		}
	}()
	return nil
}

// Shutdown stops the refresher and drains the HTTP server.
func (a *Application) Shutdown(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	return a.server.Shutdown(ctx)
}
