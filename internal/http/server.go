package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"webpulse/internal/config"
)

// Server wraps the fiber app with lifecycle management.
type Server struct {
	app    *fiber.App
	cfg    *config.Config
	logger *slog.Logger
}

// NewServer builds the fiber app and mounts the API routes.
func NewServer(cfg *config.Config, logger *slog.Logger, handler *Handler) *Server {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		DisableStartupMessage: !cfg.IsDevelopment(),
	})
	app.Use(recover.New())
	app.Use(cors.New())

	MountRoutes(app, handler)

	return &Server{app: app, cfg: cfg, logger: logger}
}

// Listen blocks serving requests until Shutdown is called.
func (s *Server) Listen() error {
	addr := ":" + s.cfg.AppPort
	s.logger.Info("http server listening", slog.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
