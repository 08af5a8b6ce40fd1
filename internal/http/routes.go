package http

import "github.com/gofiber/fiber/v2"

// MountRoutes attaches the API endpoints to the app.
func MountRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)

	api := app.Group("/api")
	api.Post("/kpis", h.KPIs)
	api.Post("/comparison", h.Comparison)
	api.Post("/quality", h.Quality)
	api.Post("/geo", h.Geo)
	api.Post("/alerts", h.Alerts)
	api.Post("/refresh", h.Refresh)
	api.Get("/filters", h.Filters)
	api.Get("/range", h.Range)
}
