// Package http exposes the aggregation core over a JSON API.
package http

import (
	"log/slog"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"webpulse/internal/analytics"
	"webpulse/internal/config"
	"webpulse/internal/dataset"
	"webpulse/internal/ingest"
	"webpulse/internal/timeframe"
)

// Handler serves analytics queries from the live snapshot. Every request
// takes the snapshot once up front; a refresh landing mid-request never
// mixes generations.
type Handler struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *dataset.Store
	refresher *ingest.Refresher
	rules     analytics.AlertRules
}

// NewHandler wires the API handler.
func NewHandler(cfg *config.Config, logger *slog.Logger, store *dataset.Store, refresher *ingest.Refresher) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		refresher: refresher,
		rules:     analytics.DefaultAlertRules(),
	}
}

// queryRequest is the shared body of the analytics endpoints. Dates are
// ISO calendar dates; empty filter fields mean no constraint.
type queryRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Page      string `json:"page"`
	Country   string `json:"country"`
	Channel   string `json:"channel"`
	Metric    string `json:"metric"`
}

func (q queryRequest) filterSpec() dataset.FilterSpec {
	return dataset.FilterSpec{Page: q.Page, Country: q.Country, Channel: q.Channel}
}

func (q queryRequest) window() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", q.StartDate)
	if err != nil {
		return
	}
	end, err = time.Parse("2006-01-02", q.EndDate)
	return
}

type windowPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func windowJSON(w timeframe.Window) *windowPayload {
	if w.IsZero() {
		return nil
	}
	return &windowPayload{
		Start: w.Start.Format("2006-01-02"),
		End:   w.End.Format("2006-01-02"),
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// resolveQuery parses the request body, applies the dimension filters to
// the clean temporal table and aligns the requested window with the dates
// that survived filtering.
func (h *Handler) resolveQuery(c *fiber.Ctx) (queryRequest, dataset.Table, timeframe.Resolution, error) {
	var req queryRequest
	if err := c.BodyParser(&req); err != nil {
		return req, dataset.Table{}, timeframe.Resolution{}, badRequest(c, "invalid request body")
	}
	start, end, err := req.window()
	if err != nil {
		return req, dataset.Table{}, timeframe.Resolution{}, badRequest(c, "dates must be YYYY-MM-DD")
	}

	snapshot := h.store.Current()
	table := snapshot.Temporal.Filter(req.filterSpec())

	res, err := timeframe.Resolve(start, end, table.Bounds())
	if err != nil {
		return req, dataset.Table{}, timeframe.Resolution{}, badRequest(c, err.Error())
	}
	return req, table, res, nil
}

// KPIs returns the headline aggregates for the resolved windows with
// period-over-period and year-over-year deltas.
func (h *Handler) KPIs(c *fiber.Ctx) error {
	_, table, res, err := h.resolveQuery(c)
	if err != nil {
		return err
	}

	current := analytics.AggregateKPIs(table, res.Current)
	previous := analytics.AggregateKPIs(table, res.Previous)
	yearAgo := analytics.AggregateKPIs(table, res.YearAgo)

	return c.JSON(fiber.Map{
		"window": fiber.Map{
			"current":  windowJSON(res.Current),
			"previous": windowJSON(res.Previous),
			"year_ago": windowJSON(res.YearAgo),
		},
		"current":         current,
		"previous":        previous,
		"year_ago":        yearAgo,
		"deltas":          analytics.CompareKPIs(current, previous),
		"deltas_year_ago": analytics.CompareKPIs(current, yearAgo),
	})
}

// Comparison returns the current-versus-previous daily series for one
// metric, defaulting to sessions.
func (h *Handler) Comparison(c *fiber.Ctx) error {
	req, table, res, err := h.resolveQuery(c)
	if err != nil {
		return err
	}
	metric := req.Metric
	if metric == "" {
		metric = "sessions"
	}

	series, err := analytics.BuildComparisonSeries(table, res.Current, res.Previous, metric)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(fiber.Map{
		"window": fiber.Map{
			"current":  windowJSON(res.Current),
			"previous": windowJSON(res.Previous),
		},
		"series": series,
	})
}

// Quality returns the traffic-quality KPIs and the per-day valid/invalid
// breakdown.
func (h *Handler) Quality(c *fiber.Ctx) error {
	_, table, res, err := h.resolveQuery(c)
	if err != nil {
		return err
	}
	kpis, days := analytics.QualityInWindows(table, res.Current, res.Previous)
	return c.JSON(fiber.Map{
		"window": fiber.Map{
			"current":  windowJSON(res.Current),
			"previous": windowJSON(res.Previous),
		},
		"kpis": kpis,
		"days": days,
	})
}

// Geo returns the ranked country and city breakdowns from the clean
// geographic table, plus the top pages and channels from the temporal one.
func (h *Handler) Geo(c *fiber.Ctx) error {
	req, table, res, err := h.resolveQuery(c)
	if err != nil {
		return err
	}

	snapshot := h.store.Current()
	geo := snapshot.Geo.Filter(req.filterSpec())

	return c.JSON(fiber.Map{
		"window":    fiber.Map{"current": windowJSON(res.Current)},
		"countries": analytics.TopByDimension(geo, res.Current, dataset.DimCountry, "sessions", 10),
		"cities":    analytics.TopByDimension(geo, res.Current, dataset.DimCity, "sessions", 10),
		"pages":     analytics.TopByDimension(table, res.Current, dataset.DimPage, "pageviews", 10),
		"channels":  analytics.TopByDimension(table, res.Current, dataset.DimChannel, "sessions", 10),
	})
}

// Alerts runs the anomaly checks over the unfiltered tables and reports
// the bot classification alongside. The bot classifier reads the raw geo
// table on purpose; the clean one no longer contains the short sessions it
// hunts for.
func (h *Handler) Alerts(c *fiber.Ctx) error {
	var req queryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	start, end, err := req.window()
	if err != nil {
		return badRequest(c, "dates must be YYYY-MM-DD")
	}

	snapshot := h.store.Current()
	res, err := timeframe.Resolve(start, end, snapshot.Temporal.Bounds())
	if err != nil {
		return badRequest(c, err.Error())
	}

	report := analytics.GenerateAlerts(snapshot.Temporal, snapshot.GeoRaw, res, h.rules)
	bots := analytics.ClassifyBotTraffic(snapshot.GeoRaw, res.Current,
		h.cfg.BotMinSessions, h.cfg.BotMaxAvgDurationSecs)

	return c.JSON(fiber.Map{
		"window": fiber.Map{
			"current":  windowJSON(res.Current),
			"previous": windowJSON(res.Previous),
		},
		"report": report,
		"bots":   bots,
	})
}

// Filters returns the selectable values for each filter dimension.
func (h *Handler) Filters(c *fiber.Ctx) error {
	snapshot := h.store.Current()
	t := snapshot.Temporal

	pages := t.DistinctValues(dataset.DimPage)
	countries := t.DistinctValues(dataset.DimCountry)
	channels := t.DistinctValues(dataset.DimChannel)
	sort.Strings(pages)
	sort.Strings(countries)
	sort.Strings(channels)

	return c.JSON(fiber.Map{
		"pages":     pages,
		"countries": countries,
		"channels":  channels,
	})
}

// Range reports the date coverage of the live snapshot and when it was
// loaded.
func (h *Handler) Range(c *fiber.Ctx) error {
	snapshot := h.store.Current()
	b := snapshot.TemporalRaw.Bounds()

	payload := fiber.Map{
		"has_data":      b.HasData,
		"loaded_at":     snapshot.LoadedAt,
		"temporal_rows": len(snapshot.TemporalRaw.Rows),
		"geo_rows":      len(snapshot.GeoRaw.Rows),
	}
	if b.HasData {
		payload["min_date"] = b.Min.Format("2006-01-02")
		payload["max_date"] = b.Max.Format("2006-01-02")
	}
	return c.JSON(payload)
}

// Refresh triggers an immediate snapshot refresh.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	if err := h.refresher.RefreshNow(c.Context()); err != nil {
		h.logger.Error("manual refresh failed", slog.Any("error", err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "refresh failed"})
	}
	return c.JSON(fiber.Map{"status": "refreshed"})
}

// Health is the liveness probe; it also reports how stale the snapshot is.
func (h *Handler) Health(c *fiber.Ctx) error {
	snapshot := h.store.Current()
	payload := fiber.Map{"status": "ok"}
	if !snapshot.LoadedAt.IsZero() {
		payload["snapshot_age_secs"] = int(time.Since(snapshot.LoadedAt).Seconds())
	}
	return c.JSON(payload)
}
