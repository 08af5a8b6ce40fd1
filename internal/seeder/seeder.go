// Package seeder generates deterministic synthetic traffic, standing in as
// the report source for development and demos.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"webpulse/internal/ingest"
	"webpulse/internal/timeframe"
)

// Seeder produces a plausible traffic history: weekday/weekend rhythm,
// uneven page and channel popularity, a geographic long tail and one
// region of short-session traffic so bot detection has something to find.
type Seeder struct {
	logger *slog.Logger
	days   int
	seed   uint64
}

// NewSeeder builds a seeder covering the given number of days ending
// today. The same seed always yields the same extract.
func NewSeeder(logger *slog.Logger, days int, seed uint64) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if days < 1 {
		days = 90
	}
	return &Seeder{logger: logger, days: days, seed: seed}
}

func (s *Seeder) Name() string { return "seeder" }

var seedPages = []struct {
	path   string
	weight float64
}{
	{"/", 1.0},
	{"/pricing", 0.55},
	{"/features", 0.45},
	{"/blog", 0.4},
	{"/blog/getting-started", 0.3},
	{"/docs", 0.25},
	{"/signup", 0.2},
	{"/about", 0.15},
	{"/contact", 0.1},
}

var seedChannels = []struct {
	name   string
	weight float64
}{
	{"Organic Search", 1.0},
	{"Direct", 0.7},
	{"Referral", 0.35},
	{"Paid Search", 0.3},
	{"Organic Social", 0.25},
	{"Email", 0.15},
}

var seedCountries = []struct {
	name   string
	city   string
	weight float64
	// short marks the region whose sessions run implausibly short
	short bool
}{
	{"Spain", "Madrid", 1.0, false},
	{"United States", "New York", 0.8, false},
	{"Mexico", "Mexico City", 0.5, false},
	{"France", "Paris", 0.35, false},
	{"Germany", "Berlin", 0.3, false},
	{"United Kingdom", "London", 0.3, false},
	{"Argentina", "Buenos Aires", 0.2, false},
	{"Singapore", "Singapore", 0.25, true},
}

// Fetch generates the full synthetic extract for both sub-tables.
func (s *Seeder) Fetch(ctx context.Context) (temporal, geo []ingest.ReportRow, err error) {
	start := time.Now()
	rng := rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))

	end := timeframe.DateOf(time.Now().UTC())
	window, err := timeframe.NewWindow(end.AddDate(0, 0, -(s.days - 1)), end)
	if err != nil {
		return nil, nil, err
	}

	for _, date := range window.Days() {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		dayFactor := dailyFactor(date, rng)

		for _, country := range seedCountries {
			countrySessions := 40 * country.weight * dayFactor * (0.8 + rng.Float64()*0.4)

			for _, page := range seedPages {
				sessions := countrySessions * page.weight * (0.7 + rng.Float64()*0.6) / 3
				if sessions < 1 {
					continue
				}
				temporal = append(temporal, reportRow(date, map[string]string{
					ingest.ColPage:    page.path,
					ingest.ColCountry: country.name,
					ingest.ColChannel: pickChannel(rng),
				}, sessions, country.short, rng))
			}

			geoSessions := countrySessions * (0.8 + rng.Float64()*0.4)
			if geoSessions >= 1 {
				geo = append(geo, reportRow(date, map[string]string{
					ingest.ColCountry: country.name,
					ingest.ColCity:    country.city,
				}, geoSessions, country.short, rng))
			}
		}
	}

	s.logger.Info("generated synthetic extract",
		slog.Int("days", s.days),
		slog.Int("temporal_rows", len(temporal)),
		slog.Int("geo_rows", len(geo)),
		slog.Duration("took", time.Since(start)))
	return temporal, geo, nil
}

// pickChannel draws a channel proportionally to its weight.
func pickChannel(rng *rand.Rand) string {
	var total float64
	for _, c := range seedChannels {
		total += c.weight
	}
	target := rng.Float64() * total
	for _, c := range seedChannels {
		target -= c.weight
		if target <= 0 {
			return c.name
		}
	}
	return seedChannels[0].name
}

// dailyFactor shapes traffic over the week with mild noise: weekends dip,
// midweek peaks.
func dailyFactor(date time.Time, rng *rand.Rand) float64 {
	factor := 1.0
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		factor = 0.6
	case time.Tuesday, time.Wednesday:
		factor = 1.15
	}
	return factor * (0.9 + rng.Float64()*0.2)
}

func reportRow(date time.Time, dims map[string]string, sessions float64, short bool, rng *rand.Rand) ingest.ReportRow {
	dims[ingest.ColDate] = date.Format("20060102")

	engagedShare := 0.55 + rng.Float64()*0.25
	avgDuration := 45 + rng.Float64()*120
	bounce := 0.35 + rng.Float64()*0.2
	if short {
		// Automated-looking traffic: sub-2s visits, almost nothing engages.
		engagedShare = rng.Float64() * 0.08
		avgDuration = 0.5 + rng.Float64()*1.4
		bounce = 0.9 + rng.Float64()*0.1
	}

	users := sessions * (0.75 + rng.Float64()*0.15)
	conversions := 0.0
	revenue := 0.0
	if !short && rng.Float64() < 0.3 {
		conversions = sessions * 0.02 * rng.Float64()
		revenue = conversions * (20 + rng.Float64()*60)
	}

	return ingest.ReportRow{
		Dimensions: dims,
		Metrics: map[string]float64{
			ingest.MetricSessions:        float64(int(sessions)),
			ingest.MetricTotalUsers:      float64(int(users)),
			ingest.MetricNewUsers:        float64(int(users * (0.4 + rng.Float64()*0.3))),
			ingest.MetricPageViews:       float64(int(sessions * (1.5 + rng.Float64()*2))),
			ingest.MetricEngagedSessions: float64(int(sessions * engagedShare)),
			ingest.MetricConversions:     float64(int(conversions)),
			ingest.MetricRevenue:         round2(revenue),
			ingest.MetricBounceRate:      round4(bounce),
			ingest.MetricAvgDuration:     round2(avgDuration),
		},
	}
}

func round2(v float64) float64 { return float64(int(v*100)) / 100 }
func round4(v float64) float64 { return float64(int(v*10000)) / 10000 }

// String describes the seeder for startup logs.
func (s *Seeder) String() string {
	return fmt.Sprintf("seeder(days=%d seed=%d)", s.days, s.seed)
}
