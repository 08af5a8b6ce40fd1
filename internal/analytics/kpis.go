// Package analytics implements the aggregation core: headline KPIs over a
// window, period deltas, comparison time series, traffic quality, bot
// classification of geographic traffic, and threshold-driven alerts.
package analytics

import (
	"math"

	"webpulse/internal/dataset"
	"webpulse/internal/timeframe"
)

// KPISet is the headline aggregate for one window. Count metrics are whole
// numbers; BounceRatePct is the mean bounce rate over the rows that define
// one, expressed as a percentage.
type KPISet struct {
	Sessions        int     `json:"sessions"`
	TotalUsers      int     `json:"total_users"`
	NewUsers        int     `json:"new_users"`
	PageViews       int     `json:"pageviews"`
	EngagedSessions int     `json:"engaged_sessions"`
	Conversions     int     `json:"conversions"`
	Revenue         float64 `json:"revenue"`
	BounceRatePct   float64 `json:"bounce_rate_pct"`
}

// AggregateKPIs sums the count metrics of every row inside the window and
// averages the bounce rate over the rows that carry one. Sums are truncated
// toward zero when narrowed to whole numbers. An empty selection yields the
// zero set, never an error.
func AggregateKPIs(t dataset.Table, w timeframe.Window) KPISet {
	var (
		sessions, users, newUsers, views float64
		engaged, conversions, revenue   float64
		bounceSum                       float64
		bounceN                         int
	)
	for _, r := range t.InWindow(w).Rows {
		sessions += r.Sessions
		users += r.TotalUsers
		newUsers += r.NewUsers
		views += r.PageViews
		engaged += r.EngagedSessions
		conversions += r.Conversions
		revenue += r.Revenue
		if r.BounceRate != nil {
			bounceSum += *r.BounceRate
			bounceN++
		}
	}

	set := KPISet{
		Sessions:        int(sessions),
		TotalUsers:      int(users),
		NewUsers:        int(newUsers),
		PageViews:       int(views),
		EngagedSessions: int(engaged),
		Conversions:     int(conversions),
		Revenue:         round2(revenue),
	}
	if bounceN > 0 {
		set.BounceRatePct = round1(bounceSum / float64(bounceN) * 100)
	}
	return set
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
