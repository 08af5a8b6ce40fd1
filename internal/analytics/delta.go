package analytics

// PercentChange returns the relative change from previous to current as a
// percentage, rounded to one decimal. A zero previous value yields zero
// rather than a division error or an infinity; "no baseline" reads as "no
// change" so that cold-start windows render quietly.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return round1((current - previous) / previous * 100)
}

// KPIDeltas carries the percent change of each headline metric between two
// windows. Bounce is a percentage-point difference, not a relative change:
// a move from 40% to 50% reads as +10 points.
type KPIDeltas struct {
	SessionsPct        float64 `json:"sessions_pct"`
	TotalUsersPct      float64 `json:"total_users_pct"`
	NewUsersPct        float64 `json:"new_users_pct"`
	PageViewsPct       float64 `json:"pageviews_pct"`
	EngagedSessionsPct float64 `json:"engaged_sessions_pct"`
	ConversionsPct     float64 `json:"conversions_pct"`
	RevenuePct         float64 `json:"revenue_pct"`
	BounceRatePoints   float64 `json:"bounce_rate_points"`
}

// CompareKPIs derives the deltas between a current and a previous KPI set.
func CompareKPIs(current, previous KPISet) KPIDeltas {
	return KPIDeltas{
		SessionsPct:        PercentChange(float64(current.Sessions), float64(previous.Sessions)),
		TotalUsersPct:      PercentChange(float64(current.TotalUsers), float64(previous.TotalUsers)),
		NewUsersPct:        PercentChange(float64(current.NewUsers), float64(previous.NewUsers)),
		PageViewsPct:       PercentChange(float64(current.PageViews), float64(previous.PageViews)),
		EngagedSessionsPct: PercentChange(float64(current.EngagedSessions), float64(previous.EngagedSessions)),
		ConversionsPct:     PercentChange(float64(current.Conversions), float64(previous.Conversions)),
		RevenuePct:         PercentChange(current.Revenue, previous.Revenue),
		BounceRatePoints:   round1(current.BounceRatePct - previous.BounceRatePct),
	}
}
