package analytics

import (
	"math"
	"sort"
	"time"

	"webpulse/internal/dataset"
	"webpulse/internal/timeframe"
)

// QualityKPIs summarizes traffic quality over a window against its
// preceding window. Quality rate is the complement of the bounce rate, both
// averaged day by day so that a single high-traffic day cannot dominate the
// mean. Rate deltas are percentage-point differences; the engaged-session
// delta is a relative percent change.
type QualityKPIs struct {
	QualityRatePct     float64 `json:"quality_rate_pct"`
	QualityRateDelta   float64 `json:"quality_rate_delta"`
	BounceRatePct      float64 `json:"bounce_rate_pct"`
	BounceRateDelta    float64 `json:"bounce_rate_delta"`
	EngagedSessions    int     `json:"engaged_sessions"`
	EngagedSessionsPct float64 `json:"engaged_sessions_pct"`
}

// DayQuality splits one day's users into those who engaged and those who
// bounced, with the day's quality rate.
type DayQuality struct {
	Date           time.Time `json:"date"`
	ValidUsers     int       `json:"valid_users"`
	InvalidUsers   int       `json:"invalid_users"`
	TotalUsers     int       `json:"total_users"`
	QualityRatePct float64   `json:"quality_rate_pct"`
}

// QualityInWindows computes quality KPIs for the current window relative to
// the previous one, plus the per-day valid/invalid breakdown of the current
// window sorted by date. Empty selections yield zeros.
func QualityInWindows(t dataset.Table, current, previous timeframe.Window) (QualityKPIs, []DayQuality) {
	curDays := qualityDays(t, current)
	prevDays := qualityDays(t, previous)

	bounce := meanDayBounce(curDays) * 100
	bouncePrev := meanDayBounce(prevDays) * 100

	var engaged, engagedPrev float64
	for _, d := range curDays {
		engaged += d.engaged
	}
	for _, d := range prevDays {
		engagedPrev += d.engaged
	}

	kpis := QualityKPIs{
		QualityRatePct:     round1(100 - bounce),
		QualityRateDelta:   round1((100 - bounce) - (100 - bouncePrev)),
		BounceRatePct:      round1(bounce),
		BounceRateDelta:    round1(bounce - bouncePrev),
		EngagedSessions:    int(engaged),
		EngagedSessionsPct: PercentChange(engaged, engagedPrev),
	}

	breakdown := make([]DayQuality, 0, len(curDays))
	for _, d := range curDays {
		var br float64
		if d.bounceN > 0 {
			br = d.bounceSum / float64(d.bounceN)
		}
		breakdown = append(breakdown, DayQuality{
			Date:           d.date,
			ValidUsers:     int(math.Round(d.users * (1 - br))),
			InvalidUsers:   int(math.Round(d.users * br)),
			TotalUsers:     int(d.users),
			QualityRatePct: round1((1 - br) * 100),
		})
	}
	return kpis, breakdown
}

type dayBucket struct {
	date      time.Time
	users     float64
	engaged   float64
	bounceSum float64
	bounceN   int
}

func qualityDays(t dataset.Table, w timeframe.Window) []dayBucket {
	if w.IsZero() {
		return nil
	}
	byDate := make(map[time.Time]*dayBucket)
	for _, r := range t.Rows {
		if !w.Contains(r.Date) {
			continue
		}
		b := byDate[r.Date]
		if b == nil {
			b = &dayBucket{date: r.Date}
			byDate[r.Date] = b
		}
		b.users += r.TotalUsers
		b.engaged += r.EngagedSessions
		if r.BounceRate != nil {
			b.bounceSum += *r.BounceRate
			b.bounceN++
		}
	}
	out := make([]dayBucket, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out
}

// meanDayBounce averages the per-day mean bounce rates, skipping days where
// no row defined one.
func meanDayBounce(days []dayBucket) float64 {
	var sum float64
	var n int
	for _, d := range days {
		if d.bounceN == 0 {
			continue
		}
		sum += d.bounceSum / float64(d.bounceN)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
