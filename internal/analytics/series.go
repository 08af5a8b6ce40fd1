package analytics

import (
	"fmt"
	"sort"
	"time"

	"webpulse/internal/dataset"
	"webpulse/internal/timeframe"
)

// SeriesPoint is one daily value of an aggregated time series.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Trend labels the direction of a series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendFlat       Trend = "flat"
)

// ComparisonSeries pairs the current window's daily series for one metric
// with the previous window's, plus totals, the relative change, a
// half-over-half trend label for the current series, and its least-squares
// slope. The two series may have different lengths when the previous window
// was shrunk against the start of history; consumers align by position.
type ComparisonSeries struct {
	Metric        string        `json:"metric"`
	Current       []SeriesPoint `json:"current"`
	Previous      []SeriesPoint `json:"previous"`
	TotalCurrent  float64       `json:"total_current"`
	TotalPrevious float64       `json:"total_previous"`
	ChangePct     float64       `json:"change_pct"`
	Trend         Trend         `json:"trend"`
	Slope         float64       `json:"slope"`
}

// BuildComparisonSeries aggregates the named metric per day over both
// windows. Rows sharing a date are summed into one point; days with no rows
// produce no point. Points come back sorted by date ascending. Unknown
// metric names are rejected.
func BuildComparisonSeries(t dataset.Table, current, previous timeframe.Window, metric string) (ComparisonSeries, error) {
	if !dataset.KnownMetric(metric) {
		return ComparisonSeries{}, fmt.Errorf("unknown metric %q", metric)
	}

	cur := dailySeries(t, current, metric)
	prev := dailySeries(t, previous, metric)

	out := ComparisonSeries{
		Metric:        metric,
		Current:       cur,
		Previous:      prev,
		TotalCurrent:  seriesTotal(cur),
		TotalPrevious: seriesTotal(prev),
		Trend:         seriesTrend(cur),
		Slope:         seriesSlope(cur),
	}
	out.ChangePct = PercentChange(out.TotalCurrent, out.TotalPrevious)
	return out, nil
}

func dailySeries(t dataset.Table, w timeframe.Window, metric string) []SeriesPoint {
	if w.IsZero() {
		return nil
	}
	byDate := make(map[time.Time]float64)
	for _, r := range t.InWindow(w).Rows {
		v, ok := r.Metric(metric)
		if !ok {
			continue
		}
		byDate[r.Date] += v
	}
	out := make([]SeriesPoint, 0, len(byDate))
	for d, v := range byDate {
		out = append(out, SeriesPoint{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func seriesTotal(points []SeriesPoint) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Value
	}
	return sum
}

// seriesTrend compares the first half of the series against the second.
// Fewer than two points cannot establish a direction and read as flat, as
// does an exact tie.
func seriesTrend(points []SeriesPoint) Trend {
	if len(points) < 2 {
		return TrendFlat
	}
	mid := len(points) / 2
	first := seriesTotal(points[:mid])
	second := seriesTotal(points[mid:])
	switch {
	case second > first:
		return TrendIncreasing
	case second < first:
		return TrendDecreasing
	default:
		return TrendFlat
	}
}

// seriesSlope fits a least-squares line through the points indexed by
// position and returns its slope in metric units per day.
func seriesSlope(points []SeriesPoint) float64 {
	n := float64(len(points))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
