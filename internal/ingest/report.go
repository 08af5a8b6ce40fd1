// Package ingest turns source report rows into typed dataset tables,
// applies the traffic-quality filter and keeps the live snapshot fresh.
package ingest

import (
	"time"

	"webpulse/internal/dataset"
	"webpulse/internal/timeframe"
)

// ReportRow is one row as delivered by a source: dimension and metric
// columns keyed by name, whichever the source happened to include. Column
// presence is resolved here, once, into typed records; aggregation code
// never sees a missing-column case.
type ReportRow struct {
	Dimensions map[string]string
	Metrics    map[string]float64
}

// Dimension column names sources report.
const (
	ColDate    = "date"
	ColPage    = "pagePath"
	ColCountry = "country"
	ColCity    = "city"
	ColChannel = "sessionDefaultChannelGroup"
)

// Metric column names sources report.
const (
	MetricSessions        = "sessions"
	MetricTotalUsers      = "totalUsers"
	MetricNewUsers        = "newUsers"
	MetricPageViews       = "screenPageViews"
	MetricEngagedSessions = "engagedSessions"
	MetricConversions     = "conversions"
	MetricRevenue         = "totalRevenue"
	MetricBounceRate      = "bounceRate"
	MetricAvgDuration     = "averageSessionDuration"
)

// MaterializeTemporal builds the page/country/channel table from report
// rows. Rows without a parseable date are dropped; the count of dropped
// rows is returned for the caller to log.
func MaterializeTemporal(rows []ReportRow) (dataset.Table, int) {
	return materialize(rows, dataset.KindTemporal)
}

// MaterializeGeo builds the country/city table from report rows.
func MaterializeGeo(rows []ReportRow) (dataset.Table, int) {
	return materialize(rows, dataset.KindGeo)
}

func materialize(rows []ReportRow, kind dataset.Kind) (dataset.Table, int) {
	table := dataset.Table{Kind: kind, Rows: make([]dataset.Record, 0, len(rows))}
	dropped := 0
	for _, row := range rows {
		date, ok := parseReportDate(row.Dimensions[ColDate])
		if !ok {
			dropped++
			continue
		}

		rec := dataset.Record{Date: date}
		switch kind {
		case dataset.KindTemporal:
			rec.Page = row.Dimensions[ColPage]
			rec.Country = row.Dimensions[ColCountry]
			rec.Channel = row.Dimensions[ColChannel]
		case dataset.KindGeo:
			rec.Country = row.Dimensions[ColCountry]
			rec.City = row.Dimensions[ColCity]
		}

		rec.Sessions = row.Metrics[MetricSessions]
		rec.TotalUsers = row.Metrics[MetricTotalUsers]
		rec.NewUsers = row.Metrics[MetricNewUsers]
		rec.PageViews = row.Metrics[MetricPageViews]
		rec.EngagedSessions = row.Metrics[MetricEngagedSessions]
		rec.Conversions = row.Metrics[MetricConversions]
		rec.Revenue = row.Metrics[MetricRevenue]
		if v, ok := row.Metrics[MetricBounceRate]; ok {
			rec.BounceRate = &v
		}
		if v, ok := row.Metrics[MetricAvgDuration]; ok {
			rec.AvgSessionDuration = &v
		}

		table.Rows = append(table.Rows, rec)
	}
	return table, dropped
}

// parseReportDate accepts the compact report format first, then ISO.
func parseReportDate(s string) (time.Time, bool) {
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return timeframe.DateOf(t), true
		}
	}
	return time.Time{}, false
}
