package analytics

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"webpulse/internal/dataset"
	"webpulse/internal/timeframe"
)

// TopEntry is one row of a ranked dimension breakdown.
type TopEntry struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	SharePct float64 `json:"share_pct"`
}

var channelCaser = cases.Title(language.English)

// ChannelLabel normalizes a traffic-channel label to title case, so that
// sources reporting "organic search" and "Organic Search" rank as one
// channel.
func ChannelLabel(raw string) string {
	return channelCaser.String(strings.ToLower(strings.TrimSpace(raw)))
}

// TopByDimension ranks the values of a dimension by the summed metric over
// the window, descending, capped at limit, each entry annotated with its
// share of the window total. Ties rank alphabetically for a stable order.
// Channel values are normalized through ChannelLabel before grouping; empty
// and placeholder values are skipped. A dimension the table does not carry
// yields nil.
func TopByDimension(t dataset.Table, w timeframe.Window, d dataset.Dimension, metric string, limit int) []TopEntry {
	if !t.Kind.Has(d) || !dataset.KnownMetric(metric) {
		return nil
	}

	sums := make(map[string]float64)
	var total float64
	for _, r := range t.Rows {
		if !w.Contains(r.Date) {
			continue
		}
		var name string
		switch d {
		case dataset.DimPage:
			name = r.Page
		case dataset.DimCountry:
			name = r.Country
		case dataset.DimCity:
			name = r.City
		case dataset.DimChannel:
			name = r.Channel
		}
		if name == "" || name == "(not set)" {
			continue
		}
		if d == dataset.DimChannel {
			name = ChannelLabel(name)
		}
		v, ok := r.Metric(metric)
		if !ok {
			continue
		}
		sums[name] += v
		total += v
	}

	out := make([]TopEntry, 0, len(sums))
	for name, v := range sums {
		e := TopEntry{Name: name, Value: v}
		if total > 0 {
			e.SharePct = round1(v / total * 100)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
