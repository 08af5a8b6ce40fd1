// Package dataset defines the in-memory analytics tables the aggregation
// core operates on: daily records keyed by date plus the dimensions of their
// sub-table, equality filtering, and the swappable snapshot that holds both
// the raw and the quality-filtered views of the data.
package dataset

import (
	"time"

	"webpulse/internal/timeframe"
)

// Dimension identifies a categorical column of a sub-table.
type Dimension string

const (
	DimPage    Dimension = "page"
	DimCountry Dimension = "country"
	DimCity    Dimension = "city"
	DimChannel Dimension = "channel"
)

// Kind identifies which logical sub-table a Table holds. The set of
// dimension columns is uniform within a kind; aggregations never mix kinds.
type Kind string

const (
	// KindTemporal is the daily table keyed by date + page + country + channel.
	KindTemporal Kind = "temporal"
	// KindGeo is the geographic table keyed by date + country + city.
	KindGeo Kind = "geo"
)

// Has reports whether the sub-table kind carries the given dimension column.
func (k Kind) Has(d Dimension) bool {
	switch k {
	case KindTemporal:
		return d == DimPage || d == DimCountry || d == DimChannel
	case KindGeo:
		return d == DimCountry || d == DimCity
	default:
		return false
	}
}

// Record is one daily row of a sub-table. Dimension fields not carried by
// the row's sub-table are empty. Count metrics default to zero when the
// source omitted them; rate and duration metrics are nil when omitted so
// that mean computations can skip them.
type Record struct {
	Date time.Time // midnight UTC

	Page    string
	Country string
	City    string
	Channel string

	Sessions        float64
	TotalUsers      float64
	NewUsers        float64
	PageViews       float64
	EngagedSessions float64
	Conversions     float64
	Revenue         float64

	BounceRate         *float64 // fraction in [0,1]
	AvgSessionDuration *float64 // seconds
}

// Metric returns the named metric value for the record. The boolean is
// false when the record does not define the metric (nil rate/duration).
func (r Record) Metric(name string) (float64, bool) {
	switch name {
	case "sessions":
		return r.Sessions, true
	case "totalUsers":
		return r.TotalUsers, true
	case "newUsers":
		return r.NewUsers, true
	case "pageviews", "screenPageViews":
		return r.PageViews, true
	case "engagedSessions":
		return r.EngagedSessions, true
	case "conversions":
		return r.Conversions, true
	case "totalRevenue", "revenue":
		return r.Revenue, true
	case "bounceRate":
		if r.BounceRate == nil {
			return 0, false
		}
		return *r.BounceRate, true
	case "averageSessionDuration":
		if r.AvgSessionDuration == nil {
			return 0, false
		}
		return *r.AvgSessionDuration, true
	default:
		return 0, false
	}
}

// KnownMetric reports whether name is a metric this table understands.
func KnownMetric(name string) bool {
	switch name {
	case "sessions", "totalUsers", "newUsers", "pageviews", "screenPageViews",
		"engagedSessions", "conversions", "totalRevenue", "revenue",
		"bounceRate", "averageSessionDuration":
		return true
	}
	return false
}

// Table is an ordered set of records belonging to one sub-table.
type Table struct {
	Kind Kind
	Rows []Record
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Bounds returns the min/max dates present in the table.
func (t Table) Bounds() timeframe.Bounds {
	if len(t.Rows) == 0 {
		return timeframe.Bounds{}
	}
	min, max := t.Rows[0].Date, t.Rows[0].Date
	for _, r := range t.Rows[1:] {
		if r.Date.Before(min) {
			min = r.Date
		}
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return timeframe.Bounds{Min: min, Max: max, HasData: true}
}

// InWindow returns a new table view holding the rows whose date falls inside
// the window, original order preserved. A zero window yields an empty view.
func (t Table) InWindow(w timeframe.Window) Table {
	out := Table{Kind: t.Kind}
	if w.IsZero() {
		return out
	}
	for _, r := range t.Rows {
		if w.Contains(r.Date) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// FilterSpec holds up to three optional equality constraints. An empty field
// means no constraint on that dimension.
type FilterSpec struct {
	Page    string
	Country string
	Channel string
}

// IsZero reports whether no constraint is active.
func (f FilterSpec) IsZero() bool {
	return f.Page == "" && f.Country == "" && f.Channel == ""
}

// Filter returns a new table view with the records matching every active
// constraint, original order preserved. A constraint on a dimension the
// table's sub-table does not carry is a no-op rather than an error, so the
// same spec can be applied to heterogeneous sub-tables. The source table is
// never mutated.
func (t Table) Filter(spec FilterSpec) Table {
	if spec.IsZero() {
		return t
	}

	matchPage := spec.Page != "" && t.Kind.Has(DimPage)
	matchCountry := spec.Country != "" && t.Kind.Has(DimCountry)
	matchChannel := spec.Channel != "" && t.Kind.Has(DimChannel)
	if !matchPage && !matchCountry && !matchChannel {
		return t
	}

	out := Table{Kind: t.Kind}
	for _, r := range t.Rows {
		if matchPage && r.Page != spec.Page {
			continue
		}
		if matchCountry && r.Country != spec.Country {
			continue
		}
		if matchChannel && r.Channel != spec.Channel {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// DistinctValues returns the distinct non-empty values of a dimension in
// first-seen order. Dimensions the sub-table does not carry yield nil.
func (t Table) DistinctValues(d Dimension) []string {
	if !t.Kind.Has(d) {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		var v string
		switch d {
		case DimPage:
			v = r.Page
		case DimCountry:
			v = r.Country
		case DimCity:
			v = r.City
		case DimChannel:
			v = r.Channel
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
