package ingest

import "webpulse/internal/dataset"

// FilterQuality returns the quality-filtered view of a table: rows whose
// average session duration is strictly above minSeconds. When no row in the
// table defines a duration the table passes through untouched, since there
// is nothing to judge quality by. Rows that individually lack a duration
// while others define one are treated as below the bar.
//
// Bot classification must never consume the output of this filter; it needs
// the short sessions this function removes.
func FilterQuality(t dataset.Table, minSeconds float64) dataset.Table {
	anyDuration := false
	for _, r := range t.Rows {
		if r.AvgSessionDuration != nil {
			anyDuration = true
			break
		}
	}
	if !anyDuration {
		return t
	}

	out := dataset.Table{Kind: t.Kind}
	for _, r := range t.Rows {
		if r.AvgSessionDuration == nil || *r.AvgSessionDuration <= minSeconds {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}
