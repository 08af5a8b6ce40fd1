package analytics

import (
	"sort"

	"github.com/pariz/gountries"

	"webpulse/internal/dataset"
	"webpulse/internal/timeframe"
)

// RiskLevel grades how strongly a traffic segment looks automated.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var countryQuery = gountries.New()

// CountryAssessment is the per-country verdict of the bot classifier.
// CountryCode is the ISO alpha-2 code when the label resolves to a real
// country; labels that do not resolve keep an empty code but are still
// assessed, since bot traffic routinely reports fabricated geo labels.
type CountryAssessment struct {
	Country            string    `json:"country"`
	CountryCode        string    `json:"country_code,omitempty"`
	Sessions           int       `json:"sessions"`
	EngagedSessions    int       `json:"engaged_sessions"`
	NonEngagedSessions int       `json:"non_engaged_sessions"`
	NonEngagedPct      float64   `json:"non_engaged_pct"`
	AvgDurationSecs    float64   `json:"avg_duration_secs"`
	Risk               RiskLevel `json:"risk"`
}

// BotReport is the outcome of classifying a window of geographic traffic.
// The global figures cover every country seen in the window, admitted or
// not; Countries lists only the admitted ones.
type BotReport struct {
	SessionsAnalyzed   int                 `json:"sessions_analyzed"`
	NonEngagedSessions int                 `json:"non_engaged_sessions"`
	BotPct             float64             `json:"bot_pct"`
	Risk               RiskLevel           `json:"risk"`
	Countries          []CountryAssessment `json:"countries"`
}

// maxRankedCountries caps the per-country list; the global totals still
// cover every country.
const maxRankedCountries = 10

// ClassifyBotTraffic inspects per-country traffic inside the window and
// flags segments with enough volume and implausibly short sessions as
// suspected bots. It must be fed the raw geographic table: the quality
// filter removes exactly the short sessions the heuristic looks for, and a
// filtered input silently reports everything clean.
//
// A country is admitted when it accumulates at least minSessions sessions
// and its mean session duration stays under maxAvgDurationSecs; countries
// with normal dwell time are excluded outright regardless of volume.
// Admitted countries are graded by duration and ranked by non-engaged
// session volume. The global bot share is non-engaged over total sessions
// across all countries, graded on its own scale. Placeholder "(not set)"
// labels are skipped entirely.
func ClassifyBotTraffic(geoRaw dataset.Table, w timeframe.Window, minSessions int, maxAvgDurationSecs float64) BotReport {
	type bucket struct {
		sessions float64
		engaged  float64
		durSum   float64
		durN     int
	}
	buckets := make(map[string]*bucket)
	for _, r := range geoRaw.Rows {
		if !w.Contains(r.Date) {
			continue
		}
		if r.Country == "" || r.Country == "(not set)" {
			continue
		}
		b := buckets[r.Country]
		if b == nil {
			b = &bucket{}
			buckets[r.Country] = b
		}
		b.sessions += r.Sessions
		b.engaged += r.EngagedSessions
		if r.AvgSessionDuration != nil {
			b.durSum += *r.AvgSessionDuration
			b.durN++
		}
	}

	report := BotReport{Risk: RiskLow}
	var ranked []CountryAssessment
	for name, b := range buckets {
		sessions := int(b.sessions)
		engaged := int(b.engaged)
		nonEngaged := sessions - engaged
		if nonEngaged < 0 {
			nonEngaged = 0
		}
		report.SessionsAnalyzed += sessions
		report.NonEngagedSessions += nonEngaged

		var avgDur float64
		if b.durN > 0 {
			avgDur = b.durSum / float64(b.durN)
		}
		if sessions < minSessions || avgDur >= maxAvgDurationSecs {
			continue
		}

		a := CountryAssessment{
			Country:            name,
			Sessions:           sessions,
			EngagedSessions:    engaged,
			NonEngagedSessions: nonEngaged,
			NonEngagedPct:      round1(float64(nonEngaged) / float64(sessions) * 100),
			AvgDurationSecs:    round1(avgDur),
			Risk:               durationRisk(avgDur),
		}
		if c, err := countryQuery.FindCountryByName(name); err == nil {
			a.CountryCode = c.Alpha2
		}
		ranked = append(ranked, a)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].NonEngagedSessions != ranked[j].NonEngagedSessions {
			return ranked[i].NonEngagedSessions > ranked[j].NonEngagedSessions
		}
		return ranked[i].Country < ranked[j].Country
	})
	if len(ranked) > maxRankedCountries {
		ranked = ranked[:maxRankedCountries]
	}
	report.Countries = ranked

	if report.SessionsAnalyzed > 0 {
		report.BotPct = round1(float64(report.NonEngagedSessions) / float64(report.SessionsAnalyzed) * 100)
		report.Risk = sharesRisk(report.BotPct)
	}
	return report
}

// durationRisk grades an admitted country by how short its sessions run.
func durationRisk(avgDurationSecs float64) RiskLevel {
	switch {
	case avgDurationSecs < 2:
		return RiskCritical
	case avgDurationSecs < 3:
		return RiskHigh
	case avgDurationSecs < 4:
		return RiskMedium
	default:
		return RiskLow
	}
}

// sharesRisk grades the site-wide non-engaged share of sessions.
func sharesRisk(botPct float64) RiskLevel {
	switch {
	case botPct > 50:
		return RiskCritical
	case botPct > 30:
		return RiskHigh
	case botPct > 15:
		return RiskMedium
	default:
		return RiskLow
	}
}
