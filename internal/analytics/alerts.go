package analytics

import (
	_ "embed"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"webpulse/internal/dataset"
	"webpulse/internal/timeframe"
)

//go:embed alert_rules.yml
var alertRulesYAML []byte

// AlertRules holds the thresholds the alert generator checks against.
type AlertRules struct {
	Sessions struct {
		CriticalDropPct float64 `yaml:"critical_drop_pct"`
		ModerateDropPct float64 `yaml:"moderate_drop_pct"`
		SurgePct        float64 `yaml:"surge_pct"`
	} `yaml:"sessions"`
	Users struct {
		CriticalDropPct float64 `yaml:"critical_drop_pct"`
	} `yaml:"users"`
	BounceRate struct {
		RisePoints float64 `yaml:"rise_points"`
		HighPct    float64 `yaml:"high_pct"`
	} `yaml:"bounce_rate"`
	Bots struct {
		MinSessions         int     `yaml:"min_sessions"`
		AdmissionMaxAvgSecs float64 `yaml:"admission_max_avg_secs"`
		CriticalMaxAvgSecs  float64 `yaml:"critical_max_avg_secs"`
		ModerateMaxAvgSecs  float64 `yaml:"moderate_max_avg_secs"`
		MaxAlerts           int     `yaml:"max_alerts"`
	} `yaml:"bots"`
	Geo struct {
		ConcentrationPct float64 `yaml:"concentration_pct"`
	} `yaml:"geo"`
}

var (
	defaultRulesOnce sync.Once
	defaultRules     AlertRules
)

// DefaultAlertRules returns the thresholds shipped with the binary.
func DefaultAlertRules() AlertRules {
	defaultRulesOnce.Do(func() {
		if err := yaml.Unmarshal(alertRulesYAML, &defaultRules); err != nil {
			panic("alerts: invalid embedded rules: " + err.Error())
		}
	})
	return defaultRules
}

// Severity orders alerts from most to least urgent.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityModerate Severity = "moderate"
	SeverityInfo     Severity = "info"
)

// Alert is one detected condition. Numeric context travels in dedicated
// fields rather than formatted into the text, so consumers choose their own
// presentation.
type Alert struct {
	Severity       Severity `json:"severity"`
	Code           string   `json:"code"`
	Title          string   `json:"title"`
	Detail         string   `json:"detail"`
	Recommendation string   `json:"recommendation"`
	Country        string   `json:"country,omitempty"`
	Value          float64  `json:"value,omitempty"`
	Bot            bool     `json:"bot,omitempty"`
}

// AlertReport is the ordered alert list with its severity tally and a
// traffic status: "anomaly" with criticals present, "warning" with
// moderates, "normal" otherwise.
type AlertReport struct {
	Status   string  `json:"status"`
	Alerts   []Alert `json:"alerts"`
	Critical int     `json:"critical"`
	Moderate int     `json:"moderate"`
	Info     int     `json:"info"`
}

// GenerateAlerts checks the current window against the previous one for
// threshold breaches in sessions, users and bounce rate, runs the bot
// classifier over the raw geographic table for per-country bot alerts, and
// flags heavy geographic concentration. A quiet period yields a single
// informational all-clear entry.
func GenerateAlerts(temporal, geoRaw dataset.Table, res timeframe.Resolution, rules AlertRules) AlertReport {
	var alerts []Alert

	cur := AggregateKPIs(temporal, res.Current)
	prev := AggregateKPIs(temporal, res.Previous)

	sessionsChange := PercentChange(float64(cur.Sessions), float64(prev.Sessions))
	switch {
	case sessionsChange < rules.Sessions.CriticalDropPct:
		alerts = append(alerts, Alert{
			Severity:       SeverityCritical,
			Code:           "sessions_drop",
			Title:          "Significant session drop",
			Detail:         "Sessions fell sharply against the previous period.",
			Recommendation: "Check active campaigns, search visibility and possible technical faults.",
			Value:          sessionsChange,
		})
	case sessionsChange < rules.Sessions.ModerateDropPct:
		alerts = append(alerts, Alert{
			Severity:       SeverityModerate,
			Code:           "sessions_decline",
			Title:          "Session decline",
			Detail:         "Sessions decreased against the previous period.",
			Recommendation: "Watch the trend and review the main traffic sources.",
			Value:          sessionsChange,
		})
	case sessionsChange > rules.Sessions.SurgePct:
		alerts = append(alerts, Alert{
			Severity:       SeverityInfo,
			Code:           "sessions_surge",
			Title:          "Notable session increase",
			Detail:         "Sessions rose sharply; could be a successful campaign or inorganic traffic.",
			Recommendation: "Verify traffic quality and origin.",
			Value:          sessionsChange,
		})
	}

	usersChange := PercentChange(float64(cur.TotalUsers), float64(prev.TotalUsers))
	if usersChange < rules.Users.CriticalDropPct {
		alerts = append(alerts, Alert{
			Severity:       SeverityCritical,
			Code:           "users_drop",
			Title:          "User loss",
			Detail:         "The user count fell sharply against the previous period.",
			Recommendation: "Review retention and acquisition channels.",
			Value:          usersChange,
		})
	}

	bounceChange := round1(cur.BounceRatePct - prev.BounceRatePct)
	switch {
	case bounceChange > rules.BounceRate.RisePoints:
		alerts = append(alerts, Alert{
			Severity:       SeverityModerate,
			Code:           "bounce_rise",
			Title:          "Bounce rate increase",
			Detail:         "The bounce rate rose, pointing at relevance or experience problems.",
			Recommendation: "Review landing pages and load times.",
			Value:          bounceChange,
		})
	case cur.BounceRatePct > rules.BounceRate.HighPct:
		alerts = append(alerts, Alert{
			Severity:       SeverityInfo,
			Code:           "bounce_high",
			Title:          "Elevated bounce rate",
			Detail:         "The bounce rate sits above the recommended ceiling.",
			Recommendation: "Optimize content and user experience.",
			Value:          cur.BounceRatePct,
		})
	}

	alerts = append(alerts, botAlerts(geoRaw, res.Current, rules)...)
	alerts = append(alerts, geoConcentrationAlert(geoRaw, res.Current, rules)...)

	if len(alerts) == 0 {
		alerts = append(alerts, Alert{
			Severity:       SeverityInfo,
			Code:           "all_clear",
			Title:          "No anomalies detected",
			Detail:         "No significant anomalies in the selected period.",
			Recommendation: "Keep monitoring the metrics regularly.",
		})
	}

	severityRank := map[Severity]int{SeverityCritical: 0, SeverityModerate: 1, SeverityInfo: 2}
	sort.SliceStable(alerts, func(i, j int) bool {
		return severityRank[alerts[i].Severity] < severityRank[alerts[j].Severity]
	})

	report := AlertReport{Status: "normal", Alerts: alerts}
	for _, a := range alerts {
		switch a.Severity {
		case SeverityCritical:
			report.Critical++
		case SeverityModerate:
			report.Moderate++
		case SeverityInfo:
			report.Info++
		}
	}
	if report.Critical > 0 {
		report.Status = "anomaly"
	} else if report.Moderate > 0 {
		report.Status = "warning"
	}
	return report
}

// botAlerts raises one alert per suspicious country, graded stricter than
// the classifier's admission bar.
func botAlerts(geoRaw dataset.Table, w timeframe.Window, rules AlertRules) []Alert {
	report := ClassifyBotTraffic(geoRaw, w, rules.Bots.MinSessions, rules.Bots.AdmissionMaxAvgSecs)

	var out []Alert
	for _, c := range report.Countries {
		if rules.Bots.MaxAlerts > 0 && len(out) >= rules.Bots.MaxAlerts {
			break
		}
		sev := SeverityInfo
		switch {
		case c.AvgDurationSecs < rules.Bots.CriticalMaxAvgSecs:
			sev = SeverityCritical
		case c.AvgDurationSecs < rules.Bots.ModerateMaxAvgSecs:
			sev = SeverityModerate
		}
		out = append(out, Alert{
			Severity:       sev,
			Code:           "bot_traffic",
			Title:          "Possible bot traffic",
			Detail:         "Short average session duration over mostly non-engaged sessions, a typical automated-traffic pattern.",
			Recommendation: "Review traffic sources from this country and active campaigns in that market.",
			Country:        c.Country,
			Value:          c.AvgDurationSecs,
			Bot:            true,
		})
	}
	return out
}

// geoConcentrationAlert flags a single country carrying most of the engaged
// traffic.
func geoConcentrationAlert(geoRaw dataset.Table, w timeframe.Window, rules AlertRules) []Alert {
	top := TopByDimension(geoRaw, w, dataset.DimCountry, "engagedSessions", 1)
	if len(top) == 0 || top[0].SharePct <= rules.Geo.ConcentrationPct {
		return nil
	}
	return []Alert{{
		Severity:       SeverityInfo,
		Code:           "geo_concentration",
		Title:          "High geographic concentration",
		Detail:         "Most of the traffic comes from a single country.",
		Recommendation: "Consider expansion strategies into other markets.",
		Country:        top[0].Name,
		Value:          top[0].SharePct,
	}}
}
