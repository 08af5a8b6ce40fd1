package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webpulse/internal/analytics"
	"webpulse/internal/dataset"
	"webpulse/internal/ingest"
)

func geoRow(day int, country string, sessions, engaged float64, avgDur float64) dataset.Record {
	return dataset.Record{
		Date:               date(2024, 1, day),
		Country:            country,
		Sessions:           sessions,
		EngagedSessions:    engaged,
		AvgSessionDuration: ptr(avgDur),
	}
}

func TestClassifyBotTrafficFlagsShortSessionCountry(t *testing.T) {
	table := dataset.Table{
		Kind: dataset.KindGeo,
		Rows: []dataset.Record{
			geoRow(2, "Testland", 50, 5, 1.5),
			geoRow(2, "Spain", 200, 150, 95),
		},
	}
	w := window(t, date(2024, 1, 1), date(2024, 1, 7))

	report := analytics.ClassifyBotTraffic(table, w, 10, 5)

	require.Len(t, report.Countries, 1)
	flagged := report.Countries[0]
	assert.Equal(t, "Testland", flagged.Country)
	assert.Equal(t, analytics.RiskCritical, flagged.Risk)
	assert.Equal(t, 45, flagged.NonEngagedSessions)
	assert.InDelta(t, 90.0, flagged.NonEngagedPct, 1e-9)
	// A fabricated label has no ISO code but is assessed anyway.
	assert.Empty(t, flagged.CountryCode)

	assert.Equal(t, 250, report.SessionsAnalyzed)
	assert.Equal(t, 95, report.NonEngagedSessions)
	assert.InDelta(t, 38.0, report.BotPct, 1e-9)
	assert.Equal(t, analytics.RiskHigh, report.Risk)
}

func TestClassifyBotTrafficNormalDwellNeverAdmitted(t *testing.T) {
	// Huge volume but a 10s average duration: excluded outright.
	table := dataset.Table{
		Kind: dataset.KindGeo,
		Rows: []dataset.Record{geoRow(2, "Germany", 100000, 10000, 10)},
	}
	report := analytics.ClassifyBotTraffic(table, window(t, date(2024, 1, 1), date(2024, 1, 7)), 5, 5)
	assert.Empty(t, report.Countries)
}

func TestClassifyBotTrafficVolumeThreshold(t *testing.T) {
	table := dataset.Table{
		Kind: dataset.KindGeo,
		Rows: []dataset.Record{geoRow(2, "Andorra", 4, 0, 1.0)},
	}
	report := analytics.ClassifyBotTraffic(table, window(t, date(2024, 1, 1), date(2024, 1, 7)), 5, 5)
	assert.Empty(t, report.Countries)
}

func TestClassifyBotTrafficRiskTiers(t *testing.T) {
	testCases := []struct {
		name     string
		avgDur   float64
		expected analytics.RiskLevel
	}{
		{"under two seconds", 1.9, analytics.RiskCritical},
		{"under three seconds", 2.5, analytics.RiskHigh},
		{"under four seconds", 3.5, analytics.RiskMedium},
		{"under admission bar", 4.5, analytics.RiskLow},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table := dataset.Table{
				Kind: dataset.KindGeo,
				Rows: []dataset.Record{geoRow(2, "Spain", 20, 2, tc.avgDur)},
			}
			report := analytics.ClassifyBotTraffic(table, window(t, date(2024, 1, 1), date(2024, 1, 7)), 5, 5)
			require.Len(t, report.Countries, 1)
			assert.Equal(t, tc.expected, report.Countries[0].Risk)
		})
	}
}

func TestClassifyBotTrafficRankedByNonEngaged(t *testing.T) {
	table := dataset.Table{
		Kind: dataset.KindGeo,
		Rows: []dataset.Record{
			geoRow(2, "Spain", 30, 10, 1.0),   // 20 non-engaged
			geoRow(2, "France", 80, 20, 1.0),  // 60 non-engaged
			geoRow(2, "Mexico", 50, 15, 1.0),  // 35 non-engaged
		},
	}
	report := analytics.ClassifyBotTraffic(table, window(t, date(2024, 1, 1), date(2024, 1, 7)), 5, 5)

	require.Len(t, report.Countries, 3)
	assert.Equal(t, "France", report.Countries[0].Country)
	assert.Equal(t, "Mexico", report.Countries[1].Country)
	assert.Equal(t, "Spain", report.Countries[2].Country)
	assert.Equal(t, "FR", report.Countries[0].CountryCode)
}

func TestClassifyBotTrafficIgnoresPlaceholderCountry(t *testing.T) {
	table := dataset.Table{
		Kind: dataset.KindGeo,
		Rows: []dataset.Record{geoRow(2, "(not set)", 500, 0, 0.5)},
	}
	report := analytics.ClassifyBotTraffic(table, window(t, date(2024, 1, 1), date(2024, 1, 7)), 5, 5)
	assert.Empty(t, report.Countries)
	assert.Equal(t, 0, report.SessionsAnalyzed)
}

// The quality filter removes exactly the short sessions the classifier
// hunts for. Feeding it the filtered table instead of the raw one silently
// disables detection; this pins the routing requirement.
func TestClassifyBotTrafficRequiresRawTable(t *testing.T) {
	raw := dataset.Table{
		Kind: dataset.KindGeo,
		Rows: []dataset.Record{
			geoRow(2, "Testland", 50, 5, 1.5),
			geoRow(2, "Spain", 200, 150, 95),
		},
	}
	w := window(t, date(2024, 1, 1), date(2024, 1, 7))

	fromRaw := analytics.ClassifyBotTraffic(raw, w, 10, 5)
	require.Len(t, fromRaw.Countries, 1)

	clean := ingest.FilterQuality(raw, 5)
	fromClean := analytics.ClassifyBotTraffic(clean, w, 10, 5)
	assert.Empty(t, fromClean.Countries)
}
