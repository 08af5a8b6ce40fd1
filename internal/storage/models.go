package storage

import (
	"time"

	"webpulse/internal/dataset"
)

// TemporalRow is the persisted form of one raw daily record of the
// page/country/channel table.
type TemporalRow struct {
	ID      uint      `gorm:"primaryKey"`
	Date    time.Time `gorm:"index;not null"`
	Page    string    `gorm:"size:2048"`
	Country string    `gorm:"size:128;index"`
	Channel string    `gorm:"size:128"`

	Sessions        float64
	TotalUsers      float64
	NewUsers        float64
	PageViews       float64
	EngagedSessions float64
	Conversions     float64
	Revenue         float64

	BounceRate         *float64
	AvgSessionDuration *float64
}

func (TemporalRow) TableName() string { return "temporal_rows" }

// GeoRow is the persisted form of one raw daily record of the country/city
// table.
type GeoRow struct {
	ID      uint      `gorm:"primaryKey"`
	Date    time.Time `gorm:"index;not null"`
	Country string    `gorm:"size:128;index"`
	City    string    `gorm:"size:256"`

	Sessions        float64
	TotalUsers      float64
	NewUsers        float64
	PageViews       float64
	EngagedSessions float64
	Conversions     float64
	Revenue         float64

	BounceRate         *float64
	AvgSessionDuration *float64
}

func (GeoRow) TableName() string { return "geo_rows" }

func temporalFromRecord(r dataset.Record) TemporalRow {
	return TemporalRow{
		Date:               r.Date,
		Page:               r.Page,
		Country:            r.Country,
		Channel:            r.Channel,
		Sessions:           r.Sessions,
		TotalUsers:         r.TotalUsers,
		NewUsers:           r.NewUsers,
		PageViews:          r.PageViews,
		EngagedSessions:    r.EngagedSessions,
		Conversions:        r.Conversions,
		Revenue:            r.Revenue,
		BounceRate:         r.BounceRate,
		AvgSessionDuration: r.AvgSessionDuration,
	}
}

func (m TemporalRow) record() dataset.Record {
	return dataset.Record{
		Date:               m.Date.UTC(),
		Page:               m.Page,
		Country:            m.Country,
		Channel:            m.Channel,
		Sessions:           m.Sessions,
		TotalUsers:         m.TotalUsers,
		NewUsers:           m.NewUsers,
		PageViews:          m.PageViews,
		EngagedSessions:    m.EngagedSessions,
		Conversions:        m.Conversions,
		Revenue:            m.Revenue,
		BounceRate:         m.BounceRate,
		AvgSessionDuration: m.AvgSessionDuration,
	}
}

func geoFromRecord(r dataset.Record) GeoRow {
	return GeoRow{
		Date:               r.Date,
		Country:            r.Country,
		City:               r.City,
		Sessions:           r.Sessions,
		TotalUsers:         r.TotalUsers,
		NewUsers:           r.NewUsers,
		PageViews:          r.PageViews,
		EngagedSessions:    r.EngagedSessions,
		Conversions:        r.Conversions,
		Revenue:            r.Revenue,
		BounceRate:         r.BounceRate,
		AvgSessionDuration: r.AvgSessionDuration,
	}
}

func (m GeoRow) record() dataset.Record {
	return dataset.Record{
		Date:               m.Date.UTC(),
		Country:            m.Country,
		City:               m.City,
		Sessions:           m.Sessions,
		TotalUsers:         m.TotalUsers,
		NewUsers:           m.NewUsers,
		PageViews:          m.PageViews,
		EngagedSessions:    m.EngagedSessions,
		Conversions:        m.Conversions,
		Revenue:            m.Revenue,
		BounceRate:         m.BounceRate,
		AvgSessionDuration: m.AvgSessionDuration,
	}
}
