package models

import "time"

// ChartRequestMessage is consumed from the chart requests topic.
type ChartRequestMessage struct {
	RequestID   string       `json:"request_id"`
	Birth       BirthData    `json:"birth"`
	Options     ChartOptions `json:"options"`
	CallbackURL string       `json:"callback_url,omitempty"`
}

// ChartComputedEvent is published for every chart the service calculates.
type ChartComputedEvent struct {
	RequestID  string         `json:"request_id,omitempty"`
	ChartID    string         `json:"chart_id"`
	ComputedAt time.Time      `json:"computed_at"`
	Chart      BirthChartData `json:"chart"`
}

// ChartSummary is the indexed part of a stored chart.
type ChartSummary struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	JulianDay     float64   `json:"julian_day"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	HouseSystem   string    `json:"house_system"`
	SunSign       string    `json:"sun_sign"`
	MoonSign      string    `json:"moon_sign"`
	AscendantSign string    `json:"ascendant_sign"`
}

// Summary extracts the indexed columns from a computed chart.
func (c *BirthChartData) Summary(createdAt time.Time) ChartSummary {
	s := ChartSummary{
		ID:            c.ID,
		CreatedAt:     createdAt,
		JulianDay:     c.JulianDay,
		Latitude:      c.Input.Latitude,
		Longitude:     c.Input.Longitude,
		HouseSystem:   c.HouseSystem,
		AscendantSign: c.Ascendant.Sign,
	}
	if p, ok := c.Planet("Sun"); ok {
		s.SunSign = p.Sign
	}
	if p, ok := c.Planet("Moon"); ok {
		s.MoonSign = p.Sign
	}
	return s
}
