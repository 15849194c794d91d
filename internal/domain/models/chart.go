package models

import "time"

// BirthData is the raw birth moment and place supplied by a caller.
// Date is YYYY-MM-DD and Time is HH:MM[:SS] in the local civil time of the birth place.
type BirthData struct {
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Timezone  string   `json:"timezone,omitempty"`   // IANA name, e.g. "Europe/Rome"
	UTCOffset *float64 `json:"utc_offset,omitempty"` // hours east of UTC, used when Timezone is empty
}

// ChartOptions selects the house system and aspect orbs.
type ChartOptions struct {
	HouseSystem  string             `json:"house_system,omitempty"`
	IncludeMinor bool               `json:"include_minor_aspects,omitempty"`
	Orbs         map[string]float64 `json:"orbs,omitempty"`
}

type EquatorialCoords struct {
	RightAscension float64 `json:"right_ascension"` // degrees
	Declination    float64 `json:"declination"`
}

type HorizontalCoords struct {
	Azimuth  float64 `json:"azimuth"` // degrees from north, eastwards
	Altitude float64 `json:"altitude"`
}

type PlanetPosition struct {
	Body         string           `json:"body"`
	Longitude    float64          `json:"longitude"`
	Latitude     float64          `json:"latitude"`
	Distance     float64          `json:"distance"` // AU
	Speed        float64          `json:"speed"`    // degrees per day
	Sign         string           `json:"sign"`
	DegreeInSign float64          `json:"degree_in_sign"`
	Formatted    string           `json:"formatted"`
	Retrograde   bool             `json:"retrograde"`
	House        int              `json:"house,omitempty"`
	Equatorial   EquatorialCoords `json:"equatorial"`
	Horizontal   HorizontalCoords `json:"horizontal"`
}

type HouseData struct {
	House        int     `json:"house"`
	Cusp         float64 `json:"cusp"`
	Sign         string  `json:"sign"`
	DegreeInSign float64 `json:"degree_in_sign"`
}

type AspectData struct {
	Planet1    string  `json:"planet1"`
	Planet2    string  `json:"planet2"`
	Type       string  `json:"type"`
	Angle      float64 `json:"angle"`      // canonical aspect angle
	Separation float64 `json:"separation"` // actual angular distance, 0..180
	Orb        float64 `json:"orb"`
	Nature     string  `json:"nature"` // harmonious | challenging | neutral
	Exact      bool    `json:"exact"`
	Applying   bool    `json:"applying"`
}

// ChartPoint is a sensitive point on the ecliptic such as the Ascendant.
type ChartPoint struct {
	Longitude    float64 `json:"longitude"`
	Sign         string  `json:"sign"`
	DegreeInSign float64 `json:"degree_in_sign"`
	Formatted    string  `json:"formatted"`
}

type Balance struct {
	Elements         map[string]int `json:"elements"`
	Modalities       map[string]int `json:"modalities"`
	DominantElement  string         `json:"dominant_element"`
	DominantModality string         `json:"dominant_modality"`
}

// BirthChartData is the full result of a natal chart calculation.
type BirthChartData struct {
	ID           string           `json:"id,omitempty"`
	Input        BirthData        `json:"input"`
	Options      ChartOptions     `json:"options"`
	UTC          time.Time        `json:"utc"`
	JulianDay    float64          `json:"julian_day"`
	Obliquity    float64          `json:"obliquity"`
	SiderealTime float64          `json:"sidereal_time"` // local apparent, degrees
	HouseSystem  string           `json:"house_system"`
	Ascendant    ChartPoint       `json:"ascendant"`
	Midheaven    ChartPoint       `json:"midheaven"`
	Planets      []PlanetPosition `json:"planets"`
	Houses       []HouseData      `json:"houses"`
	Aspects      []AspectData     `json:"aspects"`
	Balance      Balance          `json:"balance"`
}

// Planet returns the position of the named body, if present.
func (c *BirthChartData) Planet(body string) (PlanetPosition, bool) {
	for _, p := range c.Planets {
		if p.Body == body {
			return p, true
		}
	}
	return PlanetPosition{}, false
}

// SkySnapshot is the set of positions for an arbitrary moment and observer.
type SkySnapshot struct {
	At           time.Time        `json:"at"`
	JulianDay    float64          `json:"julian_day"`
	Latitude     float64          `json:"latitude"`
	Longitude    float64          `json:"longitude"`
	SiderealTime float64          `json:"sidereal_time"`
	Planets      []PlanetPosition `json:"planets"`
}

// SynastryData holds the cross aspects between two charts.
type SynastryData struct {
	First   string       `json:"first"`
	Second  string       `json:"second"`
	Aspects []AspectData `json:"aspects"`
}
