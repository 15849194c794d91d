package astro

import (
	"math"
	"strings"
	"time"
	_ "time/tzdata"

	"AstroChart/internal/domain/models"
)

var dateLayouts = []string{"2006-01-02", "2006/01/02"}

var timeLayouts = []string{"15:04", "15:04:05", "3:04PM", "3:04 PM", "3:04pm", "3:04 pm"}

// ValidateCoordinates rejects latitudes outside [-90, 90] and longitudes outside [-180, 180].
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return invalid("latitude", "%v is outside [-90, 90]", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return invalid("longitude", "%v is outside [-180, 180]", lon)
	}
	return nil
}

// ParseDate parses YYYY-MM-DD (or YYYY/MM/DD) into year, month, day.
func ParseDate(s string) (int, time.Month, int, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), t.Month(), t.Day(), nil
		}
	}
	return 0, 0, 0, invalid("date", "%q is not a calendar date (want YYYY-MM-DD)", s)
}

// ParseClock parses a wall-clock time. An empty string is noon.
func ParseClock(s string) (hour, minute, second int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 12, 0, 0, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), t.Second(), nil
		}
	}
	return 0, 0, 0, invalid("time", "%q is not a time of day (want HH:MM)", s)
}

// ResolveLocation picks the zone for a birth: the IANA name when given, else the fixed
// UTC offset, else the nautical zone of the longitude.
func ResolveLocation(in models.BirthData) (*time.Location, error) {
	if in.Timezone != "" {
		loc, err := time.LoadLocation(in.Timezone)
		if err != nil {
			return nil, invalid("timezone", "unknown zone %q", in.Timezone)
		}
		return loc, nil
	}
	if in.UTCOffset != nil {
		off := *in.UTCOffset
		if math.IsNaN(off) || off < -14 || off > 14 {
			return nil, invalid("utc_offset", "%v is outside [-14, 14] hours", off)
		}
		return time.FixedZone("", int(math.Round(off*3600))), nil
	}
	hours := int(math.Round(in.Longitude / 15))
	return time.FixedZone("", hours*3600), nil
}

// BirthInstant validates the birth data and returns the moment of birth in UTC.
func BirthInstant(in models.BirthData) (time.Time, error) {
	if err := ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return time.Time{}, err
	}
	y, mo, d, err := ParseDate(in.Date)
	if err != nil {
		return time.Time{}, err
	}
	h, mi, s, err := ParseClock(in.Time)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := ResolveLocation(in)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(y, mo, d, h, mi, s, 0, loc).UTC(), nil
}
