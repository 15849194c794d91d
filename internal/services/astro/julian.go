package astro

import (
	"math"
	"time"
)

// J2000 is the Julian Day of 2000-01-01 12:00 TT.
const J2000 = 2451545.0

const daysPerCentury = 36525.0

// CalendarToJD converts a proleptic Gregorian date with fractional day to a Julian Day
// (Meeus, Astronomical Algorithms, ch. 7). January and February count as months 13 and 14
// of the preceding year.
func CalendarToJD(year, month int, day float64) float64 {
	y := float64(year)
	m := float64(month)
	if month <= 2 {
		y--
		m += 12
	}
	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + day + b - 1524.5
}

// JDToCalendar is the inverse of CalendarToJD.
func JDToCalendar(jd float64) (year, month int, day float64) {
	jd += 0.5
	z := math.Floor(jd)
	f := jd - z

	alpha := math.Floor((z - 1867216.25) / 36524.25)
	a := z + 1 + alpha - math.Floor(alpha/4)

	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	e := math.Floor((b - d) / 30.6001)

	day = b - d - math.Floor(30.6001*e) + f
	if e < 14 {
		month = int(e) - 1
	} else {
		month = int(e) - 13
	}
	if month > 2 {
		year = int(c) - 4716
	} else {
		year = int(c) - 4715
	}
	return year, month, day
}

// JulianDay returns the Julian Day of an instant. The instant is converted to UTC first.
func JulianDay(t time.Time) float64 {
	u := t.UTC()
	secs := float64(u.Hour()*3600+u.Minute()*60+u.Second()) + float64(u.Nanosecond())/1e9
	return CalendarToJD(u.Year(), int(u.Month()), float64(u.Day())+secs/86400)
}

// JDToTime converts a Julian Day back to a UTC instant, rounded to the millisecond.
func JDToTime(jd float64) time.Time {
	y, m, d := JDToCalendar(jd)
	whole := math.Floor(d)
	frac := d - whole
	ms := time.Duration(math.Round(frac*86400e3)) * time.Millisecond
	return time.Date(y, time.Month(m), int(whole), 0, 0, 0, 0, time.UTC).Add(ms)
}

// JulianCenturies returns T, Julian centuries since J2000.0.
func JulianCenturies(jd float64) float64 {
	return (jd - J2000) / daysPerCentury
}
