package astro

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"AstroChart/internal/domain/models"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(360))
	assert.Equal(t, 350.0, Normalize(-10))
	assert.Equal(t, 10.0, Normalize(730))
	assert.Equal(t, 0.0, Normalize(-1e-20))
}

func TestSignedDelta(t *testing.T) {
	assert.InDelta(t, 2.0, SignedDelta(359, 1), 1e-12)
	assert.InDelta(t, -2.0, SignedDelta(1, 359), 1e-12)
	assert.InDelta(t, 180.0, SignedDelta(0, 180), 1e-12)
}

func TestMeanObliquityAtJ2000(t *testing.T) {
	assert.InDelta(t, 23.4392911, MeanObliquity(J2000), 1e-9)
}

func TestNutation(t *testing.T) {
	// 1987-04-10 0h TD: dPsi = -3.788", dEps = +9.443" from the full series.
	dPsi, dEps := Nutation(2446895.5)
	assert.InDelta(t, -3.788, dPsi*3600, 0.5)
	assert.InDelta(t, 9.443, dEps*3600, 0.5)
}

func TestGreenwichMeanSiderealTime(t *testing.T) {
	// 1987-04-10 0h UT: 13h10m46.3668s.
	want := (13 + 10.0/60 + 46.3668/3600) * 15
	assert.InDelta(t, want, GreenwichMeanSiderealTime(2446895.5), 1e-5)
}

func TestLocalSiderealTimeAddsLongitude(t *testing.T) {
	jd := 2451545.25
	assert.InDelta(t, Normalize(ApparentSiderealTime(jd)+45), LocalSiderealTime(jd, 45), 1e-9)
	assert.InDelta(t, Normalize(ApparentSiderealTime(jd)-120), LocalSiderealTime(jd, -120), 1e-9)
}

func TestPrecession(t *testing.T) {
	assert.Zero(t, Precession(J2000))
	assert.InDelta(t, 5029.0966/3600, Precession(J2000+36525), 1e-3)
}

func TestEquatorialToEcliptic(t *testing.T) {
	// Pollux, J2000 equinox.
	lon, lat := EquatorialToEcliptic(models.EquatorialCoords{RightAscension: 116.328942, Declination: 28.026183}, 23.4392911)
	assert.InDelta(t, 113.215630, lon, 1e-5)
	assert.InDelta(t, 6.684170, lat, 1e-5)
}

func TestEclipticEquatorialRoundTrip(t *testing.T) {
	eps := 23.44
	for lon := 0.0; lon < 360; lon += 17.5 {
		for _, lat := range []float64{-60, -5.2, 0, 3.1, 45} {
			eq := EclipticToEquatorial(lon, lat, eps)
			gotLon, gotLat := EquatorialToEcliptic(eq, eps)
			assert.InDelta(t, 0, SignedDelta(lon, gotLon), 1e-9, "lon %v lat %v", lon, lat)
			assert.InDelta(t, lat, gotLat, 1e-9)
		}
	}
}

func TestEclipticPointOnEquinoxes(t *testing.T) {
	eq := EclipticToEquatorial(90, 0, 23.44)
	assert.InDelta(t, 90, eq.RightAscension, 1e-9)
	assert.InDelta(t, 23.44, eq.Declination, 1e-9)
}

func TestHorizontalRoundTrip(t *testing.T) {
	for _, lat := range []float64{-33.9, 0.5, 41.9, 64} {
		for ra := 5.0; ra < 360; ra += 35 {
			eq := models.EquatorialCoords{RightAscension: ra, Declination: 12.5}
			hz := EquatorialToHorizontal(eq, lat, 100)
			assert.GreaterOrEqual(t, hz.Azimuth, 0.0)
			assert.Less(t, hz.Azimuth, 360.0)
			back := HorizontalToEquatorial(hz, lat, 100)
			assert.InDelta(t, 0, SignedDelta(ra, back.RightAscension), 1e-8)
			assert.InDelta(t, 12.5, back.Declination, 1e-8)
		}
	}
}

func TestHorizontalAtMeridian(t *testing.T) {
	// A star culminating south of the zenith sits at azimuth 180.
	hz := EquatorialToHorizontal(models.EquatorialCoords{RightAscension: 50, Declination: 10}, 45, 50)
	assert.InDelta(t, 180, hz.Azimuth, 1e-9)
	assert.InDelta(t, 55, hz.Altitude, 1e-9)
}

func TestFormatDMS(t *testing.T) {
	assert.Equal(t, "12°30'00\"", FormatDMS(12.5))
	assert.Equal(t, "-0°00'36\"", FormatDMS(-0.01))
}

func TestSeparationIsSymmetric(t *testing.T) {
	for a := -400.0; a < 400; a += 37.3 {
		for b := -200.0; b < 720; b += 53.9 {
			s := Separation(a, b)
			assert.Equal(t, s, Separation(b, a))
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 180.0)
			assert.False(t, math.IsNaN(s))
		}
	}
}
