package astro

import "AstroChart/internal/domain/models"

const arcsec = 1.0 / 3600

// MeanObliquity returns the mean obliquity of the ecliptic in degrees (IAU 1980 polynomial).
func MeanObliquity(jd float64) float64 {
	t := JulianCenturies(jd)
	return 23.4392911 + (-46.8150*t-0.00059*t*t+0.001813*t*t*t)*arcsec
}

// Nutation returns nutation in longitude and in obliquity, in degrees, using the
// low-precision four-term series.
func Nutation(jd float64) (dPsi, dEps float64) {
	t := JulianCenturies(jd)
	omega := 125.04452 - 1934.136261*t
	l := 280.4665 + 36000.7698*t
	lp := 218.3165 + 481267.8813*t

	dPsi = -17.20*sinD(omega) - 1.32*sinD(2*l) - 0.23*sinD(2*lp) + 0.21*sinD(2*omega)
	dEps = 9.20*cosD(omega) + 0.57*cosD(2*l) + 0.10*cosD(2*lp) - 0.09*cosD(2*omega)
	return dPsi * arcsec, dEps * arcsec
}

// TrueObliquity is the mean obliquity corrected for nutation.
func TrueObliquity(jd float64) float64 {
	_, dEps := Nutation(jd)
	return MeanObliquity(jd) + dEps
}

// Precession returns the general precession in longitude accumulated since J2000.0, in degrees.
func Precession(jd float64) float64 {
	t := JulianCenturies(jd)
	return (5029.0966*t + 1.11113*t*t - 0.000006*t*t*t) * arcsec
}

// GreenwichMeanSiderealTime returns GMST in degrees, [0, 360).
func GreenwichMeanSiderealTime(jd float64) float64 {
	t := JulianCenturies(jd)
	return Normalize(280.46061837 + 360.98564736629*(jd-J2000) + 0.000387933*t*t - t*t*t/38710000)
}

// ApparentSiderealTime adds the equation of the equinoxes to GMST.
func ApparentSiderealTime(jd float64) float64 {
	dPsi, _ := Nutation(jd)
	return Normalize(GreenwichMeanSiderealTime(jd) + dPsi*cosD(TrueObliquity(jd)))
}

// LocalSiderealTime returns the local apparent sidereal time for an east-positive longitude.
func LocalSiderealTime(jd, longitude float64) float64 {
	return Normalize(ApparentSiderealTime(jd) + longitude)
}

// EclipticToEquatorial converts ecliptic longitude/latitude to right ascension/declination
// for the given obliquity. All values in degrees.
func EclipticToEquatorial(lon, lat, eps float64) models.EquatorialCoords {
	ra := atan2D(sinD(lon)*cosD(eps)-tanD(lat)*sinD(eps), cosD(lon))
	dec := asinD(sinD(lat)*cosD(eps) + cosD(lat)*sinD(eps)*sinD(lon))
	return models.EquatorialCoords{RightAscension: Normalize(ra), Declination: dec}
}

// EquatorialToEcliptic is the inverse of EclipticToEquatorial.
func EquatorialToEcliptic(eq models.EquatorialCoords, eps float64) (lon, lat float64) {
	ra, dec := eq.RightAscension, eq.Declination
	lon = atan2D(sinD(ra)*cosD(eps)+tanD(dec)*sinD(eps), cosD(ra))
	lat = asinD(sinD(dec)*cosD(eps) - cosD(dec)*sinD(eps)*sinD(ra))
	return Normalize(lon), lat
}

// EquatorialToHorizontal returns azimuth (from north, eastwards) and altitude for an observer
// at geographic latitude lat with local sidereal time lst.
func EquatorialToHorizontal(eq models.EquatorialCoords, lat, lst float64) models.HorizontalCoords {
	h := lst - eq.RightAscension
	dec := eq.Declination
	az := atan2D(sinD(h), cosD(h)*sinD(lat)-tanD(dec)*cosD(lat)) + 180
	alt := asinD(sinD(lat)*sinD(dec) + cosD(lat)*cosD(dec)*cosD(h))
	return models.HorizontalCoords{Azimuth: Normalize(az), Altitude: alt}
}

// HorizontalToEquatorial is the inverse of EquatorialToHorizontal.
func HorizontalToEquatorial(hz models.HorizontalCoords, lat, lst float64) models.EquatorialCoords {
	// Meeus measures azimuth from south.
	a := hz.Azimuth - 180
	alt := hz.Altitude
	h := atan2D(sinD(a), cosD(a)*sinD(lat)+tanD(alt)*cosD(lat))
	dec := asinD(sinD(lat)*sinD(alt) - cosD(lat)*cosD(alt)*cosD(a))
	return models.EquatorialCoords{RightAscension: Normalize(lst - h), Declination: dec}
}
