package astro

import (
	"math"
	"strings"
)

type HouseSystem string

const (
	Placidus      HouseSystem = "placidus"
	Koch          HouseSystem = "koch"
	Porphyry      HouseSystem = "porphyry"
	Regiomontanus HouseSystem = "regiomontanus"
	Campanus      HouseSystem = "campanus"
	Equal         HouseSystem = "equal"
	WholeSign     HouseSystem = "whole_sign"
)

var HouseSystems = []HouseSystem{Placidus, Koch, Porphyry, Regiomontanus, Campanus, Equal, WholeSign}

// ParseHouseSystem accepts a house system name, case-insensitively. Empty selects Placidus.
func ParseHouseSystem(s string) (HouseSystem, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.NewReplacer("-", "_", " ", "_").Replace(name)
	switch name {
	case "":
		return Placidus, nil
	case "whole", "wholesign":
		return WholeSign, nil
	}
	for _, hs := range HouseSystems {
		if string(hs) == name {
			return hs, nil
		}
	}
	return "", invalid("house_system", "unsupported house system %q", s)
}

// Houses holds the twelve cusps (index 0 is house 1) and the angles.
type Houses struct {
	System    HouseSystem
	Cusps     [12]float64
	Ascendant float64
	Midheaven float64
}

// Midheaven returns the ecliptic longitude culminating at right ascension ramc.
func Midheaven(ramc, eps float64) float64 {
	return Normalize(atan2D(sinD(ramc), cosD(ramc)*cosD(eps)))
}

// Ascendant returns the ecliptic longitude rising at right ascension ramc for latitude lat.
func Ascendant(ramc, lat, eps float64) float64 {
	asc := Normalize(atan2D(cosD(ramc), -(sinD(ramc)*cosD(eps) + tanD(lat)*sinD(eps))))
	if Normalize(asc-Midheaven(ramc, eps)) > 180 {
		asc = Normalize(asc + 180)
	}
	return asc
}

// PolarLimit reports whether a latitude lies inside a polar circle, where the pole-height
// systems (Placidus, Koch, Regiomontanus, Campanus) are undefined or out of order.
func PolarLimit(lat, eps float64) bool {
	return math.Abs(lat) >= 90-eps
}

// ComputeHouses derives the cusps for local sidereal time ramc (degrees), geographic latitude
// and true obliquity. Quadrant systems fall back to Porphyry inside the polar circles and
// whenever their cusps would not run once around the ecliptic; Houses.System reports the
// system actually used.
func ComputeHouses(system HouseSystem, ramc, lat, eps float64) Houses {
	switch system {
	case Placidus, Koch, Regiomontanus, Campanus:
		if PolarLimit(lat, eps) {
			system = Porphyry
		}
	}
	h := computeHouses(system, ramc, lat, eps)
	if system != Porphyry && !cuspsOrdered(h.Cusps) {
		h = computeHouses(Porphyry, ramc, lat, eps)
	}
	return h
}

// cuspsOrdered reports whether the forward spans between consecutive cusps sum to one turn.
func cuspsOrdered(cusps [12]float64) bool {
	var total float64
	for i := range cusps {
		total += Normalize(cusps[(i+1)%12] - cusps[i])
	}
	return math.Abs(total-360) < 1e-6
}

func computeHouses(system HouseSystem, ramc, lat, eps float64) Houses {
	h := Houses{
		System:    system,
		Ascendant: Ascendant(ramc, lat, eps),
		Midheaven: Midheaven(ramc, eps),
	}

	switch system {
	case Equal:
		for i := range h.Cusps {
			h.Cusps[i] = Normalize(h.Ascendant + 30*float64(i))
		}
		return h
	case WholeSign:
		start := math.Floor(Normalize(h.Ascendant)/30) * 30
		for i := range h.Cusps {
			h.Cusps[i] = Normalize(start + 30*float64(i))
		}
		return h
	}

	var c11, c12, c2, c3 float64
	switch system {
	case Placidus:
		c11 = placidusCusp(ramc, lat, eps, 1.0/3, true)
		c12 = placidusCusp(ramc, lat, eps, 2.0/3, true)
		c2 = placidusCusp(ramc, lat, eps, 2.0/3, false)
		c3 = placidusCusp(ramc, lat, eps, 1.0/3, false)
	case Koch:
		dec := asinD(sinD(eps) * sinD(h.Midheaven))
		sda := 90 + asinD(tanD(lat)*tanD(dec))
		c11 = Ascendant(ramc-2*sda/3, lat, eps)
		c12 = Ascendant(ramc-sda/3, lat, eps)
		c2 = Ascendant(ramc+sda/3, lat, eps)
		c3 = Ascendant(ramc+2*sda/3, lat, eps)
	case Regiomontanus:
		fh1 := atanD(tanD(lat) * 0.5)
		fh2 := atanD(tanD(lat) * cosD(30))
		c11 = Ascendant(ramc-60, fh1, eps)
		c12 = Ascendant(ramc-30, fh2, eps)
		c2 = Ascendant(ramc+30, fh2, eps)
		c3 = Ascendant(ramc+60, fh1, eps)
	case Campanus:
		fh1 := asinD(sinD(lat) / 2)
		fh2 := asinD(math.Sqrt(3) / 2 * sinD(lat))
		xh1, xh2 := 90.0, 90.0
		if cl := cosD(lat); cl != 0 {
			xh1 = atanD(math.Sqrt(3) / cl)
			xh2 = atanD(1 / math.Sqrt(3) / cl)
		}
		c11 = Ascendant(ramc-xh1, fh1, eps)
		c12 = Ascendant(ramc-xh2, fh2, eps)
		c2 = Ascendant(ramc+xh2, fh2, eps)
		c3 = Ascendant(ramc+xh1, fh1, eps)
	default: // Porphyry
		upper := Normalize(h.Ascendant - h.Midheaven)
		lower := 180 - upper
		c11 = h.Midheaven + upper/3
		c12 = h.Midheaven + 2*upper/3
		c2 = h.Ascendant + lower/3
		c3 = h.Ascendant + 2*lower/3
	}

	h.Cusps[0] = h.Ascendant
	h.Cusps[9] = h.Midheaven
	h.Cusps[10] = Normalize(c11)
	h.Cusps[11] = Normalize(c12)
	h.Cusps[1] = Normalize(c2)
	h.Cusps[2] = Normalize(c3)
	for i := 3; i < 9; i++ {
		h.Cusps[i] = Normalize(h.Cusps[(i+6)%12] + 180)
	}
	// rounding can leave a degenerate cusp a hair behind its predecessor
	for i := range h.Cusps {
		next := (i + 1) % 12
		if Normalize(h.Cusps[next]-h.Cusps[i]) > 360-1e-9 {
			h.Cusps[next] = h.Cusps[i]
		}
	}
	return h
}

// placidusCusp trisects the semi-arc of the cusp's own declination by fixed-point iteration.
// fraction is the share of the diurnal (above) or nocturnal semi-arc.
func placidusCusp(ramc, lat, eps, fraction float64, above bool) float64 {
	target := func(ad float64) float64 {
		if above {
			return ramc + fraction*(90+ad)
		}
		return ramc + 180 - fraction*(90-ad)
	}

	ra := target(0)
	lon := Normalize(atan2D(sinD(ra), cosD(ra)*cosD(eps)))
	for i := 0; i < 100; i++ {
		dec := asinD(sinD(eps) * sinD(lon))
		ad := asinD(tanD(lat) * tanD(dec))
		ra = target(ad)
		next := Normalize(atan2D(sinD(ra), cosD(ra)*cosD(eps)))
		if math.Abs(SignedDelta(lon, next)) < 1e-9 {
			return next
		}
		lon = next
	}
	return lon
}

// HouseOf returns the 1-based house whose span from its cusp to the next contains lon.
func HouseOf(lon float64, cusps [12]float64) int {
	n := Normalize(lon)
	for i := range cusps {
		span := Normalize(cusps[(i+1)%12] - cusps[i])
		if Normalize(n-cusps[i]) < span {
			return i + 1
		}
	}
	return 1
}
