package astro

import (
	"fmt"
	"math"

	"AstroChart/internal/domain/models"
)

var Signs = []string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

const signEpsilon = 1e-9

var signElements = []string{"fire", "earth", "air", "water"}
var signModalities = []string{"cardinal", "fixed", "mutable"}

// SignIndex returns the zero-based sign of a longitude. A longitude on a boundary, or within
// 1e-9 degrees below it, belongs to the following sign.
func SignIndex(lon float64) int {
	n := Normalize(lon)
	return int(math.Floor((n+signEpsilon)/30)) % 12
}

// SignOf returns the sign name and degree within that sign, in [0, 30).
func SignOf(lon float64) (string, float64) {
	n := Normalize(lon)
	idx := SignIndex(n)
	deg := n - float64(idx)*30
	if deg < 0 || deg >= 30 {
		// Only reachable for the boundary tie-break and for 360-epsilon wrapping to Aries.
		deg = 0
	}
	return Signs[idx], deg
}

// FormatPosition renders a longitude as 12°34' Leo.
func FormatPosition(lon float64) string {
	sign, deg := SignOf(lon)
	total := int(math.Floor(deg*60 + 1e-7))
	return fmt.Sprintf("%d°%02d' %s", total/60, total%60, sign)
}

// Point builds a ChartPoint for an ecliptic longitude.
func Point(lon float64) models.ChartPoint {
	n := Normalize(lon)
	sign, deg := SignOf(n)
	return models.ChartPoint{Longitude: n, Sign: sign, DegreeInSign: deg, Formatted: FormatPosition(n)}
}

func ElementOf(sign string) string {
	for i, s := range Signs {
		if s == sign {
			return signElements[i%4]
		}
	}
	return ""
}

func ModalityOf(sign string) string {
	for i, s := range Signs {
		if s == sign {
			return signModalities[i%3]
		}
	}
	return ""
}

// ComputeBalance counts elements and modalities across the ten planets. Ties for dominance
// resolve to the earlier entry in the fire/earth/air/water and cardinal/fixed/mutable order.
func ComputeBalance(planets []models.PlanetPosition) models.Balance {
	b := models.Balance{Elements: map[string]int{}, Modalities: map[string]int{}}
	for _, e := range signElements {
		b.Elements[e] = 0
	}
	for _, m := range signModalities {
		b.Modalities[m] = 0
	}
	for _, p := range planets {
		if p.Body == NorthNode {
			continue
		}
		b.Elements[ElementOf(p.Sign)]++
		b.Modalities[ModalityOf(p.Sign)]++
	}
	b.DominantElement = dominant(signElements, b.Elements)
	b.DominantModality = dominant(signModalities, b.Modalities)
	return b
}

func dominant(order []string, counts map[string]int) string {
	best, bestN := "", -1
	for _, k := range order {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}
