package astro

import (
	"math"
	"strings"

	"AstroChart/internal/domain/models"
)

const (
	NatureHarmonious  = "harmonious"
	NatureChallenging = "challenging"
	NatureNeutral     = "neutral"
)

// exactOrb is the orb below which an aspect is flagged exact.
const exactOrb = 1.0

type AspectKind struct {
	Name   string
	Angle  float64
	Orb    float64
	Nature string
	Minor  bool
}

var MajorAspects = []AspectKind{
	{Name: "conjunction", Angle: 0, Orb: 8, Nature: NatureNeutral},
	{Name: "sextile", Angle: 60, Orb: 6, Nature: NatureHarmonious},
	{Name: "square", Angle: 90, Orb: 7, Nature: NatureChallenging},
	{Name: "trine", Angle: 120, Orb: 8, Nature: NatureHarmonious},
	{Name: "opposition", Angle: 180, Orb: 8, Nature: NatureChallenging},
}

var MinorAspects = []AspectKind{
	{Name: "semi-sextile", Angle: 30, Orb: 2, Nature: NatureNeutral, Minor: true},
	{Name: "semi-square", Angle: 45, Orb: 2, Nature: NatureChallenging, Minor: true},
	{Name: "sesquiquadrate", Angle: 135, Orb: 2, Nature: NatureChallenging, Minor: true},
	{Name: "quincunx", Angle: 150, Orb: 2, Nature: NatureNeutral, Minor: true},
}

// AspectKinds returns the aspect table for the options, with orb overrides applied.
// Overrides are keyed by aspect name; negative values are rejected.
func AspectKinds(opts models.ChartOptions) ([]AspectKind, error) {
	kinds := append([]AspectKind{}, MajorAspects...)
	if opts.IncludeMinor {
		kinds = append(kinds, MinorAspects...)
	}
	orbs, err := NormalizeOrbs(opts.Orbs)
	if err != nil {
		return nil, err
	}
	for key, orb := range orbs {
		found := false
		for i := range kinds {
			if kinds[i].Name == key {
				if math.IsNaN(orb) || orb < 0 || orb > 30 {
					return nil, invalid("orbs", "orb for %s must be within [0, 30], got %v", key, orb)
				}
				kinds[i].Orb = orb
				found = true
			}
		}
		if !found && !isMinorName(key) {
			return nil, invalid("orbs", "unknown aspect %q", key)
		}
	}
	return kinds, nil
}

// NormalizeOrbs lowercases and trims orb override keys. Two keys naming the
// same aspect are rejected since either value could win.
func NormalizeOrbs(orbs map[string]float64) (map[string]float64, error) {
	if len(orbs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(orbs))
	for name, orb := range orbs {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := out[key]; dup {
			return nil, invalid("orbs", "orb for %s given more than once", key)
		}
		out[key] = orb
	}
	return out, nil
}

func isMinorName(name string) bool {
	for _, k := range MinorAspects {
		if k.Name == name {
			return true
		}
	}
	return false
}

// MatchAspect returns the tightest aspect formed by two longitudes, if any.
func MatchAspect(lon1, lon2 float64, kinds []AspectKind) (AspectKind, float64, bool) {
	sep := Separation(lon1, lon2)
	var best AspectKind
	bestOrb := math.Inf(1)
	for _, k := range kinds {
		orb := math.Abs(sep - k.Angle)
		if orb <= k.Orb && orb < bestOrb {
			best, bestOrb = k, orb
		}
	}
	return best, bestOrb, !math.IsInf(bestOrb, 1)
}

// isApplying reports whether the orb shrinks when both bodies move on at their current speeds.
func isApplying(p1, p2 models.PlanetPosition, angle, orb float64) bool {
	if orb == 0 {
		return false
	}
	const step = 0.01 // days
	next := math.Abs(Separation(p1.Longitude+p1.Speed*step, p2.Longitude+p2.Speed*step) - angle)
	return next < orb
}

func aspectBetween(p1, p2 models.PlanetPosition, kinds []AspectKind) (models.AspectData, bool) {
	k, orb, ok := MatchAspect(p1.Longitude, p2.Longitude, kinds)
	if !ok {
		return models.AspectData{}, false
	}
	return models.AspectData{
		Planet1:    p1.Body,
		Planet2:    p2.Body,
		Type:       k.Name,
		Angle:      k.Angle,
		Separation: Separation(p1.Longitude, p2.Longitude),
		Orb:        orb,
		Nature:     k.Nature,
		Exact:      orb < exactOrb,
		Applying:   isApplying(p1, p2, k.Angle, orb),
	}, true
}

// FindAspects checks every unordered pair once, in input order.
func FindAspects(positions []models.PlanetPosition, kinds []AspectKind) []models.AspectData {
	out := []models.AspectData{}
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			if a, ok := aspectBetween(positions[i], positions[j], kinds); ok {
				out = append(out, a)
			}
		}
	}
	return out
}

// CrossAspects compares every body of one chart with every body of another.
func CrossAspects(first, second []models.PlanetPosition, kinds []AspectKind) []models.AspectData {
	out := []models.AspectData{}
	for _, p1 := range first {
		for _, p2 := range second {
			if a, ok := aspectBetween(p1, p2, kinds); ok {
				out = append(out, a)
			}
		}
	}
	return out
}
