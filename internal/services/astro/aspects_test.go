package astro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AstroChart/internal/domain/models"
)

func pos(body string, lon, speed float64) models.PlanetPosition {
	return models.PlanetPosition{Body: body, Longitude: lon, Speed: speed}
}

func TestMatchAspect(t *testing.T) {
	cases := []struct {
		name string
		a, b float64
		want string
		orb  float64
		ok   bool
	}{
		{"conjunction across aries point", 359, 1, "conjunction", 2, true},
		{"sextile", 10, 74, "sextile", 4, true},
		{"square", 100, 10, "square", 0, true},
		{"trine", 0, 243, "trine", 3, true},
		{"opposition", 90, 275, "opposition", 5, true},
		{"outside every orb", 0, 40, "", 0, false},
		{"sextile orb edge", 0, 66, "sextile", 6, true},
		{"just past sextile orb", 0, 66.5, "", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k, orb, ok := MatchAspect(tc.a, tc.b, MajorAspects)
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.want, k.Name)
			assert.InDelta(t, tc.orb, orb, 1e-9)
		})
	}
}

func TestTightestAspectWins(t *testing.T) {
	kinds, err := AspectKinds(models.ChartOptions{Orbs: map[string]float64{"square": 15, "trine": 25}})
	require.NoError(t, err)
	k, orb, ok := MatchAspect(0, 100, kinds)
	require.True(t, ok)
	assert.Equal(t, "square", k.Name)
	assert.InDelta(t, 10, orb, 1e-9)

	k, _, ok = MatchAspect(0, 108, kinds)
	require.True(t, ok)
	assert.Equal(t, "trine", k.Name)
}

func TestAspectKinds(t *testing.T) {
	kinds, err := AspectKinds(models.ChartOptions{})
	require.NoError(t, err)
	assert.Len(t, kinds, 5)

	kinds, err = AspectKinds(models.ChartOptions{IncludeMinor: true, Orbs: map[string]float64{"Quincunx": 3}})
	require.NoError(t, err)
	assert.Len(t, kinds, 9)
	k, _, ok := MatchAspect(0, 152.5, kinds)
	require.True(t, ok)
	assert.Equal(t, "quincunx", k.Name)

	// Minor overrides are ignored while minor aspects are off.
	_, err = AspectKinds(models.ChartOptions{Orbs: map[string]float64{"quincunx": 3}})
	assert.NoError(t, err)

	_, err = AspectKinds(models.ChartOptions{Orbs: map[string]float64{"quintile": 2}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = AspectKinds(models.ChartOptions{Orbs: map[string]float64{"trine": -1}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = AspectKinds(models.ChartOptions{Orbs: map[string]float64{"trine": 6, " Trine": 8}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExactAndApplying(t *testing.T) {
	kinds := MajorAspects

	got := FindAspects([]models.PlanetPosition{pos(Mars, 0, 0.5), pos(Saturn, 95, 0)}, kinds)
	require.Len(t, got, 1)
	assert.Equal(t, "square", got[0].Type)
	assert.Equal(t, NatureChallenging, got[0].Nature)
	assert.InDelta(t, 5, got[0].Orb, 1e-9)
	assert.False(t, got[0].Exact)
	assert.True(t, got[0].Applying)

	got = FindAspects([]models.PlanetPosition{pos(Mars, 0, -0.5), pos(Saturn, 95, 0)}, kinds)
	require.Len(t, got, 1)
	assert.False(t, got[0].Applying)

	got = FindAspects([]models.PlanetPosition{pos(Sun, 10.5, 1), pos(Moon, 130, 13)}, kinds)
	require.Len(t, got, 1)
	assert.Equal(t, "trine", got[0].Type)
	assert.True(t, got[0].Exact)

	got = FindAspects([]models.PlanetPosition{pos(Sun, 10, 1), pos(Venus, 10, 1.2)}, kinds)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].Orb)
	assert.False(t, got[0].Applying)
}

func TestAspectsAreSymmetric(t *testing.T) {
	kinds := append(append([]AspectKind{}, MajorAspects...), MinorAspects...)
	speeds := []float64{1, 13.2, -0.4, 1.1, 0.6, 0.08, -0.03}
	for a := 0.0; a < 360; a += 7.7 {
		for b := 0.0; b < 360; b += 11.3 {
			sa, sb := speeds[int(a)%len(speeds)], speeds[int(b)%len(speeds)]
			ab := FindAspects([]models.PlanetPosition{pos("A", a, sa), pos("B", b, sb)}, kinds)
			ba := FindAspects([]models.PlanetPosition{pos("B", b, sb), pos("A", a, sa)}, kinds)
			require.Equal(t, len(ab), len(ba))
			if len(ab) == 0 {
				continue
			}
			assert.Equal(t, ab[0].Type, ba[0].Type)
			assert.Equal(t, ab[0].Orb, ba[0].Orb)
			assert.Equal(t, ab[0].Separation, ba[0].Separation)
			assert.Equal(t, ab[0].Applying, ba[0].Applying)
			assert.Equal(t, ab[0].Planet1, ba[0].Planet2)
		}
	}
}

func TestCrossAspects(t *testing.T) {
	first := []models.PlanetPosition{pos(Sun, 0, 1), pos(Moon, 90, 13)}
	second := []models.PlanetPosition{pos(Sun, 180, 1), pos(Venus, 2, 1.2)}
	got := CrossAspects(first, second, MajorAspects)
	require.Len(t, got, 4)
	assert.Equal(t, "opposition", got[0].Type)
	assert.Equal(t, "conjunction", got[1].Type)
	assert.Equal(t, "square", got[2].Type)
	assert.Equal(t, "square", got[3].Type)
}
