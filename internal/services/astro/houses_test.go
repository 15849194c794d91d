package astro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEps = 23.4392911

func TestAnglesAtEquator(t *testing.T) {
	assert.InDelta(t, 0, Normalize(Midheaven(0, testEps)), 1e-9)
	assert.InDelta(t, 90, Ascendant(0, 0, testEps), 1e-9)
	assert.InDelta(t, 180, Midheaven(180, testEps), 1e-9)
	assert.InDelta(t, 270, Ascendant(180, 0, testEps), 1e-9)
}

func TestAscendantLeadsMidheaven(t *testing.T) {
	for _, lat := range []float64{-60, -35, 0, 12, 51.5, 65} {
		for ramc := 0.0; ramc < 360; ramc += 15 {
			d := Normalize(Ascendant(ramc, lat, testEps) - Midheaven(ramc, testEps))
			assert.Greater(t, d, 0.0, "lat %v ramc %v", lat, ramc)
			assert.Less(t, d, 180.0, "lat %v ramc %v", lat, ramc)
		}
	}
}

func TestMidheavenEquatorialIdentity(t *testing.T) {
	// The MC lies on the meridian: its right ascension equals the RAMC.
	for ramc := 0.0; ramc < 360; ramc += 22.5 {
		mc := Midheaven(ramc, testEps)
		eq := EclipticToEquatorial(mc, 0, testEps)
		assert.InDelta(t, 0, SignedDelta(ramc, eq.RightAscension), 1e-9)
	}
}

func TestAscendantOnHorizon(t *testing.T) {
	for _, lat := range []float64{-40, 10, 48.85} {
		for ramc := 7.0; ramc < 360; ramc += 31 {
			asc := Ascendant(ramc, lat, testEps)
			hz := EquatorialToHorizontal(EclipticToEquatorial(asc, 0, testEps), lat, ramc)
			assert.InDelta(t, 0, hz.Altitude, 1e-7)
			assert.Less(t, hz.Azimuth, 180.0, "ascendant rises in the east")
		}
	}
}

func TestHouseSystemsCuspInvariants(t *testing.T) {
	for _, system := range HouseSystems {
		for _, lat := range []float64{-45, -10, 0, 23, 41.9, 60} {
			for ramc := 3.0; ramc < 360; ramc += 47 {
				h := ComputeHouses(system, ramc, lat, testEps)
				require.Equal(t, system, h.System)

				var total float64
				for i := 0; i < 12; i++ {
					c := h.Cusps[i]
					assert.GreaterOrEqual(t, c, 0.0)
					assert.Less(t, c, 360.0)
					assert.InDelta(t, 180, Separation(c, h.Cusps[(i+6)%12]), 1e-6, "%s opposite cusps %d", system, i+1)
					total += Normalize(h.Cusps[(i+1)%12] - c)
				}
				assert.InDelta(t, 360, total, 1e-6, "%s cusps must go once around", system)
			}
		}
	}
}

func TestQuadrantSystemsUseAngles(t *testing.T) {
	for _, system := range []HouseSystem{Placidus, Koch, Porphyry, Regiomontanus, Campanus} {
		h := ComputeHouses(system, 123.4, 41.9, testEps)
		assert.Equal(t, h.Ascendant, h.Cusps[0], system)
		assert.Equal(t, h.Midheaven, h.Cusps[9], system)
	}
}

func TestQuadrantSystemsAgreeAtEquator(t *testing.T) {
	ref := ComputeHouses(Placidus, 77, 0, testEps)
	for _, system := range []HouseSystem{Koch, Regiomontanus, Campanus} {
		h := ComputeHouses(system, 77, 0, testEps)
		for i := range h.Cusps {
			assert.InDelta(t, 0, SignedDelta(ref.Cusps[i], h.Cusps[i]), 1e-6, "%s cusp %d", system, i+1)
		}
	}
}

func TestEqualHouses(t *testing.T) {
	h := ComputeHouses(Equal, 200, 52, testEps)
	for i := 0; i < 12; i++ {
		assert.InDelta(t, 30, Normalize(h.Cusps[(i+1)%12]-h.Cusps[i]), 1e-9)
	}
	assert.Equal(t, h.Ascendant, h.Cusps[0])
}

func TestWholeSignHouses(t *testing.T) {
	h := ComputeHouses(WholeSign, 200, 52, testEps)
	for i, c := range h.Cusps {
		assert.Zero(t, c-float64(int(c)/30*30), "cusp %d on a sign boundary", i+1)
	}
	assert.Equal(t, SignIndex(h.Ascendant), SignIndex(h.Cusps[0]))
}

func TestPolarFallback(t *testing.T) {
	for _, system := range []HouseSystem{Placidus, Koch} {
		h := ComputeHouses(system, 10, 70, testEps)
		assert.Equal(t, Porphyry, h.System)
		assert.Equal(t, ComputeHouses(Porphyry, 10, 70, testEps).Cusps, h.Cusps)

		h = ComputeHouses(system, 10, -66.6, testEps)
		assert.Equal(t, Porphyry, h.System)
	}
	for _, system := range []HouseSystem{Regiomontanus, Campanus} {
		assert.Equal(t, Porphyry, ComputeHouses(system, 10, 70, testEps).System)
		assert.Equal(t, system, ComputeHouses(system, 10, 60, testEps).System)
	}
	assert.Equal(t, Placidus, ComputeHouses(Placidus, 10, 66, testEps).System)
	assert.Equal(t, Equal, ComputeHouses(Equal, 10, 89, testEps).System)
}

func TestCuspsGoOnceAroundAtAnyLatitude(t *testing.T) {
	lats := []float64{-90, -85, -75, -66.6, -66, -50, 0, 50, 66, 66.56, 66.6, 70, 75, 80, 85, 89.9, 90}
	for _, system := range HouseSystems {
		for _, lat := range lats {
			for ramc := 0.0; ramc < 360; ramc += 5 {
				h := ComputeHouses(system, ramc, lat, testEps)
				var total float64
				for i := range h.Cusps {
					total += Normalize(h.Cusps[(i+1)%12] - h.Cusps[i])
				}
				require.InDelta(t, 360, total, 1e-6, "%s lat %v ramc %v cusps %v", system, lat, ramc, h.Cusps)

				// a longitude just past a cusp falls in that cusp's house
				for i, c := range h.Cusps {
					if Normalize(h.Cusps[(i+1)%12]-c) > 1e-3 {
						assert.Equal(t, i+1, HouseOf(c+1e-4, h.Cusps), "%s lat %v ramc %v", system, lat, ramc)
					}
				}
			}
		}
	}
}

func TestParseHouseSystem(t *testing.T) {
	cases := map[string]HouseSystem{
		"":              Placidus,
		"Placidus":      Placidus,
		" KOCH ":        Koch,
		"whole-sign":    WholeSign,
		"Whole Sign":    WholeSign,
		"whole":         WholeSign,
		"regiomontanus": Regiomontanus,
	}
	for in, want := range cases {
		got, err := ParseHouseSystem(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseHouseSystem("topocentric")
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "house_system", inputErr.Field)
}

func TestHouseOf(t *testing.T) {
	var cusps [12]float64
	for i := range cusps {
		cusps[i] = Normalize(350 + 30*float64(i))
	}
	assert.Equal(t, 1, HouseOf(350, cusps))
	assert.Equal(t, 1, HouseOf(5, cusps))
	assert.Equal(t, 2, HouseOf(20, cusps))
	assert.Equal(t, 12, HouseOf(349.99, cusps))
	assert.Equal(t, 7, HouseOf(170, cusps))
}
