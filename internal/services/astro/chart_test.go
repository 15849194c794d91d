package astro

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AstroChart/internal/domain/models"
)

var romeBirth = models.BirthData{
	Date:      "1990-07-15",
	Time:      "14:30",
	Latitude:  41.9028,
	Longitude: 12.4964,
	Timezone:  "Europe/Rome",
}

func TestCalculateBirthChart(t *testing.T) {
	chart, err := CalculateBirthChart(romeBirth, models.ChartOptions{})
	require.NoError(t, err)

	assert.Equal(t, "placidus", chart.HouseSystem)
	assert.Equal(t, "placidus", chart.Options.HouseSystem)
	assert.True(t, chart.UTC.Equal(time.Date(1990, 7, 15, 12, 30, 0, 0, time.UTC)))
	assert.InDelta(t, CalendarToJD(1990, 7, 15+12.5/24), chart.JulianDay, 1e-9)
	assert.InDelta(t, 23.44, chart.Obliquity, 0.01)

	require.Len(t, chart.Planets, len(Bodies))
	require.Len(t, chart.Houses, 12)
	for i, p := range chart.Planets {
		assert.Equal(t, Bodies[i], p.Body)
		assert.GreaterOrEqual(t, p.Longitude, 0.0)
		assert.Less(t, p.Longitude, 360.0)
		assert.Equal(t, p.Speed < 0, p.Retrograde)
		assert.GreaterOrEqual(t, p.House, 1)
		assert.LessOrEqual(t, p.House, 12)
		assert.NotEmpty(t, p.Formatted)
	}
	for i, h := range chart.Houses {
		assert.Equal(t, i+1, h.House)
		assert.NotEmpty(t, h.Sign)
	}

	sun, ok := chart.Planet(Sun)
	require.True(t, ok)
	assert.Equal(t, "Cancer", sun.Sign)
	assert.InDelta(t, 22.7, sun.DegreeInSign, 0.3)
	// Early afternoon in summer: the Sun is high and in the western half of the sky.
	assert.Greater(t, sun.Horizontal.Altitude, 50.0)
	assert.Greater(t, sun.Horizontal.Azimuth, 180.0)
	assert.Contains(t, []int{9, 10}, sun.House)

	assert.Equal(t, chart.Houses[0].Cusp, chart.Ascendant.Longitude)
	assert.Equal(t, chart.Houses[9].Cusp, chart.Midheaven.Longitude)

	total := 0
	for _, n := range chart.Balance.Elements {
		total += n
	}
	assert.Equal(t, len(Planets), total)
}

func TestCalculateBirthChartIsDeterministic(t *testing.T) {
	opts := models.ChartOptions{HouseSystem: "koch", IncludeMinor: true}
	first, err := CalculateBirthChart(romeBirth, opts)
	require.NoError(t, err)
	second, err := CalculateBirthChart(romeBirth, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculateBirthChartAspectsWithinOrb(t *testing.T) {
	chart, err := CalculateBirthChart(romeBirth, models.ChartOptions{IncludeMinor: true})
	require.NoError(t, err)
	require.NotEmpty(t, chart.Aspects)

	seen := map[[2]string]bool{}
	for _, a := range chart.Aspects {
		p1, ok := chart.Planet(a.Planet1)
		require.True(t, ok)
		p2, ok := chart.Planet(a.Planet2)
		require.True(t, ok)
		assert.InDelta(t, Separation(p1.Longitude, p2.Longitude), a.Separation, 1e-12)
		assert.InDelta(t, a.Orb, math.Abs(a.Separation-a.Angle), 1e-12)
		assert.Equal(t, a.Orb < 1, a.Exact)

		key := [2]string{a.Planet1, a.Planet2}
		rev := [2]string{a.Planet2, a.Planet1}
		assert.False(t, seen[key] || seen[rev], "pair %v reported twice", key)
		seen[key] = true
	}
}

func TestCalculateBirthChartHouseSystems(t *testing.T) {
	for _, hs := range HouseSystems {
		chart, err := CalculateBirthChart(romeBirth, models.ChartOptions{HouseSystem: string(hs)})
		require.NoError(t, err, hs)
		assert.Equal(t, string(hs), chart.HouseSystem)
	}

	arctic := romeBirth
	arctic.Latitude = 78.22
	arctic.Timezone = "Arctic/Longyearbyen"
	chart, err := CalculateBirthChart(arctic, models.ChartOptions{HouseSystem: "placidus"})
	require.NoError(t, err)
	assert.Equal(t, "porphyry", chart.HouseSystem)
	assert.Equal(t, "placidus", chart.Options.HouseSystem)
}

func TestCalculateBirthChartInputErrors(t *testing.T) {
	bad := romeBirth
	bad.Latitude = 123
	_, err := CalculateBirthChart(bad, models.ChartOptions{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad = romeBirth
	bad.Time = "noonish"
	_, err = CalculateBirthChart(bad, models.ChartOptions{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = CalculateBirthChart(romeBirth, models.ChartOptions{HouseSystem: "vedic"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculateSky(t *testing.T) {
	at := time.Date(2024, 4, 8, 18, 17, 0, 0, time.UTC)
	sky, err := CalculateSky(at, 23.0, -104.0)
	require.NoError(t, err)
	require.Len(t, sky.Planets, len(Bodies))

	sun, moon := sky.Planets[0], sky.Planets[1]
	// Total solar eclipse over Durango.
	assert.Less(t, Separation(sun.Longitude, moon.Longitude), 0.5)
	assert.Greater(t, sun.Horizontal.Altitude, 60.0)

	_, err = CalculateSky(at, 91, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSynastryWithItself(t *testing.T) {
	chart, err := CalculateBirthChart(romeBirth, models.ChartOptions{})
	require.NoError(t, err)
	chart.ID = "a"

	syn, err := Synastry(chart, chart, models.ChartOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a", syn.First)

	conj := 0
	for _, a := range syn.Aspects {
		if a.Planet1 == a.Planet2 {
			assert.Equal(t, "conjunction", a.Type)
			assert.Zero(t, a.Orb)
			conj++
		}
	}
	assert.Equal(t, len(Bodies), conj)
}

func TestCalculatorHonoursContext(t *testing.T) {
	calc := NewCalculator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := calc.Calculate(ctx, romeBirth, models.ChartOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	fixed := time.Date(2020, 12, 21, 18, 20, 0, 0, time.UTC)
	calc.now = func() time.Time { return fixed }
	sky, err := calc.Sky(context.Background(), time.Time{}, 0, 0)
	require.NoError(t, err)
	assert.True(t, sky.At.Equal(fixed))

	jupiter, saturn := sky.Planets[5], sky.Planets[6]
	// Great conjunction of 2020.
	assert.Less(t, Separation(jupiter.Longitude, saturn.Longitude), 1.0)
}
