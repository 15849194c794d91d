package astro

import (
	"context"
	"time"

	"AstroChart/internal/domain/models"
)

// CalculateBirthChart computes a natal chart: Julian Day, planet positions, houses, aspects
// and the element/modality balance. It is deterministic and safe for concurrent use.
func CalculateBirthChart(in models.BirthData, opts models.ChartOptions) (models.BirthChartData, error) {
	system, err := ParseHouseSystem(opts.HouseSystem)
	if err != nil {
		return models.BirthChartData{}, err
	}
	kinds, err := AspectKinds(opts)
	if err != nil {
		return models.BirthChartData{}, err
	}
	utc, err := BirthInstant(in)
	if err != nil {
		return models.BirthChartData{}, err
	}

	jd := JulianDay(utc)
	eps := TrueObliquity(jd)
	lst := LocalSiderealTime(jd, in.Longitude)
	houses := ComputeHouses(system, lst, in.Latitude, eps)

	positions, err := positionsAt(jd, eps, lst, in.Latitude, Bodies)
	if err != nil {
		return models.BirthChartData{}, err
	}
	for i := range positions {
		positions[i].House = HouseOf(positions[i].Longitude, houses.Cusps)
	}

	houseData := make([]models.HouseData, 12)
	for i, cusp := range houses.Cusps {
		sign, deg := SignOf(cusp)
		houseData[i] = models.HouseData{House: i + 1, Cusp: cusp, Sign: sign, DegreeInSign: deg}
	}

	opts.HouseSystem = string(system)
	return models.BirthChartData{
		Input:        in,
		Options:      opts,
		UTC:          utc,
		JulianDay:    jd,
		Obliquity:    eps,
		SiderealTime: lst,
		HouseSystem:  string(houses.System),
		Ascendant:    Point(houses.Ascendant),
		Midheaven:    Point(houses.Midheaven),
		Planets:      positions,
		Houses:       houseData,
		Aspects:      FindAspects(positions, kinds),
		Balance:      ComputeBalance(positions),
	}, nil
}

// CalculateSky returns positions for an arbitrary instant seen from lat/lon.
func CalculateSky(at time.Time, lat, lon float64) (models.SkySnapshot, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return models.SkySnapshot{}, err
	}
	jd := JulianDay(at)
	eps := TrueObliquity(jd)
	lst := LocalSiderealTime(jd, lon)
	positions, err := positionsAt(jd, eps, lst, lat, Bodies)
	if err != nil {
		return models.SkySnapshot{}, err
	}
	return models.SkySnapshot{
		At:           at.UTC(),
		JulianDay:    jd,
		Latitude:     lat,
		Longitude:    lon,
		SiderealTime: lst,
		Planets:      positions,
	}, nil
}

// Synastry returns the cross aspects between two computed charts.
func Synastry(first, second models.BirthChartData, opts models.ChartOptions) (models.SynastryData, error) {
	kinds, err := AspectKinds(opts)
	if err != nil {
		return models.SynastryData{}, err
	}
	return models.SynastryData{
		First:   first.ID,
		Second:  second.ID,
		Aspects: CrossAspects(first.Planets, second.Planets, kinds),
	}, nil
}

func positionsAt(jd, eps, lst, lat float64, bodies []string) ([]models.PlanetPosition, error) {
	out := make([]models.PlanetPosition, 0, len(bodies))
	for _, body := range bodies {
		lon, blat, dist, err := EclipticPosition(body, jd)
		if err != nil {
			return nil, err
		}
		speed, err := Speed(body, jd)
		if err != nil {
			return nil, err
		}
		sign, deg := SignOf(lon)
		eq := EclipticToEquatorial(lon, blat, eps)
		out = append(out, models.PlanetPosition{
			Body:         body,
			Longitude:    lon,
			Latitude:     blat,
			Distance:     dist,
			Speed:        speed,
			Sign:         sign,
			DegreeInSign: deg,
			Formatted:    FormatPosition(lon),
			Retrograde:   speed < 0,
			Equatorial:   eq,
			Horizontal:   EquatorialToHorizontal(eq, lat, lst),
		})
	}
	return out, nil
}

// Calculator exposes the calculations behind the service.ChartCalculator interface.
type Calculator struct {
	now func() time.Time
}

func NewCalculator() *Calculator {
	return &Calculator{now: time.Now}
}

func (c *Calculator) Calculate(ctx context.Context, in models.BirthData, opts models.ChartOptions) (models.BirthChartData, error) {
	if err := ctx.Err(); err != nil {
		return models.BirthChartData{}, err
	}
	return CalculateBirthChart(in, opts)
}

// Sky computes positions at the given instant; a zero instant means now.
func (c *Calculator) Sky(ctx context.Context, at time.Time, lat, lon float64) (models.SkySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.SkySnapshot{}, err
	}
	if at.IsZero() {
		at = c.now()
	}
	return CalculateSky(at, lat, lon)
}

func (c *Calculator) Synastry(ctx context.Context, first, second models.BirthChartData, opts models.ChartOptions) (models.SynastryData, error) {
	if err := ctx.Err(); err != nil {
		return models.SynastryData{}, err
	}
	return Synastry(first, second, opts)
}
