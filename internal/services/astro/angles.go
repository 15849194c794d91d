package astro

import (
	"fmt"
	"math"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

func sinD(d float64) float64  { return math.Sin(d * deg2rad) }
func cosD(d float64) float64  { return math.Cos(d * deg2rad) }
func tanD(d float64) float64  { return math.Tan(d * deg2rad) }
func asinD(x float64) float64 { return math.Asin(clamp(x, -1, 1)) * rad2deg }
func atanD(x float64) float64 { return math.Atan(x) * rad2deg }

func atan2D(y, x float64) float64 { return math.Atan2(y, x) * rad2deg }

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Normalize maps an angle in degrees into [0, 360).
func Normalize(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d -= 360
	}
	return d
}

// SignedDelta returns the shortest rotation from a to b in degrees, in (-180, 180].
func SignedDelta(a, b float64) float64 {
	d := Normalize(b - a)
	if d > 180 {
		d -= 360
	}
	return d
}

// Separation returns the minimal angular distance between two longitudes, in [0, 180].
// It is exactly symmetric in its arguments.
func Separation(a, b float64) float64 {
	d := math.Abs(math.Mod(a-b, 360))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// FormatDMS renders degrees as 12°34'56".
func FormatDMS(deg float64) string {
	sign := ""
	if deg < 0 {
		sign = "-"
		deg = -deg
	}
	total := int(math.Round(deg * 3600))
	d := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%s%d°%02d'%02d\"", sign, d, m, s)
}
