package astro

import "math"

// Body names as they appear in chart output.
const (
	Sun       = "Sun"
	Moon      = "Moon"
	Mercury   = "Mercury"
	Venus     = "Venus"
	Mars      = "Mars"
	Jupiter   = "Jupiter"
	Saturn    = "Saturn"
	Uranus    = "Uranus"
	Neptune   = "Neptune"
	Pluto     = "Pluto"
	NorthNode = "North Node"
)

// Planets are the ten classical chart bodies, in output order.
var Planets = []string{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

// Bodies are all computed points: the ten planets plus the mean lunar node.
var Bodies = append(append([]string{}, Planets...), NorthNode)

const auKm = 149597870.7

// orbitalElements holds J2000 Keplerian elements and their rates per Julian century
// (JPL "Keplerian Elements for Approximate Positions of the Major Planets", 1800-2050).
type orbitalElements struct {
	a, e, i, l, peri, node float64

	aDot, eDot, iDot, lDot, periDot, nodeDot float64
}

var elements = map[string]orbitalElements{
	Mercury: {
		0.38709927, 0.20563593, 7.00497902, 252.25032350, 77.45779628, 48.33076593,
		0.00000037, 0.00001906, -0.00594749, 149472.67411175, 0.16047689, -0.12534081,
	},
	Venus: {
		0.72333566, 0.00677672, 3.39467605, 181.97909950, 131.60246718, 76.67984255,
		0.00000390, -0.00004107, -0.00078890, 58517.81538729, 0.00268329, -0.27769418,
	},
	"EMBary": {
		1.00000261, 0.01671123, -0.00001531, 100.46457166, 102.93768193, 0.0,
		0.00000562, -0.00004392, -0.01294668, 35999.37244981, 0.32327364, 0.0,
	},
	Mars: {
		1.52371034, 0.09339410, 1.84969142, -4.55343205, -23.94362959, 49.55953891,
		0.00001847, 0.00007882, -0.00813131, 19140.30268499, 0.44441088, -0.29257343,
	},
	Jupiter: {
		5.20288700, 0.04838624, 1.30439695, 34.39644051, 14.72847983, 100.47390909,
		-0.00011607, -0.00013253, -0.00183714, 3034.74612775, 0.21252668, 0.20469106,
	},
	Saturn: {
		9.53667594, 0.05386179, 2.48599187, 49.95424423, 92.59887831, 113.66242448,
		-0.00125060, -0.00050991, 0.00193609, 1222.49362201, -0.41897216, -0.28867794,
	},
	Uranus: {
		19.18916464, 0.04725744, 0.77263783, 313.23810451, 170.95427630, 74.01692503,
		-0.00196176, -0.00004397, -0.00242939, 428.48202785, 0.40805281, 0.04240589,
	},
	Neptune: {
		30.06992276, 0.00859048, 1.77004347, -55.12002969, 44.96476227, 131.78422574,
		0.00026291, 0.00005105, 0.00035372, 218.45945325, -0.32241464, -0.00508664,
	},
	Pluto: {
		39.48211675, 0.24882730, 17.14001206, 238.92903833, 224.06891629, 110.30393684,
		-0.00031596, 0.00005170, 0.00004818, 145.20780515, -0.04062942, -0.01183482,
	},
}

type vec3 struct{ x, y, z float64 }

func (v vec3) sub(o vec3) vec3 { return vec3{v.x - o.x, v.y - o.y, v.z - o.z} }

// spherical returns longitude [0,360), latitude and radius.
func (v vec3) spherical() (lon, lat, r float64) {
	r = math.Sqrt(v.x*v.x + v.y*v.y + v.z*v.z)
	lon = Normalize(atan2D(v.y, v.x))
	lat = atan2D(v.z, math.Hypot(v.x, v.y))
	return lon, lat, r
}

// SolveKepler solves M = E - e sin E for the eccentric anomaly. Angles in radians.
func SolveKepler(m, e float64) float64 {
	ecc := m + e*math.Sin(m)
	for i := 0; i < 30; i++ {
		d := (ecc - e*math.Sin(ecc) - m) / (1 - e*math.Cos(ecc))
		ecc -= d
		if math.Abs(d) < 1e-12 {
			break
		}
	}
	return ecc
}

// heliocentric returns J2000 ecliptic rectangular coordinates in AU.
func heliocentric(el orbitalElements, t float64) vec3 {
	a := el.a + el.aDot*t
	e := el.e + el.eDot*t
	inc := el.i + el.iDot*t
	l := el.l + el.lDot*t
	peri := el.peri + el.periDot*t
	node := el.node + el.nodeDot*t

	w := peri - node
	m := math.Mod(l-peri, 360)
	if m > 180 {
		m -= 360
	} else if m < -180 {
		m += 360
	}

	ecc := SolveKepler(m*deg2rad, e)
	xp := a * (math.Cos(ecc) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(ecc)

	cw, sw := cosD(w), sinD(w)
	cn, sn := cosD(node), sinD(node)
	ci, si := cosD(inc), sinD(inc)

	return vec3{
		x: (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp,
		y: (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp,
		z: sw*si*xp + cw*si*yp,
	}
}

// EclipticPosition returns the apparent geocentric ecliptic longitude, latitude (degrees,
// ecliptic and equinox of date) and distance (AU) of a body.
func EclipticPosition(body string, jd float64) (lon, lat, dist float64, err error) {
	dPsi, _ := Nutation(jd)
	t := JulianCenturies(jd)

	switch body {
	case Moon:
		lon, lat, dist = moonPosition(t)
		return Normalize(lon + dPsi), lat, dist, nil
	case NorthNode:
		return Normalize(meanNode(t) + dPsi), 0, 0, nil
	}

	earth := heliocentric(elements["EMBary"], t)
	var geo vec3
	if body == Sun {
		geo = vec3{-earth.x, -earth.y, -earth.z}
	} else {
		el, ok := elements[body]
		if !ok {
			return 0, 0, 0, &InputError{Field: "body", Reason: "unknown body " + body}
		}
		geo = heliocentric(el, t).sub(earth)
	}
	lon, lat, dist = geo.spherical()
	return Normalize(lon + Precession(jd) + dPsi), lat, dist, nil
}

// Speed returns the daily motion in longitude from a central difference over one day.
func Speed(body string, jd float64) (float64, error) {
	before, _, _, err := EclipticPosition(body, jd-0.5)
	if err != nil {
		return 0, err
	}
	after, _, _, err := EclipticPosition(body, jd+0.5)
	if err != nil {
		return 0, err
	}
	return SignedDelta(before, after), nil
}

type lunarTerm struct {
	d, m, mp, f float64
	coeff       float64
}

// Principal terms of the lunar longitude (sine, degrees) and distance (cosine, km).
var moonLonTerms = []lunarTerm{
	{0, 0, 1, 0, 6.288774},
	{2, 0, -1, 0, 1.274027},
	{2, 0, 0, 0, 0.658314},
	{0, 0, 2, 0, 0.213618},
	{0, 1, 0, 0, -0.185116},
	{0, 0, 0, 2, -0.114332},
	{2, 0, -2, 0, 0.058793},
	{2, -1, -1, 0, 0.057066},
	{2, 0, 1, 0, 0.053322},
	{2, -1, 0, 0, 0.045758},
	{0, 1, -1, 0, -0.040923},
	{1, 0, 0, 0, -0.034720},
	{0, 1, 1, 0, -0.030383},
	{2, 0, 0, -2, 0.015327},
	{0, 0, 1, 2, -0.012528},
	{0, 0, 1, -2, 0.010980},
	{4, 0, -1, 0, 0.010675},
	{0, 0, 3, 0, 0.010034},
	{4, 0, -2, 0, 0.008548},
}

var moonLatTerms = []lunarTerm{
	{0, 0, 0, 1, 5.128122},
	{0, 0, 1, 1, 0.280602},
	{0, 0, 1, -1, 0.277693},
	{2, 0, 0, -1, 0.173237},
	{2, 0, -1, 1, 0.055413},
	{2, 0, -1, -1, 0.046271},
	{2, 0, 0, 1, 0.032573},
	{0, 0, 2, 1, 0.017198},
	{2, 0, 1, -1, 0.009266},
	{0, 0, 2, -1, 0.008822},
}

var moonDistTerms = []lunarTerm{
	{0, 0, 1, 0, -20905.355},
	{2, 0, -1, 0, -3699.111},
	{2, 0, 0, 0, -2955.968},
	{0, 0, 2, 0, -569.925},
	{0, 1, 0, 0, 48.888},
	{0, 0, 0, 2, -3.149},
	{2, 0, -2, 0, 246.158},
	{2, -1, -1, 0, -152.138},
	{2, 0, 1, 0, -170.733},
	{2, -1, 0, 0, -204.586},
	{0, 1, -1, 0, -129.620},
	{1, 0, 0, 0, 108.743},
	{0, 1, 1, 0, 104.755},
	{2, 0, 0, -2, 10.321},
	{0, 0, 1, -2, 79.661},
	{4, 0, -1, 0, -34.782},
}

// moonPosition evaluates the truncated lunar series (Meeus ch. 47). Longitude is referred to
// the mean equinox of date; distance is returned in AU.
func moonPosition(t float64) (lon, lat, dist float64) {
	lp := 218.3164477 + 481267.88123421*t
	d := 297.8501921 + 445267.1114034*t
	m := 357.5291092 + 35999.0502909*t
	mp := 134.9633964 + 477198.8675055*t
	f := 93.2720950 + 483202.0175233*t
	e := 1 - 0.002516*t

	eccFactor := func(term lunarTerm) float64 {
		switch math.Abs(term.m) {
		case 1:
			return e
		case 2:
			return e * e
		}
		return 1
	}
	arg := func(term lunarTerm) float64 {
		return term.d*d + term.m*m + term.mp*mp + term.f*f
	}

	lon = lp
	for _, term := range moonLonTerms {
		lon += term.coeff * eccFactor(term) * sinD(arg(term))
	}
	for _, term := range moonLatTerms {
		lat += term.coeff * eccFactor(term) * sinD(arg(term))
	}
	km := 385000.56
	for _, term := range moonDistTerms {
		km += term.coeff * eccFactor(term) * cosD(arg(term))
	}
	return Normalize(lon), lat, km / auKm
}

func meanNode(t float64) float64 {
	return Normalize(125.0445479 - 1934.1362891*t + 0.0020754*t*t + t*t*t/467441 - t*t*t*t/60616000)
}
