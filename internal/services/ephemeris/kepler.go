package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"

	"AstroTransits/internal/domain/models"
)

const (
	rad = math.Pi / 180

	// Supported date range of the orbital element series.
	minYear = 1000
	maxYear = 2999

	// General precession in longitude, degrees per day.
	precessionPerDay = 3.82394e-5

	// Day 0.0 of the element series is 1999-12-31T00:00:00Z.
	elementsEpochJD = 2451543.5
)

// orbit holds the osculating elements of a body at one instant. Angles are
// in degrees, a is in AU (Earth radii for the Moon).
type orbit struct {
	N float64 // longitude of the ascending node
	i float64 // inclination
	w float64 // argument of perihelion
	a float64 // semi-major axis
	e float64 // eccentricity
	M float64 // mean anomaly
}

func sunOrbit(d float64) orbit {
	return orbit{0, 0, 282.9404 + 4.70935e-5*d, 1.0, 0.016709 - 1.151e-9*d, 356.0470 + 0.9856002585*d}
}

func moonOrbit(d float64) orbit {
	return orbit{125.1228 - 0.0529538083*d, 5.1454, 318.0634 + 0.1643573223*d, 60.2666, 0.054900, 115.3654 + 13.0649929509*d}
}

var planetOrbits = map[models.CelestialBody]func(d float64) orbit{
	models.Mercury: func(d float64) orbit {
		return orbit{48.3313 + 3.24587e-5*d, 7.0047 + 5.00e-8*d, 29.1241 + 1.01444e-5*d, 0.387098, 0.205635 + 5.59e-10*d, 168.6562 + 4.0923344368*d}
	},
	models.Venus: func(d float64) orbit {
		return orbit{76.6799 + 2.46590e-5*d, 3.3946 + 2.75e-8*d, 54.8910 + 1.38374e-5*d, 0.723330, 0.006773 - 1.302e-9*d, 48.0052 + 1.6021302244*d}
	},
	models.Mars: func(d float64) orbit {
		return orbit{49.5574 + 2.11081e-5*d, 1.8497 - 1.78e-8*d, 286.5016 + 2.92961e-5*d, 1.523688, 0.093405 + 2.516e-9*d, 18.6021 + 0.5240207766*d}
	},
	models.Jupiter: func(d float64) orbit {
		return orbit{100.4542 + 2.76854e-5*d, 1.3030 - 1.557e-7*d, 273.8777 + 1.64505e-5*d, 5.20256, 0.048498 + 4.469e-9*d, 19.8950 + 0.0830853001*d}
	},
	models.Saturn: func(d float64) orbit {
		return orbit{113.6634 + 2.38980e-5*d, 2.4886 - 1.081e-7*d, 339.3939 + 2.97661e-5*d, 9.55475, 0.055546 - 9.499e-9*d, 316.9670 + 0.0334442282*d}
	},
	models.Uranus: func(d float64) orbit {
		return orbit{74.0005 + 1.3978e-5*d, 0.7733 + 1.9e-8*d, 96.6612 + 3.0565e-5*d, 19.18171 - 1.55e-8*d, 0.047318 + 7.45e-9*d, 142.5905 + 0.011725806*d}
	},
	models.Neptune: func(d float64) orbit {
		return orbit{131.7806 + 3.0173e-5*d, 1.7700 - 2.55e-7*d, 272.8461 - 6.027e-6*d, 30.05826 + 3.313e-8*d, 0.008606 + 2.15e-9*d, 260.2471 + 0.005995147*d}
	},
}

// KeplerProvider computes geocentric ecliptic longitudes (J2000 equinox) from
// low-precision mean orbital elements, the main lunar perturbations, the
// Jupiter-Saturn-Uranus mutual perturbations and a periodic series for
// Pluto. Accuracy is a few arcminutes for the planets, better than half a
// degree for the Moon, inside 1000..2999. The observer location is ignored.
type KeplerProvider struct{}

func NewKeplerProvider() *KeplerProvider { return &KeplerProvider{} }

func (*KeplerProvider) Name() string { return "kepler" }

func (p *KeplerProvider) EclipticLongitude(ctx context.Context, body models.CelestialBody, obs models.Observer) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if y := obs.Time.UTC().Year(); y < minYear || y > maxYear {
		return 0, fmt.Errorf("date %s outside supported range %d-%d", obs.Time.UTC().Format(time.RFC3339), minYear, maxYear)
	}

	d := dayNumber(obs.Time)
	lon, err := longitudeOfDate(body, d)
	if err != nil {
		return 0, err
	}
	return lon - precessionPerDay*d, nil
}

func dayNumber(t time.Time) float64 {
	return JulianDay(t) - elementsEpochJD
}

// longitudeOfDate returns the geocentric ecliptic longitude referred to the
// equinox of date.
func longitudeOfDate(body models.CelestialBody, d float64) (float64, error) {
	sun := sunOrbit(d)
	sv, sr := sun.anomaly()
	sunLon := sv + sun.w
	xs, ys := sr*cosd(sunLon), sr*sind(sunLon)

	switch body {
	case models.Sun:
		return sunLon, nil
	case models.Moon:
		return moonLongitude(d, sun), nil
	case models.Pluto:
		lon, lat, r := plutoHeliocentric(d)
		lon += precessionPerDay * d
		return geocentric(lon, lat, r, xs, ys), nil
	}

	elements, ok := planetOrbits[body]
	if !ok {
		return 0, fmt.Errorf("unsupported body %q", body)
	}
	lon, lat, r := elements(d).heliocentric()

	switch body {
	case models.Jupiter, models.Saturn, models.Uranus:
		lon += giantPerturbation(body, d)
	}
	return geocentric(lon, lat, r, xs, ys), nil
}

// anomaly solves Kepler's equation and returns the true anomaly in degrees
// and the distance.
func (o orbit) anomaly() (v, r float64) {
	m := Normalize(o.M) * rad
	E := m + o.e*math.Sin(m)*(1+o.e*math.Cos(m))
	for k := 0; k < 50; k++ {
		dE := (E - o.e*math.Sin(E) - m) / (1 - o.e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-12 {
			break
		}
	}
	xv := o.a * (math.Cos(E) - o.e)
	yv := o.a * math.Sqrt(1-o.e*o.e) * math.Sin(E)
	return math.Atan2(yv, xv) / rad, math.Hypot(xv, yv)
}

// heliocentric returns ecliptic longitude and latitude in degrees and the
// distance, centred on the orbit's primary.
func (o orbit) heliocentric() (lon, lat, r float64) {
	v, r := o.anomaly()
	u := v + o.w
	x := r * (cosd(o.N)*cosd(u) - sind(o.N)*sind(u)*cosd(o.i))
	y := r * (sind(o.N)*cosd(u) + cosd(o.N)*sind(u)*cosd(o.i))
	z := r * sind(u) * sind(o.i)
	return math.Atan2(y, x) / rad, math.Atan2(z, math.Hypot(x, y)) / rad, r
}

// geocentric shifts a heliocentric position by the Sun's geocentric
// rectangular coordinates and returns the longitude.
func geocentric(lon, lat, r, xs, ys float64) float64 {
	x := r*cosd(lon)*cosd(lat) + xs
	y := r*sind(lon)*cosd(lat) + ys
	return math.Atan2(y, x) / rad
}

func moonLongitude(d float64, sun orbit) float64 {
	moon := moonOrbit(d)
	lon, _, _ := moon.heliocentric()

	Ms, Mm := sun.M, moon.M
	Ls := Ms + sun.w
	Lm := Mm + moon.w + moon.N
	D := Lm - Ls
	F := Lm - moon.N

	return lon +
		-1.274*sind(Mm-2*D) + // evection
		0.658*sind(2*D) + // variation
		-0.186*sind(Ms) + // yearly equation
		-0.059*sind(2*Mm-2*D) +
		-0.057*sind(Mm-2*D+Ms) +
		0.053*sind(Mm+2*D) +
		0.046*sind(2*D-Ms) +
		0.041*sind(Mm-Ms) +
		-0.035*sind(D) + // parallactic equation
		-0.031*sind(Mm+Ms) +
		-0.015*sind(2*F-2*D) +
		0.011*sind(Mm-4*D)
}

func giantPerturbation(body models.CelestialBody, d float64) float64 {
	Mj := planetOrbits[models.Jupiter](d).M
	Ms := planetOrbits[models.Saturn](d).M
	Mu := planetOrbits[models.Uranus](d).M

	switch body {
	case models.Jupiter:
		return -0.332*sind(2*Mj-5*Ms-67.6) -
			0.056*sind(2*Mj-2*Ms+21) +
			0.042*sind(3*Mj-5*Ms+21) -
			0.036*sind(Mj-2*Ms) +
			0.022*cosd(Mj-Ms) +
			0.023*sind(2*Mj-3*Ms+52) -
			0.016*sind(Mj-5*Ms-69)
	case models.Saturn:
		return 0.812*sind(2*Mj-5*Ms-67.6) -
			0.229*cosd(2*Mj-4*Ms-2) +
			0.119*sind(Mj-2*Ms-3) +
			0.046*sind(2*Mj-6*Ms-69) +
			0.014*sind(Mj-3*Ms+32)
	case models.Uranus:
		return 0.040*sind(Ms-2*Mu+6) +
			0.035*sind(Ms-3*Mu+33) -
			0.015*sind(Mj-Mu+20)
	default:
		return 0
	}
}

// plutoHeliocentric evaluates the periodic Pluto series. Results refer to the
// J2000 equinox.
func plutoHeliocentric(d float64) (lon, lat, r float64) {
	S := 50.03 + 0.033459652*d
	P := 238.95 + 0.003968789*d

	lon = 238.9508 + 0.00400703*d -
		19.799*sind(P) + 19.848*cosd(P) +
		0.897*sind(2*P) - 4.956*cosd(2*P) +
		0.610*sind(3*P) + 1.211*cosd(3*P) -
		0.341*sind(4*P) - 0.190*cosd(4*P) +
		0.128*sind(5*P) - 0.034*cosd(5*P) -
		0.038*sind(6*P) + 0.031*cosd(6*P) +
		0.020*sind(S-P) - 0.010*cosd(S-P)

	lat = -3.9082 -
		5.453*sind(P) - 14.975*cosd(P) +
		3.527*sind(2*P) + 1.673*cosd(2*P) -
		1.051*sind(3*P) + 0.328*cosd(3*P) +
		0.179*sind(4*P) - 0.292*cosd(4*P) +
		0.019*sind(5*P) + 0.100*cosd(5*P) -
		0.031*sind(6*P) - 0.026*cosd(6*P) +
		0.011*cosd(S-P)

	r = 40.72 +
		6.68*sind(P) + 6.90*cosd(P) -
		1.18*sind(2*P) - 0.03*cosd(2*P) +
		0.15*sind(3*P) - 0.14*cosd(3*P)
	return lon, lat, r
}

func sind(x float64) float64 { return math.Sin(x * rad) }
func cosd(x float64) float64 { return math.Cos(x * rad) }
