// Package houses computes house cusps.
//
// Only an equal-house approximation is provided: the ascendant is taken as
// the local sidereal time plus 90 degrees, which ignores the obliquity of the
// ecliptic and the observer latitude. Each following cusp sits 30 degrees
// further along. Expect errors of several degrees against a true ascendant,
// growing with distance from the equator.
package houses

import (
	"context"

	"AstroTransits/internal/domain/models"
	"AstroTransits/internal/services/ephemeris"
)

// Ascendant returns the approximate ascendant for obs in degrees.
func Ascendant(obs models.Observer) float64 {
	ramc := ephemeris.LocalSiderealTime(obs.Time, obs.Longitude)
	return ephemeris.Normalize(ramc + 90)
}

// Cusps returns twelve equal houses starting at the ascendant, rounded to
// two decimals.
func Cusps(ctx context.Context, obs models.Observer) (models.HouseCusps, error) {
	var h models.HouseCusps
	if err := ctx.Err(); err != nil {
		return h, err
	}
	asc := Ascendant(obs)
	for i := range h {
		h[i] = models.Round2(ephemeris.Normalize(asc + float64(i)*30))
	}
	return h, nil
}
