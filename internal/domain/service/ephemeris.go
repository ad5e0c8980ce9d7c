package service

import (
	"context"

	"AstroTransits/internal/domain/models"
)

// EphemerisProvider computes raw ecliptic longitudes. Implementations may
// return values outside [0, 360); callers normalize.
type EphemerisProvider interface {
	Name() string
	EclipticLongitude(ctx context.Context, body models.CelestialBody, obs models.Observer) (float64, error)
}
