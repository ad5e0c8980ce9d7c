package ephemeris

import (
	"context"
	"math"

	"AstroTransits/internal/domain/models"
	domsvc "AstroTransits/internal/domain/service"
	"AstroTransits/pkg/serrors"
	"AstroTransits/pkg/util"
)

// Adapter puts the provider port behind normalization and error typing.
// Every provider failure comes back as serrors.ErrProvider; nothing is
// defaulted or retried.
type Adapter struct {
	provider domsvc.EphemerisProvider
}

func NewAdapter(p domsvc.EphemerisProvider) *Adapter {
	return &Adapter{provider: p}
}

// ProviderName reports which provider backs the adapter.
func (a *Adapter) ProviderName() string { return a.provider.Name() }

// LongitudeOf returns the body's ecliptic longitude in [0, 360).
func (a *Adapter) LongitudeOf(ctx context.Context, body models.CelestialBody, obs models.Observer) (float64, error) {
	lon, err := a.provider.EclipticLongitude(ctx, body, obs)
	if err != nil {
		return 0, serrors.Wrap(serrors.ErrProvider, err, "%s: longitude of %s at %s", a.provider.Name(), body, util.FormatISO(obs.Time))
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, serrors.With(serrors.ErrProvider, "%s: non-finite longitude of %s at %s", a.provider.Name(), body, util.FormatISO(obs.Time))
	}
	return Normalize(lon), nil
}

// Snapshot computes every body in canonical order, stopping at the first
// failure or when ctx is done.
func (a *Adapter) Snapshot(ctx context.Context, obs models.Observer) (models.LongitudeSnapshot, error) {
	snap := make(models.LongitudeSnapshot, len(models.Bodies))
	for _, body := range models.Bodies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lon, err := a.LongitudeOf(ctx, body, obs)
		if err != nil {
			return nil, err
		}
		snap[body] = lon
	}
	return snap, nil
}

// Normalize maps any finite angle into [0, 360).
func Normalize(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	// -1e-15 + 360 rounds to 360.
	if m >= 360 {
		m = 0
	}
	return m
}
