package usecase

import (
	"context"
	"errors"
	"time"

	"AstroTransits/internal/domain/models"
	drepo "AstroTransits/internal/domain/repository"
	"AstroTransits/internal/services/aspects"
	"AstroTransits/internal/services/ephemeris"
	"AstroTransits/internal/services/houses"
	"AstroTransits/pkg/serrors"
	"AstroTransits/pkg/util"
)

// ChartBuilder assembles natal charts from independently computed sections.
type ChartBuilder struct {
	eph     *ephemeris.Adapter
	metrics drepo.Metrics
	orb     float64
}

// NewChartBuilder creates a ChartBuilder. orb is the fixed tolerance used for
// aspects inside the chart.
func NewChartBuilder(eph *ephemeris.Adapter, metrics drepo.Metrics, orb float64) *ChartBuilder {
	return &ChartBuilder{eph: eph, metrics: metrics, orb: orb}
}

// Build always returns a chart. Failed sections carry their error; the
// returned error is a serrors.ErrPartial joining them, or nil.
func (b *ChartBuilder) Build(ctx context.Context, obs models.Observer) (models.NatalChart, error) {
	start := time.Now()
	chart := models.NatalChart{
		Date:      util.FormatISO(obs.Time),
		Latitude:  obs.Latitude,
		Longitude: obs.Longitude,
	}

	var errs []error
	snap, err := b.eph.Snapshot(ctx, obs)
	if err != nil {
		err = serrors.Wrap(serrors.ErrPartial, err, "planets")
		chart.Planets = models.Failed[models.LongitudeSnapshot](err)
		chart.Aspects = models.Failed[[]models.ChartAspect](err)
		errs = append(errs, err)
	} else {
		chart.Planets = models.Ok(snap.Rounded())
		chart.Aspects = models.Ok(b.chartAspects(snap))
	}

	cusps, err := houses.Cusps(ctx, obs)
	if err != nil {
		err = serrors.Wrap(serrors.ErrPartial, err, "houses")
		chart.Houses = models.Failed[models.HouseCusps](err)
		errs = append(errs, err)
	} else {
		chart.Houses = models.Ok(cusps)
	}

	if len(errs) > 0 {
		b.metrics.RecordError("chart_section")
		return chart, errors.Join(errs...)
	}
	b.metrics.RecordComputation(string(models.EventChart))
	b.metrics.RecordLatency("chart", time.Since(start).Seconds())
	return chart, nil
}

func (b *ChartBuilder) chartAspects(snap models.LongitudeSnapshot) []models.ChartAspect {
	matches := aspects.FindSelfAspects(snap, b.orb)
	out := make([]models.ChartAspect, 0, len(matches))
	for _, m := range matches {
		out = append(out, models.ChartAspectFrom(m))
	}
	return out
}
