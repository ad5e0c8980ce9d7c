package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"AstroTransits/internal/domain/models"
	drepo "AstroTransits/internal/domain/repository"
	"AstroTransits/internal/services/aspects"
	"AstroTransits/internal/services/ephemeris"
	"AstroTransits/internal/services/interpretation"
	"AstroTransits/pkg/serrors"
	"AstroTransits/pkg/util"
)

// TransitService compares transiting positions against a natal snapshot.
// It holds no per-request state.
type TransitService struct {
	eph     *ephemeris.Adapter
	catalog *interpretation.Catalog
	metrics drepo.Metrics
	maxDays int
}

// NewTransitService creates a TransitService. maxDays <= 0 disables the
// upcoming range limit.
func NewTransitService(
	eph *ephemeris.Adapter,
	catalog *interpretation.Catalog,
	metrics drepo.Metrics,
	maxDays int,
) *TransitService {
	return &TransitService{
		eph:     eph,
		catalog: catalog,
		metrics: metrics,
		maxDays: maxDays,
	}
}

// Transits returns the aspects between the bodies at at and the natal
// snapshot, sorted by orb. Both observers share the natal place.
func (s *TransitService) Transits(ctx context.Context, natal models.Observer, at time.Time, orb float64) ([]models.AspectMatch, error) {
	if err := checkOrb(orb); err != nil {
		return nil, err
	}
	start := time.Now()
	natalSnap, err := s.eph.Snapshot(ctx, natal)
	if err != nil {
		s.metrics.RecordError("natal_snapshot")
		return nil, fmt.Errorf("natal positions: %w", err)
	}
	matches, err := s.transitsAgainst(ctx, natalSnap, natal.At(at), orb)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordComputation(string(models.EventDaily))
	s.metrics.RecordLatency("transits", time.Since(start).Seconds())
	return matches, nil
}

// DailyReport renders the transits at at as report text.
func (s *TransitService) DailyReport(ctx context.Context, natal models.Observer, at time.Time, orb float64) (string, error) {
	matches, err := s.Transits(ctx, natal, at, orb)
	if err != nil {
		return "", err
	}
	return s.Report(util.FormatISO(at), matches, orb), nil
}

// Report renders already computed matches.
func (s *TransitService) Report(date string, matches []models.AspectMatch, orb float64) string {
	return BuildReport(s.catalog, date, matches, orb)
}

// UpcomingTransits collects the transits of days consecutive days starting
// at start, sorted by date then orb.
func (s *TransitService) UpcomingTransits(ctx context.Context, natal models.Observer, start time.Time, days int, orb float64) ([]models.DatedAspectMatch, error) {
	out := []models.DatedAspectMatch{}
	err := s.StreamUpcoming(ctx, natal, start, days, orb, func(date string, matches []models.AspectMatch) error {
		for _, m := range matches {
			out = append(out, models.DatedAspectMatch{Date: date, AspectMatch: m})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Orb < out[j].Orb
	})
	return out, nil
}

// DayFunc receives the matches of one day. Returning an error stops the
// iteration.
type DayFunc func(date string, matches []models.AspectMatch) error

// StreamUpcoming computes day by day and hands each day to fn. The natal
// snapshot is computed once. ctx is checked between days.
func (s *TransitService) StreamUpcoming(ctx context.Context, natal models.Observer, start time.Time, days int, orb float64, fn DayFunc) error {
	if err := checkOrb(orb); err != nil {
		return err
	}
	if days < 0 {
		return serrors.With(serrors.ErrValidation, "days must be zero or positive, got %d", days)
	}
	if s.maxDays > 0 && days > s.maxDays {
		return serrors.With(serrors.ErrValidation, "days must not exceed %d, got %d", s.maxDays, days)
	}
	if days == 0 {
		return nil
	}

	begin := time.Now()
	natalSnap, err := s.eph.Snapshot(ctx, natal)
	if err != nil {
		s.metrics.RecordError("natal_snapshot")
		return fmt.Errorf("natal positions: %w", err)
	}

	for _, day := range util.DaySeries(start, days) {
		if err := ctx.Err(); err != nil {
			return err
		}
		matches, err := s.transitsAgainst(ctx, natalSnap, natal.At(day), orb)
		if err != nil {
			return err
		}
		if err := fn(util.FormatISO(day), matches); err != nil {
			return err
		}
	}
	s.metrics.RecordComputation(string(models.EventUpcoming))
	s.metrics.RecordLatency("upcoming", time.Since(begin).Seconds())
	return nil
}

func (s *TransitService) transitsAgainst(ctx context.Context, natalSnap models.LongitudeSnapshot, obs models.Observer, orb float64) ([]models.AspectMatch, error) {
	snap, err := s.eph.Snapshot(ctx, obs)
	if err != nil {
		s.metrics.RecordError("transit_snapshot")
		return nil, fmt.Errorf("transiting positions: %w", err)
	}
	matches := aspects.FindAspects(snap, natalSnap, orb)
	for _, m := range matches {
		s.metrics.RecordMatch(m.Aspect)
	}
	return matches, nil
}

func checkOrb(orb float64) error {
	if orb < 0 || math.IsNaN(orb) {
		return serrors.With(serrors.ErrValidation, "orb must be zero or positive")
	}
	return nil
}
