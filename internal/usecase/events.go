package usecase

import (
	"time"

	"github.com/google/uuid"

	"AstroTransits/internal/domain/models"
	"AstroTransits/pkg/util"
)

// NewTransitEvent stamps a computation with an id and the current time.
func NewTransitEvent(kind models.EventKind, natal models.Observer, at time.Time, orb float64, matches []models.AspectMatch) *models.TransitEvent {
	return &models.TransitEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Natal:      util.FormatISO(natal.Time),
		Date:       util.FormatISO(at),
		Latitude:   natal.Latitude,
		Longitude:  natal.Longitude,
		Orb:        orb,
		MatchCount: len(matches),
		Matches:    matches,
		ComputedAt: time.Now().UTC(),
	}
}

// NewUpcomingEvent flattens an upcoming range into one event.
func NewUpcomingEvent(natal models.Observer, start time.Time, days int, orb float64, dated []models.DatedAspectMatch) *models.TransitEvent {
	matches := make([]models.AspectMatch, 0, len(dated))
	for _, d := range dated {
		matches = append(matches, d.AspectMatch)
	}
	e := NewTransitEvent(models.EventUpcoming, natal, start, orb, matches)
	e.Days = days
	return e
}
