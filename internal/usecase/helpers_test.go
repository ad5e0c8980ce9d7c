package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"AstroTransits/internal/domain/models"
	"AstroTransits/internal/services/ephemeris"
	"AstroTransits/internal/services/interpretation"
)

type nopMetrics struct {
	mu     sync.Mutex
	errors []string
	sent   int
}

func (*nopMetrics) RecordComputation(string)      {}
func (*nopMetrics) RecordMatch(string)            {}
func (*nopMetrics) RecordLatency(string, float64) {}
func (m *nopMetrics) RecordEventSent(string, string) {
	m.mu.Lock()
	m.sent++
	m.mu.Unlock()
}
func (m *nopMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors = append(m.errors, kind)
	m.mu.Unlock()
}

// tableProvider returns longitude index*step at natal, shifted by offset
// everywhere else.
type tableProvider struct {
	natal  time.Time
	step   float64
	offset float64
	fail   bool
}

func (p *tableProvider) Name() string { return "table" }

func (p *tableProvider) EclipticLongitude(_ context.Context, body models.CelestialBody, obs models.Observer) (float64, error) {
	if p.fail {
		return 0, errors.New("ephemeris offline")
	}
	lon := float64(body.Index()) * p.step
	if !obs.Time.Equal(p.natal) {
		lon += p.offset
	}
	return lon, nil
}

var (
	natalTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	checkTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
)

func newService(p *tableProvider) *TransitService {
	var eph *ephemeris.Adapter
	if p == nil {
		eph = ephemeris.NewAdapter(ephemeris.NewKeplerProvider())
	} else {
		eph = ephemeris.NewAdapter(p)
	}
	return NewTransitService(eph, interpretation.Default(), &nopMetrics{}, 3660)
}
