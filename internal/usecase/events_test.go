package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"AstroTransits/internal/domain/models"
)

type fakePublisher struct {
	published []*models.TransitEvent
	err       error
	closed    bool
}

func (f *fakePublisher) Publish(_ context.Context, e *models.TransitEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, e)
	return nil
}

func (f *fakePublisher) PublishBatch(ctx context.Context, events []*models.TransitEvent) error {
	for _, e := range events {
		if err := f.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakePublisher) Close() error { f.closed = true; return nil }

type fakeStore struct {
	stored []*models.TransitEvent
	err    error
}

func (f *fakeStore) Init(context.Context) error { return nil }
func (f *fakeStore) Store(_ context.Context, e *models.TransitEvent) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, e)
	return nil
}
func (f *fakeStore) StoreBatch(ctx context.Context, events []*models.TransitEvent) error {
	for _, e := range events {
		if err := f.Store(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
func (f *fakeStore) Recent(context.Context, string, int) ([]models.TransitEvent, error) {
	return nil, nil
}
func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

func sampleEvent() *models.TransitEvent {
	matches := []models.AspectMatch{{TransitingBody: models.Sun, NatalBody: models.Moon, Aspect: "trine", Orb: 0.5}}
	return NewTransitEvent(models.EventReport, models.NewObserver(natalTime, 40, -74), checkTime, 2, matches)
}

func TestNewTransitEvent(t *testing.T) {
	e := sampleEvent()
	if e.ID == "" || e.Natal != "2000-01-01T00:00:00" || e.Date != "2024-06-01T12:00:00" || e.MatchCount != 1 {
		t.Fatalf("unexpected event %+v", e)
	}
	if e.Latitude != 40 || e.Longitude != -74 || e.ComputedAt.IsZero() {
		t.Fatalf("unexpected event %+v", e)
	}
	if other := sampleEvent(); other.ID == e.ID {
		t.Fatalf("event ids must be unique")
	}
}

func TestNewUpcomingEvent(t *testing.T) {
	dated := []models.DatedAspectMatch{
		{Date: "2024-01-01T00:00:00", AspectMatch: models.AspectMatch{Aspect: "square"}},
		{Date: "2024-01-02T00:00:00", AspectMatch: models.AspectMatch{Aspect: "trine"}},
	}
	e := NewUpcomingEvent(models.NewObserver(natalTime, 0, 0), checkTime, 5, 2, dated)
	if e.Kind != models.EventUpcoming || e.Days != 5 || e.MatchCount != 2 {
		t.Fatalf("unexpected event %+v", e)
	}
}

func TestEventRecorderRoutesByBackend(t *testing.T) {
	pub, store := &fakePublisher{}, &fakeStore{}

	m := &nopMetrics{}
	if err := NewEventRecorder(pub, store, m, "kafka").Record(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := NewEventRecorder(pub, store, m, "clickhouse").RecordBatch(context.Background(), []*models.TransitEvent{sampleEvent(), sampleEvent()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.published) != 1 || len(store.stored) != 2 || m.sent != 3 {
		t.Fatalf("unexpected routing: %d published, %d stored, %d sent", len(pub.published), len(store.stored), m.sent)
	}

	if err := NewEventRecorder(nil, nil, m, "none").Record(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error for unconfigured backend")
	}
	if err := NewEventRecorder(pub, nil, m, "kafka").Record(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil event")
	}
}

func TestEventRecorderWrapsFailures(t *testing.T) {
	boom := errors.New("broker down")
	m := &nopMetrics{}
	rec := NewEventRecorder(&fakePublisher{err: boom}, nil, m, "kafka")
	if err := rec.Record(context.Background(), sampleEvent()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if len(m.errors) != 1 || m.errors[0] != "record_event" {
		t.Fatalf("unexpected error metrics %v", m.errors)
	}
}

func TestTransitEventsHandlerStores(t *testing.T) {
	store := &fakeStore{}
	h := NewTransitEventsHandler("transit-events", store, &nopMetrics{})
	if h.Topic() != "transit-events" {
		t.Fatalf("unexpected topic %s", h.Topic())
	}

	raw, _ := json.Marshal(sampleEvent())
	if err := h.Handle(context.Background(), raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.stored) != 1 || store.stored[0].Matches[0].Aspect != "trine" {
		t.Fatalf("unexpected stored events %+v", store.stored)
	}

	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
	if err := h.Handle(context.Background(), []byte(`{"kind":"daily"}`)); err == nil {
		t.Fatalf("expected error for event without id")
	}
}
