package usecase

import (
	"context"
	"fmt"
	"time"

	"AstroTransits/internal/domain/models"
	drepo "AstroTransits/internal/domain/repository"
)

// EventRecorder routes transit events to the configured backend.
type EventRecorder struct {
	pub     drepo.EventPublisher
	store   drepo.EventStore
	metrics drepo.Metrics
	backend string
}

// NewEventRecorder creates a new EventRecorder. Only the dependency matching
// backend ("kafka" or "clickhouse") needs to be non-nil.
func NewEventRecorder(
	pub drepo.EventPublisher,
	store drepo.EventStore,
	metrics drepo.Metrics,
	backend string,
) *EventRecorder {
	return &EventRecorder{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Backend reports where events go.
func (r *EventRecorder) Backend() string { return r.backend }

// Record sends a single event.
func (r *EventRecorder) Record(ctx context.Context, e *models.TransitEvent) error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}

	start := time.Now()
	var err error

	switch {
	case r.backend == "kafka" && r.pub != nil:
		err = r.pub.Publish(ctx, e)
	case r.backend == "clickhouse" && r.store != nil:
		err = r.store.Store(ctx, e)
	default:
		err = fmt.Errorf("unknown or unconfigured backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("record_event")
		return fmt.Errorf("record event: %w", err)
	}

	r.metrics.RecordEventSent(r.backend, string(e.Kind))
	r.metrics.RecordLatency("record_event", time.Since(start).Seconds())
	return nil
}

// RecordBatch sends several events at once.
func (r *EventRecorder) RecordBatch(ctx context.Context, events []*models.TransitEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch {
	case r.backend == "kafka" && r.pub != nil:
		err = r.pub.PublishBatch(ctx, events)
	case r.backend == "clickhouse" && r.store != nil:
		err = r.store.StoreBatch(ctx, events)
	default:
		err = fmt.Errorf("unknown or unconfigured backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("record_event_batch")
		return fmt.Errorf("record batch: %w", err)
	}

	for _, e := range events {
		r.metrics.RecordEventSent(r.backend, string(e.Kind))
	}
	r.metrics.RecordLatency("record_event_batch", time.Since(start).Seconds())
	return nil
}

// Close closes the publisher. The store is shared with the history endpoint
// and closed by its owner.
func (r *EventRecorder) Close() {
	if r.pub != nil {
		_ = r.pub.Close()
	}
}
