package repository

import (
	"context"

	"AstroTransits/internal/domain/models"
)

// EventPublisher ships transit events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, e *models.TransitEvent) error
	PublishBatch(ctx context.Context, events []*models.TransitEvent) error
	Close() error
}

// EventStore persists transit events and serves their history.
type EventStore interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, e *models.TransitEvent) error
	StoreBatch(ctx context.Context, events []*models.TransitEvent) error
	Recent(ctx context.Context, natal string, limit int) ([]models.TransitEvent, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordComputation(kind string)
	RecordMatch(aspect string)
	RecordEventSent(backend, kind string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
