package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AstroTransits/internal/domain/models"
	domrepo "AstroTransits/internal/domain/repository"
	pkgkafka "AstroTransits/pkg/kafka"
)

// TransitEventsHandler consumes transit events from Kafka and stores them.
type TransitEventsHandler struct {
	topic   string
	store   domrepo.EventStore
	metrics domrepo.Metrics
}

func NewTransitEventsHandler(topic string, store domrepo.EventStore, metrics domrepo.Metrics) *TransitEventsHandler {
	return &TransitEventsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *TransitEventsHandler) Topic() string { return h.topic }

func (h *TransitEventsHandler) Handle(ctx context.Context, b []byte) error {
	var e models.TransitEvent
	if err := json.Unmarshal(b, &e); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode event: %w", err)
	}
	if e.ID == "" || e.Natal == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("event missing id or natal")
	}
	if !e.ComputedAt.IsZero() {
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(e.ComputedAt).Seconds())
	}

	start := time.Now()
	err := h.store.Store(ctx, &e)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordEventSent("clickhouse", string(e.Kind))
	return nil
}

var _ pkgkafka.MessageHandler = (*TransitEventsHandler)(nil)
