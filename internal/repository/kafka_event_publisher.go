package repository

import (
	"context"

	"AstroTransits/internal/domain/models"
	"AstroTransits/internal/domain/repository"
	pkgkafka "AstroTransits/pkg/kafka"
)

// producer is the part of pkg/kafka.Producer the publisher uses.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher for Kafka. Events are keyed
// by natal date so one chart's history stays in one partition.
type KafkaEventPublisher struct {
	producer producer
	topic    string
}

// NewKafkaEventPublisher creates Kafka publisher.
func NewKafkaEventPublisher(p *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, e *models.TransitEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Natal), e)
}

func (p *KafkaEventPublisher) PublishBatch(ctx context.Context, events []*models.TransitEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{Key: []byte(e.Natal), Value: e}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// Close closes the producer.
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
