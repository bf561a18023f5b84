package repository

import (
	"context"

	"PriceGate/internal/domain/models"
	"PriceGate/internal/domain/repository"
	pkgkafka "PriceGate/pkg/kafka"
)

// KafkaEventPublisher implements Publisher for Kafka. Events are keyed by
// type so consumers can compact per configuration surface.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka configuration-event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, ev models.ConfigEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Type), ev)
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher drops events. Used when no event topic is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(context.Context, models.ConfigEvent) error { return nil }
func (NoopPublisher) Close() error                                           { return nil }

var _ repository.Publisher = NoopPublisher{}
