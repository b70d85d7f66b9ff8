package repository

import (
	"context"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	pkgkafka "StockPulse/pkg/kafka"
)

// KafkaAlertPublisher publishes emitted signals to a durable topic,
// keyed by symbol so per-instrument ordering survives partitioning.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.AlertPublisher = (*KafkaAlertPublisher)(nil)

func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) Publish(ctx context.Context, sig *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), sig)
}

func (p *KafkaAlertPublisher) Close() error {
	return p.producer.Close()
}

// NopAlertPublisher is wired when Kafka is disabled.
type NopAlertPublisher struct{}

var _ domrepo.AlertPublisher = NopAlertPublisher{}

func (NopAlertPublisher) Publish(context.Context, *models.Signal) error { return nil }
func (NopAlertPublisher) Close() error                                  { return nil }
