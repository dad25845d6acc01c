package repository

import (
	"context"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	pkgkafka "TrendPulse/pkg/kafka"
)

// KafkaSignalPublisher pushes emitted signals onto the signal topic, keyed
// by symbol so one symbol's signals stay ordered per partition.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, s *models.TradingSignal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), s)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
