package repository

import (
	"context"

	"AstroChart/internal/domain/models"
	pkgkafka "AstroChart/pkg/kafka"
)

// KafkaChartPublisher publishes chart.computed events keyed by chart id.
type KafkaChartPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaChartPublisher(producer *pkgkafka.Producer, topic string) *KafkaChartPublisher {
	return &KafkaChartPublisher{producer: producer, topic: topic}
}

func (p *KafkaChartPublisher) Publish(ctx context.Context, ev *models.ChartComputedEvent) error {
	return p.PublishBatch(ctx, []*models.ChartComputedEvent{ev})
}

func (p *KafkaChartPublisher) PublishBatch(ctx context.Context, evs []*models.ChartComputedEvent) error {
	msgs := make([]pkgkafka.Message, 0, len(evs))
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		m := pkgkafka.Message{Key: []byte(ev.ChartID), Value: ev}
		if ev.RequestID != "" {
			m.Headers = map[string]string{pkgkafka.HeaderRequestID: ev.RequestID}
		}
		msgs = append(msgs, m)
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaChartPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
