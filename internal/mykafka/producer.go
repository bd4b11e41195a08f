package mykafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/funday-app/funday-server/internal/eventbus"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: w}
}

// PublishEvent marshals the event and writes it keyed by aggregate. A nil
// producer is a no-op so tests run without a broker.
func (p *Producer) PublishEvent(ctx context.Context, topic, key string, event any) error {
	if p == nil || p.writer == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Forwarder mirrors every domain event onto a kafka topic so external
// consumers see the same stream the in-process subscribers do.
func (p *Producer) Forwarder(topic string, log *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, ev eventbus.Event) {
		if err := p.PublishEvent(ctx, topic, fmt.Sprint(ev.AggregateID), ev); err != nil {
			log.Error("kafka publish error", "type", ev.Type, "error", err)
		}
	}
}
