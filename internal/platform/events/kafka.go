package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to one topic, keyed by entity id so every
// event for an appointment or bill lands on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// kafkaFlushTimeout caps how long a synchronous publish waits for a batch
// to fill. Publishes are one event each, so batches flush at one message.
const kafkaFlushTimeout = 10 * time.Millisecond

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    1,
		BatchTimeout: kafkaFlushTimeout,
	}
	return &KafkaPublisher{writer: w, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := evt.Marshal()
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.ID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s to %s: %w", evt.Type, p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
