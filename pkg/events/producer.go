package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes notification events for collaborators that own the
// business entities. Messages are keyed by entity ID so all events of one
// entity land on the same partition, preserving their order.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Producer writing to the given topic.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}, nil
}

// Publish sends one event. OccurredAt defaults to now when unset.
func (p *Producer) Publish(ctx context.Context, evt Event) error {
	if evt.Name == "" {
		return fmt.Errorf("%w: missing event name", ErrInvalidPayload)
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", evt.Name, err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.EntityID),
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", evt.Name, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
