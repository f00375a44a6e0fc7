package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/dmitrymomot/eventkit/pkg/logger"
)

// reader is the slice of kafka.Reader the consumer loop needs.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads events from the notification topic and hands each one to
// the Handler. A message that cannot be decoded or handled is logged and
// committed anyway: redelivering it would fail identically, and one poison
// message must not stall the partition.
type Consumer struct {
	reader  reader
	handler Handler
	logger  *slog.Logger
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithConsumerLogger sets the consumer logger.
func WithConsumerLogger(l *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConsumer creates a Consumer in the given consumer group.
func NewConsumer(brokers []string, topic, groupID string, handler Handler, opts ...ConsumerOption) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if handler == nil {
		return nil, ErrHandlerNil
	}

	c := &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		handler: handler,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start blocks consuming messages until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("failed to close event reader", logger.Error(err))
		}
	}()

	c.logger.InfoContext(ctx, "event consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.logger.InfoContext(ctx, "event consumer stopped")
				return nil
			}
			return err
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// process handles one message with full error containment.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.LogAttrs(ctx, slog.LevelError, "panic handling event",
				slog.Int64("offset", msg.Offset),
				slog.Any("panic", r),
			)
		}
	}()

	var evt Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "failed to decode event message",
			slog.Int64("offset", msg.Offset),
			logger.Error(err),
		)
		return
	}

	if err := c.handler.Handle(ctx, evt); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "failed to handle event",
			slog.String("event", evt.Name),
			slog.String("entity_id", evt.EntityID),
			logger.Error(err),
		)
	}
}
