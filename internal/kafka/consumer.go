package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Handler processes one decoded booking event. Returning an error
// stops the consumer.
type Handler func(ctx context.Context, event BookingEvent) error

// Consumer delivers booking events to the worker, decoding each
// message before it reaches the handler. A malformed payload is logged
// and skipped so one bad message cannot wedge the consumer group.
type Consumer struct {
	reader *kafka.Reader
	log    zerolog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log zerolog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			MinBytes:          1,
			MaxBytes:          1e6,
			MaxWait:           time.Second,
			CommitInterval:    time.Second,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log: log,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		if err := c.dispatch(ctx, msg, handler); err != nil {
			return err
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg kafka.Message, handler Handler) error {
	var event BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.Error().Err(err).
			Str("topic", msg.Topic).
			Int64("offset", msg.Offset).
			Msg("skipping malformed booking event")
		return nil
	}
	return handler(ctx, event)
}
