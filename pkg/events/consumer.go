package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
)

const readRetryDelay = time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Handler processes one validation request. Returned errors are logged and
// the consumer moves on to the next message.
type Handler func(ctx context.Context, req ValidationRequest) error

// Consumer reads ValidationRequests from a Kafka topic as part of a consumer
// group.
type Consumer struct {
	reader messageReader
	topic  string
}

func NewConsumer(brokers []string, topic string, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		topic: topic,
	}
}

// Run consumes messages until ctx is cancelled. Malformed messages are
// skipped.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	log.Infof("consuming validation requests from %s", c.topic)
	for {
		if ctx.Err() != nil {
			return nil
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("reader closed: %w", err)
			}
			log.Errorf("unable to read message: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(readRetryDelay):
			}
			continue
		}

		req, err := DecodeRequest(msg.Value)
		if err != nil {
			log.Warnf("skipping message at offset %d: %v", msg.Offset, err)
			continue
		}

		if err := handle(ctx, req); err != nil {
			log.Errorf("unable to process request for shipment %s: %v", req.ShipmentID, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
