package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/models"
)

var log = logrus.StandardLogger().WithField("package", "events")

const DefaultWriteTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes VerdictEvents to a Kafka topic, keyed by shipment.
type Publisher struct {
	writer       messageWriter
	topic        string
	writeTimeout time.Duration
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
			WriteTimeout: DefaultWriteTimeout,
		},
		topic:        topic,
		writeTimeout: DefaultWriteTimeout,
	}
}

func (p *Publisher) PublishVerdict(ctx context.Context, result models.ValidationResult) error {
	value, err := json.Marshal(NewVerdictEvent(result))
	if err != nil {
		return fmt.Errorf("failed to serialize verdict: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(result.ShipmentID),
		Value: value,
		Time:  result.CompletedAt,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "source-service", Value: []byte("preclear")},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"topic":    p.topic,
			"shipment": result.ShipmentID,
		}).Error("failed to publish verdict")
		return fmt.Errorf("failed to publish verdict: %w", err)
	}
	log.WithFields(logrus.Fields{
		"topic":    p.topic,
		"shipment": result.ShipmentID,
		"status":   result.Status,
	}).Debug("verdict published")
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
