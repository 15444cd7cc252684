// Package events streams domain events to Kafka for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type Stream string

const (
	StreamRides     Stream = "rides"
	StreamLocations Stream = "locations"
)

// Event is one record on a stream. Key orders records within a partition,
// so ride events use the ride id and location events the driver id.
type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream Stream, event Event) error
	Close() error
}

type KafkaConfig struct {
	Brokers       []string
	RideTopic     string
	LocationTopic string
	BatchTimeout  time.Duration
	WriteTimeout  time.Duration
	RequiredAcks  int
}

type KafkaPublisher struct {
	writer *kafka.Writer
	topics map[Stream]string
}

func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		AllowAutoTopicCreation: true,
	}

	return &KafkaPublisher{
		writer: w,
		topics: map[Stream]string{
			StreamRides:     cfg.RideTopic,
			StreamLocations: cfg.LocationTopic,
		},
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, stream Stream, event Event) error {
	msg, err := k.message(stream, event)
	if err != nil {
		return err
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s event to %s: %w", event.Type, msg.Topic, err)
	}
	return nil
}

func (k *KafkaPublisher) message(stream Stream, event Event) (kafka.Message, error) {
	topic, ok := k.topics[stream]
	if !ok || topic == "" {
		return kafka.Message{}, fmt.Errorf("no topic configured for stream %q", stream)
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(event.Key),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

// NoopPublisher drops every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, stream Stream, event Event) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
