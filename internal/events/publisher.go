// Package events publishes completed passes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sawpanic/vibeoracle/internal/persistence"
)

// EventPassCompleted is the type of every published event.
const EventPassCompleted = "pass.completed"

// Config selects brokers and topic.
type Config struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Writer is the subset of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the message payload.
type Event struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Pass       persistence.PassRecord `json:"pass"`
}

// KafkaPublisher emits one message per completed pass, keyed by session so a
// session's passes stay ordered within a partition.
type KafkaPublisher struct {
	writer Writer
	now    func() time.Time
}

// NewKafkaPublisher creates a synchronous writer for cfg.
func NewKafkaPublisher(cfg Config) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("events: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("events: topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.WriteTimeout,
	}
	return NewPublisher(w), nil
}

// NewPublisher wraps an existing writer.
func NewPublisher(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w, now: time.Now}
}

func (p *KafkaPublisher) Name() string { return "events" }

// Record publishes rec.
func (p *KafkaPublisher) Record(ctx context.Context, rec persistence.PassRecord) error {
	payload, err := json.Marshal(Event{
		Type:       EventPassCompleted,
		OccurredAt: p.now().UTC(),
		Pass:       rec,
	})
	if err != nil {
		return fmt.Errorf("failed to encode pass event: %w", err)
	}

	key := rec.SessionID
	if key == "" {
		key = rec.ID
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventPassCompleted)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish pass %s: %w", rec.ID, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
