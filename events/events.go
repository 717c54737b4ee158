// Package events publishes photo lifecycle notifications for downstream
// consumers such as thumbnail or moderation workers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

type Type string

const (
	PhotoCreated Type = "photo.created"
	PhotoDeleted Type = "photo.deleted"
	PhotosPurged Type = "project.photos_purged"
)

type Event struct {
	Type       Type      `json:"type"`
	PhotoID    string    `json:"photoId,omitempty"`
	ProjectID  string    `json:"projectId"`
	UserID     string    `json:"userId,omitempty"`
	Count      int       `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// KafkaPublisher writes events to a Kafka topic keyed by project, so events of
// one project stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           5 * time.Second,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := Encode(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Encode builds the Kafka message for e.
func Encode(e Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(e.ProjectID),
		Value: value,
		Time:  e.OccurredAt,
	}, nil
}

// DefaultPublishTimeout bounds one Emit call.
const DefaultPublishTimeout = 2 * time.Second

// Emit publishes e and logs instead of failing; lifecycle events are
// best-effort and never undo the write they describe. The publish runs
// detached from ctx cancellation and is bounded by timeout instead.
func Emit(ctx context.Context, p Publisher, e Event, timeout time.Duration) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := p.Publish(ctx, e); err != nil {
		log.Printf("Events: publish failed type=%s project=%s: %v", e.Type, e.ProjectID, err)
	}
}
