package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

const (
	TopicAugmentationAudit = "ontoground.augmentation.audit"

	EventAugmentationCompleted = "augmentation.completed"
	eventSource                = "ontoground"
	schemaVersion              = "v1"
)

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEventEnvelope(eventType string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        eventSource,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       data,
	}, nil
}

func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeSerialization, "envelope has no payload")
	}
	return json.Unmarshal(e.Payload, target)
}

// ToMessage keys the record by key so that events of one run stay ordered.
func (e *EventEnvelope) ToMessage(topic, key string) (*Message, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	return &Message{
		Topic: topic,
		Key:   []byte(key),
		Value: val,
		Headers: map[string]string{
			"event_type":     e.EventType,
			"source_service": e.Source,
			"schema_version": e.SchemaVersion,
		},
		Timestamp: e.Timestamp,
	}, nil
}

// Publisher is the subset of Producer used by AuditPublisher.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
}

// AuditPublisher is an ontology.AuditSink that emits one
// augmentation.completed event per run.
type AuditPublisher struct {
	publisher Publisher
	topic     string
}

var _ ontology.AuditSink = (*AuditPublisher)(nil)

func NewAuditPublisher(p Publisher, topic string) *AuditPublisher {
	if topic == "" {
		topic = TopicAugmentationAudit
	}
	return &AuditPublisher{publisher: p, topic: topic}
}

func (a *AuditPublisher) Record(ctx context.Context, s *otypes.AugmentationSummary) error {
	env, err := NewEventEnvelope(EventAugmentationCompleted, s)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(a.topic, s.RunID)
	if err != nil {
		return err
	}
	return a.publisher.Publish(ctx, msg)
}

//Personal.AI order the ending
