package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const producerName = "pos-service"

// EventEnvelope is the common wrapper around every published payload.
type EventEnvelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CausationID   string    `json:"causationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      *int64    `json:"sequence,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
	Payload       T         `json:"payload"`
}

// EnvelopeMetadata carries correlation/causation context for emitted events.
type EnvelopeMetadata struct {
	CorrelationID string
	CausationID   string
}

func newEnvelope[T any](name string, version int, schema, partitionKey string, seq *int64, meta EnvelopeMetadata, payload T) EventEnvelope[T] {
	if meta.CorrelationID == "" {
		meta.CorrelationID = uuid.NewString()
	}
	return EventEnvelope[T]{
		EventName:     name,
		EventVersion:  version,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		Producer:      producerName,
		PartitionKey:  partitionKey,
		Sequence:      seq,
		OccurredAt:    time.Now().UTC(),
		Schema:        schema,
		Payload:       payload,
	}
}

// Validate checks the envelope carries the expected event identity.
func (e EventEnvelope[T]) Validate(expectedName string, expectedVersion int) error {
	switch {
	case e.EventName != expectedName:
		return fmt.Errorf("unexpected eventName: %s", e.EventName)
	case e.EventVersion != expectedVersion:
		return fmt.Errorf("unexpected eventVersion: %d", e.EventVersion)
	case e.PartitionKey == "":
		return fmt.Errorf("missing partitionKey")
	case e.EventID == "":
		return fmt.Errorf("missing eventId")
	}
	return nil
}
