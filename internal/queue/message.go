package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is the queue envelope for a scheduling event. The event body is
// carried opaquely as JSON; the worker decodes it when the message is
// processed. Kind is a routing hint recorded at enqueue time and may be
// empty for events published by older producers.
type Message struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	RetryCount int             `json:"retry_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewMessage creates a new Message with a generated UUID and current timestamp.
func NewMessage(kind string, payload []byte) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// streamKey returns the Redis stream key for the named event stream.
func streamKey(stream string) string {
	return "events:" + stream
}

// dlqStreamKey returns the Redis DLQ stream key for the named event stream.
func dlqStreamKey(stream string) string {
	return "events:" + stream + ":dlq"
}
