package queue

import (
	"context"
	"errors"
)

// ErrPermanent marks a processing failure that will never succeed on retry,
// such as a rejected API key or a misconfigured provider. Handlers wrap
// their error with this sentinel to send the message straight to the dead
// letter queue instead of burning through the retry schedule.
var ErrPermanent = errors.New("permanent processing failure")

// Enqueuer publishes messages to the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg *Message) (string, error)
}

// Dequeuer consumes messages from the queue.
// Start begins consuming in background goroutines.
// Stop gracefully shuts down consumers.
type Dequeuer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// DeadLetterQueue manages failed messages.
type DeadLetterQueue interface {
	MoveToDLQ(ctx context.Context, msg *Message, reason string) error
	Reprocess(ctx context.Context, messageIDs []string) (int, error)
}

// MessageHandler processes one delivery batch of queue messages and returns
// one error per message, indexed by batch position. A nil error means the
// message is done and must be acknowledged; messages within a batch fail
// independently. Implementations define the actual event handling logic
// (e.g., composing and sending notifications).
type MessageHandler interface {
	HandleBatch(ctx context.Context, msgs []*Message) []error
}
