package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

// sqsMaxDelaySeconds is the longest delay SQS accepts on a single send.
// Longer backoff steps are truncated to it.
const sqsMaxDelaySeconds = 900

// SQSEnqueuer publishes event messages to an AWS SQS queue.
type SQSEnqueuer struct {
	transport sqsTransport
	queueURL  string
}

// NewSQSEnqueuer creates an SQSEnqueuer targeting the given queue URL.
func NewSQSEnqueuer(transport sqsTransport, queueURL string) *SQSEnqueuer {
	return &SQSEnqueuer{transport: transport, queueURL: queueURL}
}

// Enqueue publishes the message envelope as JSON and returns the SQS
// message ID.
func (e *SQSEnqueuer) Enqueue(ctx context.Context, msg *Message) (string, error) {
	return e.send(ctx, msg, 0)
}

// EnqueueWithDelay publishes the message so it becomes visible only after
// delaySeconds. Used for the redelivery path, where the backoff schedule
// maps onto SQS delay seconds.
func (e *SQSEnqueuer) EnqueueWithDelay(ctx context.Context, msg *Message, delaySeconds int32) (string, error) {
	if delaySeconds > sqsMaxDelaySeconds {
		delaySeconds = sqsMaxDelaySeconds
	}
	return e.send(ctx, msg, delaySeconds)
}

func (e *SQSEnqueuer) send(ctx context.Context, msg *Message, delaySeconds int32) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal event message %s: %w", msg.ID, err)
	}

	id, err := e.transport.Send(ctx, e.queueURL, string(body), delaySeconds)
	if err != nil {
		return "", fmt.Errorf("sqs send event message %s: %w", msg.ID, err)
	}

	MessagesEnqueuedTotal.Inc()
	return id, nil
}
