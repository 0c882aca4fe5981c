package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SQSDLQ parks failed event messages on a dedicated SQS queue and feeds
// them back to the primary queue on reprocess.
type SQSDLQ struct {
	transport  sqsTransport
	dlqURL     string
	primaryURL string
	enqueuer   Enqueuer
	log        zerolog.Logger
}

// NewSQSDLQ creates an SQSDLQ. The enqueuer targets the primary queue and
// is used by Reprocess.
func NewSQSDLQ(transport sqsTransport, dlqURL, primaryURL string, enqueuer Enqueuer, log zerolog.Logger) *SQSDLQ {
	return &SQSDLQ{
		transport:  transport,
		dlqURL:     dlqURL,
		primaryURL: primaryURL,
		enqueuer:   enqueuer,
		log:        log,
	}
}

// MoveToDLQ wraps the failed message in a DLQMessage envelope and publishes
// it to the dead letter queue.
func (d *SQSDLQ) MoveToDLQ(ctx context.Context, msg *Message, reason string) error {
	body, err := json.Marshal(DLQMessage{
		OriginalMessage: msg,
		FailureReason:   reason,
		FinalError:      reason,
		MovedAt:         time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal dlq envelope for message %s: %w", msg.ID, err)
	}

	if _, err := d.transport.Send(ctx, d.dlqURL, string(body), 0); err != nil {
		return fmt.Errorf("sqs send to dlq: %w", err)
	}

	DLQMessagesTotal.WithLabelValues(reason).Inc()
	MessagesProcessedTotal.WithLabelValues("dlq").Inc()

	return nil
}

// Reprocess drains up to len(messageIDs) envelopes from the DLQ, resets
// their retry count, and re-enqueues them to the primary queue. SQS cannot
// address a message by ID, so the IDs only size the drain; in production
// the SQS redrive policy is the primary mechanism. Returns the number of
// messages successfully re-enqueued.
func (d *SQSDLQ) Reprocess(ctx context.Context, messageIDs []string) (int, error) {
	want := len(messageIDs)
	if want == 0 {
		return 0, nil
	}
	if want > 10 {
		want = 10 // SQS receive cap
	}

	deliveries, err := d.transport.Receive(ctx, d.dlqURL, int32(want), 0, 30)
	if err != nil {
		return 0, fmt.Errorf("sqs receive from dlq: %w", err)
	}

	reprocessed := 0
	for _, delivery := range deliveries {
		var envelope DLQMessage
		if err := json.Unmarshal([]byte(delivery.Body), &envelope); err != nil {
			d.log.Warn().Err(err).
				Str("sqs_message_id", delivery.MessageID).
				Msg("skipping undecodable dlq envelope")
			continue
		}

		envelope.OriginalMessage.RetryCount = 0
		if _, err := d.enqueuer.Enqueue(ctx, envelope.OriginalMessage); err != nil {
			return reprocessed, fmt.Errorf("re-enqueue event message %s: %w", envelope.OriginalMessage.ID, err)
		}

		// Delete only after the primary enqueue succeeded so a failure
		// leaves the envelope on the DLQ for another attempt.
		if err := d.transport.Delete(ctx, d.dlqURL, delivery.ReceiptHandle); err != nil {
			return reprocessed, fmt.Errorf("delete dlq envelope %s: %w", delivery.MessageID, err)
		}

		reprocessed++
	}

	return reprocessed, nil
}
