package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SQSDequeuer runs a pool of pollers that long-poll an SQS queue and hand
// each received batch of event messages to the handler in one call.
type SQSDequeuer struct {
	transport sqsTransport
	queueURL  string
	handler   MessageHandler
	dlq       DeadLetterQueue
	retry     *RetryStrategy
	enqueuer  *SQSEnqueuer
	log       zerolog.Logger

	batchSize       int32
	workerCount     int
	waitSeconds     int32
	visibilitySecs  int32
	processTimeout  time.Duration
	shutdownTimeout time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewSQSDequeuer creates an SQSDequeuer configured from cfg. Zero config
// values fall back to the defaults in DefaultConfig.
func NewSQSDequeuer(
	transport sqsTransport,
	queueURL string,
	handler MessageHandler,
	dlq DeadLetterQueue,
	retry *RetryStrategy,
	enqueuer *SQSEnqueuer,
	cfg Config,
	log zerolog.Logger,
) *SQSDequeuer {
	d := &SQSDequeuer{
		transport:       transport,
		queueURL:        queueURL,
		handler:         handler,
		dlq:             dlq,
		retry:           retry,
		enqueuer:        enqueuer,
		log:             log,
		batchSize:       int32(cfg.BatchSize),
		workerCount:     cfg.WorkerCount,
		waitSeconds:     cfg.SQSWaitTime,
		visibilitySecs:  cfg.SQSVisTimeout,
		processTimeout:  cfg.ProcessTimeout,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	defaults := DefaultConfig()
	if d.batchSize <= 0 {
		d.batchSize = int32(defaults.BatchSize)
	}
	if d.batchSize > 10 {
		d.batchSize = 10 // SQS receive cap
	}
	if d.workerCount <= 0 {
		d.workerCount = defaults.WorkerCount
	}
	if d.waitSeconds <= 0 {
		d.waitSeconds = 20
	}
	if d.visibilitySecs <= 0 {
		d.visibilitySecs = 30
	}
	if d.processTimeout <= 0 {
		d.processTimeout = defaults.ProcessTimeout
	}
	if d.shutdownTimeout <= 0 {
		d.shutdownTimeout = defaults.ShutdownTimeout
	}

	return d
}

// Start launches the poller goroutines.
func (d *SQSDequeuer) Start(ctx context.Context) error {
	ctx, d.cancel = context.WithCancel(ctx)

	for i := range d.workerCount {
		d.wg.Add(1)
		go d.poll(ctx, fmt.Sprintf("sqs-poller-%d", i))
	}

	d.log.Info().
		Int("worker_count", d.workerCount).
		Int32("batch_size", d.batchSize).
		Str("queue_url", d.queueURL).
		Msg("sqs dequeuer started")

	return nil
}

// Stop cancels all pollers and waits for them up to the shutdown timeout.
func (d *SQSDequeuer) Stop(_ context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("sqs dequeuer stopped gracefully")
		return nil
	case <-time.After(d.shutdownTimeout):
		d.log.Warn().Msg("sqs dequeuer shutdown timed out")
		return fmt.Errorf("shutdown timed out after %s", d.shutdownTimeout)
	}
}

func (d *SQSDequeuer) poll(ctx context.Context, poller string) {
	defer d.wg.Done()

	d.log.Info().Str("poller", poller).Msg("sqs poller started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Str("poller", poller).Msg("sqs poller stopping")
			return
		default:
		}

		deliveries, err := d.transport.Receive(ctx, d.queueURL, d.batchSize, d.waitSeconds, d.visibilitySecs)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			d.log.Error().Err(err).Str("poller", poller).Msg("sqs receive error")
			time.Sleep(time.Second)
			continue
		}
		if len(deliveries) == 0 {
			continue
		}

		d.processBatch(ctx, deliveries)
	}
}

// processBatch decodes the received bodies, hands the decodable ones to the
// handler as one batch, and settles each message according to its own
// result. Undecodable bodies are deleted outright; redelivery cannot fix
// them.
func (d *SQSDequeuer) processBatch(ctx context.Context, deliveries []sqsDelivery) {
	msgs := make([]*Message, 0, len(deliveries))
	kept := make([]sqsDelivery, 0, len(deliveries))

	for _, delivery := range deliveries {
		var msg Message
		if err := json.Unmarshal([]byte(delivery.Body), &msg); err != nil {
			d.log.Error().Err(err).
				Str("sqs_message_id", delivery.MessageID).
				Msg("deleting undecodable sqs message")
			d.deleteDelivery(ctx, delivery)
			continue
		}
		msgs = append(msgs, &msg)
		kept = append(kept, delivery)
	}
	if len(msgs) == 0 {
		return
	}

	start := time.Now()

	batchCtx, cancel := context.WithTimeout(ctx, d.processTimeout)
	errs := d.handler.HandleBatch(batchCtx, msgs)
	cancel()

	MessageProcessingDuration.Observe(time.Since(start).Seconds())

	for i, msg := range msgs {
		d.settle(ctx, msg, kept[i], errs[i])
	}
}

// settle resolves one message after processing. The SQS delete happens only
// after the outcome action (ack, re-enqueue, or DLQ park) succeeded, so a
// mid-settle crash redelivers via visibility timeout instead of losing the
// message.
func (d *SQSDequeuer) settle(ctx context.Context, msg *Message, delivery sqsDelivery, err error) {
	if err == nil {
		MessagesProcessedTotal.WithLabelValues("processed").Inc()
		d.deleteDelivery(ctx, delivery)
		return
	}

	d.log.Error().Err(err).
		Str("message_id", msg.ID).
		Str("kind", msg.Kind).
		Int("retry_count", msg.RetryCount).
		Msg("event message processing failed")

	msg.RetryCount++

	switch {
	case errors.Is(err, ErrPermanent):
		d.log.Warn().
			Str("message_id", msg.ID).
			Msg("permanent failure, parking in dlq")
		if dlqErr := d.dlq.MoveToDLQ(ctx, msg, err.Error()); dlqErr != nil {
			d.log.Error().Err(dlqErr).Str("message_id", msg.ID).Msg("failed to park in dlq")
			return
		}

	case d.retry.ShouldRetry(msg.RetryCount):
		delaySec := int32(d.retry.NextBackoff(msg.RetryCount - 1).Seconds())
		if delaySec < 1 {
			delaySec = 1
		}
		d.log.Info().
			Str("message_id", msg.ID).
			Int("retry_count", msg.RetryCount).
			Int32("delay_seconds", delaySec).
			Msg("scheduling delayed redelivery")
		if _, enqErr := d.enqueuer.EnqueueWithDelay(ctx, msg, delaySec); enqErr != nil {
			d.log.Error().Err(enqErr).Str("message_id", msg.ID).Msg("failed to re-enqueue for retry")
			return
		}
		MessagesProcessedTotal.WithLabelValues("failed").Inc()

	default:
		d.log.Warn().
			Str("message_id", msg.ID).
			Int("retry_count", msg.RetryCount).
			Msg("retry budget exhausted, parking in dlq")
		if dlqErr := d.dlq.MoveToDLQ(ctx, msg, err.Error()); dlqErr != nil {
			d.log.Error().Err(dlqErr).Str("message_id", msg.ID).Msg("failed to park in dlq")
			return
		}
	}

	d.deleteDelivery(ctx, delivery)
}

func (d *SQSDequeuer) deleteDelivery(ctx context.Context, delivery sqsDelivery) {
	if err := d.transport.Delete(ctx, d.queueURL, delivery.ReceiptHandle); err != nil {
		d.log.Error().Err(err).
			Str("sqs_message_id", delivery.MessageID).
			Msg("failed to delete sqs message")
	}
}
