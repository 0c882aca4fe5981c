package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// eventStreams is the slice of Redis Streams the dequeuer needs: ensure the
// consumer group exists, read a batch for a consumer, and acknowledge an
// entry. Tests substitute a fake.
type eventStreams interface {
	EnsureGroup(ctx context.Context, stream, group string) error
	ReadGroup(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]streamEntry, error)
	Ack(ctx context.Context, stream, group, entryID string) error
}

// streamEntry is one stream entry as delivered to a consumer group member.
type streamEntry struct {
	ID   string
	Data string
}

// redisStreams implements eventStreams over go-redis.
type redisStreams struct {
	client *redis.Client
}

func newRedisStreams(client *redis.Client) *redisStreams {
	return &redisStreams{client: client}
}

func (s *redisStreams) EnsureGroup(ctx context.Context, stream, group string) error {
	err := s.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s on stream %s: %w", group, stream, err)
	}
	return nil
}

func (s *redisStreams) ReadGroup(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]streamEntry, error) {
	res, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var entries []streamEntry
	for _, result := range res {
		for _, xMsg := range result.Messages {
			data, _ := xMsg.Values["data"].(string)
			entries = append(entries, streamEntry{ID: xMsg.ID, Data: data})
		}
	}
	return entries, nil
}

func (s *redisStreams) Ack(ctx context.Context, stream, group, entryID string) error {
	if err := s.client.XAck(ctx, stream, group, entryID).Err(); err != nil {
		return fmt.Errorf("xack entry %s on stream %s: %w", entryID, stream, err)
	}
	return nil
}

// RedisDequeuer runs a pool of consumer-group members that read event
// message batches from a Redis Stream and hand each batch to the handler
// in one call.
type RedisDequeuer struct {
	streams  eventStreams
	enqueuer Enqueuer
	dlq      DeadLetterQueue
	handler  MessageHandler
	retry    *RetryStrategy
	log      zerolog.Logger

	stream          string
	group           string
	batchSize       int64
	workerCount     int
	blockTimeout    time.Duration
	processTimeout  time.Duration
	shutdownTimeout time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewRedisDequeuer creates a RedisDequeuer consuming the configured event
// stream. Zero config values fall back to the defaults in DefaultConfig.
func NewRedisDequeuer(
	streams eventStreams,
	enqueuer Enqueuer,
	dlq DeadLetterQueue,
	handler MessageHandler,
	retry *RetryStrategy,
	cfg Config,
	log zerolog.Logger,
) *RedisDequeuer {
	d := &RedisDequeuer{
		streams:         streams,
		enqueuer:        enqueuer,
		dlq:             dlq,
		handler:         handler,
		retry:           retry,
		log:             log,
		stream:          streamKey(cfg.Stream),
		group:           cfg.Group,
		batchSize:       int64(cfg.BatchSize),
		workerCount:     cfg.WorkerCount,
		blockTimeout:    cfg.BlockTimeout,
		processTimeout:  cfg.ProcessTimeout,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	defaults := DefaultConfig()
	if d.batchSize <= 0 {
		d.batchSize = int64(defaults.BatchSize)
	}
	if d.workerCount <= 0 {
		d.workerCount = defaults.WorkerCount
	}
	if d.blockTimeout <= 0 {
		d.blockTimeout = defaults.BlockTimeout
	}
	if d.processTimeout <= 0 {
		d.processTimeout = defaults.ProcessTimeout
	}
	if d.shutdownTimeout <= 0 {
		d.shutdownTimeout = defaults.ShutdownTimeout
	}

	return d
}

// Start ensures the consumer group exists and launches the consumers.
func (d *RedisDequeuer) Start(ctx context.Context) error {
	if err := d.streams.EnsureGroup(ctx, d.stream, d.group); err != nil {
		return err
	}

	ctx, d.cancel = context.WithCancel(ctx)

	for i := range d.workerCount {
		d.wg.Add(1)
		go d.consume(ctx, fmt.Sprintf("consumer-%d", i))
	}

	d.log.Info().
		Int("worker_count", d.workerCount).
		Int64("batch_size", d.batchSize).
		Str("stream", d.stream).
		Str("group", d.group).
		Msg("redis dequeuer started")

	return nil
}

// Stop cancels all consumers and waits for them up to the shutdown timeout.
func (d *RedisDequeuer) Stop(ctx context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("redis dequeuer stopped gracefully")
		return nil
	case <-time.After(d.shutdownTimeout):
		d.log.Warn().Msg("redis dequeuer shutdown timed out")
		return fmt.Errorf("shutdown timed out after %s", d.shutdownTimeout)
	}
}

func (d *RedisDequeuer) consume(ctx context.Context, consumer string) {
	defer d.wg.Done()

	d.log.Info().Str("consumer", consumer).Msg("stream consumer started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Str("consumer", consumer).Msg("stream consumer stopping")
			return
		default:
		}

		entries, err := d.streams.ReadGroup(ctx, d.stream, d.group, consumer, d.batchSize, d.blockTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			d.log.Error().Err(err).Str("consumer", consumer).Msg("stream read error")
			continue
		}
		if len(entries) == 0 {
			continue
		}

		d.processBatch(ctx, entries)
	}
}

// processBatch decodes the read entries, hands the decodable ones to the
// handler as one batch, and settles each entry according to its own result.
// Undecodable entries are acked and dropped; redelivery cannot fix them.
func (d *RedisDequeuer) processBatch(ctx context.Context, entries []streamEntry) {
	msgs := make([]*Message, 0, len(entries))
	kept := make([]streamEntry, 0, len(entries))

	for _, entry := range entries {
		var msg Message
		if err := json.Unmarshal([]byte(entry.Data), &msg); err != nil {
			d.log.Error().Err(err).Str("entry_id", entry.ID).Msg("dropping undecodable stream entry")
			d.ack(ctx, entry.ID)
			continue
		}
		msgs = append(msgs, &msg)
		kept = append(kept, entry)
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
		d.settle(ctx, msg, kept[i].ID, errs[i])
	}
}

// settle resolves one entry after processing. The ack happens only after
// the outcome action succeeded; an entry whose retry copy or DLQ park never
// lands stays pending in the consumer group, claimable via XAUTOCLAIM,
// rather than being lost.
func (d *RedisDequeuer) settle(ctx context.Context, msg *Message, entryID string, err error) {
	if err == nil {
		MessagesProcessedTotal.WithLabelValues("processed").Inc()
		d.ack(ctx, entryID)
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
		// Retrying cannot help. Park the message immediately.
		d.log.Warn().
			Str("message_id", msg.ID).
			Msg("permanent failure, parking in dlq")
		if dlqErr := d.dlq.MoveToDLQ(ctx, msg, err.Error()); dlqErr != nil {
			d.log.Error().Err(dlqErr).Str("message_id", msg.ID).Msg("failed to park in dlq")
			return
		}
		d.ack(ctx, entryID)

	case d.retry.ShouldRetry(msg.RetryCount):
		backoff := d.retry.NextBackoff(msg.RetryCount - 1)
		d.log.Info().
			Str("message_id", msg.ID).
			Int("retry_count", msg.RetryCount).
			Dur("backoff", backoff).
			Msg("scheduling redelivery")
		go d.redeliver(context.WithoutCancel(ctx), msg, entryID, backoff)
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
		d.ack(ctx, entryID)
	}
}

// redeliver waits out the backoff, re-enqueues the message with its bumped
// retry count, and only then acks the original entry. A crash or enqueue
// failure during the window leaves the original pending instead of dropping
// the message.
func (d *RedisDequeuer) redeliver(ctx context.Context, msg *Message, entryID string, backoff time.Duration) {
	timer := time.NewTimer(backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if _, err := d.enqueuer.Enqueue(ctx, msg); err != nil {
		d.log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to re-enqueue for redelivery")
		return
	}
	d.ack(ctx, entryID)
}

func (d *RedisDequeuer) ack(ctx context.Context, entryID string) {
	if err := d.streams.Ack(ctx, d.stream, d.group, entryID); err != nil {
		d.log.Error().Err(err).Str("entry_id", entryID).Msg("failed to acknowledge stream entry")
	}
}
