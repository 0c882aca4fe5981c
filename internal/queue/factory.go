package queue

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewQueue creates an Enqueuer, Dequeuer, and DeadLetterQueue based on the
// given configuration. The handler defines the event processing logic used
// by the Dequeuer.
func NewQueue(
	cfg Config,
	handler MessageHandler,
	log zerolog.Logger,
) (Enqueuer, Dequeuer, DeadLetterQueue, error) {
	switch cfg.Type {
	case "redis", "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		enqueuer := NewRedisEnqueuer(client, cfg.Stream)
		retry := NewRetryStrategy(cfg.MaxRetries)
		dlq := NewRedisDLQ(client, enqueuer, cfg.Stream)
		dequeuer := NewRedisDequeuer(newRedisStreams(client), enqueuer, dlq, handler, retry, cfg, log)

		return enqueuer, dequeuer, dlq, nil

	case "sqs":
		gateway, err := newSQSGateway(cfg.SQSRegion)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create sqs client: %w", err)
		}
		retry := NewRetryStrategy(cfg.MaxRetries)
		enqueuer := NewSQSEnqueuer(gateway, cfg.SQSQueueURL)
		dlq := NewSQSDLQ(gateway, cfg.SQSDLQueueURL, cfg.SQSQueueURL, enqueuer, log)
		dequeuer := NewSQSDequeuer(gateway, cfg.SQSQueueURL, handler, dlq, retry, enqueuer, cfg, log)

		return enqueuer, dequeuer, dlq, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown queue type: %s", cfg.Type)
	}
}
