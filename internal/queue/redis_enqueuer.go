package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisEnqueuer publishes event messages to a Redis Stream.
type RedisEnqueuer struct {
	client *redis.Client
	stream string
}

// NewRedisEnqueuer creates a RedisEnqueuer publishing to the named stream.
func NewRedisEnqueuer(client *redis.Client, stream string) *RedisEnqueuer {
	return &RedisEnqueuer{client: client, stream: stream}
}

// Enqueue adds a message to the event stream using XADD.
// It returns the Redis stream entry ID.
func (e *RedisEnqueuer) Enqueue(ctx context.Context, msg *Message) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	entryID, err := e.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(e.stream),
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd to stream %s: %w", streamKey(e.stream), err)
	}

	MessagesEnqueuedTotal.Inc()

	return entryID, nil
}
