package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTransport is the production transport backed by Redis lists. Push is
// LPUSH; Pop atomically moves the oldest message onto a per-queue processing
// list (BLMOVE), so a crashed worker leaves its message recoverable rather
// than lost.
type RedisTransport struct {
	client *redis.Client
}

// NewRedisTransport creates a transport on an existing client.
func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{client: client}
}

// Push implements Transport.
func (t *RedisTransport) Push(ctx context.Context, queue string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: marshal message: %w", err)
	}
	if err := t.client.LPush(ctx, queue, payload).Err(); err != nil {
		return fmt.Errorf("queue: push to %s: %w", queue, err)
	}
	return nil
}

// Pop implements Transport.
func (t *RedisTransport) Pop(ctx context.Context, queue string, timeout time.Duration) (*Message, error) {
	raw, err := t.client.BLMove(ctx, queue, processingList(queue), "RIGHT", "LEFT", timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue: pop from %s: %w", queue, err)
	}
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		// A poison payload is dropped from the processing list so it does
		// not wedge recovery forever.
		t.client.LRem(ctx, processingList(queue), 1, raw)
		return nil, fmt.Errorf("queue: unmarshal message from %s: %w", queue, err)
	}
	return &msg, nil
}

// Ack implements Transport.
func (t *RedisTransport) Ack(ctx context.Context, queue string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: marshal message: %w", err)
	}
	if err := t.client.LRem(ctx, processingList(queue), 1, payload).Err(); err != nil {
		return fmt.Errorf("queue: ack on %s: %w", queue, err)
	}
	return nil
}

// Recover implements Transport. Messages found on the processing list belong
// to workers that died mid-job; they go back to the tail of the main queue.
func (t *RedisTransport) Recover(ctx context.Context, queue string) (int, error) {
	moved := 0
	for {
		raw, err := t.client.LMove(ctx, processingList(queue), queue, "RIGHT", "RIGHT").Result()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("queue: recover %s: %w", queue, err)
		}
		_ = raw
		moved++
	}
}

// Close implements Transport.
func (t *RedisTransport) Close() error {
	return t.client.Close()
}

func processingList(queue string) string {
	return queue + ":processing"
}
