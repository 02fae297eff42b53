// Package queue provides the named-queue transport and the worker pool that
// drive asynchronous sync jobs. Each sync kind has its own queue so slow
// kinds never starve fast ones. The transport is at-least-once: a popped
// message stays on a processing list until it is acked, and unacked messages
// are recovered on startup.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

var (
	ErrPoolNotRunning = errors.New("queue: worker pool is not running")
	ErrQueueFull      = errors.New("queue: queue is full")
)

// Message is the wire payload of one enqueued job. The job's state lives in
// the database; the message only carries enough to load it.
type Message struct {
	JobID    uuid.UUID `json:"job_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Kind     string    `json:"kind"`
}

// Transport moves messages through named queues.
type Transport interface {
	// Push appends a message to the queue.
	Push(ctx context.Context, queue string, msg Message) error

	// Pop blocks up to timeout for the next message. Returns (nil, nil)
	// when the queue stays empty.
	Pop(ctx context.Context, queue string, timeout time.Duration) (*Message, error)

	// Ack marks a popped message as done. Unacked messages survive a
	// worker crash and are requeued by Recover.
	Ack(ctx context.Context, queue string, msg Message) error

	// Recover moves unacked messages back onto the queue. Called once on
	// startup before workers begin consuming.
	Recover(ctx context.Context, queue string) (int, error)

	// Close releases transport resources.
	Close() error
}

// Name returns the queue name of a sync kind.
func Name(kind integration.SyncKind) string {
	return fmt.Sprintf("sync:jobs:%s", kind)
}

// AllNames returns every per-kind queue name.
func AllNames() []string {
	kinds := integration.AllSyncKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = Name(k)
	}
	return names
}
