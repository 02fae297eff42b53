package queue

import (
	"context"
	"sync"
	"time"
)

const memoryQueueDepth = 256

// MemoryTransport is the in-process transport used by tests and single-node
// deployments without Redis. Acknowledgement is a no-op: a popped message is
// gone, so crash recovery is the Redis transport's job.
type MemoryTransport struct {
	mu     sync.Mutex
	queues map[string]chan Message
	closed bool
}

// NewMemoryTransport creates an empty in-process transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{queues: make(map[string]chan Message)}
}

func (t *MemoryTransport) queue(name string) chan Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	q, ok := t.queues[name]
	if !ok {
		q = make(chan Message, memoryQueueDepth)
		t.queues[name] = q
	}
	return q
}

// Push implements Transport.
func (t *MemoryTransport) Push(ctx context.Context, queue string, msg Message) error {
	select {
	case t.queue(queue) <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop implements Transport.
func (t *MemoryTransport) Pop(ctx context.Context, queue string, timeout time.Duration) (*Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-t.queue(queue):
		return &msg, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ack implements Transport.
func (t *MemoryTransport) Ack(ctx context.Context, queue string, msg Message) error {
	return nil
}

// Recover implements Transport.
func (t *MemoryTransport) Recover(ctx context.Context, queue string) (int, error) {
	return 0, nil
}

// Close implements Transport.
func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
