package cache

import (
	"context"
	"time"
)

// IdempotencyStore stores processed delivery IDs to prevent duplicate processing.
// Marketplaces redeliver webhook notifications on timeouts, so the receiver
// marks each delivery and drops repeats inside the TTL window.
type IdempotencyStore interface {
	// MarkProcessed marks a delivery as processed with a TTL.
	// Returns true if the delivery was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a delivery has already been processed.
	IsProcessed(ctx context.Context, deliveryID string) (bool, error)

	// Close closes the store and releases resources.
	Close() error
}
