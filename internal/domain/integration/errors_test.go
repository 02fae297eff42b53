package integration

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapterError(t *testing.T) {
	t.Run("formats with marketplace prefix", func(t *testing.T) {
		err := NewValidationError(MarketplaceShopee, "title too long")
		assert.Equal(t, "SHOPEE: [VALIDATION] title too long", err.Error())
	})

	t.Run("unwraps to the cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := NewSyncError(MarketplaceAmazon, "request failed", cause)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("rate limit carries retry-after", func(t *testing.T) {
		err := NewRateLimitError(MarketplaceMercadoLivre, 30*time.Second)
		assert.Equal(t, 30*time.Second, err.RetryAfter)
		assert.True(t, err.Retryable)
		assert.True(t, IsRateLimit(err))
	})

	t.Run("classification helpers", func(t *testing.T) {
		auth := NewAuthenticationError(MarketplaceMercadoLivre, "token revoked", nil)
		assert.False(t, IsRetryable(auth))
		assert.False(t, IsRateLimit(auth))

		sync := NewSyncError(MarketplaceWooCommerce, "timeout", nil)
		assert.True(t, IsRetryable(sync))

		notSupported := NewNotSupportedError(MarketplaceWooCommerce, "FetchCustomers")
		assert.True(t, IsNotSupported(notSupported))
		assert.False(t, IsRetryable(notSupported))

		assert.False(t, IsRetryable(errors.New("plain")))
	})

	t.Run("helpers see through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("processing item: %w", NewRateLimitError(MarketplaceShopee, time.Second))
		assert.True(t, IsRateLimit(wrapped))
		assert.True(t, IsRetryable(wrapped))
	})
}

func TestAsAdapterError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, AsAdapterError(MarketplaceAmazon, nil))
	})

	t.Run("passes adapter errors through", func(t *testing.T) {
		original := NewNotFoundError(MarketplaceAmazon, "listing gone")
		got := AsAdapterError(MarketplaceAmazon, original)
		assert.Same(t, original, got)
	})

	t.Run("extracts a wrapped adapter error", func(t *testing.T) {
		original := NewValidationError(MarketplaceShopee, "bad image")
		got := AsAdapterError(MarketplaceShopee, fmt.Errorf("item 3: %w", original))
		assert.Same(t, original, got)
	})

	t.Run("normalizes foreign errors into sync errors", func(t *testing.T) {
		got := AsAdapterError(MarketplaceWooCommerce, errors.New("dial tcp: refused"))
		require.NotNil(t, got)
		assert.Equal(t, ErrCodeSync, got.Code)
		assert.Equal(t, MarketplaceWooCommerce, got.Marketplace)
		assert.True(t, got.Retryable)
	})
}
