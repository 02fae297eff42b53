package marketplace

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// webhookBody is the raw payload the signature vectors below were derived
// from. Changing it invalidates every hardcoded signature.
var webhookBody = []byte(`{"id":42,"sku":"SKU-A"}`)

func TestMeliAdapter_ValidateWebhookSignature(t *testing.T) {
	adapter, err := NewMeliAdapter(NewMeliConfig())
	require.NoError(t, err)

	// Mercado Livre sends a shared verification token, not a body HMAC.
	assert.NoError(t, adapter.ValidateWebhookSignature(webhookBody, "shared-token", "shared-token"))
	assert.ErrorIs(t, adapter.ValidateWebhookSignature(webhookBody, "wrong-token", "shared-token"), integration.ErrWebhookSignatureInvalid)
	assert.ErrorIs(t, adapter.ValidateWebhookSignature(webhookBody, "", "shared-token"), integration.ErrWebhookSignatureInvalid)
}

func TestShopeeAdapter_ValidateWebhookSignature(t *testing.T) {
	adapter, err := NewShopeeAdapter(NewShopeeConfig())
	require.NoError(t, err)

	valid := "07fec758fe8a203a92507a5596361c62f7c81b8229f137a3ddc8916b08e63f92"
	assert.NoError(t, adapter.ValidateWebhookSignature(webhookBody, valid, "push-secret"))

	assert.ErrorIs(t, adapter.ValidateWebhookSignature(webhookBody, valid, "other-secret"), integration.ErrWebhookSignatureInvalid)
	tampered := append([]byte(nil), webhookBody...)
	tampered[0] ^= 0x01
	assert.ErrorIs(t, adapter.ValidateWebhookSignature(tampered, valid, "push-secret"), integration.ErrWebhookSignatureInvalid)
}

func TestWooAdapter_ValidateWebhookSignature(t *testing.T) {
	adapter, err := NewWooAdapter(NewWooConfig())
	require.NoError(t, err)

	valid := "3i3jjam5/Jsb2VtSTbl7lyDo25ik554DzWFcFnQ85bo="
	assert.NoError(t, adapter.ValidateWebhookSignature(webhookBody, valid, "wh-secret"))
	assert.ErrorIs(t, adapter.ValidateWebhookSignature(webhookBody, valid, "rotated-secret"), integration.ErrWebhookSignatureInvalid)
}

func TestAmazonAdapter_ValidateWebhookSignature(t *testing.T) {
	adapter, err := NewAmazonAdapter(NewAmazonConfig())
	require.NoError(t, err)

	valid := "2d5ff45db95fd467ad7408d7bdbfce7a629054b0cd92ceafd7904e99b22a87ff"
	assert.NoError(t, adapter.ValidateWebhookSignature(webhookBody, valid, "sp-secret"))
	assert.NoError(t, adapter.ValidateWebhookSignature(webhookBody, strings.ToUpper(valid), "sp-secret"))

	err = adapter.ValidateWebhookSignature(webhookBody, valid, "other-secret")
	require.Error(t, err)
	var adapterErr *integration.AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, integration.ErrCodeAuthentication, adapterErr.Code)
	assert.Equal(t, integration.MarketplaceAmazon, adapterErr.Marketplace)
}
