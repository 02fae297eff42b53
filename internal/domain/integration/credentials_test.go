package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCredentialBundle_Validate(t *testing.T) {
	t.Run("accepts matching shapes", func(t *testing.T) {
		bundles := []*CredentialBundle{
			{Kind: CredentialKindOAuth, OAuth: &OAuthCredential{ClientID: "app", RefreshToken: "rt"}},
			{Kind: CredentialKindHmac, Hmac: &HmacCredential{PartnerID: "p", PartnerKey: "k"}},
			{Kind: CredentialKindBasicAuth, BasicAuth: &BasicAuthCredential{ConsumerKey: "ck", StoreURL: "https://shop.example.com"}},
			{Kind: CredentialKindAPIKey, APIKey: &APIKeyCredential{ClientID: "lwa", RefreshToken: "rt"}},
		}
		for _, b := range bundles {
			assert.NoError(t, b.Validate(), string(b.Kind))
		}
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		b := &CredentialBundle{Kind: CredentialKind("COOKIE")}
		assert.ErrorIs(t, b.Validate(), ErrInvalidCredentialKind)
	})

	t.Run("rejects missing shape", func(t *testing.T) {
		b := &CredentialBundle{Kind: CredentialKindOAuth}
		assert.Error(t, b.Validate())
	})

	t.Run("rejects incomplete shape", func(t *testing.T) {
		b := &CredentialBundle{Kind: CredentialKindHmac, Hmac: &HmacCredential{PartnerID: "p"}}
		assert.Error(t, b.Validate())
	})
}

func TestCredentialBundle_IsExpired(t *testing.T) {
	now := time.Now()

	t.Run("oauth bundle past expiry is expired", func(t *testing.T) {
		b := &CredentialBundle{Kind: CredentialKindOAuth, OAuth: &OAuthCredential{ExpiresAt: now.Add(-time.Minute)}}
		assert.True(t, b.IsExpired(now))
	})

	t.Run("oauth bundle before expiry is live", func(t *testing.T) {
		b := &CredentialBundle{Kind: CredentialKindOAuth, OAuth: &OAuthCredential{ExpiresAt: now.Add(time.Hour)}}
		assert.False(t, b.IsExpired(now))
	})

	t.Run("oauth bundle without expiry never expires", func(t *testing.T) {
		b := &CredentialBundle{Kind: CredentialKindOAuth, OAuth: &OAuthCredential{}}
		assert.False(t, b.IsExpired(now))
	})

	t.Run("non-oauth kinds never expire", func(t *testing.T) {
		b := &CredentialBundle{Kind: CredentialKindHmac, Hmac: &HmacCredential{}}
		assert.False(t, b.IsExpired(now))
	})
}

func TestExpectedCredentialKind(t *testing.T) {
	assert.Equal(t, CredentialKindOAuth, ExpectedCredentialKind(MarketplaceMercadoLivre))
	assert.Equal(t, CredentialKindHmac, ExpectedCredentialKind(MarketplaceShopee))
	assert.Equal(t, CredentialKindBasicAuth, ExpectedCredentialKind(MarketplaceWooCommerce))
	assert.Equal(t, CredentialKindAPIKey, ExpectedCredentialKind(MarketplaceAmazon))
	assert.Empty(t, ExpectedCredentialKind(MarketplaceCode("EBAY")))
}
