package integration

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Credential tagged union
// ---------------------------------------------------------------------------

// CredentialKind discriminates the marketplace-specific credential shapes.
type CredentialKind string

const (
	// CredentialKindOAuth is an OAuth token pair with expiry (Mercado Livre).
	CredentialKindOAuth CredentialKind = "OAUTH"
	// CredentialKindHmac is a partner ID + partner key pair (Shopee).
	CredentialKindHmac CredentialKind = "HMAC"
	// CredentialKindBasicAuth is a consumer key/secret + store URL (WooCommerce).
	CredentialKindBasicAuth CredentialKind = "BASIC_AUTH"
	// CredentialKindAPIKey is an LWA client pair + refresh token (Amazon).
	CredentialKindAPIKey CredentialKind = "API_KEY"
)

// IsValid returns true if the credential kind is known.
func (k CredentialKind) IsValid() bool {
	switch k {
	case CredentialKindOAuth, CredentialKindHmac, CredentialKindBasicAuth, CredentialKindAPIKey:
		return true
	default:
		return false
	}
}

// OAuthCredential is the stored token pair of an OAuth marketplace. The pair
// is rotated by the adapter on refresh; the authorization-code exchange
// happens once during connection setup.
type OAuthCredential struct {
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	// UserID is the marketplace-side seller identifier.
	UserID string `json:"user_id,omitempty"`
}

// HmacCredential is a partner ID + secret key used to sign each request.
type HmacCredential struct {
	PartnerID  string `json:"partner_id"`
	PartnerKey string `json:"partner_key"`
	ShopID     string `json:"shop_id"`
}

// BasicAuthCredential is a consumer key/secret pair plus the store base URL.
type BasicAuthCredential struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	StoreURL       string `json:"store_url"`
}

// APIKeyCredential is an LWA client pair with a long-lived refresh token.
type APIKeyCredential struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	// SellerID is the marketplace-side seller identifier.
	SellerID string `json:"seller_id,omitempty"`
	// Region selects the API endpoint set (na, eu, fe).
	Region string `json:"region,omitempty"`
}

// CredentialBundle is the tagged union handed to adapters. Exactly one of
// the shape fields matching Kind is populated; adapters pattern-match on
// Kind and reject bundles of the wrong shape.
type CredentialBundle struct {
	Kind      CredentialKind       `json:"kind"`
	OAuth     *OAuthCredential     `json:"oauth,omitempty"`
	Hmac      *HmacCredential      `json:"hmac,omitempty"`
	BasicAuth *BasicAuthCredential `json:"basic_auth,omitempty"`
	APIKey    *APIKeyCredential    `json:"api_key,omitempty"`
}

// Validate checks that the bundle carries the shape its kind announces.
func (b *CredentialBundle) Validate() error {
	if !b.Kind.IsValid() {
		return ErrInvalidCredentialKind
	}
	switch b.Kind {
	case CredentialKindOAuth:
		if b.OAuth == nil || b.OAuth.ClientID == "" || b.OAuth.RefreshToken == "" {
			return errors.New("integration: oauth credential requires client_id and refresh_token")
		}
	case CredentialKindHmac:
		if b.Hmac == nil || b.Hmac.PartnerID == "" || b.Hmac.PartnerKey == "" {
			return errors.New("integration: hmac credential requires partner_id and partner_key")
		}
	case CredentialKindBasicAuth:
		if b.BasicAuth == nil || b.BasicAuth.ConsumerKey == "" || b.BasicAuth.StoreURL == "" {
			return errors.New("integration: basic auth credential requires consumer_key and store_url")
		}
	case CredentialKindAPIKey:
		if b.APIKey == nil || b.APIKey.ClientID == "" || b.APIKey.RefreshToken == "" {
			return errors.New("integration: api key credential requires client_id and refresh_token")
		}
	}
	return nil
}

// IsExpired reports whether a time-bound credential has passed its expiry.
// Only OAuth bundles carry an expiry; other kinds never expire on their own.
func (b *CredentialBundle) IsExpired(now time.Time) bool {
	if b.Kind == CredentialKindOAuth && b.OAuth != nil && !b.OAuth.ExpiresAt.IsZero() {
		return now.After(b.OAuth.ExpiresAt)
	}
	return false
}

// MarshalJSON keeps the wire shape stable for the credential collaborator.
func (b *CredentialBundle) MarshalJSON() ([]byte, error) {
	type alias CredentialBundle
	return json.Marshal((*alias)(b))
}

// ExpectedCredentialKind returns the credential kind each marketplace uses.
func ExpectedCredentialKind(code MarketplaceCode) CredentialKind {
	switch code {
	case MarketplaceMercadoLivre:
		return CredentialKindOAuth
	case MarketplaceShopee:
		return CredentialKindHmac
	case MarketplaceWooCommerce:
		return CredentialKindBasicAuth
	case MarketplaceAmazon:
		return CredentialKindAPIKey
	default:
		return ""
	}
}

// ---------------------------------------------------------------------------
// CredentialStore port (collaborator)
// ---------------------------------------------------------------------------

// CredentialStore is the collaborator contract for credential persistence.
// Encryption at rest is the collaborator's responsibility; the engine only
// ever sees decrypted bundles.
type CredentialStore interface {
	// Get resolves the credential bundle for an account on a marketplace.
	// Returns ErrCredentialsNotFound when the account is not connected.
	Get(ctx context.Context, tenantID, accountID uuid.UUID, code MarketplaceCode) (*CredentialBundle, error)

	// Put stores (or rotates) the credential bundle for an account.
	Put(ctx context.Context, tenantID, accountID uuid.UUID, code MarketplaceCode, bundle *CredentialBundle) error

	// Delete removes the stored bundle, disconnecting the account.
	Delete(ctx context.Context, tenantID, accountID uuid.UUID, code MarketplaceCode) error
}
