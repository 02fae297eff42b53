package marketplace

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// ShopeeProductionAPIURL is the partner API endpoint.
	ShopeeProductionAPIURL = "https://partner.shopeemobile.com"
)

var (
	ErrShopeeConfigMissingAPIURL = errors.New("shopee: api base url is required")
)

// ShopeeConfig holds the Shopee adapter configuration.
type ShopeeConfig struct {
	// APIBaseURL is the partner API endpoint (overridable for tests).
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
	// RequestsPerSecond paces outgoing calls per account.
	RequestsPerSecond float64
	// Burst is the token-bucket burst size.
	Burst int
}

// NewShopeeConfig creates a Shopee configuration with defaults.
func NewShopeeConfig() *ShopeeConfig {
	return &ShopeeConfig{
		APIBaseURL:        ShopeeProductionAPIURL,
		TimeoutSeconds:    30,
		RequestsPerSecond: 10,
		Burst:             5,
	}
}

// Validate applies defaults and checks required fields.
func (c *ShopeeConfig) Validate() error {
	if c.APIBaseURL == "" {
		return ErrShopeeConfigMissingAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 10
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
	return nil
}

// shopeeSign computes the partner signature for one call: HMAC-SHA256 over
// partner_id + path + timestamp + shop_id, keyed with the partner key, hex
// encoded. Every request carries it in the query string.
func shopeeSign(partnerID, partnerKey, path string, timestamp int64, shopID string) string {
	base := fmt.Sprintf("%s%s%d%s", partnerID, path, timestamp, shopID)
	mac := hmac.New(sha256.New, []byte(partnerKey))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}
