package marketplace

import "errors"

const (
	// AmazonLWATokenURL is the Login-with-Amazon token endpoint.
	AmazonLWATokenURL = "https://api.amazon.com/auth/o2/token"
	// AmazonNorthAmericaAPIURL is the NA selling-partner endpoint.
	AmazonNorthAmericaAPIURL = "https://sellingpartnerapi-na.amazon.com"
	// AmazonEuropeAPIURL is the EU selling-partner endpoint.
	AmazonEuropeAPIURL = "https://sellingpartnerapi-eu.amazon.com"
	// AmazonFarEastAPIURL is the FE selling-partner endpoint.
	AmazonFarEastAPIURL = "https://sellingpartnerapi-fe.amazon.com"
)

var ErrAmazonConfigMissingAuthURL = errors.New("amazon: auth url is required")

// AmazonConfig holds the Amazon adapter configuration.
type AmazonConfig struct {
	// APIBaseURL overrides the regional endpoint (tests); when empty the
	// account credential's region picks it.
	APIBaseURL string
	// AuthURL is the LWA token endpoint.
	AuthURL string
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
	// RequestsPerSecond paces outgoing calls per account. The selling
	// partner API throttles aggressively.
	RequestsPerSecond float64
	// Burst is the token-bucket burst size.
	Burst int
}

// NewAmazonConfig creates an Amazon configuration with defaults.
func NewAmazonConfig() *AmazonConfig {
	return &AmazonConfig{
		AuthURL:           AmazonLWATokenURL,
		TimeoutSeconds:    30,
		RequestsPerSecond: 2,
		Burst:             2,
	}
}

// Validate applies defaults and checks required fields.
func (c *AmazonConfig) Validate() error {
	if c.AuthURL == "" {
		return ErrAmazonConfigMissingAuthURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 2
	}
	if c.Burst <= 0 {
		c.Burst = 2
	}
	return nil
}

// endpointFor picks the regional endpoint for an account, honoring the
// config override.
func (c *AmazonConfig) endpointFor(region string) string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	switch region {
	case "eu":
		return AmazonEuropeAPIURL
	case "fe":
		return AmazonFarEastAPIURL
	default:
		return AmazonNorthAmericaAPIURL
	}
}
