package marketplace

import "errors"

const (
	// MeliProductionAPIURL is the production API endpoint.
	MeliProductionAPIURL = "https://api.mercadolibre.com"
	// MeliAuthURL is the OAuth authorization base.
	MeliAuthURL = "https://auth.mercadolivre.com.br"
)

var (
	ErrMeliConfigMissingAPIURL = errors.New("meli: api base url is required")
)

// MeliConfig holds the Mercado Livre adapter configuration. Credentials are
// per account and arrive with each call; the config carries only the
// process-wide knobs.
type MeliConfig struct {
	// APIBaseURL is the API endpoint (overridable for tests).
	APIBaseURL string
	// AuthBaseURL hosts the authorization-code redirect flow.
	AuthBaseURL string
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
	// RequestsPerSecond paces outgoing calls per account.
	RequestsPerSecond float64
	// Burst is the token-bucket burst size.
	Burst int
}

// NewMeliConfig creates a Mercado Livre configuration with defaults.
func NewMeliConfig() *MeliConfig {
	return &MeliConfig{
		APIBaseURL:        MeliProductionAPIURL,
		AuthBaseURL:       MeliAuthURL,
		TimeoutSeconds:    30,
		RequestsPerSecond: 8,
		Burst:             4,
	}
}

// Validate applies defaults and checks required fields.
func (c *MeliConfig) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMeliConfigMissingAPIURL
	}
	if c.AuthBaseURL == "" {
		c.AuthBaseURL = MeliAuthURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 8
	}
	if c.Burst <= 0 {
		c.Burst = 4
	}
	return nil
}
