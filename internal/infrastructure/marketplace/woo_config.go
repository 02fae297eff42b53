package marketplace

// WooConfig holds the WooCommerce adapter configuration. The store base URL
// is part of each account's credentials; the config carries only the
// process-wide knobs.
type WooConfig struct {
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
	// RequestsPerSecond paces outgoing calls per account. Self-hosted
	// stores throttle far earlier than the big platforms.
	RequestsPerSecond float64
	// Burst is the token-bucket burst size.
	Burst int
}

// NewWooConfig creates a WooCommerce configuration with defaults.
func NewWooConfig() *WooConfig {
	return &WooConfig{
		TimeoutSeconds:    30,
		RequestsPerSecond: 4,
		Burst:             2,
	}
}

// Validate applies defaults.
func (c *WooConfig) Validate() error {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 4
	}
	if c.Burst <= 0 {
		c.Burst = 2
	}
	return nil
}
