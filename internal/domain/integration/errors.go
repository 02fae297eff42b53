package integration

import (
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// Adapter/registry errors
	ErrMarketplaceNotRegistered = errors.New("integration: marketplace not registered")
	ErrInvalidMarketplaceCode   = errors.New("integration: invalid marketplace code")
	ErrCredentialsNotFound      = errors.New("integration: credentials not found for account")
	ErrCredentialsExpired       = errors.New("integration: credentials expired")
	ErrInvalidCredentialKind    = errors.New("integration: credential bundle has wrong kind for marketplace")

	// Job errors
	ErrJobNotFound          = errors.New("integration: sync job not found")
	ErrJobAlreadyRunning    = errors.New("integration: a job of this kind is already pending or processing for this account")
	ErrJobNotRetryable      = errors.New("integration: only failed or cancelled jobs can be retried")
	ErrJobNotCancellable    = errors.New("integration: job is already in a terminal state")
	ErrInvalidJobTransition = errors.New("integration: invalid job status transition")

	// Mapping errors
	ErrMappingNotFound          = errors.New("integration: product mapping not found")
	ErrCategoryMappingNotFound  = errors.New("integration: category mapping not found")
	ErrMappingInvalidProductID  = errors.New("integration: invalid product ID")
	ErrMappingInvalidAccountID  = errors.New("integration: invalid account ID")
	ErrMappingInvalidExternalID = errors.New("integration: invalid external product ID")

	// Price rule errors
	ErrPriceRuleNotFound       = errors.New("integration: price rule not found")
	ErrPriceRuleInvalidFormula = errors.New("integration: invalid price rule formula")

	// Conflict errors
	ErrConflictNotFound        = errors.New("integration: sync conflict not found")
	ErrConflictAlreadyResolved = errors.New("integration: sync conflict already resolved")
	ErrInvalidResolution       = errors.New("integration: resolution must pick the local or the external value")

	// Webhook errors
	ErrWebhookSignatureInvalid = errors.New("integration: webhook signature verification failed")
)

// ---------------------------------------------------------------------------
// Adapter error taxonomy
// ---------------------------------------------------------------------------

// ErrorCode classifies normalized adapter errors so callers can react uniformly
// regardless of which marketplace produced the failure.
type ErrorCode string

const (
	// ErrCodeAuthentication means the marketplace rejected our credentials.
	// Fatal for the job; the account needs to be reconnected.
	ErrCodeAuthentication ErrorCode = "AUTHENTICATION"
	// ErrCodeRateLimit means the marketplace throttled us. Retryable after
	// the carried retry-after duration has elapsed.
	ErrCodeRateLimit ErrorCode = "RATE_LIMIT"
	// ErrCodeValidation means the marketplace rejected a specific payload.
	// Recorded per item; never aborts a batch.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeNotFound means the remote entity does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeNotSupported means the marketplace does not implement the
	// requested capability. Terminal and non-retryable for that operation.
	ErrCodeNotSupported ErrorCode = "NOT_SUPPORTED"
	// ErrCodeSync wraps any unexpected adapter or transport failure.
	ErrCodeSync ErrorCode = "SYNC_ERROR"
)

// AdapterError is the uniform {message, code, retryable} error shape every
// adapter failure is normalized into before it reaches a caller.
type AdapterError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	// Marketplace identifies the adapter that produced the error.
	Marketplace MarketplaceCode
	// RetryAfter is set for rate-limit errors only.
	RetryAfter time.Duration
	// Cause is the underlying error, preserved for logs.
	Cause error
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	if e.Marketplace != "" {
		return fmt.Sprintf("%s: [%s] %s", e.Marketplace, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *AdapterError) Unwrap() error {
	return e.Cause
}

// NewAuthenticationError builds a fatal credential-rejection error.
func NewAuthenticationError(marketplace MarketplaceCode, message string, cause error) *AdapterError {
	return &AdapterError{
		Code:        ErrCodeAuthentication,
		Message:     message,
		Retryable:   false,
		Marketplace: marketplace,
		Cause:       cause,
	}
}

// NewRateLimitError builds a retryable throttling error carrying the
// platform-reported retry-after duration.
func NewRateLimitError(marketplace MarketplaceCode, retryAfter time.Duration) *AdapterError {
	return &AdapterError{
		Code:        ErrCodeRateLimit,
		Message:     fmt.Sprintf("rate limited, retry after %s", retryAfter),
		Retryable:   true,
		Marketplace: marketplace,
		RetryAfter:  retryAfter,
	}
}

// NewValidationError builds a per-item payload rejection error.
func NewValidationError(marketplace MarketplaceCode, message string) *AdapterError {
	return &AdapterError{
		Code:        ErrCodeValidation,
		Message:     message,
		Retryable:   false,
		Marketplace: marketplace,
	}
}

// NewNotFoundError builds an entity-missing error.
func NewNotFoundError(marketplace MarketplaceCode, message string) *AdapterError {
	return &AdapterError{
		Code:        ErrCodeNotFound,
		Message:     message,
		Retryable:   false,
		Marketplace: marketplace,
	}
}

// NewNotSupportedError marks a capability the marketplace does not expose.
func NewNotSupportedError(marketplace MarketplaceCode, capability string) *AdapterError {
	return &AdapterError{
		Code:        ErrCodeNotSupported,
		Message:     fmt.Sprintf("operation %q is not supported", capability),
		Retryable:   false,
		Marketplace: marketplace,
	}
}

// NewSyncError wraps an unexpected adapter or transport failure.
func NewSyncError(marketplace MarketplaceCode, message string, cause error) *AdapterError {
	return &AdapterError{
		Code:        ErrCodeSync,
		Message:     message,
		Retryable:   true,
		Marketplace: marketplace,
		Cause:       cause,
	}
}

// IsRateLimit reports whether err is (or wraps) a rate-limit AdapterError.
func IsRateLimit(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae) && ae.Code == ErrCodeRateLimit
}

// IsNotSupported reports whether err is (or wraps) a not-supported AdapterError.
func IsNotSupported(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae) && ae.Code == ErrCodeNotSupported
}

// IsRetryable reports whether err is an AdapterError the caller may retry.
// Unknown errors are treated as non-retryable.
func IsRetryable(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae) && ae.Retryable
}

// AsAdapterError extracts the AdapterError from err, normalizing foreign
// errors into a generic SyncError so callers always see the uniform shape.
func AsAdapterError(marketplace MarketplaceCode, err error) *AdapterError {
	if err == nil {
		return nil
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae
	}
	return NewSyncError(marketplace, err.Error(), err)
}
