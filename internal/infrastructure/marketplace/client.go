// Package marketplace holds the concrete adapters for the supported sales
// channels. Each adapter owns its platform's HTTP surface: authentication
// handshake, request signing, pagination style, rate-limit interpretation
// and the mapping between native payloads and the canonical model.
package marketplace

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// maxResponseSize caps a platform response body (10MB).
const maxResponseSize = 10 * 1024 * 1024

// tokenExpirySkew refreshes tokens slightly before their reported expiry so
// an in-flight request never carries a token that dies mid-request.
const tokenExpirySkew = 60 * time.Second

// idempotencyHeader is sent on create calls so the platform can deduplicate
// a retried request after an ambiguous failure.
const idempotencyHeader = "X-Idempotency-Key"

// setIdempotencyKey copies the context token onto the request, if present.
func setIdempotencyKey(ctx context.Context, req *http.Request) {
	if key := integration.IdempotencyKeyFrom(ctx); key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
}

// newHTTPClient builds the per-adapter HTTP client.
func newHTTPClient(timeoutSeconds int) *http.Client {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	return &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}
}

// readBody drains a response body with the size cap applied.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("marketplace: failed to read response: %w", err)
	}
	return body, nil
}

// retryAfterFrom parses the Retry-After header, falling back when absent or
// malformed.
func retryAfterFrom(resp *http.Response, fallback time.Duration) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return fallback
}

// ---------------------------------------------------------------------------
// Per-account rate limiting
// ---------------------------------------------------------------------------

// limiterCache paces outgoing requests per account with a token bucket.
// Platform budgets are per seller account, not per process.
type limiterCache struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newLimiterCache(requestsPerSecond float64, burst int) *limiterCache {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	if burst <= 0 {
		burst = 1
	}
	return &limiterCache{
		limiters: make(map[uuid.UUID]*rate.Limiter),
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (c *limiterCache) get(accountID uuid.UUID) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[accountID]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[accountID] = l
	}
	return l
}

// wait blocks until the account's bucket allows the next request.
func (c *limiterCache) wait(ctx context.Context, accountID uuid.UUID) error {
	return c.get(accountID).Wait(ctx)
}

// ---------------------------------------------------------------------------
// Rate-limit observation
// ---------------------------------------------------------------------------

// rateState remembers the last throttling snapshot a platform reported per
// account.
type rateState struct {
	mu    sync.RWMutex
	infos map[uuid.UUID]integration.RateLimitInfo
}

func newRateState() *rateState {
	return &rateState{infos: make(map[uuid.UUID]integration.RateLimitInfo)}
}

// observe parses the standard X-RateLimit-* headers off a response.
func (s *rateState) observe(accountID uuid.UUID, resp *http.Response) {
	info := integration.RateLimitInfo{}
	if v, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit")); err == nil {
		info.Limit = v
	}
	if v, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining")); err == nil {
		info.Remaining = v
	}
	if v, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil && v > 0 {
		info.ResetAt = time.Unix(v, 0)
	}
	if info.Limit == 0 && info.Remaining == 0 && info.ResetAt.IsZero() {
		return
	}
	s.mu.Lock()
	s.infos[accountID] = info
	s.mu.Unlock()
}

// snapshot returns the last observed throttling state for an account.
func (s *rateState) snapshot(accountID uuid.UUID) integration.RateLimitInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infos[accountID]
}

// ---------------------------------------------------------------------------
// Per-account token cache
// ---------------------------------------------------------------------------

// refreshFunc exchanges long-lived credentials for a short-lived access
// token and its expiry.
type refreshFunc func(ctx context.Context) (token string, expiresAt time.Time, err error)

// tokenCache holds short-lived access tokens per account. Refresh is
// serialized per account so concurrent workers never race a token rotation.
type tokenCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*tokenEntry
}

type tokenEntry struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenCache() *tokenCache {
	return &tokenCache{entries: make(map[uuid.UUID]*tokenEntry)}
}

func (c *tokenCache) entry(accountID uuid.UUID) *tokenEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[accountID]
	if !ok {
		e = &tokenEntry{}
		c.entries[accountID] = e
	}
	return e
}

// get returns the cached token, refreshing through fn when absent or within
// the expiry skew.
func (c *tokenCache) get(ctx context.Context, accountID uuid.UUID, fn refreshFunc) (string, error) {
	e := c.entry(accountID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token != "" && time.Now().Add(tokenExpirySkew).Before(e.expiresAt) {
		return e.token, nil
	}
	token, expiresAt, err := fn(ctx)
	if err != nil {
		return "", err
	}
	e.token = token
	e.expiresAt = expiresAt
	return token, nil
}

// invalidate drops the cached token so the next call refreshes.
func (c *tokenCache) invalidate(accountID uuid.UUID) {
	e := c.entry(accountID)
	e.mu.Lock()
	e.token = ""
	e.expiresAt = time.Time{}
	e.mu.Unlock()
}
