package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// MarketplaceCode
// ---------------------------------------------------------------------------

// MarketplaceCode identifies an external sales channel.
type MarketplaceCode string

const (
	// MarketplaceMercadoLivre is the Mercado Livre marketplace (OAuth token pair).
	MarketplaceMercadoLivre MarketplaceCode = "MELI"
	// MarketplaceShopee is the Shopee marketplace (HMAC partner key).
	MarketplaceShopee MarketplaceCode = "SHOPEE"
	// MarketplaceWooCommerce is a WooCommerce store (Basic-Auth consumer key/secret).
	MarketplaceWooCommerce MarketplaceCode = "WOOCOMMERCE"
	// MarketplaceAmazon is the Amazon SP-API marketplace (LWA refresh token).
	MarketplaceAmazon MarketplaceCode = "AMAZON"
)

// IsValid returns true if the marketplace code is one of the supported platforms.
func (c MarketplaceCode) IsValid() bool {
	switch c {
	case MarketplaceMercadoLivre, MarketplaceShopee, MarketplaceWooCommerce, MarketplaceAmazon:
		return true
	default:
		return false
	}
}

// String returns the string representation of MarketplaceCode.
func (c MarketplaceCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the marketplace.
func (c MarketplaceCode) DisplayName() string {
	switch c {
	case MarketplaceMercadoLivre:
		return "Mercado Livre"
	case MarketplaceShopee:
		return "Shopee"
	case MarketplaceWooCommerce:
		return "WooCommerce"
	case MarketplaceAmazon:
		return "Amazon"
	default:
		return string(c)
	}
}

// AllMarketplaces returns every supported marketplace code.
func AllMarketplaces() []MarketplaceCode {
	return []MarketplaceCode{
		MarketplaceMercadoLivre,
		MarketplaceShopee,
		MarketplaceWooCommerce,
		MarketplaceAmazon,
	}
}

// ---------------------------------------------------------------------------
// Canonical model
// ---------------------------------------------------------------------------

// NormalizedProduct is the marketplace-agnostic product shape. Every adapter
// maps its native product payload to and from this type; native fields the
// canonical model does not understand are preserved verbatim in Metadata so
// no round-trip data is lost.
type NormalizedProduct struct {
	// ExternalID is the product ID on the marketplace (empty for unlisted products).
	ExternalID string
	// SKU is the stable join key between local and external records.
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	Images      []string
	Categories  []string
	Active      bool
	// Variations holds SKU-level variants of this listing.
	Variations []NormalizedVariation
	// Attributes holds mapped, understood free-form attributes.
	Attributes map[string]string
	// Metadata is the opaque marketplace-specific bag (round-trip preserved).
	Metadata map[string]any
}

// NormalizedVariation is a variant of a normalized product.
type NormalizedVariation struct {
	ExternalID string
	SKU        string
	Name       string
	Price      decimal.Decimal
	Stock      int64
	Attributes map[string]string
}

// NormalizedOrder is the canonical projection of a marketplace order.
type NormalizedOrder struct {
	ExternalID string
	Status     string
	BuyerName  string
	BuyerEmail string
	Total      decimal.Decimal
	Currency   string
	Items      []NormalizedOrderItem
	PlacedAt   time.Time
	Metadata   map[string]any
}

// NormalizedOrderItem is a line item of a normalized order.
type NormalizedOrderItem struct {
	ExternalID string
	SKU        string
	Name       string
	Quantity   int64
	UnitPrice  decimal.Decimal
}

// NormalizedCustomer is the canonical projection of a marketplace customer.
// Not every marketplace exposes customers; adapters without the capability
// return a not-supported error from customer operations.
type NormalizedCustomer struct {
	ExternalID string
	Name       string
	Email      string
	Phone      string
	Document   string
	Metadata   map[string]any
}

// NormalizedCategory is the canonical projection of a marketplace category.
type NormalizedCategory struct {
	ExternalID string
	Name       string
	ParentID   string
	Path       string
}

// CategoryAttribute describes one attribute a marketplace category requires
// or accepts on its listings.
type CategoryAttribute struct {
	ID       string
	Name     string
	Type     string
	Required bool
	Values   []string
}

// StockUpdate is a write-intent record batched into adapter stock calls.
type StockUpdate struct {
	SKU      string
	Quantity int64
}

// PriceUpdate is a write-intent record batched into adapter price calls.
type PriceUpdate struct {
	SKU   string
	Price decimal.Decimal
}

// WebhookSubscription describes a webhook registered on a marketplace.
type WebhookSubscription struct {
	ID     string
	URL    string
	Topic  string
	Secret string
}

// ---------------------------------------------------------------------------
// Response envelopes
// ---------------------------------------------------------------------------

// RateLimitInfo is the adapter's snapshot of the platform throttling state.
type RateLimitInfo struct {
	// Limit is the platform's request budget for the current window (0 if unknown).
	Limit int
	// Remaining is the number of requests left in the window (0 if unknown).
	Remaining int
	// ResetAt is when the window resets.
	ResetAt time.Time
}

// Page identifies one page of a paginated fetch. Adapters translate this to
// whatever pagination style their platform uses (cursor, offset, or
// ids-then-details) behind a single contract.
type Page struct {
	// Number is the 1-indexed page number.
	Number int
	// Size is the number of items per page.
	Size int
	// Cursor is the opaque continuation token from the previous page, if the
	// platform is cursor-based. Empty on the first page.
	Cursor string
}

// Paginated wraps one page of fetched items together with continuation state.
type Paginated[T any] struct {
	Items []T
	// Total is the total number of items on the platform (-1 if unreported).
	Total int64
	// HasMore indicates another page exists.
	HasMore bool
	// NextCursor is the continuation token for the next page on cursor-based
	// platforms. Empty otherwise.
	NextCursor string
	// RateLimit is the throttling snapshot observed on this call, if any.
	RateLimit *RateLimitInfo
}

// ---------------------------------------------------------------------------
// MarketplaceAdapter port
// ---------------------------------------------------------------------------

// AccountContext carries the explicit account/tenant identity of every
// adapter call. There is no implicit "current user" anywhere in the engine.
type AccountContext struct {
	TenantID  uuid.UUID
	AccountID uuid.UUID
	// Credentials is the decrypted, marketplace-specific credential bundle.
	Credentials *CredentialBundle
}

// MarketplaceAdapter is the port implemented once per marketplace. It owns
// marketplace-specific HTTP client construction, the authentication
// handshake, pagination, rate-limit interpretation, and the bidirectional
// mapping between native payloads and the canonical model.
//
// Every error returned by an adapter is normalized into *AdapterError.
// Capabilities the platform does not expose return a NOT_SUPPORTED error.
type MarketplaceAdapter interface {
	// Code returns the marketplace this adapter handles.
	Code() MarketplaceCode

	// ValidateCredentials verifies the credential bundle against the live API.
	ValidateCredentials(ctx context.Context, account AccountContext) error

	// Product operations
	FetchProducts(ctx context.Context, account AccountContext, page Page) (*Paginated[NormalizedProduct], error)
	FetchProduct(ctx context.Context, account AccountContext, externalID string) (*NormalizedProduct, error)
	CreateProduct(ctx context.Context, account AccountContext, product *NormalizedProduct) (string, error)
	UpdateProduct(ctx context.Context, account AccountContext, product *NormalizedProduct) error
	DeleteProduct(ctx context.Context, account AccountContext, externalID string) error

	// Category operations
	FetchCategories(ctx context.Context, account AccountContext) ([]NormalizedCategory, error)
	FetchCategoryAttributes(ctx context.Context, account AccountContext, categoryID string) ([]CategoryAttribute, error)

	// Stock operations
	UpdateStock(ctx context.Context, account AccountContext, updates []StockUpdate) error
	FetchStock(ctx context.Context, account AccountContext, skus []string) (map[string]int64, error)

	// Price operations
	UpdatePrice(ctx context.Context, account AccountContext, updates []PriceUpdate) error
	FetchPrices(ctx context.Context, account AccountContext, skus []string) (map[string]decimal.Decimal, error)

	// Customer operations (not supported on every marketplace)
	FetchCustomers(ctx context.Context, account AccountContext, page Page) (*Paginated[NormalizedCustomer], error)
	FetchCustomer(ctx context.Context, account AccountContext, externalID string) (*NormalizedCustomer, error)
	UpsertCustomer(ctx context.Context, account AccountContext, customer *NormalizedCustomer) (string, error)

	// Order operations
	FetchOrders(ctx context.Context, account AccountContext, since time.Time, page Page) (*Paginated[NormalizedOrder], error)
	FetchOrder(ctx context.Context, account AccountContext, externalID string) (*NormalizedOrder, error)

	// Webhook operations
	CreateWebhook(ctx context.Context, account AccountContext, url, topic, secret string) (*WebhookSubscription, error)
	DeleteWebhook(ctx context.Context, account AccountContext, webhookID string) error
	ValidateWebhookSignature(payload []byte, signature, secret string) error

	// Rate-limit handling. The adapter is the authority on pacing: WaitForRateLimit
	// blocks until the next request may be sent (or ctx is done).
	RateLimitInfo(account AccountContext) RateLimitInfo
	WaitForRateLimit(ctx context.Context, account AccountContext) error

	// NormalizeError converts any error produced during an adapter call into
	// the uniform *AdapterError shape.
	NormalizeError(err error) *AdapterError
}

// ---------------------------------------------------------------------------
// Idempotency key
// ---------------------------------------------------------------------------

type idempotencyKeyContextKey struct{}

// WithIdempotencyKey attaches a deduplication token to the context. Adapters
// forward it on create requests so a retried call after an ambiguous failure
// does not produce a duplicate listing.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyContextKey{}, key)
}

// IdempotencyKeyFrom returns the context's deduplication token, if any.
func IdempotencyKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyContextKey{}).(string)
	return key
}

// ---------------------------------------------------------------------------
// AdapterRegistry port
// ---------------------------------------------------------------------------

// AdapterRegistry resolves a marketplace code to its adapter instance. Every
// consumer goes through the registry so new marketplaces require no changes
// elsewhere.
type AdapterRegistry interface {
	// Get returns the adapter for the given marketplace code.
	Get(code MarketplaceCode) (MarketplaceAdapter, error)

	// List returns all registered adapters.
	List() []MarketplaceAdapter
}
