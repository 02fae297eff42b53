package marketplace

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// ShopeeAdapter implements the adapter contract for Shopee. Every request is
// signed with the account's partner key (HMAC-SHA256 over partner ID, path,
// timestamp and shop ID); pagination is cursor based.
type ShopeeAdapter struct {
	config     *ShopeeConfig
	httpClient *http.Client
	limiters   *limiterCache
	rates      *rateState
}

var _ integration.MarketplaceAdapter = (*ShopeeAdapter)(nil)

// NewShopeeAdapter creates a Shopee adapter.
func NewShopeeAdapter(config *ShopeeConfig) (*ShopeeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ShopeeAdapter{
		config:     config,
		httpClient: newHTTPClient(config.TimeoutSeconds),
		limiters:   newLimiterCache(config.RequestsPerSecond, config.Burst),
		rates:      newRateState(),
	}, nil
}

// Code implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) Code() integration.MarketplaceCode {
	return integration.MarketplaceShopee
}

// ValidateCredentials implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) ValidateCredentials(ctx context.Context, account integration.AccountContext) error {
	var out shopeeEnvelope
	return a.doRequest(ctx, account, http.MethodGet, "/api/v2/shop/get_shop_info", nil, nil, &out)
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// hmacCreds extracts and checks the account's partner credentials.
func (a *ShopeeAdapter) hmacCreds(account integration.AccountContext) (*integration.HmacCredential, *integration.AdapterError) {
	creds := account.Credentials
	if creds == nil || creds.Kind != integration.CredentialKindHmac || creds.Hmac == nil {
		return nil, integration.NewAuthenticationError(a.Code(), "account is not connected with a partner key", integration.ErrInvalidCredentialKind)
	}
	return creds.Hmac, nil
}

// shopeeResult is satisfied by every response type through its embedded
// shopeeEnvelope.
type shopeeResult interface {
	envelope() *shopeeEnvelope
}

// doRequest performs one signed API call and decodes the response body
// into out.
func (a *ShopeeAdapter) doRequest(ctx context.Context, account integration.AccountContext, method, path string, query url.Values, payload any, out shopeeResult) error {
	creds, aerr := a.hmacCreds(account)
	if aerr != nil {
		return aerr
	}
	if err := a.limiters.wait(ctx, account.AccountID); err != nil {
		return integration.NewSyncError(a.Code(), "rate limiter interrupted", err)
	}

	timestamp := time.Now().Unix()
	if query == nil {
		query = url.Values{}
	}
	query.Set("partner_id", creds.PartnerID)
	query.Set("shop_id", creds.ShopID)
	query.Set("timestamp", strconv.FormatInt(timestamp, 10))
	query.Set("sign", shopeeSign(creds.PartnerID, creds.PartnerKey, path, timestamp, creds.ShopID))

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return integration.NewSyncError(a.Code(), "failed to encode request payload", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path+"?"+query.Encode(), body)
	if err != nil {
		return integration.NewSyncError(a.Code(), "failed to build request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setIdempotencyKey(ctx, req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return integration.NewSyncError(a.Code(), "platform unreachable", err)
	}
	defer resp.Body.Close()
	a.rates.observe(account.AccountID, resp)

	respBody, err := readBody(resp)
	if err != nil {
		return integration.NewSyncError(a.Code(), "failed to read response", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return integration.NewRateLimitError(a.Code(), retryAfterFrom(resp, 30*time.Second))
	}
	if resp.StatusCode >= 400 {
		return integration.NewSyncError(a.Code(), fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return integration.NewSyncError(a.Code(), "invalid response body", err)
	}

	// Shopee reports most failures inside a 200 body.
	if env := out.envelope(); env.failed() {
		return a.envelopeError(env)
	}
	return nil
}

// envelopeError maps Shopee's in-body error codes to the taxonomy.
func (a *ShopeeAdapter) envelopeError(env *shopeeEnvelope) *integration.AdapterError {
	message := env.Message
	if message == "" {
		message = env.Error
	}
	switch {
	case strings.HasPrefix(env.Error, "error_auth"):
		return integration.NewAuthenticationError(a.Code(), message, nil)
	case env.Error == "error_request_limit":
		return integration.NewRateLimitError(a.Code(), 30*time.Second)
	case strings.HasPrefix(env.Error, "error_param"):
		return integration.NewValidationError(a.Code(), message)
	case strings.HasPrefix(env.Error, "error_not_found"):
		return integration.NewNotFoundError(a.Code(), message)
	default:
		return integration.NewSyncError(a.Code(), message, nil)
	}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// FetchProducts implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) FetchProducts(ctx context.Context, account integration.AccountContext, page integration.Page) (*integration.Paginated[integration.NormalizedProduct], error) {
	_, size := normalizePage(page, 50)
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(size))
	if page.Cursor != "" {
		query.Set("cursor", page.Cursor)
	}

	var list shopeeItemList
	if err := a.doRequest(ctx, account, http.MethodGet, "/api/v2/product/get_item_list", query, nil, &list); err != nil {
		return nil, err
	}
	out := &integration.Paginated[integration.NormalizedProduct]{
		Total:      list.Response.TotalCount,
		HasMore:    list.Response.HasNextPage,
		NextCursor: list.Response.NextCursor,
	}
	for i := range list.Response.Items {
		out.Items = append(out.Items, list.Response.Items[i].toNormalized())
	}
	return out, nil
}

// FetchProduct implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) FetchProduct(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedProduct, error) {
	query := url.Values{}
	query.Set("item_id", externalID)

	var detail shopeeItemDetail
	if err := a.doRequest(ctx, account, http.MethodGet, "/api/v2/product/get_item_detail", query, nil, &detail); err != nil {
		return nil, err
	}
	if detail.Response.Item.ItemID == 0 {
		return nil, integration.NewNotFoundError(a.Code(), fmt.Sprintf("item %q not found", externalID))
	}
	normalized := detail.Response.Item.toNormalized()
	return &normalized, nil
}

// CreateProduct implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) CreateProduct(ctx context.Context, account integration.AccountContext, product *integration.NormalizedProduct) (string, error) {
	var created shopeeItemIDResponse
	if err := a.doRequest(ctx, account, http.MethodPost, "/api/v2/product/add_item", nil, shopeeItemFromNormalized(product), &created); err != nil {
		return "", err
	}
	return strconv.FormatInt(created.Response.ItemID, 10), nil
}

// UpdateProduct implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) UpdateProduct(ctx context.Context, account integration.AccountContext, product *integration.NormalizedProduct) error {
	if product.ExternalID == "" {
		return integration.NewValidationError(a.Code(), "update requires the item ID")
	}
	payload := shopeeItemFromNormalized(product)
	if id, err := strconv.ParseInt(product.ExternalID, 10, 64); err == nil {
		payload["item_id"] = id
	}
	var out shopeeEnvelope
	return a.doRequest(ctx, account, http.MethodPost, "/api/v2/product/update_item", nil, payload, &out)
}

// DeleteProduct implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) DeleteProduct(ctx context.Context, account integration.AccountContext, externalID string) error {
	id, err := strconv.ParseInt(externalID, 10, 64)
	if err != nil {
		return integration.NewValidationError(a.Code(), fmt.Sprintf("invalid item ID %q", externalID))
	}
	var out shopeeEnvelope
	return a.doRequest(ctx, account, http.MethodPost, "/api/v2/product/delete_item", nil, map[string]any{"item_id": id}, &out)
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// FetchCategories implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) FetchCategories(ctx context.Context, account integration.AccountContext) ([]integration.NormalizedCategory, error) {
	var list shopeeCategoryList
	if err := a.doRequest(ctx, account, http.MethodGet, "/api/v2/product/get_category", nil, nil, &list); err != nil {
		return nil, err
	}
	out := make([]integration.NormalizedCategory, 0, len(list.Response.Categories))
	for _, c := range list.Response.Categories {
		nc := integration.NormalizedCategory{
			ExternalID: strconv.FormatInt(c.CategoryID, 10),
			Name:       c.CategoryName,
		}
		if c.ParentCategoryID > 0 {
			nc.ParentID = strconv.FormatInt(c.ParentCategoryID, 10)
		}
		out = append(out, nc)
	}
	return out, nil
}

// FetchCategoryAttributes implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) FetchCategoryAttributes(ctx context.Context, account integration.AccountContext, categoryID string) ([]integration.CategoryAttribute, error) {
	query := url.Values{}
	query.Set("category_id", categoryID)

	var list shopeeAttributeList
	if err := a.doRequest(ctx, account, http.MethodGet, "/api/v2/product/get_attributes", query, nil, &list); err != nil {
		return nil, err
	}
	out := make([]integration.CategoryAttribute, 0, len(list.Response.Attributes))
	for _, attr := range list.Response.Attributes {
		ca := integration.CategoryAttribute{
			ID:       strconv.FormatInt(attr.AttributeID, 10),
			Name:     attr.AttributeName,
			Type:     attr.InputType,
			Required: attr.Mandatory,
		}
		for _, v := range attr.Values {
			ca.Values = append(ca.Values, v.Value)
		}
		out = append(out, ca)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Stock and price
// ---------------------------------------------------------------------------

// UpdateStock implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) UpdateStock(ctx context.Context, account integration.AccountContext, updates []integration.StockUpdate) error {
	stockList := make([]map[string]any, len(updates))
	for i, u := range updates {
		stockList[i] = map[string]any{"item_sku": u.SKU, "stock": u.Quantity}
	}
	var out shopeeEnvelope
	return a.doRequest(ctx, account, http.MethodPost, "/api/v2/product/update_stock", nil, map[string]any{"stock_list": stockList}, &out)
}

// FetchStock implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) FetchStock(ctx context.Context, account integration.AccountContext, skus []string) (map[string]int64, error) {
	items, err := a.searchBySKUs(ctx, account, skus)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(items))
	for _, item := range items {
		out[item.ItemSKU] = item.Stock
	}
	return out, nil
}

// UpdatePrice implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) UpdatePrice(ctx context.Context, account integration.AccountContext, updates []integration.PriceUpdate) error {
	priceList := make([]map[string]any, len(updates))
	for i, u := range updates {
		priceList[i] = map[string]any{"item_sku": u.SKU, "price": u.Price}
	}
	var out shopeeEnvelope
	return a.doRequest(ctx, account, http.MethodPost, "/api/v2/product/update_price", nil, map[string]any{"price_list": priceList}, &out)
}

// FetchPrices implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) FetchPrices(ctx context.Context, account integration.AccountContext, skus []string) (map[string]decimal.Decimal, error) {
	items, err := a.searchBySKUs(ctx, account, skus)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(items))
	for _, item := range items {
		out[item.ItemSKU] = item.Price
	}
	return out, nil
}

// searchBySKUs fetches listings matching the SKU list.
func (a *ShopeeAdapter) searchBySKUs(ctx context.Context, account integration.AccountContext, skus []string) ([]shopeeItem, error) {
	query := url.Values{}
	query.Set("item_sku_list", strings.Join(skus, ","))

	var list shopeeItemList
	if err := a.doRequest(ctx, account, http.MethodGet, "/api/v2/product/search_item", query, nil, &list); err != nil {
		return nil, err
	}
	return list.Response.Items, nil
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// FetchCustomers implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) FetchCustomers(ctx context.Context, account integration.AccountContext, page integration.Page) (*integration.Paginated[integration.NormalizedCustomer], error) {
	_, size := normalizePage(page, 50)
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(size))
	if page.Cursor != "" {
		query.Set("cursor", page.Cursor)
	}

	var list shopeeCustomerList
	if err := a.doRequest(ctx, account, http.MethodGet, "/api/v2/customer/get_customer_list", query, nil, &list); err != nil {
		return nil, err
	}
	out := &integration.Paginated[integration.NormalizedCustomer]{
		Total:      -1,
		HasMore:    list.Response.HasNextPage,
		NextCursor: list.Response.NextCursor,
	}
	for _, c := range list.Response.Customers {
		out.Items = append(out.Items, integration.NormalizedCustomer{
			ExternalID: strconv.FormatInt(c.UserID, 10),
			Name:       c.UserName,
			Email:      c.Email,
			Phone:      c.Phone,
		})
	}
	return out, nil
}

// FetchCustomer implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) FetchCustomer(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedCustomer, error) {
	query := url.Values{}
	query.Set("user_id", externalID)

	var list shopeeCustomerList
	if err := a.doRequest(ctx, account, http.MethodGet, "/api/v2/customer/get_customer_detail", query, nil, &list); err != nil {
		return nil, err
	}
	if len(list.Response.Customers) == 0 {
		return nil, integration.NewNotFoundError(a.Code(), fmt.Sprintf("customer %q not found", externalID))
	}
	c := list.Response.Customers[0]
	return &integration.NormalizedCustomer{
		ExternalID: strconv.FormatInt(c.UserID, 10),
		Name:       c.UserName,
		Email:      c.Email,
		Phone:      c.Phone,
	}, nil
}

// UpsertCustomer implements integration.MarketplaceAdapter. Buyer accounts
// are owned by the platform.
func (a *ShopeeAdapter) UpsertCustomer(ctx context.Context, account integration.AccountContext, customer *integration.NormalizedCustomer) (string, error) {
	return "", integration.NewNotSupportedError(a.Code(), "upsert customer")
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// FetchOrders implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) FetchOrders(ctx context.Context, account integration.AccountContext, since time.Time, page integration.Page) (*integration.Paginated[integration.NormalizedOrder], error) {
	_, size := normalizePage(page, 50)
	query := url.Values{}
	query.Set("create_time_from", strconv.FormatInt(since.Unix(), 10))
	query.Set("page_size", strconv.Itoa(size))
	if page.Cursor != "" {
		query.Set("cursor", page.Cursor)
	}

	var list shopeeOrderList
	if err := a.doRequest(ctx, account, http.MethodGet, "/api/v2/order/get_order_list", query, nil, &list); err != nil {
		return nil, err
	}
	out := &integration.Paginated[integration.NormalizedOrder]{
		Total:      -1,
		HasMore:    list.Response.HasNextPage,
		NextCursor: list.Response.NextCursor,
	}
	for i := range list.Response.Orders {
		out.Items = append(out.Items, list.Response.Orders[i].toNormalized())
	}
	return out, nil
}

// FetchOrder implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) FetchOrder(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedOrder, error) {
	query := url.Values{}
	query.Set("order_sn_list", externalID)

	var detail shopeeOrderDetail
	if err := a.doRequest(ctx, account, http.MethodGet, "/api/v2/order/get_order_detail", query, nil, &detail); err != nil {
		return nil, err
	}
	if len(detail.Response.Orders) == 0 {
		return nil, integration.NewNotFoundError(a.Code(), fmt.Sprintf("order %q not found", externalID))
	}
	normalized := detail.Response.Orders[0].toNormalized()
	return &normalized, nil
}

// ---------------------------------------------------------------------------
// Webhooks
// ---------------------------------------------------------------------------

// CreateWebhook implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) CreateWebhook(ctx context.Context, account integration.AccountContext, callbackURL, topic, secret string) (*integration.WebhookSubscription, error) {
	var cfg shopeePushConfig
	err := a.doRequest(ctx, account, http.MethodPost, "/api/v2/push/set_config", nil, map[string]any{
		"callback_url": callbackURL,
		"push_topic":   topic,
	}, &cfg)
	if err != nil {
		return nil, err
	}
	return &integration.WebhookSubscription{
		ID:     strconv.FormatInt(cfg.Response.ConfigID, 10),
		URL:    callbackURL,
		Topic:  topic,
		Secret: secret,
	}, nil
}

// DeleteWebhook implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) DeleteWebhook(ctx context.Context, account integration.AccountContext, webhookID string) error {
	id, err := strconv.ParseInt(webhookID, 10, 64)
	if err != nil {
		return integration.NewValidationError(a.Code(), fmt.Sprintf("invalid webhook ID %q", webhookID))
	}
	var out shopeeEnvelope
	return a.doRequest(ctx, account, http.MethodPost, "/api/v2/push/delete_config", nil, map[string]any{"config_id": id}, &out)
}

// ValidateWebhookSignature implements integration.MarketplaceAdapter. Shopee
// pushes carry a hex HMAC-SHA256 of the raw body keyed with the push secret.
func (a *ShopeeAdapter) ValidateWebhookSignature(payload []byte, signature, secret string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return integration.ErrWebhookSignatureInvalid
	}
	return nil
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

// RateLimitInfo implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) RateLimitInfo(account integration.AccountContext) integration.RateLimitInfo {
	return a.rates.snapshot(account.AccountID)
}

// WaitForRateLimit implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) WaitForRateLimit(ctx context.Context, account integration.AccountContext) error {
	return a.limiters.wait(ctx, account.AccountID)
}

// NormalizeError implements integration.MarketplaceAdapter.
func (a *ShopeeAdapter) NormalizeError(err error) *integration.AdapterError {
	return integration.AsAdapterError(a.Code(), err)
}
