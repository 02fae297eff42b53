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

const amazonDetailsBatchSize = 20

// AmazonAdapter implements the adapter contract for Amazon. Auth is the LWA
// client pair with a long-lived refresh token: short-lived access tokens are
// cached per account and refreshed through the token endpoint. Listing
// fetches run in two phases, a SKU page followed by a bulk details call.
// Buyer data is not exposed by the platform, so customer operations return a
// not-supported error.
type AmazonAdapter struct {
	config     *AmazonConfig
	httpClient *http.Client
	limiters   *limiterCache
	rates      *rateState
	tokens     *tokenCache
}

var _ integration.MarketplaceAdapter = (*AmazonAdapter)(nil)

// NewAmazonAdapter creates an Amazon adapter.
func NewAmazonAdapter(config *AmazonConfig) (*AmazonAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &AmazonAdapter{
		config:     config,
		httpClient: newHTTPClient(config.TimeoutSeconds),
		limiters:   newLimiterCache(config.RequestsPerSecond, config.Burst),
		rates:      newRateState(),
		tokens:     newTokenCache(),
	}, nil
}

// Code implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) Code() integration.MarketplaceCode {
	return integration.MarketplaceAmazon
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

func (a *AmazonAdapter) apiCredentials(account integration.AccountContext) (*integration.APIKeyCredential, error) {
	creds := account.Credentials
	if creds == nil || creds.Kind != integration.CredentialKindAPIKey || creds.APIKey == nil {
		return nil, integration.NewAuthenticationError(a.Code(), "account is not connected with an LWA client pair", integration.ErrInvalidCredentialKind)
	}
	return creds.APIKey, nil
}

// accessToken returns a live access token for the account, running the LWA
// refresh-token grant when the cached one expired.
func (a *AmazonAdapter) accessToken(ctx context.Context, account integration.AccountContext, creds *integration.APIKeyCredential) (string, error) {
	return a.tokens.get(ctx, account.AccountID, func(ctx context.Context) (string, time.Time, error) {
		form := url.Values{}
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", creds.RefreshToken)
		form.Set("client_id", creds.ClientID)
		form.Set("client_secret", creds.ClientSecret)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.AuthURL, strings.NewReader(form.Encode()))
		if err != nil {
			return "", time.Time{}, integration.NewSyncError(a.Code(), "failed to build token request", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return "", time.Time{}, integration.NewSyncError(a.Code(), "token endpoint unreachable", err)
		}
		defer resp.Body.Close()

		body, err := readBody(resp)
		if err != nil {
			return "", time.Time{}, integration.NewSyncError(a.Code(), "failed to read token response", err)
		}
		if resp.StatusCode != http.StatusOK {
			return "", time.Time{}, integration.NewAuthenticationError(a.Code(), fmt.Sprintf("token grant rejected with HTTP %d", resp.StatusCode), nil)
		}
		var token amazonTokenResponse
		if err := json.Unmarshal(body, &token); err != nil {
			return "", time.Time{}, integration.NewSyncError(a.Code(), "invalid token response", err)
		}
		return token.AccessToken, time.Now().Add(time.Duration(token.ExpiresIn) * time.Second), nil
	})
}

// ValidateCredentials implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) ValidateCredentials(ctx context.Context, account integration.AccountContext) error {
	_, err := a.doRequest(ctx, account, http.MethodGet, "/sellers/v1/marketplaceParticipations", nil, nil)
	return err
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (a *AmazonAdapter) doRequest(ctx context.Context, account integration.AccountContext, method, path string, query url.Values, payload any) ([]byte, error) {
	creds, err := a.apiCredentials(account)
	if err != nil {
		return nil, err
	}
	token, err := a.accessToken(ctx, account, creds)
	if err != nil {
		return nil, err
	}
	if err := a.limiters.wait(ctx, account.AccountID); err != nil {
		return nil, integration.NewSyncError(a.Code(), "rate limiter interrupted", err)
	}

	endpoint := a.config.endpointFor(creds.Region) + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, integration.NewSyncError(a.Code(), "failed to encode request payload", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, integration.NewSyncError(a.Code(), "failed to build request", err)
	}
	req.Header.Set("x-amz-access-token", token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setIdempotencyKey(ctx, req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, integration.NewSyncError(a.Code(), "platform unreachable", err)
	}
	defer resp.Body.Close()
	a.rates.observe(account.AccountID, resp)

	respBody, err := readBody(resp)
	if err != nil {
		return nil, integration.NewSyncError(a.Code(), "failed to read response", err)
	}
	if resp.StatusCode >= 400 {
		return nil, a.statusError(account, resp, respBody)
	}
	return respBody, nil
}

func (a *AmazonAdapter) statusError(account integration.AccountContext, resp *http.Response, body []byte) *integration.AdapterError {
	var apiErr amazonErrorResponse
	_ = json.Unmarshal(body, &apiErr)
	message := apiErr.message()
	if message == "" {
		message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		a.tokens.invalidate(account.AccountID)
		return integration.NewAuthenticationError(a.Code(), message, nil)
	case http.StatusTooManyRequests:
		return integration.NewRateLimitError(a.Code(), retryAfterFrom(resp, 60*time.Second))
	case http.StatusNotFound:
		return integration.NewNotFoundError(a.Code(), message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return integration.NewValidationError(a.Code(), message)
	default:
		return integration.NewSyncError(a.Code(), message, nil)
	}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// fetchSKUPage fetches one page of listed seller SKUs. The token in
// Page.Cursor continues a previous page.
func (a *AmazonAdapter) fetchSKUPage(ctx context.Context, account integration.AccountContext, creds *integration.APIKeyCredential, page integration.Page) (*amazonSKUPage, error) {
	_, size := normalizePage(page, amazonDetailsBatchSize)
	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(size))
	if page.Cursor != "" {
		query.Set("pageToken", page.Cursor)
	}

	body, err := a.doRequest(ctx, account, http.MethodGet, "/listings/2021-08-01/items/"+url.PathEscape(creds.SellerID), query, nil)
	if err != nil {
		return nil, err
	}
	var skuPage amazonSKUPage
	if err := json.Unmarshal(body, &skuPage); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid listing page response", err)
	}
	return &skuPage, nil
}

// fetchDetails resolves a SKU batch into full listing items.
func (a *AmazonAdapter) fetchDetails(ctx context.Context, account integration.AccountContext, creds *integration.APIKeyCredential, skus []string) ([]amazonListing, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	payload := map[string]any{"skus": skus}
	body, err := a.doRequest(ctx, account, http.MethodPost, "/listings/2021-08-01/items/"+url.PathEscape(creds.SellerID)+"/search", nil, payload)
	if err != nil {
		return nil, err
	}
	var batch amazonListingBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid listing details response", err)
	}
	return batch.Items, nil
}

// FetchProducts implements integration.MarketplaceAdapter. The platform
// paginates in two phases: a page of SKUs first, then a bulk details call
// for that page.
func (a *AmazonAdapter) FetchProducts(ctx context.Context, account integration.AccountContext, page integration.Page) (*integration.Paginated[integration.NormalizedProduct], error) {
	creds, err := a.apiCredentials(account)
	if err != nil {
		return nil, err
	}
	skuPage, err := a.fetchSKUPage(ctx, account, creds, page)
	if err != nil {
		return nil, err
	}
	items, err := a.fetchDetails(ctx, account, creds, skuPage.SKUs)
	if err != nil {
		return nil, err
	}

	out := &integration.Paginated[integration.NormalizedProduct]{
		Total:      skuPage.TotalCount,
		HasMore:    skuPage.NextToken != "",
		NextCursor: skuPage.NextToken,
	}
	if out.Total == 0 && out.HasMore {
		out.Total = -1
	}
	info := a.rates.snapshot(account.AccountID)
	if info.Limit > 0 {
		out.RateLimit = &info
	}
	for i := range items {
		out.Items = append(out.Items, items[i].toNormalized())
	}
	return out, nil
}

// FetchProduct implements integration.MarketplaceAdapter. Listings are keyed
// by seller SKU, so the external ID is the SKU itself.
func (a *AmazonAdapter) FetchProduct(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedProduct, error) {
	creds, err := a.apiCredentials(account)
	if err != nil {
		return nil, err
	}
	body, err := a.doRequest(ctx, account, http.MethodGet, a.listingPath(creds, externalID), nil, nil)
	if err != nil {
		return nil, err
	}
	var listing amazonListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid listing response", err)
	}
	normalized := listing.toNormalized()
	return &normalized, nil
}

// CreateProduct implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) CreateProduct(ctx context.Context, account integration.AccountContext, product *integration.NormalizedProduct) (string, error) {
	creds, err := a.apiCredentials(account)
	if err != nil {
		return "", err
	}
	if product.SKU == "" {
		return "", integration.NewValidationError(a.Code(), "listings require a seller SKU")
	}
	body, err := a.doRequest(ctx, account, http.MethodPut, a.listingPath(creds, product.SKU), nil, amazonListingFromNormalized(product))
	if err != nil {
		return "", err
	}
	var submission amazonListingSubmission
	if err := json.Unmarshal(body, &submission); err != nil {
		return "", integration.NewSyncError(a.Code(), "invalid submission response", err)
	}
	if submission.SKU != "" {
		return submission.SKU, nil
	}
	return product.SKU, nil
}

// UpdateProduct implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) UpdateProduct(ctx context.Context, account integration.AccountContext, product *integration.NormalizedProduct) error {
	creds, err := a.apiCredentials(account)
	if err != nil {
		return err
	}
	sku := product.ExternalID
	if sku == "" {
		sku = product.SKU
	}
	if sku == "" {
		return integration.NewValidationError(a.Code(), "listings require a seller SKU")
	}
	_, err = a.doRequest(ctx, account, http.MethodPut, a.listingPath(creds, sku), nil, amazonListingFromNormalized(product))
	return err
}

// DeleteProduct implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) DeleteProduct(ctx context.Context, account integration.AccountContext, externalID string) error {
	creds, err := a.apiCredentials(account)
	if err != nil {
		return err
	}
	_, err = a.doRequest(ctx, account, http.MethodDelete, a.listingPath(creds, externalID), nil, nil)
	return err
}

func (a *AmazonAdapter) listingPath(creds *integration.APIKeyCredential, sku string) string {
	return "/listings/2021-08-01/items/" + url.PathEscape(creds.SellerID) + "/" + url.PathEscape(sku)
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// FetchCategories implements integration.MarketplaceAdapter. The platform's
// closest notion of a category tree is the product type registry.
func (a *AmazonAdapter) FetchCategories(ctx context.Context, account integration.AccountContext) ([]integration.NormalizedCategory, error) {
	body, err := a.doRequest(ctx, account, http.MethodGet, "/definitions/2020-09-01/productTypes", nil, nil)
	if err != nil {
		return nil, err
	}
	var list amazonProductTypeList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid product type response", err)
	}
	out := make([]integration.NormalizedCategory, 0, len(list.ProductTypes))
	for _, pt := range list.ProductTypes {
		out = append(out, integration.NormalizedCategory{
			ExternalID: pt.Name,
			Name:       pt.DisplayName,
			Path:       pt.DisplayName,
		})
	}
	return out, nil
}

// FetchCategoryAttributes implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) FetchCategoryAttributes(ctx context.Context, account integration.AccountContext, categoryID string) ([]integration.CategoryAttribute, error) {
	body, err := a.doRequest(ctx, account, http.MethodGet, "/definitions/2020-09-01/productTypes/"+url.PathEscape(categoryID), nil, nil)
	if err != nil {
		return nil, err
	}
	var def amazonProductTypeDefinition
	if err := json.Unmarshal(body, &def); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid product type definition", err)
	}
	out := make([]integration.CategoryAttribute, 0, len(def.Attributes))
	for _, attr := range def.Attributes {
		out = append(out, integration.CategoryAttribute{
			ID:       attr.Name,
			Name:     attr.Title,
			Type:     attr.Type,
			Required: attr.Required,
			Values:   attr.Enum,
		})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Stock and price
// ---------------------------------------------------------------------------

// UpdateStock implements integration.MarketplaceAdapter. Listings are
// patched one SKU at a time.
func (a *AmazonAdapter) UpdateStock(ctx context.Context, account integration.AccountContext, updates []integration.StockUpdate) error {
	creds, err := a.apiCredentials(account)
	if err != nil {
		return err
	}
	for _, update := range updates {
		patch := amazonPatchRequest{
			ProductType: "PRODUCT",
			Patches: []amazonPatch{{
				Op:    "replace",
				Path:  "/attributes/fulfillment_availability",
				Value: []map[string]any{{"quantity": update.Quantity}},
			}},
		}
		if _, err := a.doRequest(ctx, account, http.MethodPatch, a.listingPath(creds, update.SKU), nil, patch); err != nil {
			return err
		}
	}
	return nil
}

// FetchStock implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) FetchStock(ctx context.Context, account integration.AccountContext, skus []string) (map[string]int64, error) {
	creds, err := a.apiCredentials(account)
	if err != nil {
		return nil, err
	}
	items, err := a.fetchDetails(ctx, account, creds, skus)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(items))
	for _, item := range items {
		out[item.SKU] = item.Quantity
	}
	return out, nil
}

// UpdatePrice implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) UpdatePrice(ctx context.Context, account integration.AccountContext, updates []integration.PriceUpdate) error {
	creds, err := a.apiCredentials(account)
	if err != nil {
		return err
	}
	for _, update := range updates {
		patch := amazonPatchRequest{
			ProductType: "PRODUCT",
			Patches: []amazonPatch{{
				Op:    "replace",
				Path:  "/attributes/purchasable_offer",
				Value: []map[string]any{{"our_price": update.Price.StringFixed(2), "currency": "BRL"}},
			}},
		}
		if _, err := a.doRequest(ctx, account, http.MethodPatch, a.listingPath(creds, update.SKU), nil, patch); err != nil {
			return err
		}
	}
	return nil
}

// FetchPrices implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) FetchPrices(ctx context.Context, account integration.AccountContext, skus []string) (map[string]decimal.Decimal, error) {
	creds, err := a.apiCredentials(account)
	if err != nil {
		return nil, err
	}
	items, err := a.fetchDetails(ctx, account, creds, skus)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(items))
	for _, item := range items {
		out[item.SKU] = item.Price.Amount
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// FetchCustomers implements integration.MarketplaceAdapter. The platform
// does not expose buyer accounts to sellers.
func (a *AmazonAdapter) FetchCustomers(ctx context.Context, account integration.AccountContext, page integration.Page) (*integration.Paginated[integration.NormalizedCustomer], error) {
	return nil, integration.NewNotSupportedError(a.Code(), "fetch customers")
}

// FetchCustomer implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) FetchCustomer(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedCustomer, error) {
	return nil, integration.NewNotSupportedError(a.Code(), "fetch customer")
}

// UpsertCustomer implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) UpsertCustomer(ctx context.Context, account integration.AccountContext, customer *integration.NormalizedCustomer) (string, error) {
	return "", integration.NewNotSupportedError(a.Code(), "upsert customer")
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// FetchOrders implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) FetchOrders(ctx context.Context, account integration.AccountContext, since time.Time, page integration.Page) (*integration.Paginated[integration.NormalizedOrder], error) {
	query := url.Values{}
	query.Set("CreatedAfter", since.UTC().Format(time.RFC3339))
	if page.Cursor != "" {
		query.Set("NextToken", page.Cursor)
	}

	body, err := a.doRequest(ctx, account, http.MethodGet, "/orders/v0/orders", query, nil)
	if err != nil {
		return nil, err
	}
	var list amazonOrderList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid order list response", err)
	}

	out := &integration.Paginated[integration.NormalizedOrder]{
		Total:      -1,
		HasMore:    list.Payload.NextToken != "",
		NextCursor: list.Payload.NextToken,
	}
	for i := range list.Payload.Orders {
		items, err := a.fetchOrderItems(ctx, account, list.Payload.Orders[i].AmazonOrderID)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, list.Payload.Orders[i].toNormalized(items))
	}
	return out, nil
}

// FetchOrder implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) FetchOrder(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedOrder, error) {
	body, err := a.doRequest(ctx, account, http.MethodGet, "/orders/v0/orders/"+url.PathEscape(externalID), nil, nil)
	if err != nil {
		return nil, err
	}
	var resp amazonOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid order response", err)
	}
	items, err := a.fetchOrderItems(ctx, account, externalID)
	if err != nil {
		return nil, err
	}
	order := resp.Payload.toNormalized(items)
	return &order, nil
}

func (a *AmazonAdapter) fetchOrderItems(ctx context.Context, account integration.AccountContext, orderID string) ([]amazonOrderItem, error) {
	body, err := a.doRequest(ctx, account, http.MethodGet, "/orders/v0/orders/"+url.PathEscape(orderID)+"/orderItems", nil, nil)
	if err != nil {
		return nil, err
	}
	var list amazonOrderItemList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid order item response", err)
	}
	return list.Payload.OrderItems, nil
}

// ---------------------------------------------------------------------------
// Webhooks
// ---------------------------------------------------------------------------

// CreateWebhook implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) CreateWebhook(ctx context.Context, account integration.AccountContext, callbackURL, topic, secret string) (*integration.WebhookSubscription, error) {
	payload := map[string]any{
		"payloadVersion": "1.0",
		"destination":    map[string]string{"url": callbackURL},
	}
	body, err := a.doRequest(ctx, account, http.MethodPost, "/notifications/v1/subscriptions/"+url.PathEscape(topic), nil, payload)
	if err != nil {
		return nil, err
	}
	var sub amazonSubscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid subscription response", err)
	}
	return &integration.WebhookSubscription{
		ID:     sub.Payload.SubscriptionID,
		URL:    callbackURL,
		Topic:  topic,
		Secret: secret,
	}, nil
}

// DeleteWebhook implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) DeleteWebhook(ctx context.Context, account integration.AccountContext, webhookID string) error {
	_, err := a.doRequest(ctx, account, http.MethodDelete, "/notifications/v1/subscriptions/"+url.PathEscape(webhookID), nil, nil)
	return err
}

// ValidateWebhookSignature implements integration.MarketplaceAdapter.
// Notifications are signed with a hex-encoded HMAC-SHA256 of the raw body.
func (a *AmazonAdapter) ValidateWebhookSignature(payload []byte, signature, secret string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return integration.NewAuthenticationError(a.Code(), "webhook signature mismatch", nil)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

// RateLimitInfo implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) RateLimitInfo(account integration.AccountContext) integration.RateLimitInfo {
	return a.rates.snapshot(account.AccountID)
}

// WaitForRateLimit implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) WaitForRateLimit(ctx context.Context, account integration.AccountContext) error {
	return a.limiters.wait(ctx, account.AccountID)
}

// NormalizeError implements integration.MarketplaceAdapter.
func (a *AmazonAdapter) NormalizeError(err error) *integration.AdapterError {
	return integration.AsAdapterError(a.Code(), err)
}
