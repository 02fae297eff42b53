package marketplace

import (
	"bytes"
	"context"
	"crypto/subtle"
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

// MeliAdapter implements the adapter contract for Mercado Livre. Auth is an
// OAuth token pair: access tokens are cached per account and refreshed
// through the stored refresh token, serialized so concurrent workers never
// race a rotation. Pagination is offset based.
type MeliAdapter struct {
	config     *MeliConfig
	httpClient *http.Client
	limiters   *limiterCache
	rates      *rateState
	tokens     *tokenCache
	credStore  integration.CredentialStore
}

var _ integration.MarketplaceAdapter = (*MeliAdapter)(nil)

// NewMeliAdapter creates a Mercado Livre adapter.
func NewMeliAdapter(config *MeliConfig) (*MeliAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &MeliAdapter{
		config:     config,
		httpClient: newHTTPClient(config.TimeoutSeconds),
		limiters:   newLimiterCache(config.RequestsPerSecond, config.Burst),
		rates:      newRateState(),
		tokens:     newTokenCache(),
	}, nil
}

// Code implements integration.MarketplaceAdapter.
func (a *MeliAdapter) Code() integration.MarketplaceCode {
	return integration.MarketplaceMercadoLivre
}

// SetCredentialStore installs the sink for rotated token pairs. Mercado
// Livre rotates the refresh token on every refresh grant; without a sink
// the replacement would be lost and the stored token rejected on the next
// refresh.
func (a *MeliAdapter) SetCredentialStore(store integration.CredentialStore) {
	a.credStore = store
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// ExchangeAuthorizationCode runs the one-time authorization-code exchange
// during connection setup and returns the resulting token pair.
func (a *MeliAdapter) ExchangeAuthorizationCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*integration.OAuthCredential, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	token, err := a.requestToken(ctx, form)
	if err != nil {
		return nil, err
	}
	return &integration.OAuthCredential{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
		UserID:       strconv.FormatInt(token.UserID, 10),
	}, nil
}

// accessToken returns a live access token for the account, refreshing when
// the stored one expired.
func (a *MeliAdapter) accessToken(ctx context.Context, account integration.AccountContext) (string, error) {
	creds := account.Credentials
	if creds == nil || creds.Kind != integration.CredentialKindOAuth || creds.OAuth == nil {
		return "", integration.NewAuthenticationError(a.Code(), "account is not connected with an OAuth token pair", integration.ErrInvalidCredentialKind)
	}
	oauth := creds.OAuth
	return a.tokens.get(ctx, account.AccountID, func(ctx context.Context) (string, time.Time, error) {
		if oauth.AccessToken != "" && time.Now().Add(tokenExpirySkew).Before(oauth.ExpiresAt) {
			return oauth.AccessToken, oauth.ExpiresAt, nil
		}
		form := url.Values{}
		form.Set("grant_type", "refresh_token")
		form.Set("client_id", oauth.ClientID)
		form.Set("client_secret", oauth.ClientSecret)
		form.Set("refresh_token", oauth.RefreshToken)
		token, err := a.requestToken(ctx, form)
		if err != nil {
			return "", time.Time{}, err
		}
		expiresAt := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		oauth.AccessToken = token.AccessToken
		oauth.ExpiresAt = expiresAt
		if token.RefreshToken != "" && token.RefreshToken != oauth.RefreshToken {
			oauth.RefreshToken = token.RefreshToken
			if a.credStore != nil {
				if err := a.credStore.Put(ctx, account.TenantID, account.AccountID, a.Code(), creds); err != nil {
					return "", time.Time{}, integration.NewSyncError(a.Code(), "failed to persist rotated refresh token", err)
				}
			}
		}
		return token.AccessToken, expiresAt, nil
	})
}

func (a *MeliAdapter) requestToken(ctx context.Context, form url.Values) (*meliTokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIBaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, integration.NewSyncError(a.Code(), "failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, integration.NewSyncError(a.Code(), "token endpoint unreachable", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, integration.NewSyncError(a.Code(), "failed to read token response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, integration.NewAuthenticationError(a.Code(), fmt.Sprintf("token exchange rejected with HTTP %d", resp.StatusCode), nil)
	}
	var token meliTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid token response", err)
	}
	return &token, nil
}

// ValidateCredentials implements integration.MarketplaceAdapter.
func (a *MeliAdapter) ValidateCredentials(ctx context.Context, account integration.AccountContext) error {
	_, err := a.doRequest(ctx, account, http.MethodGet, "/users/me", nil, nil)
	return err
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// doRequest performs one authenticated API call with pacing and rate-limit
// observation applied.
func (a *MeliAdapter) doRequest(ctx context.Context, account integration.AccountContext, method, path string, query url.Values, payload any) ([]byte, error) {
	token, err := a.accessToken(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := a.limiters.wait(ctx, account.AccountID); err != nil {
		return nil, integration.NewSyncError(a.Code(), "rate limiter interrupted", err)
	}

	endpoint := a.config.APIBaseURL + path
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
	req.Header.Set("Authorization", "Bearer "+token)
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

// statusError maps an HTTP failure to the adapter error taxonomy.
func (a *MeliAdapter) statusError(account integration.AccountContext, resp *http.Response, body []byte) *integration.AdapterError {
	var apiErr meliErrorResponse
	_ = json.Unmarshal(body, &apiErr)
	message := apiErr.Message
	if message == "" {
		message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		// The cached token may have been revoked server-side.
		a.tokens.invalidate(account.AccountID)
		return integration.NewAuthenticationError(a.Code(), message, nil)
	case http.StatusTooManyRequests:
		return integration.NewRateLimitError(a.Code(), retryAfterFrom(resp, 30*time.Second))
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

// FetchProducts implements integration.MarketplaceAdapter.
func (a *MeliAdapter) FetchProducts(ctx context.Context, account integration.AccountContext, page integration.Page) (*integration.Paginated[integration.NormalizedProduct], error) {
	number, size := normalizePage(page, 50)
	query := url.Values{}
	query.Set("offset", strconv.Itoa((number-1)*size))
	query.Set("limit", strconv.Itoa(size))

	body, err := a.doRequest(ctx, account, http.MethodGet, "/users/me/items", query, nil)
	if err != nil {
		return nil, err
	}
	var list meliItemList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid item list response", err)
	}

	out := &integration.Paginated[integration.NormalizedProduct]{
		Total:   list.Paging.Total,
		HasMore: int64(list.Paging.Offset+len(list.Results)) < list.Paging.Total,
	}
	info := a.rates.snapshot(account.AccountID)
	if info.Limit > 0 {
		out.RateLimit = &info
	}
	for i := range list.Results {
		out.Items = append(out.Items, list.Results[i].toNormalized())
	}
	return out, nil
}

// FetchProduct implements integration.MarketplaceAdapter.
func (a *MeliAdapter) FetchProduct(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedProduct, error) {
	body, err := a.doRequest(ctx, account, http.MethodGet, "/items/"+url.PathEscape(externalID), nil, nil)
	if err != nil {
		return nil, err
	}
	var item meliItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid item response", err)
	}
	normalized := item.toNormalized()
	return &normalized, nil
}

// CreateProduct implements integration.MarketplaceAdapter.
func (a *MeliAdapter) CreateProduct(ctx context.Context, account integration.AccountContext, product *integration.NormalizedProduct) (string, error) {
	body, err := a.doRequest(ctx, account, http.MethodPost, "/items", nil, meliItemFromNormalized(product))
	if err != nil {
		return "", err
	}
	var created meliItem
	if err := json.Unmarshal(body, &created); err != nil {
		return "", integration.NewSyncError(a.Code(), "invalid create response", err)
	}
	return created.ID, nil
}

// UpdateProduct implements integration.MarketplaceAdapter.
func (a *MeliAdapter) UpdateProduct(ctx context.Context, account integration.AccountContext, product *integration.NormalizedProduct) error {
	if product.ExternalID == "" {
		return integration.NewValidationError(a.Code(), "update requires the listing ID")
	}
	_, err := a.doRequest(ctx, account, http.MethodPut, "/items/"+url.PathEscape(product.ExternalID), nil, meliItemFromNormalized(product))
	return err
}

// DeleteProduct implements integration.MarketplaceAdapter. Listings are
// closed rather than hard-deleted; Mercado Livre keeps closed listings
// visible in the seller history.
func (a *MeliAdapter) DeleteProduct(ctx context.Context, account integration.AccountContext, externalID string) error {
	_, err := a.doRequest(ctx, account, http.MethodPut, "/items/"+url.PathEscape(externalID), nil, map[string]any{"status": "closed"})
	return err
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// FetchCategories implements integration.MarketplaceAdapter.
func (a *MeliAdapter) FetchCategories(ctx context.Context, account integration.AccountContext) ([]integration.NormalizedCategory, error) {
	body, err := a.doRequest(ctx, account, http.MethodGet, "/sites/MLB/categories", nil, nil)
	if err != nil {
		return nil, err
	}
	var categories []meliCategory
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid category response", err)
	}
	out := make([]integration.NormalizedCategory, 0, len(categories))
	for _, c := range categories {
		nc := integration.NormalizedCategory{ExternalID: c.ID, Name: c.Name}
		if len(c.Path) > 0 {
			parts := make([]string, len(c.Path))
			for i, p := range c.Path {
				parts[i] = p.Name
			}
			nc.Path = strings.Join(parts, " > ")
			if len(c.Path) > 1 {
				nc.ParentID = c.Path[len(c.Path)-2].ID
			}
		}
		out = append(out, nc)
	}
	return out, nil
}

// FetchCategoryAttributes implements integration.MarketplaceAdapter.
func (a *MeliAdapter) FetchCategoryAttributes(ctx context.Context, account integration.AccountContext, categoryID string) ([]integration.CategoryAttribute, error) {
	body, err := a.doRequest(ctx, account, http.MethodGet, "/categories/"+url.PathEscape(categoryID)+"/attributes", nil, nil)
	if err != nil {
		return nil, err
	}
	var attrs []meliCategoryAttribute
	if err := json.Unmarshal(body, &attrs); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid attribute response", err)
	}
	out := make([]integration.CategoryAttribute, 0, len(attrs))
	for _, attr := range attrs {
		ca := integration.CategoryAttribute{
			ID:       attr.ID,
			Name:     attr.Name,
			Type:     attr.Type,
			Required: attr.Tags["required"],
		}
		for _, v := range attr.Values {
			ca.Values = append(ca.Values, v.Name)
		}
		out = append(out, ca)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Stock and price
// ---------------------------------------------------------------------------

// resolveItemID resolves a seller SKU to its listing ID.
func (a *MeliAdapter) resolveItemID(ctx context.Context, account integration.AccountContext, sku string) (string, error) {
	query := url.Values{}
	query.Set("sku", sku)
	body, err := a.doRequest(ctx, account, http.MethodGet, "/users/me/items/search", query, nil)
	if err != nil {
		return "", err
	}
	var search meliIDSearch
	if err := json.Unmarshal(body, &search); err != nil {
		return "", integration.NewSyncError(a.Code(), "invalid item search response", err)
	}
	if len(search.Results) == 0 {
		return "", integration.NewNotFoundError(a.Code(), fmt.Sprintf("no listing for SKU %q", sku))
	}
	return search.Results[0], nil
}

// UpdateStock implements integration.MarketplaceAdapter.
func (a *MeliAdapter) UpdateStock(ctx context.Context, account integration.AccountContext, updates []integration.StockUpdate) error {
	for _, u := range updates {
		itemID, err := a.resolveItemID(ctx, account, u.SKU)
		if err != nil {
			return err
		}
		if _, err := a.doRequest(ctx, account, http.MethodPut, "/items/"+url.PathEscape(itemID), nil, map[string]any{"available_quantity": u.Quantity}); err != nil {
			return err
		}
	}
	return nil
}

// FetchStock implements integration.MarketplaceAdapter.
func (a *MeliAdapter) FetchStock(ctx context.Context, account integration.AccountContext, skus []string) (map[string]int64, error) {
	out := make(map[string]int64, len(skus))
	for _, sku := range skus {
		itemID, err := a.resolveItemID(ctx, account, sku)
		if err != nil {
			if integration.AsAdapterError(a.Code(), err).Code == integration.ErrCodeNotFound {
				continue
			}
			return nil, err
		}
		product, err := a.FetchProduct(ctx, account, itemID)
		if err != nil {
			return nil, err
		}
		out[sku] = product.Stock
	}
	return out, nil
}

// UpdatePrice implements integration.MarketplaceAdapter.
func (a *MeliAdapter) UpdatePrice(ctx context.Context, account integration.AccountContext, updates []integration.PriceUpdate) error {
	for _, u := range updates {
		itemID, err := a.resolveItemID(ctx, account, u.SKU)
		if err != nil {
			return err
		}
		if _, err := a.doRequest(ctx, account, http.MethodPut, "/items/"+url.PathEscape(itemID), nil, map[string]any{"price": u.Price}); err != nil {
			return err
		}
	}
	return nil
}

// FetchPrices implements integration.MarketplaceAdapter.
func (a *MeliAdapter) FetchPrices(ctx context.Context, account integration.AccountContext, skus []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(skus))
	for _, sku := range skus {
		itemID, err := a.resolveItemID(ctx, account, sku)
		if err != nil {
			if integration.AsAdapterError(a.Code(), err).Code == integration.ErrCodeNotFound {
				continue
			}
			return nil, err
		}
		product, err := a.FetchProduct(ctx, account, itemID)
		if err != nil {
			return nil, err
		}
		out[sku] = product.Price
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// FetchCustomers implements integration.MarketplaceAdapter.
func (a *MeliAdapter) FetchCustomers(ctx context.Context, account integration.AccountContext, page integration.Page) (*integration.Paginated[integration.NormalizedCustomer], error) {
	number, size := normalizePage(page, 50)
	query := url.Values{}
	query.Set("offset", strconv.Itoa((number-1)*size))
	query.Set("limit", strconv.Itoa(size))

	body, err := a.doRequest(ctx, account, http.MethodGet, "/users/me/buyers", query, nil)
	if err != nil {
		return nil, err
	}
	var list meliBuyerList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid buyer list response", err)
	}
	out := &integration.Paginated[integration.NormalizedCustomer]{
		Total:   list.Paging.Total,
		HasMore: int64(list.Paging.Offset+len(list.Results)) < list.Paging.Total,
	}
	for i := range list.Results {
		out.Items = append(out.Items, list.Results[i].toNormalizedCustomer())
	}
	return out, nil
}

// FetchCustomer implements integration.MarketplaceAdapter.
func (a *MeliAdapter) FetchCustomer(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedCustomer, error) {
	body, err := a.doRequest(ctx, account, http.MethodGet, "/users/"+url.PathEscape(externalID), nil, nil)
	if err != nil {
		return nil, err
	}
	var buyer meliBuyer
	if err := json.Unmarshal(body, &buyer); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid user response", err)
	}
	customer := buyer.toNormalizedCustomer()
	return &customer, nil
}

// UpsertCustomer implements integration.MarketplaceAdapter. Buyer accounts
// are owned by the platform and cannot be written from outside.
func (a *MeliAdapter) UpsertCustomer(ctx context.Context, account integration.AccountContext, customer *integration.NormalizedCustomer) (string, error) {
	return "", integration.NewNotSupportedError(a.Code(), "upsert customer")
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// FetchOrders implements integration.MarketplaceAdapter.
func (a *MeliAdapter) FetchOrders(ctx context.Context, account integration.AccountContext, since time.Time, page integration.Page) (*integration.Paginated[integration.NormalizedOrder], error) {
	number, size := normalizePage(page, 50)
	query := url.Values{}
	query.Set("order.date_created.from", since.UTC().Format(time.RFC3339))
	query.Set("offset", strconv.Itoa((number-1)*size))
	query.Set("limit", strconv.Itoa(size))

	body, err := a.doRequest(ctx, account, http.MethodGet, "/orders/search", query, nil)
	if err != nil {
		return nil, err
	}
	var list meliOrderList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid order search response", err)
	}
	out := &integration.Paginated[integration.NormalizedOrder]{
		Total:   list.Paging.Total,
		HasMore: int64(list.Paging.Offset+len(list.Results)) < list.Paging.Total,
	}
	for i := range list.Results {
		out.Items = append(out.Items, list.Results[i].toNormalized())
	}
	return out, nil
}

// FetchOrder implements integration.MarketplaceAdapter.
func (a *MeliAdapter) FetchOrder(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedOrder, error) {
	body, err := a.doRequest(ctx, account, http.MethodGet, "/orders/"+url.PathEscape(externalID), nil, nil)
	if err != nil {
		return nil, err
	}
	var order meliOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid order response", err)
	}
	normalized := order.toNormalized()
	return &normalized, nil
}

// ---------------------------------------------------------------------------
// Webhooks
// ---------------------------------------------------------------------------

// CreateWebhook implements integration.MarketplaceAdapter.
func (a *MeliAdapter) CreateWebhook(ctx context.Context, account integration.AccountContext, callbackURL, topic, secret string) (*integration.WebhookSubscription, error) {
	body, err := a.doRequest(ctx, account, http.MethodPost, "/users/me/webhooks", nil, map[string]string{
		"callback_url": callbackURL,
		"topic":        topic,
	})
	if err != nil {
		return nil, err
	}
	var hook meliWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, integration.NewSyncError(a.Code(), "invalid webhook response", err)
	}
	return &integration.WebhookSubscription{
		ID:     hook.ID,
		URL:    hook.CallbackURL,
		Topic:  hook.Topic,
		Secret: secret,
	}, nil
}

// DeleteWebhook implements integration.MarketplaceAdapter.
func (a *MeliAdapter) DeleteWebhook(ctx context.Context, account integration.AccountContext, webhookID string) error {
	_, err := a.doRequest(ctx, account, http.MethodDelete, "/users/me/webhooks/"+url.PathEscape(webhookID), nil, nil)
	return err
}

// ValidateWebhookSignature implements integration.MarketplaceAdapter.
// Mercado Livre notifications carry a shared verification token rather than
// a payload signature.
func (a *MeliAdapter) ValidateWebhookSignature(payload []byte, signature, secret string) error {
	if subtle.ConstantTimeCompare([]byte(signature), []byte(secret)) != 1 {
		return integration.ErrWebhookSignatureInvalid
	}
	return nil
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

// RateLimitInfo implements integration.MarketplaceAdapter.
func (a *MeliAdapter) RateLimitInfo(account integration.AccountContext) integration.RateLimitInfo {
	return a.rates.snapshot(account.AccountID)
}

// WaitForRateLimit implements integration.MarketplaceAdapter.
func (a *MeliAdapter) WaitForRateLimit(ctx context.Context, account integration.AccountContext) error {
	return a.limiters.wait(ctx, account.AccountID)
}

// NormalizeError implements integration.MarketplaceAdapter.
func (a *MeliAdapter) NormalizeError(err error) *integration.AdapterError {
	return integration.AsAdapterError(a.Code(), err)
}

// normalizePage applies pagination defaults.
func normalizePage(page integration.Page, defaultSize int) (number, size int) {
	number = page.Number
	if number <= 0 {
		number = 1
	}
	size = page.Size
	if size <= 0 {
		size = defaultSize
	}
	return number, size
}
