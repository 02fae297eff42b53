package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// newMeliTestAdapter spins up a fake API and points the adapter at it. The
// rate limiter is opened wide so tests never sleep.
func newMeliTestAdapter(t *testing.T, handler http.HandlerFunc) *MeliAdapter {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := NewMeliConfig()
	cfg.APIBaseURL = server.URL
	cfg.TimeoutSeconds = 5
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 100

	adapter, err := NewMeliAdapter(cfg)
	require.NoError(t, err)
	return adapter
}

func meliAccount() integration.AccountContext {
	return integration.AccountContext{
		TenantID:  uuid.New(),
		AccountID: uuid.New(),
		Credentials: &integration.CredentialBundle{
			Kind: integration.CredentialKindOAuth,
			OAuth: &integration.OAuthCredential{
				ClientID:     "app-123",
				ClientSecret: "app-secret",
				AccessToken:  "live-token",
				RefreshToken: "refresh-token",
				ExpiresAt:    time.Now().Add(time.Hour),
			},
		},
	}
}

func TestMeliAdapter_FetchProducts(t *testing.T) {
	adapter := newMeliTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/items", r.URL.Path)
		assert.Equal(t, "Bearer live-token", r.Header.Get("Authorization"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"id":                  "MLB100",
					"title":               "Blue Mug",
					"seller_custom_field": "SKU-A",
					"category_id":         "MLB1055",
					"price":               199.9,
					"available_quantity":  7,
					"status":              "active",
					"pictures":            []map[string]any{{"url": "https://img.example/1.jpg"}},
					"attributes":          []map[string]any{{"id": "BRAND", "name": "Brand", "value_name": "Acme"}},
				},
				{
					"id":                  "MLB200",
					"title":               "Red Mug",
					"seller_custom_field": "SKU-B",
					"price":               49.5,
					"available_quantity":  0,
					"status":              "paused",
				},
			},
			"paging": map[string]any{"total": 3, "offset": 0, "limit": 2},
		})
	})

	page, err := adapter.FetchProducts(context.Background(), meliAccount(), integration.Page{Number: 1, Size: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(3), page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 2)

	first := page.Items[0]
	assert.Equal(t, "MLB100", first.ExternalID)
	assert.Equal(t, "SKU-A", first.SKU)
	assert.Equal(t, "Blue Mug", first.Name)
	assert.True(t, first.Price.Equal(decimal.RequireFromString("199.9")))
	assert.Equal(t, int64(7), first.Stock)
	assert.True(t, first.Active)
	assert.Equal(t, []string{"MLB1055"}, first.Categories)
	assert.Equal(t, "Acme", first.Attributes["BRAND"])
	assert.Equal(t, []string{"https://img.example/1.jpg"}, first.Images)

	assert.False(t, page.Items[1].Active)
}

func TestMeliAdapter_CreateProductForwardsIdempotencyKey(t *testing.T) {
	adapter := newMeliTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/items", r.URL.Path)
		assert.Equal(t, "job-7:SKU-A", r.Header.Get("X-Idempotency-Key"))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "MLB900"})
	})

	ctx := integration.WithIdempotencyKey(context.Background(), "job-7:SKU-A")
	externalID, err := adapter.CreateProduct(ctx, meliAccount(), &integration.NormalizedProduct{
		SKU:   "SKU-A",
		Name:  "Blue Mug",
		Price: decimal.RequireFromString("199.90"),
		Stock: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "MLB900", externalID)
}

func TestMeliAdapter_RefreshesExpiredToken(t *testing.T) {
	var tokenCalls atomic.Int32
	adapter := newMeliTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			tokenCalls.Add(1)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "refresh-token", r.PostForm.Get("refresh_token"))
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "fresh-token", "expires_in": 3600})
		case "/users/me":
			assert.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	account := meliAccount()
	account.Credentials.OAuth.AccessToken = ""

	require.NoError(t, adapter.ValidateCredentials(context.Background(), account))
	require.NoError(t, adapter.ValidateCredentials(context.Background(), account))
	assert.Equal(t, int32(1), tokenCalls.Load(), "refreshed token should be cached")
}

// recordingCredentialStore captures Put calls for rotation assertions.
type recordingCredentialStore struct {
	putTenantID  uuid.UUID
	putAccountID uuid.UUID
	putBundle    *integration.CredentialBundle
	putCalls     int
}

func (s *recordingCredentialStore) Get(ctx context.Context, tenantID, accountID uuid.UUID, code integration.MarketplaceCode) (*integration.CredentialBundle, error) {
	return nil, integration.ErrCredentialsNotFound
}

func (s *recordingCredentialStore) Put(ctx context.Context, tenantID, accountID uuid.UUID, code integration.MarketplaceCode, bundle *integration.CredentialBundle) error {
	s.putTenantID = tenantID
	s.putAccountID = accountID
	s.putBundle = bundle
	s.putCalls++
	return nil
}

func (s *recordingCredentialStore) Delete(ctx context.Context, tenantID, accountID uuid.UUID, code integration.MarketplaceCode) error {
	return nil
}

func TestMeliAdapter_PersistsRotatedRefreshToken(t *testing.T) {
	adapter := newMeliTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh-token", r.PostForm.Get("refresh_token"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "fresh-token",
				"refresh_token": "rotated-refresh-token",
				"expires_in":    3600,
			})
		case "/users/me":
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	store := &recordingCredentialStore{}
	adapter.SetCredentialStore(store)

	account := meliAccount()
	account.Credentials.OAuth.AccessToken = ""

	require.NoError(t, adapter.ValidateCredentials(context.Background(), account))

	require.Equal(t, 1, store.putCalls)
	assert.Equal(t, account.TenantID, store.putTenantID)
	assert.Equal(t, account.AccountID, store.putAccountID)
	require.NotNil(t, store.putBundle)
	require.NotNil(t, store.putBundle.OAuth)
	assert.Equal(t, "rotated-refresh-token", store.putBundle.OAuth.RefreshToken)
	assert.Equal(t, "fresh-token", store.putBundle.OAuth.AccessToken)
}

func TestMeliAdapter_RejectsWrongCredentialKind(t *testing.T) {
	adapter := newMeliTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the platform")
	})

	account := meliAccount()
	account.Credentials = &integration.CredentialBundle{
		Kind: integration.CredentialKindHmac,
		Hmac: &integration.HmacCredential{PartnerID: "p", PartnerKey: "k"},
	}

	_, err := adapter.FetchProduct(context.Background(), account, "MLB1")
	assert.ErrorIs(t, err, integration.ErrInvalidCredentialKind)
}

func TestMeliAdapter_StatusErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  integration.ErrorCode
		retryable bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantCode: integration.ErrCodeAuthentication},
		{name: "throttled", status: http.StatusTooManyRequests, wantCode: integration.ErrCodeRateLimit, retryable: true},
		{name: "missing listing", status: http.StatusNotFound, wantCode: integration.ErrCodeNotFound},
		{name: "rejected payload", status: http.StatusBadRequest, wantCode: integration.ErrCodeValidation},
		{name: "server failure", status: http.StatusInternalServerError, wantCode: integration.ErrCodeSync, retryable: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newMeliTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.status == http.StatusTooManyRequests {
					w.Header().Set("Retry-After", "7")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"platform said no"}`))
			})

			_, err := adapter.FetchProduct(context.Background(), meliAccount(), "MLB1")
			require.Error(t, err)

			var adapterErr *integration.AdapterError
			require.True(t, errors.As(err, &adapterErr))
			assert.Equal(t, tt.wantCode, adapterErr.Code)
			assert.Equal(t, tt.retryable, adapterErr.Retryable)
			assert.Equal(t, integration.MarketplaceMercadoLivre, adapterErr.Marketplace)
			if tt.status == http.StatusTooManyRequests {
				assert.Equal(t, 7*time.Second, adapterErr.RetryAfter)
			}
		})
	}
}

func TestMeliAdapter_UpdateStock(t *testing.T) {
	var gotQuantity atomic.Value
	adapter := newMeliTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/me/items/search":
			assert.Equal(t, "SKU-A", r.URL.Query().Get("sku"))
			_ = json.NewEncoder(w).Encode(map[string]any{"results": []string{"MLB100"}})
		case r.URL.Path == "/items/MLB100" && r.Method == http.MethodPut:
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			gotQuantity.Store(payload["available_quantity"])
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	})

	err := adapter.UpdateStock(context.Background(), meliAccount(), []integration.StockUpdate{{SKU: "SKU-A", Quantity: 7}})
	require.NoError(t, err)
	assert.Equal(t, float64(7), gotQuantity.Load())
}

func TestMeliAdapter_UpdateStockUnknownSKU(t *testing.T) {
	adapter := newMeliTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []string{}})
	})

	err := adapter.UpdateStock(context.Background(), meliAccount(), []integration.StockUpdate{{SKU: "GHOST", Quantity: 1}})
	require.Error(t, err)

	var adapterErr *integration.AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, integration.ErrCodeNotFound, adapterErr.Code)
}

func TestMeliAdapter_ObservesRateLimitHeaders(t *testing.T) {
	adapter := newMeliTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "100")
		w.Header().Set("X-RateLimit-Remaining", "3")
		_, _ = w.Write([]byte(`{"id":"MLB1","title":"x"}`))
	})

	account := meliAccount()
	_, err := adapter.FetchProduct(context.Background(), account, "MLB1")
	require.NoError(t, err)

	info := adapter.RateLimitInfo(account)
	assert.Equal(t, 100, info.Limit)
	assert.Equal(t, 3, info.Remaining)
}

func TestMeliAdapter_UpsertCustomerNotSupported(t *testing.T) {
	adapter := newMeliTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := adapter.UpsertCustomer(context.Background(), meliAccount(), &integration.NormalizedCustomer{})
	assert.True(t, integration.IsNotSupported(err))
}
