package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// newAmazonTestAdapter points both the LWA token endpoint and the selling
// partner endpoint at the same fake server.
func newAmazonTestAdapter(t *testing.T, handler http.HandlerFunc) *AmazonAdapter {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := NewAmazonConfig()
	cfg.APIBaseURL = server.URL
	cfg.AuthURL = server.URL + "/auth/o2/token"
	cfg.TimeoutSeconds = 5
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 100

	adapter, err := NewAmazonAdapter(cfg)
	require.NoError(t, err)
	return adapter
}

func amazonAccount() integration.AccountContext {
	return integration.AccountContext{
		TenantID:  uuid.New(),
		AccountID: uuid.New(),
		Credentials: &integration.CredentialBundle{
			Kind: integration.CredentialKindAPIKey,
			APIKey: &integration.APIKeyCredential{
				ClientID:     "amzn-client",
				ClientSecret: "amzn-secret",
				RefreshToken: "lwa-refresh",
				SellerID:     "A2SELLER",
				Region:       "na",
			},
		},
	}
}

func TestAmazonAdapter_RunsLWAGrantBeforeFirstCall(t *testing.T) {
	var tokenCalls atomic.Int32
	adapter := newAmazonTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/o2/token":
			tokenCalls.Add(1)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "lwa-refresh", r.PostForm.Get("refresh_token"))
			assert.Equal(t, "amzn-client", r.PostForm.Get("client_id"))
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "lwa-access", "expires_in": 3600})
		case "/sellers/v1/marketplaceParticipations":
			assert.Equal(t, "lwa-access", r.Header.Get("x-amz-access-token"))
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	account := amazonAccount()
	require.NoError(t, adapter.ValidateCredentials(context.Background(), account))
	require.NoError(t, adapter.ValidateCredentials(context.Background(), account))
	assert.Equal(t, int32(1), tokenCalls.Load(), "access token should be cached across calls")
}

func TestAmazonAdapter_RejectedGrantSurfacesAsAuthError(t *testing.T) {
	adapter := newAmazonTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/o2/token", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	err := adapter.ValidateCredentials(context.Background(), amazonAccount())
	require.Error(t, err)
	assert.False(t, integration.IsRetryable(err))
	assert.Equal(t, integration.ErrCodeAuthentication, integration.AsAdapterError(integration.MarketplaceAmazon, err).Code)
}

func TestAmazonAdapter_RejectsWrongCredentialKind(t *testing.T) {
	adapter := newAmazonTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the platform")
	})

	account := amazonAccount()
	account.Credentials = &integration.CredentialBundle{Kind: integration.CredentialKindBasicAuth}

	err := adapter.ValidateCredentials(context.Background(), account)
	assert.ErrorIs(t, err, integration.ErrInvalidCredentialKind)
}

func TestAmazonAdapter_CustomerOperationsNotSupported(t *testing.T) {
	adapter := newAmazonTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {})
	account := amazonAccount()

	_, err := adapter.FetchCustomers(context.Background(), account, integration.Page{})
	assert.True(t, integration.IsNotSupported(err))

	_, err = adapter.FetchCustomer(context.Background(), account, "buyer-1")
	assert.True(t, integration.IsNotSupported(err))

	_, err = adapter.UpsertCustomer(context.Background(), account, &integration.NormalizedCustomer{})
	assert.True(t, integration.IsNotSupported(err))
}
