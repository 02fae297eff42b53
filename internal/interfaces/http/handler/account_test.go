package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appintegration "github.com/furlanettoeduardo/ERP-PRS-sub000/internal/application/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/marketplace"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/interfaces/http/dto"
)

type accountHandlerFixture struct {
	store    *mockCredentialStore
	router   *gin.Engine
	tenantID uuid.UUID
}

// newAccountHandlerFixture wires the handler to a real Mercado Livre adapter
// pointed at a fake marketplace API, since connect and webhook registration
// call the platform live.
func newAccountHandlerFixture(t *testing.T, apiHandler http.Handler) *accountHandlerFixture {
	server := httptest.NewServer(apiHandler)
	t.Cleanup(server.Close)

	cfg := marketplace.NewMeliConfig()
	cfg.APIBaseURL = server.URL
	cfg.TimeoutSeconds = 5
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 100
	meli, err := marketplace.NewMeliAdapter(cfg)
	require.NoError(t, err)

	f := &accountHandlerFixture{
		store:    new(mockCredentialStore),
		tenantID: uuid.New(),
	}

	registry := marketplace.NewRegistry(meli)
	service := appintegration.NewAccountService(f.store, registry, zap.NewNop())
	h := NewAccountHandler(service, registry)

	f.router = gin.New()
	f.router.GET("/marketplaces", h.ListMarketplaces)
	f.router.PUT("/marketplaces/:code/accounts/:accountId/credentials", h.Connect)
	f.router.POST("/marketplaces/:code/accounts/:accountId/credentials/validate", h.Validate)
	f.router.DELETE("/marketplaces/:code/accounts/:accountId/credentials", h.Disconnect)
	f.router.POST("/marketplaces/:code/accounts/:accountId/webhooks", h.RegisterWebhook)
	f.router.DELETE("/marketplaces/:code/accounts/:accountId/webhooks/:webhookId", h.RemoveWebhook)
	return f
}

func (f *accountHandlerFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", f.tenantID.String())

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func liveOAuthBundle() *integration.CredentialBundle {
	return &integration.CredentialBundle{
		Kind: integration.CredentialKindOAuth,
		OAuth: &integration.OAuthCredential{
			ClientID:     "app-123",
			ClientSecret: "secret",
			AccessToken:  "live-token",
			RefreshToken: "refresh-token",
			ExpiresAt:    time.Now().Add(time.Hour),
		},
	}
}

func TestAccountHandler_ListMarketplaces(t *testing.T) {
	f := newAccountHandlerFixture(t, http.NotFoundHandler())

	w := f.do(http.MethodGet, "/marketplaces", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	items := resp.Data.([]any)
	require.Len(t, items, 1)

	item := items[0].(map[string]any)
	assert.Equal(t, "MELI", item["code"])
	assert.Equal(t, "Mercado Livre", item["name"])
	assert.Equal(t, "OAUTH", item["credential_kind"])
}

func TestAccountHandler_Connect(t *testing.T) {
	t.Run("verifies against the platform then stores the bundle", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer live-token", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": 123, "nickname": "SELLER"}`))
		})
		f := newAccountHandlerFixture(t, mux)
		accountID := uuid.New()

		f.store.On("Put", mock.Anything, f.tenantID, accountID, integration.MarketplaceMercadoLivre,
			mock.AnythingOfType("*integration.CredentialBundle")).Return(nil)

		w := f.do(http.MethodPut, "/marketplaces/MELI/accounts/"+accountID.String()+"/credentials",
			map[string]any{"credentials": liveOAuthBundle()})

		assert.Equal(t, http.StatusNoContent, w.Code)
		f.store.AssertExpectations(t)
	})

	t.Run("rejected credentials are never stored", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "invalid token"}`))
		})
		f := newAccountHandlerFixture(t, mux)
		accountID := uuid.New()

		w := f.do(http.MethodPut, "/marketplaces/MELI/accounts/"+accountID.String()+"/credentials",
			map[string]any{"credentials": liveOAuthBundle()})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeMarketplaceAuth, resp.Error.Code)
		f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a bundle of the wrong kind without an API call", func(t *testing.T) {
		f := newAccountHandlerFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("the marketplace API should not be called")
		}))
		accountID := uuid.New()

		bundle := &integration.CredentialBundle{
			Kind: integration.CredentialKindHmac,
			Hmac: &integration.HmacCredential{PartnerID: "2000001", PartnerKey: "partner-key"},
		}
		w := f.do(http.MethodPut, "/marketplaces/MELI/accounts/"+accountID.String()+"/credentials",
			map[string]any{"credentials": bundle})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
	})

	t.Run("rejects an unknown marketplace", func(t *testing.T) {
		f := newAccountHandlerFixture(t, http.NotFoundHandler())

		w := f.do(http.MethodPut, "/marketplaces/EBAY/accounts/"+uuid.New().String()+"/credentials",
			map[string]any{"credentials": liveOAuthBundle()})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAccountHandler_Validate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 123}`))
	})
	f := newAccountHandlerFixture(t, mux)
	accountID := uuid.New()

	f.store.On("Get", mock.Anything, f.tenantID, accountID, integration.MarketplaceMercadoLivre).
		Return(liveOAuthBundle(), nil)

	w := f.do(http.MethodPost, "/marketplaces/MELI/accounts/"+accountID.String()+"/credentials/validate", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	f.store.AssertExpectations(t)
}

func TestAccountHandler_ValidateWithoutStoredCredentials(t *testing.T) {
	f := newAccountHandlerFixture(t, http.NotFoundHandler())
	accountID := uuid.New()

	f.store.On("Get", mock.Anything, f.tenantID, accountID, integration.MarketplaceMercadoLivre).
		Return(nil, integration.ErrCredentialsNotFound)

	w := f.do(http.MethodPost, "/marketplaces/MELI/accounts/"+accountID.String()+"/credentials/validate", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestAccountHandler_Disconnect(t *testing.T) {
	f := newAccountHandlerFixture(t, http.NotFoundHandler())
	accountID := uuid.New()

	f.store.On("Delete", mock.Anything, f.tenantID, accountID, integration.MarketplaceMercadoLivre).Return(nil)

	w := f.do(http.MethodDelete, "/marketplaces/MELI/accounts/"+accountID.String()+"/credentials", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	f.store.AssertExpectations(t)
}

func TestAccountHandler_RegisterWebhook(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/webhooks", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://erp.example.com/webhooks/meli", body["callback_url"])
		assert.Equal(t, "items", body["topic"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "wh-1", "callback_url": "https://erp.example.com/webhooks/meli", "topic": "items"}`))
	})
	f := newAccountHandlerFixture(t, mux)
	accountID := uuid.New()

	f.store.On("Get", mock.Anything, f.tenantID, accountID, integration.MarketplaceMercadoLivre).
		Return(liveOAuthBundle(), nil)

	w := f.do(http.MethodPost, "/marketplaces/MELI/accounts/"+accountID.String()+"/webhooks", map[string]any{
		"url":    "https://erp.example.com/webhooks/meli",
		"topic":  "items",
		"secret": "push-secret",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "wh-1", data["id"])
	assert.Equal(t, "items", data["topic"])
}

func TestAccountHandler_RemoveWebhook(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/webhooks/wh-1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.Write([]byte(`{}`))
	})
	f := newAccountHandlerFixture(t, mux)
	accountID := uuid.New()

	f.store.On("Get", mock.Anything, f.tenantID, accountID, integration.MarketplaceMercadoLivre).
		Return(liveOAuthBundle(), nil)

	w := f.do(http.MethodDelete, "/marketplaces/MELI/accounts/"+accountID.String()+"/webhooks/wh-1", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
