package handler

import (
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// MarketplaceResponse describes one registered marketplace adapter
// @name HandlerMarketplaceResponse
type MarketplaceResponse struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	CredentialKind string `json:"credential_kind"`
}

// ConnectAccountRequest carries the credential bundle for an account
// @name HandlerConnectAccountRequest
type ConnectAccountRequest struct {
	Credentials integration.CredentialBundle `json:"credentials" binding:"required"`
}

// RegisterWebhookRequest subscribes a callback URL to a marketplace topic
// @name HandlerRegisterWebhookRequest
type RegisterWebhookRequest struct {
	URL    string `json:"url" binding:"required,url"`
	Topic  string `json:"topic" binding:"required"`
	Secret string `json:"secret,omitempty"`
}

// WebhookSubscriptionResponse is the API representation of a registered webhook
// @name HandlerWebhookSubscriptionResponse
type WebhookSubscriptionResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Topic string `json:"topic"`
}

func toWebhookSubscriptionResponse(sub *integration.WebhookSubscription) WebhookSubscriptionResponse {
	return WebhookSubscriptionResponse{
		ID:    sub.ID,
		URL:   sub.URL,
		Topic: sub.Topic,
	}
}
