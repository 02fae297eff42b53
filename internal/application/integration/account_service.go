package integration

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// AccountService owns the connect/validate/disconnect lifecycle of a
// marketplace account and its webhook subscriptions. Credential bundles are
// stored encrypted by the CredentialStore collaborator; only decrypted
// bundles flow through here.
type AccountService struct {
	store    integration.CredentialStore
	registry integration.AdapterRegistry
	logger   *zap.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	store integration.CredentialStore,
	registry integration.AdapterRegistry,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		store:    store,
		registry: registry,
		logger:   logger,
	}
}

// Connect stores a credential bundle for an account and verifies it against
// the live marketplace API. A bundle whose kind does not match the
// marketplace is rejected before anything is stored.
func (s *AccountService) Connect(
	ctx context.Context,
	tenantID, accountID uuid.UUID,
	code integration.MarketplaceCode,
	bundle *integration.CredentialBundle,
) error {
	adapter, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	if bundle.Kind != integration.ExpectedCredentialKind(code) {
		return integration.ErrInvalidCredentialKind
	}
	if err := bundle.Validate(); err != nil {
		return err
	}

	account := integration.AccountContext{
		TenantID:    tenantID,
		AccountID:   accountID,
		Credentials: bundle,
	}
	if err := adapter.ValidateCredentials(ctx, account); err != nil {
		return err
	}

	if err := s.store.Put(ctx, tenantID, accountID, code, bundle); err != nil {
		return err
	}

	s.logger.Info("Marketplace account connected",
		zap.String("marketplace", string(code)),
		zap.String("account_id", accountID.String()),
	)
	return nil
}

// Validate re-checks the stored credentials of a connected account against
// the live API without modifying anything.
func (s *AccountService) Validate(
	ctx context.Context,
	tenantID, accountID uuid.UUID,
	code integration.MarketplaceCode,
) error {
	adapter, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	bundle, err := s.store.Get(ctx, tenantID, accountID, code)
	if err != nil {
		return err
	}
	return adapter.ValidateCredentials(ctx, integration.AccountContext{
		TenantID:    tenantID,
		AccountID:   accountID,
		Credentials: bundle,
	})
}

// Disconnect removes the stored credentials, severing the account's link to
// the marketplace. Jobs already enqueued for the account will fail with
// ErrCredentialsNotFound when they run.
func (s *AccountService) Disconnect(
	ctx context.Context,
	tenantID, accountID uuid.UUID,
	code integration.MarketplaceCode,
) error {
	if _, err := s.registry.Get(code); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, tenantID, accountID, code); err != nil {
		return err
	}
	s.logger.Info("Marketplace account disconnected",
		zap.String("marketplace", string(code)),
		zap.String("account_id", accountID.String()),
	)
	return nil
}

// RegisterWebhook subscribes the given callback URL to a topic on the
// marketplace, signing deliveries with secret.
func (s *AccountService) RegisterWebhook(
	ctx context.Context,
	tenantID, accountID uuid.UUID,
	code integration.MarketplaceCode,
	url, topic, secret string,
) (*integration.WebhookSubscription, error) {
	adapter, err := s.registry.Get(code)
	if err != nil {
		return nil, err
	}
	bundle, err := s.store.Get(ctx, tenantID, accountID, code)
	if err != nil {
		return nil, err
	}
	account := integration.AccountContext{
		TenantID:    tenantID,
		AccountID:   accountID,
		Credentials: bundle,
	}
	sub, err := adapter.CreateWebhook(ctx, account, url, topic, secret)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Webhook registered",
		zap.String("marketplace", string(code)),
		zap.String("topic", topic),
		zap.String("webhook_id", sub.ID),
	)
	return sub, nil
}

// RemoveWebhook deletes a webhook subscription from the marketplace.
func (s *AccountService) RemoveWebhook(
	ctx context.Context,
	tenantID, accountID uuid.UUID,
	code integration.MarketplaceCode,
	webhookID string,
) error {
	adapter, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	bundle, err := s.store.Get(ctx, tenantID, accountID, code)
	if err != nil {
		return err
	}
	account := integration.AccountContext{
		TenantID:    tenantID,
		AccountID:   accountID,
		Credentials: bundle,
	}
	if err := adapter.DeleteWebhook(ctx, account, webhookID); err != nil {
		return err
	}
	s.logger.Info("Webhook removed",
		zap.String("marketplace", string(code)),
		zap.String("webhook_id", webhookID),
	)
	return nil
}

// VerifyWebhookSignature checks an inbound delivery's signature using the
// marketplace's scheme. The payload must be the raw request body.
func (s *AccountService) VerifyWebhookSignature(
	code integration.MarketplaceCode,
	payload []byte,
	signature, secret string,
) error {
	adapter, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	return adapter.ValidateWebhookSignature(payload, signature, secret)
}
