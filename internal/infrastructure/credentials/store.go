package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/persistence/models"
)

// GormCredentialStore implements integration.CredentialStore on top of GORM,
// sealing bundles before they touch the database.
type GormCredentialStore struct {
	db        *gorm.DB
	encryptor *Encryptor
}

// NewGormCredentialStore creates a new GormCredentialStore.
func NewGormCredentialStore(db *gorm.DB, encryptor *Encryptor) *GormCredentialStore {
	return &GormCredentialStore{db: db, encryptor: encryptor}
}

var _ integration.CredentialStore = (*GormCredentialStore)(nil)

// Get resolves and decrypts the credential bundle for an account.
func (s *GormCredentialStore) Get(ctx context.Context, tenantID, accountID uuid.UUID, code integration.MarketplaceCode) (*integration.CredentialBundle, error) {
	var model models.MarketplaceCredentialModel
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ? AND marketplace = ?", tenantID, accountID, code).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrCredentialsNotFound
		}
		return nil, err
	}

	plaintext, err := s.encryptor.Open(model.Ciphertext)
	if err != nil {
		return nil, err
	}
	var bundle integration.CredentialBundle
	if err := json.Unmarshal(plaintext, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// Put stores (or rotates) the credential bundle for an account.
func (s *GormCredentialStore) Put(ctx context.Context, tenantID, accountID uuid.UUID, code integration.MarketplaceCode, bundle *integration.CredentialBundle) error {
	if err := bundle.Validate(); err != nil {
		return err
	}
	if bundle.Kind != integration.ExpectedCredentialKind(code) {
		return integration.ErrInvalidCredentialKind
	}

	plaintext, err := json.Marshal(bundle)
	if err != nil {
		return err
	}
	ciphertext, err := s.encryptor.Seal(plaintext)
	if err != nil {
		return err
	}

	now := time.Now()
	var model models.MarketplaceCredentialModel
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ? AND marketplace = ?", tenantID, accountID, code).
		First(&model).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		model = models.MarketplaceCredentialModel{
			ID:          uuid.New(),
			TenantID:    tenantID,
			AccountID:   accountID,
			Marketplace: code,
			Kind:        bundle.Kind,
			Ciphertext:  ciphertext,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return s.db.WithContext(ctx).Create(&model).Error
	case err != nil:
		return err
	default:
		model.Kind = bundle.Kind
		model.Ciphertext = ciphertext
		model.UpdatedAt = now
		return s.db.WithContext(ctx).Save(&model).Error
	}
}

// Delete removes the stored bundle, disconnecting the account.
func (s *GormCredentialStore) Delete(ctx context.Context, tenantID, accountID uuid.UUID, code integration.MarketplaceCode) error {
	result := s.db.WithContext(ctx).
		Delete(&models.MarketplaceCredentialModel{}, "tenant_id = ? AND account_id = ? AND marketplace = ?", tenantID, accountID, code)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrCredentialsNotFound
	}
	return nil
}
