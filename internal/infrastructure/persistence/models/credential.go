package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// MarketplaceCredentialModel stores one connected account's credential
// bundle. Ciphertext holds the AES-GCM sealed JSON of the bundle; the store
// layer owns the key and never persists plaintext.
type MarketplaceCredentialModel struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_credential_account,priority:1"`
	AccountID   uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_credential_account,priority:2"`
	Marketplace integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_credential_account,priority:3"`

	Kind       integration.CredentialKind `gorm:"type:varchar(20);not null"`
	Ciphertext []byte                     `gorm:"type:bytea;not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (MarketplaceCredentialModel) TableName() string {
	return "marketplace_credentials"
}
