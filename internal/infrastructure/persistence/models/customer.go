package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// MarketplaceCustomerModel stores buyers pulled from marketplaces. Rows are
// deduplicated per (tenant, marketplace, email).
type MarketplaceCustomerModel struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_mkt_customer_identity,priority:1"`
	Marketplace integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_mkt_customer_identity,priority:2"`
	Email       string                      `gorm:"type:varchar(255);not null;uniqueIndex:idx_mkt_customer_identity,priority:3"`

	ExternalID   string `gorm:"type:varchar(100);index"`
	Name         string `gorm:"type:varchar(200)"`
	Phone        string `gorm:"type:varchar(40)"`
	Document     string `gorm:"type:varchar(40)"`
	MetadataJSON string `gorm:"type:jsonb;column:metadata"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (MarketplaceCustomerModel) TableName() string {
	return "marketplace_customers"
}

// ToNormalized converts the row back to the canonical customer shape.
func (m *MarketplaceCustomerModel) ToNormalized() integration.NormalizedCustomer {
	out := integration.NormalizedCustomer{
		ExternalID: m.ExternalID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Document:   m.Document,
	}
	if m.MetadataJSON != "" {
		_ = json.Unmarshal([]byte(m.MetadataJSON), &out.Metadata)
	}
	return out
}

// ApplyNormalized overwrites the row's mutable fields from a fetched customer.
func (m *MarketplaceCustomerModel) ApplyNormalized(c integration.NormalizedCustomer) {
	m.ExternalID = c.ExternalID
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Document = c.Document
	m.MetadataJSON = marshalJSON(c.Metadata, "{}")
	m.UpdatedAt = time.Now()
}
