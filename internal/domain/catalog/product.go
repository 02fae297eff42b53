// Package catalog holds the local product record and its repository port.
// The inventory/product CRUD store is an external collaborator of the sync
// engine: the engine reads local records through ProductRepository and only
// writes back the narrow fields a conflict resolution touches.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when a lookup matches no product row.
var ErrProductNotFound = errors.New("catalog: product not found")

// ProductStatus represents the status of a local product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is the local inventory record the sync engine reads as its source
// of truth. SKU is the stable join key to external marketplace listings.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_tenant_sku,priority:1"`
	SKU         string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_product_tenant_sku,priority:2"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Stock       int64           `gorm:"not null;default:0"`
	Images      string          `gorm:"type:jsonb"`
	Attributes  string          `gorm:"type:jsonb"`
	Status      ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (Product) TableName() string {
	return "products"
}

// IsActive reports whether the product participates in synchronization.
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// NormalizeSKU uppercases and trims a SKU so both sides join consistently.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// ProductRepository is the collaborator contract for the local product store.
type ProductRepository interface {
	// FindByID returns one product.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)

	// FindBySKU returns the product with the given SKU.
	FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*Product, error)

	// FindBySKUs returns the products matching the SKU list.
	FindBySKUs(ctx context.Context, tenantID uuid.UUID, skus []string) ([]Product, error)

	// FindByIDs returns the products matching the ID list.
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)

	// FindActive returns all active products of a tenant.
	FindActive(ctx context.Context, tenantID uuid.UUID) ([]Product, error)

	// Save creates or updates a product record.
	Save(ctx context.Context, product *Product) error

	// UpdateFields applies a narrow field update (conflict resolution only).
	UpdateFields(ctx context.Context, tenantID, id uuid.UUID, fields map[string]any) error
}
