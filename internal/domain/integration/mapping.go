package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ProductMapping Entity
// ---------------------------------------------------------------------------

// ProductMapping links a local product to its listing on one marketplace and
// carries the per-marketplace transformation settings. At most one mapping
// exists per (product, marketplace) pair; saving an existing pair updates in
// place (upsert semantics, never append).
type ProductMapping struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	LocalProductID uuid.UUID
	Marketplace    MarketplaceCode

	// ExternalProductID is the listing ID on the marketplace. Empty until the
	// first successful export creates the listing.
	ExternalProductID string
	// ExternalCategoryID is the marketplace category the listing belongs to.
	ExternalCategoryID string

	// AttributeMapping maps local attribute names to marketplace attribute IDs.
	AttributeMapping map[string]string

	// PriceAdjustment is a flat amount added to the local price before the
	// price rules run.
	PriceAdjustment decimal.Decimal

	// Per-field auto-sync flags.
	SyncPrice bool
	SyncStock bool
	SyncName  bool

	IsActive      bool
	LastSyncAt    *time.Time
	LastSyncError string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewProductMapping creates an active mapping with all sync flags enabled.
func NewProductMapping(tenantID, localProductID uuid.UUID, marketplace MarketplaceCode) (*ProductMapping, error) {
	if tenantID == uuid.Nil {
		return nil, ErrMappingInvalidAccountID
	}
	if localProductID == uuid.Nil {
		return nil, ErrMappingInvalidProductID
	}
	if !marketplace.IsValid() {
		return nil, ErrInvalidMarketplaceCode
	}
	now := time.Now()
	return &ProductMapping{
		ID:               uuid.New(),
		TenantID:         tenantID,
		LocalProductID:   localProductID,
		Marketplace:      marketplace,
		AttributeMapping: map[string]string{},
		PriceAdjustment:  decimal.Zero,
		SyncPrice:        true,
		SyncStock:        true,
		SyncName:         true,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// LinkExternal records the marketplace listing ID after a successful create.
func (m *ProductMapping) LinkExternal(externalProductID string) {
	m.ExternalProductID = externalProductID
	m.UpdatedAt = time.Now()
}

// RecordSyncSuccess stamps the last-synced-at timestamp.
func (m *ProductMapping) RecordSyncSuccess() {
	now := time.Now()
	m.LastSyncAt = &now
	m.LastSyncError = ""
	m.UpdatedAt = now
}

// RecordSyncFailure records the last per-item failure for this link.
func (m *ProductMapping) RecordSyncFailure(errMsg string) {
	now := time.Now()
	m.LastSyncAt = &now
	m.LastSyncError = errMsg
	m.UpdatedAt = now
}

// ---------------------------------------------------------------------------
// CategoryMapping Entity
// ---------------------------------------------------------------------------

// CategoryMapping links a local category to a marketplace category. Unique
// per (local category, marketplace).
type CategoryMapping struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	LocalCategoryID uuid.UUID
	Marketplace     MarketplaceCode

	ExternalCategoryID   string
	ExternalCategoryName string
	// AttributeSchema is the marketplace category's attribute schema snapshot.
	AttributeSchema []CategoryAttribute

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCategoryMapping creates a category mapping.
func NewCategoryMapping(tenantID, localCategoryID uuid.UUID, marketplace MarketplaceCode, externalID, externalName string) (*CategoryMapping, error) {
	if tenantID == uuid.Nil || localCategoryID == uuid.Nil {
		return nil, ErrMappingInvalidAccountID
	}
	if !marketplace.IsValid() {
		return nil, ErrInvalidMarketplaceCode
	}
	if externalID == "" {
		return nil, ErrMappingInvalidExternalID
	}
	now := time.Now()
	return &CategoryMapping{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		LocalCategoryID:      localCategoryID,
		Marketplace:          marketplace,
		ExternalCategoryID:   externalID,
		ExternalCategoryName: externalName,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// ProductMappingFilter selects product mappings for listing.
type ProductMappingFilter struct {
	Marketplace *MarketplaceCode
	IsActive    *bool
	ProductIDs  []uuid.UUID
	SortBy      string
	SortOrder   string
	Page        int
	PageSize    int
}

// MappingStats aggregates the mapping coverage of a tenant.
type MappingStats struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	Linked      int64 `json:"linked"`
	FailedSync  int64 `json:"failed_sync"`
	NeverSynced int64 `json:"never_synced"`
}

// ProductMappingRepository persists product mappings with upsert semantics.
type ProductMappingRepository interface {
	// FindByID returns the mapping or ErrMappingNotFound.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ProductMapping, error)

	// FindByProductAndMarketplace returns the unique mapping of the pair.
	FindByProductAndMarketplace(ctx context.Context, tenantID, localProductID uuid.UUID, code MarketplaceCode) (*ProductMapping, error)

	// FindByExternalProduct resolves a marketplace listing back to its mapping.
	FindByExternalProduct(ctx context.Context, tenantID uuid.UUID, code MarketplaceCode, externalProductID string) (*ProductMapping, error)

	// FindByProducts returns the mappings of many products on one marketplace.
	FindByProducts(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID, code MarketplaceCode) ([]ProductMapping, error)

	// FindAll lists mappings matching the filter.
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ProductMappingFilter) ([]ProductMapping, int64, error)

	// Upsert creates the mapping or updates the existing (product,
	// marketplace) row in place. Never duplicates.
	Upsert(ctx context.Context, mapping *ProductMapping) error

	// Delete removes a mapping.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// UnmappedProductIDs returns active local products with no mapping row
	// for the marketplace, driving onboarding/export candidate lists.
	UnmappedProductIDs(ctx context.Context, tenantID uuid.UUID, code MarketplaceCode) ([]uuid.UUID, error)

	// Stats aggregates mapping coverage for a tenant and marketplace.
	Stats(ctx context.Context, tenantID uuid.UUID, code MarketplaceCode) (*MappingStats, error)
}

// CategoryMappingRepository persists category mappings.
type CategoryMappingRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CategoryMapping, error)
	FindByCategoryAndMarketplace(ctx context.Context, tenantID, localCategoryID uuid.UUID, code MarketplaceCode) (*CategoryMapping, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, code MarketplaceCode) ([]CategoryMapping, error)
	Upsert(ctx context.Context, mapping *CategoryMapping) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
