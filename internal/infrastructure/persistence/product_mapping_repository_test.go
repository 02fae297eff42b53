package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/catalog"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// ProductMappingModelSQLite is a SQLite-compatible version of
// ProductMappingModel for testing. The unique index over the
// (tenant, product, marketplace) pair backs the upsert conflict clause.
type ProductMappingModelSQLite struct {
	ID             string `gorm:"primaryKey"`
	TenantID       string `gorm:"not null;uniqueIndex:idx_mapping_tenant_product_marketplace,priority:1"`
	LocalProductID string `gorm:"not null;uniqueIndex:idx_mapping_tenant_product_marketplace,priority:2"`
	Marketplace    string `gorm:"not null;uniqueIndex:idx_mapping_tenant_product_marketplace,priority:3"`

	ExternalProductID  string `gorm:"index"`
	ExternalCategoryID string

	AttributeMappingJSON string `gorm:"type:text;column:attribute_mapping"`
	PriceAdjustment      string `gorm:"not null;default:0"`

	SyncPrice bool `gorm:"not null;default:true"`
	SyncStock bool `gorm:"not null;default:true"`
	SyncName  bool `gorm:"not null;default:true"`

	IsActive      bool `gorm:"not null;default:true"`
	LastSyncAt    *time.Time
	LastSyncError string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (ProductMappingModelSQLite) TableName() string {
	return "product_mappings"
}

// ProductModelSQLite is a SQLite-compatible version of the product table for
// the unmapped-products join.
type ProductModelSQLite struct {
	ID          string `gorm:"primaryKey"`
	TenantID    string `gorm:"not null;index"`
	SKU         string `gorm:"not null"`
	Name        string `gorm:"not null"`
	Description string `gorm:"type:text"`
	CategoryID  *string
	Price       string `gorm:"not null;default:0"`
	Stock       int64  `gorm:"not null;default:0"`
	Images      string `gorm:"type:text"`
	Attributes  string `gorm:"type:text"`
	Status      string `gorm:"not null;default:'active'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ProductModelSQLite) TableName() string {
	return "products"
}

func setupMappingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&ProductMappingModelSQLite{}, &ProductModelSQLite{})
	require.NoError(t, err)

	return db
}

func seedProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, sku string, status catalog.ProductStatus) *catalog.Product {
	t.Helper()
	now := time.Now()
	product := &catalog.Product{
		ID:        uuid.New(),
		TenantID:  tenantID,
		SKU:       catalog.NormalizeSKU(sku),
		Name:      "Product " + sku,
		Price:     decimal.NewFromInt(10),
		Stock:     5,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestProductMappingRepository_Upsert(t *testing.T) {
	db := setupMappingTestDB(t)
	repo := NewGormProductMappingRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	productID := uuid.New()

	t.Run("creates a new mapping", func(t *testing.T) {
		mapping, err := integration.NewProductMapping(tenantID, productID, integration.MarketplaceMercadoLivre)
		require.NoError(t, err)
		mapping.AttributeMapping = map[string]string{"brand": "BRAND"}

		require.NoError(t, repo.Upsert(ctx, mapping))

		found, err := repo.FindByProductAndMarketplace(ctx, tenantID, productID, integration.MarketplaceMercadoLivre)
		require.NoError(t, err)
		assert.Equal(t, mapping.ID, found.ID)
		assert.Equal(t, "BRAND", found.AttributeMapping["brand"])
		assert.True(t, found.IsActive)
	})

	t.Run("a second upsert updates the pair in place", func(t *testing.T) {
		second, err := integration.NewProductMapping(tenantID, productID, integration.MarketplaceMercadoLivre)
		require.NoError(t, err)
		second.LinkExternal("MLB-123")
		second.RecordSyncSuccess()

		require.NoError(t, repo.Upsert(ctx, second))

		var count int64
		require.NoError(t, db.Model(&ProductMappingModelSQLite{}).
			Where("tenant_id = ? AND local_product_id = ?", tenantID, productID).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)

		found, err := repo.FindByProductAndMarketplace(ctx, tenantID, productID, integration.MarketplaceMercadoLivre)
		require.NoError(t, err)
		assert.Equal(t, "MLB-123", found.ExternalProductID)
		assert.NotNil(t, found.LastSyncAt)
	})

	t.Run("another marketplace gets its own row", func(t *testing.T) {
		other, err := integration.NewProductMapping(tenantID, productID, integration.MarketplaceShopee)
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, other))

		var count int64
		require.NoError(t, db.Model(&ProductMappingModelSQLite{}).
			Where("tenant_id = ? AND local_product_id = ?", tenantID, productID).
			Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})
}

func TestProductMappingRepository_FindAll(t *testing.T) {
	db := setupMappingTestDB(t)
	repo := NewGormProductMappingRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	newMapping := func(code integration.MarketplaceCode, externalID string, active bool) *integration.ProductMapping {
		mapping, err := integration.NewProductMapping(tenantID, uuid.New(), code)
		require.NoError(t, err)
		mapping.ExternalProductID = externalID
		mapping.IsActive = active
		require.NoError(t, repo.Upsert(ctx, mapping))
		return mapping
	}

	newMapping(integration.MarketplaceMercadoLivre, "MLB-1", true)
	newMapping(integration.MarketplaceMercadoLivre, "MLB-2", false)
	newMapping(integration.MarketplaceShopee, "SP-1", true)

	t.Run("filters by marketplace and active flag", func(t *testing.T) {
		code := integration.MarketplaceMercadoLivre
		active := true
		mappings, total, err := repo.FindAll(ctx, tenantID, integration.ProductMappingFilter{
			Marketplace: &code,
			IsActive:    &active,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, mappings, 1)
		assert.Equal(t, "MLB-1", mappings[0].ExternalProductID)
	})

	t.Run("sorts by an allowed field", func(t *testing.T) {
		mappings, _, err := repo.FindAll(ctx, tenantID, integration.ProductMappingFilter{
			SortBy:    "external_product_id",
			SortOrder: "asc",
		})
		require.NoError(t, err)
		require.Len(t, mappings, 3)
		assert.Equal(t, "MLB-1", mappings[0].ExternalProductID)
		assert.Equal(t, "SP-1", mappings[2].ExternalProductID)
	})
}

func TestProductMappingRepository_UnmappedProductIDs(t *testing.T) {
	db := setupMappingTestDB(t)
	repo := NewGormProductMappingRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	mapped := seedProduct(t, db, tenantID, "sku-mapped", catalog.ProductStatusActive)
	unmapped := seedProduct(t, db, tenantID, "sku-unmapped", catalog.ProductStatusActive)
	seedProduct(t, db, tenantID, "sku-inactive", catalog.ProductStatusInactive)

	mapping, err := integration.NewProductMapping(tenantID, mapped.ID, integration.MarketplaceMercadoLivre)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, mapping))

	ids, err := repo.UnmappedProductIDs(ctx, tenantID, integration.MarketplaceMercadoLivre)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, unmapped.ID, ids[0])

	// The same product counts as unmapped on a marketplace it has no row for.
	ids, err = repo.UnmappedProductIDs(ctx, tenantID, integration.MarketplaceShopee)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestProductMappingRepository_Stats(t *testing.T) {
	db := setupMappingTestDB(t)
	repo := NewGormProductMappingRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	linked, err := integration.NewProductMapping(tenantID, uuid.New(), integration.MarketplaceMercadoLivre)
	require.NoError(t, err)
	linked.LinkExternal("MLB-1")
	linked.RecordSyncSuccess()
	require.NoError(t, repo.Upsert(ctx, linked))

	failed, err := integration.NewProductMapping(tenantID, uuid.New(), integration.MarketplaceMercadoLivre)
	require.NoError(t, err)
	failed.RecordSyncFailure("listing rejected")
	require.NoError(t, repo.Upsert(ctx, failed))

	inactive, err := integration.NewProductMapping(tenantID, uuid.New(), integration.MarketplaceMercadoLivre)
	require.NoError(t, err)
	inactive.IsActive = false
	require.NoError(t, repo.Upsert(ctx, inactive))

	stats, err := repo.Stats(ctx, tenantID, integration.MarketplaceMercadoLivre)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Active)
	assert.Equal(t, int64(1), stats.Linked)
	assert.Equal(t, int64(1), stats.FailedSync)
	assert.Equal(t, int64(1), stats.NeverSynced)
}
