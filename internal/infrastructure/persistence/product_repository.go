package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/catalog"
)

// GormProductRepository implements catalog.ProductRepository using GORM. The
// domain struct carries its own column tags, so rows map without a separate
// persistence model.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository.
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

// FindByID finds a product by ID within a tenant.
func (r *GormProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindBySKU finds a product by its normalized SKU within a tenant.
func (r *GormProductRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku = ?", tenantID, catalog.NormalizeSKU(sku)).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindBySKUs returns the products matching the SKU list.
func (r *GormProductRepository) FindBySKUs(ctx context.Context, tenantID uuid.UUID, skus []string) ([]catalog.Product, error) {
	if len(skus) == 0 {
		return []catalog.Product{}, nil
	}
	normalized := make([]string, len(skus))
	for i, sku := range skus {
		normalized[i] = catalog.NormalizeSKU(sku)
	}

	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku IN ?", tenantID, normalized).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FindByIDs returns the products matching the ID list.
func (r *GormProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FindActive returns all active products of a tenant.
func (r *GormProductRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]catalog.Product, error) {
	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, catalog.ProductStatusActive).
		Order("sku ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Save creates or updates a product record.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	product.SKU = catalog.NormalizeSKU(product.SKU)
	return r.db.WithContext(ctx).Save(product).Error
}

// UpdateFields applies a narrow field update. Conflict resolution uses this
// to write back a single field without touching the rest of the row.
func (r *GormProductRepository) UpdateFields(ctx context.Context, tenantID, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = gorm.Expr("NOW()")
	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}
