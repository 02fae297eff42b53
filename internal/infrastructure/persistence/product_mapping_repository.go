package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/persistence/models"
)

// GormProductMappingRepository implements ProductMappingRepository using GORM.
type GormProductMappingRepository struct {
	db *gorm.DB
}

// NewGormProductMappingRepository creates a new GormProductMappingRepository.
func NewGormProductMappingRepository(db *gorm.DB) *GormProductMappingRepository {
	return &GormProductMappingRepository{db: db}
}

var _ integration.ProductMappingRepository = (*GormProductMappingRepository)(nil)

// FindByID finds a mapping by ID within a tenant.
func (r *GormProductMappingRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProductAndMarketplace returns the unique mapping of the pair.
func (r *GormProductMappingRepository) FindByProductAndMarketplace(ctx context.Context, tenantID, localProductID uuid.UUID, code integration.MarketplaceCode) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND local_product_id = ? AND marketplace = ?", tenantID, localProductID, code).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalProduct resolves a marketplace listing back to its mapping.
func (r *GormProductMappingRepository) FindByExternalProduct(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode, externalProductID string) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND marketplace = ? AND external_product_id = ?", tenantID, code, externalProductID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProducts returns the mappings of many products on one marketplace.
func (r *GormProductMappingRepository) FindByProducts(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID, code integration.MarketplaceCode) ([]integration.ProductMapping, error) {
	if len(productIDs) == 0 {
		return []integration.ProductMapping{}, nil
	}
	var mappingModels []models.ProductMappingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND marketplace = ? AND local_product_id IN ?", tenantID, code, productIDs).
		Find(&mappingModels).Error
	if err != nil {
		return nil, err
	}

	mappings := make([]integration.ProductMapping, len(mappingModels))
	for i := range mappingModels {
		mappings[i] = *mappingModels[i].ToDomain()
	}
	return mappings, nil
}

// FindAll lists mappings matching the filter.
func (r *GormProductMappingRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter integration.ProductMappingFilter) ([]integration.ProductMapping, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductMappingModel{}).Where("tenant_id = ?", tenantID)
	if filter.Marketplace != nil && filter.Marketplace.IsValid() {
		query = query.Where("marketplace = ?", *filter.Marketplace)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if len(filter.ProductIDs) > 0 {
		query = query.Where("local_product_id IN ?", filter.ProductIDs)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.SortBy, ProductMappingSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.SortOrder)

	var mappingModels []models.ProductMappingModel
	if err := query.Order(sortField + " " + sortOrder).Find(&mappingModels).Error; err != nil {
		return nil, 0, err
	}

	mappings := make([]integration.ProductMapping, len(mappingModels))
	for i := range mappingModels {
		mappings[i] = *mappingModels[i].ToDomain()
	}
	return mappings, total, nil
}

// Upsert creates the mapping or updates the existing (product, marketplace)
// row in place. The unique index on the pair backs the conflict clause, so
// concurrent upserts never duplicate.
func (r *GormProductMappingRepository) Upsert(ctx context.Context, mapping *integration.ProductMapping) error {
	model := models.ProductMappingModelFromDomain(mapping)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "local_product_id"}, {Name: "marketplace"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"external_product_id", "external_category_id", "attribute_mapping",
				"price_adjustment", "sync_price", "sync_stock", "sync_name",
				"is_active", "last_sync_at", "last_sync_error", "updated_at",
			}),
		}).
		Create(model).Error
}

// Delete removes a mapping.
func (r *GormProductMappingRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductMappingModel{}, "id = ? AND tenant_id = ?", id, tenantID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrMappingNotFound
	}
	return nil
}

// UnmappedProductIDs returns active local products with no mapping row for
// the marketplace.
func (r *GormProductMappingRepository) UnmappedProductIDs(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("products").
		Select("products.id").
		Joins("LEFT JOIN product_mappings ON product_mappings.local_product_id = products.id AND product_mappings.marketplace = ?", code).
		Where("products.tenant_id = ? AND products.status = ? AND product_mappings.id IS NULL", tenantID, "active").
		Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Stats aggregates mapping coverage for a tenant and marketplace.
func (r *GormProductMappingRepository) Stats(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode) (*integration.MappingStats, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.ProductMappingModel{}).
			Where("tenant_id = ? AND marketplace = ?", tenantID, code)
	}

	stats := &integration.MappingStats{}
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	if err := base().Where("external_product_id <> ''").Count(&stats.Linked).Error; err != nil {
		return nil, err
	}
	if err := base().Where("last_sync_error <> ''").Count(&stats.FailedSync).Error; err != nil {
		return nil, err
	}
	if err := base().Where("last_sync_at IS NULL").Count(&stats.NeverSynced).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
