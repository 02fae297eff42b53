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

// GormCategoryMappingRepository implements CategoryMappingRepository using GORM.
type GormCategoryMappingRepository struct {
	db *gorm.DB
}

// NewGormCategoryMappingRepository creates a new GormCategoryMappingRepository.
func NewGormCategoryMappingRepository(db *gorm.DB) *GormCategoryMappingRepository {
	return &GormCategoryMappingRepository{db: db}
}

var _ integration.CategoryMappingRepository = (*GormCategoryMappingRepository)(nil)

// FindByID finds a category mapping by ID within a tenant.
func (r *GormCategoryMappingRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.CategoryMapping, error) {
	var model models.CategoryMappingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrCategoryMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCategoryAndMarketplace returns the unique mapping of the pair.
func (r *GormCategoryMappingRepository) FindByCategoryAndMarketplace(ctx context.Context, tenantID, localCategoryID uuid.UUID, code integration.MarketplaceCode) (*integration.CategoryMapping, error) {
	var model models.CategoryMappingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND local_category_id = ? AND marketplace = ?", tenantID, localCategoryID, code).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrCategoryMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists a tenant's category mappings for one marketplace.
func (r *GormCategoryMappingRepository) FindAll(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode) ([]integration.CategoryMapping, error) {
	var mappingModels []models.CategoryMappingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND marketplace = ?", tenantID, code).
		Order("created_at DESC").
		Find(&mappingModels).Error
	if err != nil {
		return nil, err
	}

	mappings := make([]integration.CategoryMapping, len(mappingModels))
	for i := range mappingModels {
		mappings[i] = *mappingModels[i].ToDomain()
	}
	return mappings, nil
}

// Upsert creates the mapping or updates the existing (category, marketplace)
// row in place.
func (r *GormCategoryMappingRepository) Upsert(ctx context.Context, mapping *integration.CategoryMapping) error {
	model := models.CategoryMappingModelFromDomain(mapping)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "local_category_id"}, {Name: "marketplace"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"external_category_id", "external_category_name", "attribute_schema", "updated_at",
			}),
		}).
		Create(model).Error
}

// Delete removes a category mapping.
func (r *GormCategoryMappingRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CategoryMappingModel{}, "id = ? AND tenant_id = ?", id, tenantID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrCategoryMappingNotFound
	}
	return nil
}
