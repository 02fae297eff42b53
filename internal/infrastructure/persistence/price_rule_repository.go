package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/persistence/models"
)

// GormPriceRuleRepository implements PriceRuleRepository using GORM.
type GormPriceRuleRepository struct {
	db *gorm.DB
}

// NewGormPriceRuleRepository creates a new GormPriceRuleRepository.
func NewGormPriceRuleRepository(db *gorm.DB) *GormPriceRuleRepository {
	return &GormPriceRuleRepository{db: db}
}

var _ integration.PriceRuleRepository = (*GormPriceRuleRepository)(nil)

// FindByID finds a rule by ID within a tenant.
func (r *GormPriceRuleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.PriceRule, error) {
	var model models.PriceRuleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrPriceRuleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists a tenant's rules ordered by ascending priority.
func (r *GormPriceRuleRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]integration.PriceRule, error) {
	var ruleModels []models.PriceRuleModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("priority ASC, created_at ASC").
		Find(&ruleModels).Error
	if err != nil {
		return nil, err
	}

	rules := make([]integration.PriceRule, len(ruleModels))
	for i := range ruleModels {
		rules[i] = *ruleModels[i].ToDomain()
	}
	return rules, nil
}

// FindApplicable lists enabled rules scoped to the marketplace or global,
// ordered by ascending priority.
func (r *GormPriceRuleRepository) FindApplicable(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode) ([]integration.PriceRule, error) {
	var ruleModels []models.PriceRuleModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND enabled = ? AND (marketplace IS NULL OR marketplace = ?)", tenantID, true, code).
		Order("priority ASC, created_at ASC").
		Find(&ruleModels).Error
	if err != nil {
		return nil, err
	}

	rules := make([]integration.PriceRule, len(ruleModels))
	for i := range ruleModels {
		rules[i] = *ruleModels[i].ToDomain()
	}
	return rules, nil
}

// Save creates or updates a rule.
func (r *GormPriceRuleRepository) Save(ctx context.Context, rule *integration.PriceRule) error {
	return r.db.WithContext(ctx).Save(models.PriceRuleModelFromDomain(rule)).Error
}

// Delete removes a rule.
func (r *GormPriceRuleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PriceRuleModel{}, "id = ? AND tenant_id = ?", id, tenantID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrPriceRuleNotFound
	}
	return nil
}
