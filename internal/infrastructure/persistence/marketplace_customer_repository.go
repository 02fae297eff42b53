package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appintegration "github.com/furlanettoeduardo/ERP-PRS-sub000/internal/application/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/persistence/models"
)

// GormMarketplaceCustomerRepository stores buyers pulled from marketplaces,
// deduplicated by email per (tenant, marketplace).
type GormMarketplaceCustomerRepository struct {
	db *gorm.DB
}

// NewGormMarketplaceCustomerRepository creates a new GormMarketplaceCustomerRepository.
func NewGormMarketplaceCustomerRepository(db *gorm.DB) *GormMarketplaceCustomerRepository {
	return &GormMarketplaceCustomerRepository{db: db}
}

var _ appintegration.CustomerSink = (*GormMarketplaceCustomerRepository)(nil)

// Upsert inserts the customer or refreshes the existing row matched by
// email. Returns true when a new row was created.
func (r *GormMarketplaceCustomerRepository) Upsert(ctx context.Context, tenantID uuid.UUID, marketplace integration.MarketplaceCode, customer integration.NormalizedCustomer) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(customer.Email))
	if email == "" {
		return false, integration.NewValidationError(marketplace, "customer has no email address")
	}
	customer.Email = email

	var model models.MarketplaceCustomerModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND marketplace = ? AND email = ?", tenantID, marketplace, email).
		First(&model).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		model = models.MarketplaceCustomerModel{
			ID:          uuid.New(),
			TenantID:    tenantID,
			Marketplace: marketplace,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		model.ApplyNormalized(customer)
		if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, err
	default:
		model.ApplyNormalized(customer)
		return false, r.db.WithContext(ctx).Save(&model).Error
	}
}

// FindAll lists a tenant's imported customers for one marketplace.
func (r *GormMarketplaceCustomerRepository) FindAll(ctx context.Context, tenantID uuid.UUID, marketplace integration.MarketplaceCode, page, pageSize int) ([]integration.NormalizedCustomer, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.MarketplaceCustomerModel{}).
		Where("tenant_id = ? AND marketplace = ?", tenantID, marketplace)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var customerModels []models.MarketplaceCustomerModel
	if err := query.Order("created_at DESC").Find(&customerModels).Error; err != nil {
		return nil, 0, err
	}

	customers := make([]integration.NormalizedCustomer, len(customerModels))
	for i := range customerModels {
		customers[i] = customerModels[i].ToNormalized()
	}
	return customers, total, nil
}
