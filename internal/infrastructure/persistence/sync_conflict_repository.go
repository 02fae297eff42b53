package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/persistence/models"
)

// GormSyncConflictRepository implements SyncConflictRepository using GORM.
type GormSyncConflictRepository struct {
	db *gorm.DB
}

// NewGormSyncConflictRepository creates a new GormSyncConflictRepository.
func NewGormSyncConflictRepository(db *gorm.DB) *GormSyncConflictRepository {
	return &GormSyncConflictRepository{db: db}
}

var _ integration.SyncConflictRepository = (*GormSyncConflictRepository)(nil)

// FindByID finds a conflict by ID within a tenant.
func (r *GormSyncConflictRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.SyncConflict, error) {
	var model models.SyncConflictModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrConflictNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPending lists unresolved conflicts, newest first. An invalid
// marketplace code lists across all marketplaces.
func (r *GormSyncConflictRepository) FindPending(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode, page, pageSize int) ([]integration.SyncConflict, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SyncConflictModel{}).
		Where("tenant_id = ? AND resolved = ?", tenantID, false)
	if code.IsValid() {
		query = query.Where("marketplace = ?", code)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var conflictModels []models.SyncConflictModel
	if err := query.Order("created_at DESC").Find(&conflictModels).Error; err != nil {
		return nil, 0, err
	}

	conflicts := make([]integration.SyncConflict, len(conflictModels))
	for i := range conflictModels {
		conflicts[i] = *conflictModels[i].ToDomain()
	}
	return conflicts, total, nil
}

// Save creates or updates a conflict.
func (r *GormSyncConflictRepository) Save(ctx context.Context, conflict *integration.SyncConflict) error {
	return r.db.WithContext(ctx).Save(models.SyncConflictModelFromDomain(conflict)).Error
}
