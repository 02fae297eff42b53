package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/persistence/models"
)

// GormSyncJobRepository implements SyncJobRepository using GORM.
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository.
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

var _ integration.SyncJobRepository = (*GormSyncJobRepository)(nil)

// FindByID finds a job by ID within a tenant.
func (r *GormSyncJobRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.SyncJob, error) {
	var model models.SyncJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrJobNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists a tenant's jobs matching the filter, newest first.
func (r *GormSyncJobRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter integration.SyncJobFilter) ([]integration.SyncJob, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncJobModel{}).Where("tenant_id = ?", tenantID)
	if filter.Marketplace != nil && filter.Marketplace.IsValid() {
		query = query.Where("marketplace = ?", *filter.Marketplace)
	}
	if filter.Kind != nil && filter.Kind.IsValid() {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Status != nil && filter.Status.IsValid() {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.SortBy, SyncJobSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.SortOrder)

	var jobModels []models.SyncJobModel
	if err := query.Order(sortField + " " + sortOrder).Find(&jobModels).Error; err != nil {
		return nil, 0, err
	}

	jobs := make([]integration.SyncJob, len(jobModels))
	for i := range jobModels {
		jobs[i] = *jobModels[i].ToDomain()
	}
	return jobs, total, nil
}

// Save creates or updates a job.
func (r *GormSyncJobRepository) Save(ctx context.Context, job *integration.SyncJob) error {
	model := models.SyncJobModelFromDomain(job)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveIfStatus updates the job row only while it still holds the expected
// status. A cancel that landed between the caller's last read and this write
// leaves the row untouched and the method reports false.
func (r *GormSyncJobRepository) SaveIfStatus(ctx context.Context, job *integration.SyncJob, expected integration.SyncJobStatus) (bool, error) {
	model := models.SyncJobModelFromDomain(job)
	result := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("id = ? AND status = ?", model.ID, expected).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// HasActiveJob reports whether a PENDING or PROCESSING job exists for the
// same (account, marketplace, kind) target.
func (r *GormSyncJobRepository) HasActiveJob(ctx context.Context, tenantID, accountID uuid.UUID, marketplace integration.MarketplaceCode, kind integration.SyncKind) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("tenant_id = ? AND account_id = ? AND marketplace = ? AND kind = ? AND status IN ?",
			tenantID, accountID, marketplace, kind,
			[]integration.SyncJobStatus{integration.SyncJobStatusPending, integration.SyncJobStatusProcessing}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CurrentStatus reads only the status column. The processor item loop polls
// this between items, so the query must stay narrow.
func (r *GormSyncJobRepository) CurrentStatus(ctx context.Context, id uuid.UUID) (integration.SyncJobStatus, error) {
	var status integration.SyncJobStatus
	err := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Select("status").
		Where("id = ?", id).
		Take(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", integration.ErrJobNotFound
		}
		return "", err
	}
	return status, nil
}

// ---------------------------------------------------------------------------
// Sync log
// ---------------------------------------------------------------------------

// GormSyncLogRepository implements SyncLogRepository using GORM.
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository.
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

var _ integration.SyncLogRepository = (*GormSyncLogRepository)(nil)

// Append stores one entry.
func (r *GormSyncLogRepository) Append(ctx context.Context, entry *integration.SyncLog) error {
	return r.db.WithContext(ctx).Create(models.SyncLogModelFromDomain(entry)).Error
}

// FindByJob returns a job's entries ordered by creation time.
func (r *GormSyncLogRepository) FindByJob(ctx context.Context, tenantID, jobID uuid.UUID, page, pageSize int) ([]integration.SyncLog, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SyncLogModel{}).
		Where("tenant_id = ? AND job_id = ?", tenantID, jobID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var logModels []models.SyncLogModel
	if err := query.Order("created_at ASC").Find(&logModels).Error; err != nil {
		return nil, 0, err
	}

	logs := make([]integration.SyncLog, len(logModels))
	for i := range logModels {
		logs[i] = *logModels[i].ToDomain()
	}
	return logs, total, nil
}
