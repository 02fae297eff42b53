package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// SyncJob
// ---------------------------------------------------------------------------

// SyncJobModel is the persistence model for the SyncJob domain entity.
type SyncJobModel struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID                   `gorm:"type:uuid;not null;index:idx_sync_job_tenant,priority:1"`
	AccountID   uuid.UUID                   `gorm:"type:uuid;not null;index:idx_sync_job_target,priority:1"`
	Marketplace integration.MarketplaceCode `gorm:"type:varchar(20);not null;index:idx_sync_job_target,priority:2"`
	Kind        integration.SyncKind        `gorm:"type:varchar(20);not null;index:idx_sync_job_target,priority:3"`
	Status      integration.SyncJobStatus   `gorm:"type:varchar(20);not null;index:idx_sync_job_target,priority:4"`

	Progress       int `gorm:"not null;default:0"`
	ProcessedItems int `gorm:"not null;default:0"`
	FailedItems    int `gorm:"not null;default:0"`
	TotalItems     int `gorm:"not null;default:0"`

	Error       string `gorm:"type:text"`
	OptionsJSON string `gorm:"type:jsonb;column:options"`
	MetaJSON    string `gorm:"type:jsonb;column:meta"`

	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time `gorm:"not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the persistence model to a domain SyncJob entity.
func (m *SyncJobModel) ToDomain() *integration.SyncJob {
	job := &integration.SyncJob{
		ID:             m.ID,
		TenantID:       m.TenantID,
		AccountID:      m.AccountID,
		Marketplace:    m.Marketplace,
		Kind:           m.Kind,
		Status:         m.Status,
		Progress:       m.Progress,
		ProcessedItems: m.ProcessedItems,
		FailedItems:    m.FailedItems,
		TotalItems:     m.TotalItems,
		Error:          m.Error,
		Meta:           map[string]any{},
		StartedAt:      m.StartedAt,
		FinishedAt:     m.FinishedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.OptionsJSON != "" {
		_ = json.Unmarshal([]byte(m.OptionsJSON), &job.Options)
	}
	if m.MetaJSON != "" {
		_ = json.Unmarshal([]byte(m.MetaJSON), &job.Meta)
	}
	return job
}

// FromDomain populates the persistence model from a domain SyncJob entity.
func (m *SyncJobModel) FromDomain(j *integration.SyncJob) {
	m.ID = j.ID
	m.TenantID = j.TenantID
	m.AccountID = j.AccountID
	m.Marketplace = j.Marketplace
	m.Kind = j.Kind
	m.Status = j.Status
	m.Progress = j.Progress
	m.ProcessedItems = j.ProcessedItems
	m.FailedItems = j.FailedItems
	m.TotalItems = j.TotalItems
	m.Error = j.Error
	m.StartedAt = j.StartedAt
	m.FinishedAt = j.FinishedAt
	m.CreatedAt = j.CreatedAt
	m.UpdatedAt = j.UpdatedAt

	m.OptionsJSON = marshalJSON(j.Options, "{}")
	m.MetaJSON = marshalJSON(j.Meta, "{}")
}

// SyncJobModelFromDomain creates a new persistence model from a domain SyncJob entity.
func SyncJobModelFromDomain(j *integration.SyncJob) *SyncJobModel {
	m := &SyncJobModel{}
	m.FromDomain(j)
	return m
}

// ---------------------------------------------------------------------------
// SyncLog
// ---------------------------------------------------------------------------

// SyncLogModel is the persistence model for the append-only SyncLog entries.
type SyncLogModel struct {
	ID         uuid.UUID              `gorm:"type:uuid;primary_key"`
	JobID      uuid.UUID              `gorm:"type:uuid;not null;index:idx_sync_log_job"`
	TenantID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	ExternalID string                 `gorm:"type:varchar(100)"`
	LocalID    *uuid.UUID             `gorm:"type:uuid"`
	SKU        string                 `gorm:"type:varchar(64)"`
	Action     integration.SyncAction `gorm:"type:varchar(20);not null"`
	Success    bool                   `gorm:"not null;default:true"`
	Error      string                 `gorm:"type:text"`
	CreatedAt  time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM.
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLog entry.
func (m *SyncLogModel) ToDomain() *integration.SyncLog {
	return &integration.SyncLog{
		ID:         m.ID,
		JobID:      m.JobID,
		TenantID:   m.TenantID,
		ExternalID: m.ExternalID,
		LocalID:    m.LocalID,
		SKU:        m.SKU,
		Action:     m.Action,
		Success:    m.Success,
		Error:      m.Error,
		CreatedAt:  m.CreatedAt,
	}
}

// SyncLogModelFromDomain creates a new persistence model from a domain SyncLog entry.
func SyncLogModelFromDomain(l *integration.SyncLog) *SyncLogModel {
	return &SyncLogModel{
		ID:         l.ID,
		JobID:      l.JobID,
		TenantID:   l.TenantID,
		ExternalID: l.ExternalID,
		LocalID:    l.LocalID,
		SKU:        l.SKU,
		Action:     l.Action,
		Success:    l.Success,
		Error:      l.Error,
		CreatedAt:  l.CreatedAt,
	}
}

// ---------------------------------------------------------------------------
// ProductMapping
// ---------------------------------------------------------------------------

// ProductMappingModel is the persistence model for the ProductMapping domain
// entity. The (tenant, product, marketplace) unique index backs the upsert
// semantics.
type ProductMappingModel struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_mapping_tenant_product_marketplace,priority:1"`
	LocalProductID uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_mapping_tenant_product_marketplace,priority:2"`
	Marketplace    integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_mapping_tenant_product_marketplace,priority:3"`

	ExternalProductID  string `gorm:"type:varchar(100);index:idx_mapping_external"`
	ExternalCategoryID string `gorm:"type:varchar(50)"`

	AttributeMappingJSON string          `gorm:"type:jsonb;column:attribute_mapping"`
	PriceAdjustment      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	SyncPrice bool `gorm:"not null;default:true"`
	SyncStock bool `gorm:"not null;default:true"`
	SyncName  bool `gorm:"not null;default:true"`

	IsActive      bool `gorm:"not null;default:true"`
	LastSyncAt    *time.Time
	LastSyncError string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (ProductMappingModel) TableName() string {
	return "product_mappings"
}

// ToDomain converts the persistence model to a domain ProductMapping entity.
func (m *ProductMappingModel) ToDomain() *integration.ProductMapping {
	mapping := &integration.ProductMapping{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		LocalProductID:     m.LocalProductID,
		Marketplace:        m.Marketplace,
		ExternalProductID:  m.ExternalProductID,
		ExternalCategoryID: m.ExternalCategoryID,
		AttributeMapping:   map[string]string{},
		PriceAdjustment:    m.PriceAdjustment,
		SyncPrice:          m.SyncPrice,
		SyncStock:          m.SyncStock,
		SyncName:           m.SyncName,
		IsActive:           m.IsActive,
		LastSyncAt:         m.LastSyncAt,
		LastSyncError:      m.LastSyncError,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.AttributeMappingJSON != "" {
		_ = json.Unmarshal([]byte(m.AttributeMappingJSON), &mapping.AttributeMapping)
	}
	return mapping
}

// FromDomain populates the persistence model from a domain ProductMapping entity.
func (m *ProductMappingModel) FromDomain(pm *integration.ProductMapping) {
	m.ID = pm.ID
	m.TenantID = pm.TenantID
	m.LocalProductID = pm.LocalProductID
	m.Marketplace = pm.Marketplace
	m.ExternalProductID = pm.ExternalProductID
	m.ExternalCategoryID = pm.ExternalCategoryID
	m.PriceAdjustment = pm.PriceAdjustment
	m.SyncPrice = pm.SyncPrice
	m.SyncStock = pm.SyncStock
	m.SyncName = pm.SyncName
	m.IsActive = pm.IsActive
	m.LastSyncAt = pm.LastSyncAt
	m.LastSyncError = pm.LastSyncError
	m.CreatedAt = pm.CreatedAt
	m.UpdatedAt = pm.UpdatedAt

	m.AttributeMappingJSON = marshalJSON(pm.AttributeMapping, "{}")
}

// ProductMappingModelFromDomain creates a new persistence model from a domain ProductMapping entity.
func ProductMappingModelFromDomain(pm *integration.ProductMapping) *ProductMappingModel {
	m := &ProductMappingModel{}
	m.FromDomain(pm)
	return m
}

// ---------------------------------------------------------------------------
// CategoryMapping
// ---------------------------------------------------------------------------

// CategoryMappingModel is the persistence model for the CategoryMapping
// domain entity.
type CategoryMappingModel struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_category_mapping_pair,priority:1"`
	LocalCategoryID uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_category_mapping_pair,priority:2"`
	Marketplace     integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_category_mapping_pair,priority:3"`

	ExternalCategoryID   string `gorm:"type:varchar(50);not null"`
	ExternalCategoryName string `gorm:"type:varchar(255)"`
	AttributeSchemaJSON  string `gorm:"type:jsonb;column:attribute_schema"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (CategoryMappingModel) TableName() string {
	return "category_mappings"
}

// ToDomain converts the persistence model to a domain CategoryMapping entity.
func (m *CategoryMappingModel) ToDomain() *integration.CategoryMapping {
	mapping := &integration.CategoryMapping{
		ID:                   m.ID,
		TenantID:             m.TenantID,
		LocalCategoryID:      m.LocalCategoryID,
		Marketplace:          m.Marketplace,
		ExternalCategoryID:   m.ExternalCategoryID,
		ExternalCategoryName: m.ExternalCategoryName,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
	if m.AttributeSchemaJSON != "" {
		_ = json.Unmarshal([]byte(m.AttributeSchemaJSON), &mapping.AttributeSchema)
	}
	return mapping
}

// FromDomain populates the persistence model from a domain CategoryMapping entity.
func (m *CategoryMappingModel) FromDomain(cm *integration.CategoryMapping) {
	m.ID = cm.ID
	m.TenantID = cm.TenantID
	m.LocalCategoryID = cm.LocalCategoryID
	m.Marketplace = cm.Marketplace
	m.ExternalCategoryID = cm.ExternalCategoryID
	m.ExternalCategoryName = cm.ExternalCategoryName
	m.CreatedAt = cm.CreatedAt
	m.UpdatedAt = cm.UpdatedAt

	m.AttributeSchemaJSON = marshalJSON(cm.AttributeSchema, "[]")
}

// CategoryMappingModelFromDomain creates a new persistence model from a domain CategoryMapping entity.
func CategoryMappingModelFromDomain(cm *integration.CategoryMapping) *CategoryMappingModel {
	m := &CategoryMappingModel{}
	m.FromDomain(cm)
	return m
}

// ---------------------------------------------------------------------------
// PriceRule
// ---------------------------------------------------------------------------

// PriceRuleModel is the persistence model for the PriceRule domain entity.
type PriceRuleModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_price_rule_tenant"`
	Name     string    `gorm:"type:varchar(100);not null"`

	// Marketplace is empty for global rules.
	Marketplace *integration.MarketplaceCode `gorm:"type:varchar(20)"`
	Formula     integration.PriceFormula     `gorm:"type:varchar(20);not null"`
	Value       decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	MinPrice    *decimal.Decimal             `gorm:"type:decimal(18,4)"`
	MaxPrice    *decimal.Decimal             `gorm:"type:decimal(18,4)"`

	Priority  int       `gorm:"not null;default:0;index"`
	Enabled   bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (PriceRuleModel) TableName() string {
	return "price_rules"
}

// ToDomain converts the persistence model to a domain PriceRule entity.
func (m *PriceRuleModel) ToDomain() *integration.PriceRule {
	return &integration.PriceRule{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Marketplace: m.Marketplace,
		Formula:     m.Formula,
		Value:       m.Value,
		MinPrice:    m.MinPrice,
		MaxPrice:    m.MaxPrice,
		Priority:    m.Priority,
		Enabled:     m.Enabled,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// PriceRuleModelFromDomain creates a new persistence model from a domain PriceRule entity.
func PriceRuleModelFromDomain(r *integration.PriceRule) *PriceRuleModel {
	return &PriceRuleModel{
		ID:          r.ID,
		TenantID:    r.TenantID,
		Name:        r.Name,
		Marketplace: r.Marketplace,
		Formula:     r.Formula,
		Value:       r.Value,
		MinPrice:    r.MinPrice,
		MaxPrice:    r.MaxPrice,
		Priority:    r.Priority,
		Enabled:     r.Enabled,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// SyncConflict
// ---------------------------------------------------------------------------

// SyncConflictModel is the persistence model for the SyncConflict domain entity.
type SyncConflictModel struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID                   `gorm:"type:uuid;not null;index:idx_conflict_tenant"`
	LocalProductID uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Marketplace    integration.MarketplaceCode `gorm:"type:varchar(20);not null;index"`
	SKU            string                      `gorm:"type:varchar(64);not null"`
	Field          string                      `gorm:"type:varchar(30);not null"`

	LocalValue    string `gorm:"type:text"`
	ExternalValue string `gorm:"type:text"`

	Resolved        bool   `gorm:"not null;default:false;index"`
	ResolutionValue string `gorm:"type:text"`
	ResolvedAt      *time.Time
	CreatedAt       time.Time `gorm:"not null;index"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (SyncConflictModel) TableName() string {
	return "sync_conflicts"
}

// ToDomain converts the persistence model to a domain SyncConflict entity.
func (m *SyncConflictModel) ToDomain() *integration.SyncConflict {
	return &integration.SyncConflict{
		ID:              m.ID,
		TenantID:        m.TenantID,
		LocalProductID:  m.LocalProductID,
		Marketplace:     m.Marketplace,
		SKU:             m.SKU,
		Field:           m.Field,
		LocalValue:      m.LocalValue,
		ExternalValue:   m.ExternalValue,
		Resolved:        m.Resolved,
		ResolutionValue: m.ResolutionValue,
		ResolvedAt:      m.ResolvedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// SyncConflictModelFromDomain creates a new persistence model from a domain SyncConflict entity.
func SyncConflictModelFromDomain(c *integration.SyncConflict) *SyncConflictModel {
	return &SyncConflictModel{
		ID:              c.ID,
		TenantID:        c.TenantID,
		LocalProductID:  c.LocalProductID,
		Marketplace:     c.Marketplace,
		SKU:             c.SKU,
		Field:           c.Field,
		LocalValue:      c.LocalValue,
		ExternalValue:   c.ExternalValue,
		Resolved:        c.Resolved,
		ResolutionValue: c.ResolutionValue,
		ResolvedAt:      c.ResolvedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// marshalJSON serializes v for a jsonb column, falling back to the given
// empty literal so the column never stores invalid JSON.
func marshalJSON(v any, empty string) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return empty
	}
	return string(raw)
}
