package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Reconciliation value objects
// ---------------------------------------------------------------------------

// ReconcileEntityType selects what the reconciliation engine compares.
type ReconcileEntityType string

const (
	ReconcileEntityProduct ReconcileEntityType = "product"
	ReconcileEntityStock   ReconcileEntityType = "stock"
	ReconcileEntityPrice   ReconcileEntityType = "price"
	ReconcileEntityAll     ReconcileEntityType = "all"
)

// IsValid returns true if the entity type is known.
func (t ReconcileEntityType) IsValid() bool {
	switch t {
	case ReconcileEntityProduct, ReconcileEntityStock, ReconcileEntityPrice, ReconcileEntityAll:
		return true
	default:
		return false
	}
}

// DiffSeverity classifies how serious a detected divergence is.
type DiffSeverity string

const (
	SeverityCritical DiffSeverity = "critical"
	SeverityWarning  DiffSeverity = "warning"
	SeverityInfo     DiffSeverity = "info"
)

// Difference is one field-level divergence between local and external state.
type Difference struct {
	SKU           string       `json:"sku"`
	Field         string       `json:"field"`
	LocalValue    string       `json:"local_value"`
	ExternalValue string       `json:"external_value"`
	Severity      DiffSeverity `json:"severity"`
}

// DiffSummary counts differences by severity.
type DiffSummary struct {
	Critical int `json:"critical"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// ReconcileReport aggregates one reconciliation run.
type ReconcileReport struct {
	Marketplace  MarketplaceCode     `json:"marketplace"`
	EntityType   ReconcileEntityType `json:"entity_type"`
	TotalChecked int                 `json:"total_checked"`
	Differences  []Difference        `json:"differences"`
	Summary      DiffSummary         `json:"summary"`
	// Fixed counts differences corrected by pushing the local value.
	Fixed int `json:"fixed"`
}

// Add appends a difference and updates the summary counters.
func (r *ReconcileReport) Add(d Difference) {
	r.Differences = append(r.Differences, d)
	switch d.Severity {
	case SeverityCritical:
		r.Summary.Critical++
	case SeverityWarning:
		r.Summary.Warnings++
	default:
		r.Summary.Info++
	}
}

// ---------------------------------------------------------------------------
// SyncConflict Entity
// ---------------------------------------------------------------------------

// ResolutionChoice picks which side wins when a conflict is resolved.
type ResolutionChoice string

const (
	ResolveWithLocal    ResolutionChoice = "LOCAL"
	ResolveWithExternal ResolutionChoice = "EXTERNAL"
)

// SyncConflict is an unresolved critical divergence persisted for manual
// resolution. It holds a weak reference to the product: deleting the product
// does not cascade here.
type SyncConflict struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	LocalProductID uuid.UUID
	Marketplace    MarketplaceCode
	SKU            string
	Field          string
	// LocalValue/ExternalValue are serialized snapshots taken at detection.
	LocalValue    string
	ExternalValue string

	Resolved        bool
	ResolutionValue string
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSyncConflict records a divergence for manual resolution.
func NewSyncConflict(tenantID, localProductID uuid.UUID, code MarketplaceCode, d Difference) *SyncConflict {
	now := time.Now()
	return &SyncConflict{
		ID:             uuid.New(),
		TenantID:       tenantID,
		LocalProductID: localProductID,
		Marketplace:    code,
		SKU:            d.SKU,
		Field:          d.Field,
		LocalValue:     d.LocalValue,
		ExternalValue:  d.ExternalValue,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Resolve closes the conflict with the chosen side's snapshot value.
// Resolution is one-shot: resolving an already-resolved conflict fails.
func (c *SyncConflict) Resolve(choice ResolutionChoice) (string, error) {
	if c.Resolved {
		return "", ErrConflictAlreadyResolved
	}
	var value string
	switch choice {
	case ResolveWithLocal:
		value = c.LocalValue
	case ResolveWithExternal:
		value = c.ExternalValue
	default:
		return "", ErrInvalidResolution
	}
	now := time.Now()
	c.Resolved = true
	c.ResolutionValue = value
	c.ResolvedAt = &now
	c.UpdatedAt = now
	return value, nil
}

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

// SyncConflictRepository persists reconciliation conflicts.
type SyncConflictRepository interface {
	// FindByID returns the conflict or ErrConflictNotFound.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SyncConflict, error)

	// FindPending lists unresolved conflicts, newest first.
	FindPending(ctx context.Context, tenantID uuid.UUID, code MarketplaceCode, page, pageSize int) ([]SyncConflict, int64, error)

	// Save creates or updates a conflict.
	Save(ctx context.Context, conflict *SyncConflict) error
}
