package integration

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncKind
// ---------------------------------------------------------------------------

// SyncKind is the kind of synchronization a job performs. Each kind has its
// own queue and processor.
type SyncKind string

const (
	SyncKindImport    SyncKind = "IMPORT"
	SyncKindExport    SyncKind = "EXPORT"
	SyncKindStock     SyncKind = "STOCK"
	SyncKindPrice     SyncKind = "PRICE"
	SyncKindCustomer  SyncKind = "CUSTOMER"
	SyncKindReconcile SyncKind = "RECONCILE"
)

// IsValid returns true if the sync kind is known.
func (k SyncKind) IsValid() bool {
	switch k {
	case SyncKindImport, SyncKindExport, SyncKindStock, SyncKindPrice, SyncKindCustomer, SyncKindReconcile:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncKind.
func (k SyncKind) String() string {
	return string(k)
}

// AllSyncKinds returns every sync kind, one queue each.
func AllSyncKinds() []SyncKind {
	return []SyncKind{
		SyncKindImport,
		SyncKindExport,
		SyncKindStock,
		SyncKindPrice,
		SyncKindCustomer,
		SyncKindReconcile,
	}
}

// ---------------------------------------------------------------------------
// SyncJobStatus
// ---------------------------------------------------------------------------

// SyncJobStatus is the lifecycle state of a sync job. Transitions are
// monotonic: PENDING -> PROCESSING -> {COMPLETED, FAILED, CANCELLED}.
type SyncJobStatus string

const (
	SyncJobStatusPending    SyncJobStatus = "PENDING"
	SyncJobStatusProcessing SyncJobStatus = "PROCESSING"
	SyncJobStatusCompleted  SyncJobStatus = "COMPLETED"
	SyncJobStatusFailed     SyncJobStatus = "FAILED"
	SyncJobStatusCancelled  SyncJobStatus = "CANCELLED"
)

// IsValid returns true if the status is known.
func (s SyncJobStatus) IsValid() bool {
	switch s {
	case SyncJobStatusPending, SyncJobStatusProcessing, SyncJobStatusCompleted, SyncJobStatusFailed, SyncJobStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further transition is allowed from s.
func (s SyncJobStatus) IsTerminal() bool {
	switch s {
	case SyncJobStatusCompleted, SyncJobStatusFailed, SyncJobStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncJobStatus.
func (s SyncJobStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SyncJobOptions
// ---------------------------------------------------------------------------

// SyncJobOptions carries the caller-supplied selection and behaviour flags of
// a job. Serialized as JSON alongside the job.
type SyncJobOptions struct {
	// SKUs limits the selection to an explicit SKU list (empty = all active).
	SKUs []string `json:"skus,omitempty"`
	// ProductIDs limits the selection to explicit local product IDs.
	ProductIDs []uuid.UUID `json:"product_ids,omitempty"`
	// Page/PerPage bound import pagination.
	Page    int `json:"page,omitempty"`
	PerPage int `json:"per_page,omitempty"`
	// ApplyRules enables the price-rule engine on exported prices.
	ApplyRules bool `json:"apply_rules,omitempty"`
	// CategoryMapping enables category translation on export.
	CategoryMapping bool `json:"category_mapping,omitempty"`
	// StockSync pushes stock together with product exports.
	StockSync bool `json:"stock_sync,omitempty"`
	// Reconciliation options (kind RECONCILE only).
	EntityType     string `json:"entity_type,omitempty"`
	FixDifferences bool   `json:"fix_differences,omitempty"`
	ReportOnly     bool   `json:"report_only,omitempty"`
}

// ---------------------------------------------------------------------------
// SyncJob entity
// ---------------------------------------------------------------------------

// SyncJob is the persistent state of one synchronization run. It is owned
// exclusively by the queue subsystem; everyone else reads it through the
// job query interface.
type SyncJob struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	AccountID   uuid.UUID
	Marketplace MarketplaceCode
	Kind        SyncKind
	Status      SyncJobStatus

	// Progress is 0-100, monotonically non-decreasing within one pass.
	Progress       int
	ProcessedItems int
	FailedItems    int
	TotalItems     int

	// Error is the human-readable job-level failure reason.
	Error string

	Options SyncJobOptions
	// Meta is free-form processor output (e.g. the reconciliation report).
	Meta map[string]any

	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewSyncJob creates a pending job for the given target.
func NewSyncJob(tenantID, accountID uuid.UUID, marketplace MarketplaceCode, kind SyncKind, opts SyncJobOptions) (*SyncJob, error) {
	if tenantID == uuid.Nil || accountID == uuid.Nil {
		return nil, ErrMappingInvalidAccountID
	}
	if !marketplace.IsValid() {
		return nil, ErrInvalidMarketplaceCode
	}
	if !kind.IsValid() {
		return nil, ErrInvalidJobTransition
	}
	now := time.Now()
	return &SyncJob{
		ID:          uuid.New(),
		TenantID:    tenantID,
		AccountID:   accountID,
		Marketplace: marketplace,
		Kind:        kind,
		Status:      SyncJobStatusPending,
		Options:     opts,
		Meta:        map[string]any{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Start transitions the job to PROCESSING and stamps startedAt.
func (j *SyncJob) Start() error {
	if j.Status != SyncJobStatusPending {
		return ErrInvalidJobTransition
	}
	now := time.Now()
	j.Status = SyncJobStatusProcessing
	j.StartedAt = &now
	j.UpdatedAt = now
	return nil
}

// Complete transitions the job to the COMPLETED terminal state. Partial
// per-item failures do not prevent completion; they are visible through the
// failed-items counter and the sync log.
func (j *SyncJob) Complete() error {
	if j.Status != SyncJobStatusProcessing {
		return ErrInvalidJobTransition
	}
	now := time.Now()
	j.Status = SyncJobStatusCompleted
	j.Progress = 100
	j.FinishedAt = &now
	j.UpdatedAt = now
	return nil
}

// Fail transitions the job to the FAILED terminal state with a reason.
func (j *SyncJob) Fail(reason string) error {
	if j.Status.IsTerminal() {
		return ErrInvalidJobTransition
	}
	now := time.Now()
	j.Status = SyncJobStatusFailed
	j.Error = reason
	j.FinishedAt = &now
	j.UpdatedAt = now
	return nil
}

// Cancel forces the CANCELLED terminal state. The item loop observes the
// persisted status between items and stops promptly; an in-flight adapter
// call is allowed to finish.
func (j *SyncJob) Cancel() error {
	if j.Status.IsTerminal() {
		return ErrJobNotCancellable
	}
	now := time.Now()
	j.Status = SyncJobStatusCancelled
	j.FinishedAt = &now
	j.UpdatedAt = now
	return nil
}

// Retry resets a failed or cancelled job for a fresh PROCESSING pass over
// the same selection.
func (j *SyncJob) Retry() error {
	if j.Status != SyncJobStatusFailed && j.Status != SyncJobStatusCancelled {
		return ErrJobNotRetryable
	}
	j.Status = SyncJobStatusPending
	j.Progress = 0
	j.ProcessedItems = 0
	j.FailedItems = 0
	j.TotalItems = 0
	j.Error = ""
	j.StartedAt = nil
	j.FinishedAt = nil
	j.UpdatedAt = time.Now()
	return nil
}

// RecordItem updates the per-item counters and recomputes progress:
// progress = round(100 * (processed+failed) / total).
func (j *SyncJob) RecordItem(success bool) {
	if success {
		j.ProcessedItems++
	} else {
		j.FailedItems++
	}
	if j.TotalItems > 0 {
		p := int(math.Round(100 * float64(j.ProcessedItems+j.FailedItems) / float64(j.TotalItems)))
		if p > j.Progress {
			j.Progress = p
		}
	}
	j.UpdatedAt = time.Now()
}

// SetTotal records the size of the selected batch before the item loop.
func (j *SyncJob) SetTotal(total int) {
	j.TotalItems = total
	j.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// SyncLog
// ---------------------------------------------------------------------------

// SyncAction is the per-item operation a log entry describes.
type SyncAction string

const (
	SyncActionCreate SyncAction = "CREATE"
	SyncActionUpdate SyncAction = "UPDATE"
)

// SyncLog is the append-only per-item record of a job. It holds a weak
// reference to its job: deleting the job does not cascade to its logs.
type SyncLog struct {
	ID         uuid.UUID
	JobID      uuid.UUID
	TenantID   uuid.UUID
	ExternalID string
	LocalID    *uuid.UUID
	SKU        string
	Action     SyncAction
	Success    bool
	Error      string
	CreatedAt  time.Time
}

// NewSyncLog creates an entry for one processed item.
func NewSyncLog(job *SyncJob, sku string, action SyncAction) *SyncLog {
	return &SyncLog{
		ID:        uuid.New(),
		JobID:     job.ID,
		TenantID:  job.TenantID,
		SKU:       sku,
		Action:    action,
		Success:   true,
		CreatedAt: time.Now(),
	}
}

// MarkFailed records the per-item failure reason.
func (l *SyncLog) MarkFailed(err error) {
	l.Success = false
	if err != nil {
		l.Error = err.Error()
	}
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// SyncJobFilter selects jobs for listing.
type SyncJobFilter struct {
	Marketplace *MarketplaceCode
	Kind        *SyncKind
	Status      *SyncJobStatus
	// SortBy/SortOrder pick the list ordering; the persistence layer
	// validates both against its allowlist and falls back to newest first.
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// SyncJobRepository persists sync jobs.
type SyncJobRepository interface {
	// FindByID returns the job or ErrJobNotFound.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SyncJob, error)

	// FindAll lists a tenant's jobs matching the filter, newest first.
	FindAll(ctx context.Context, tenantID uuid.UUID, filter SyncJobFilter) ([]SyncJob, int64, error)

	// Save creates or updates a job.
	Save(ctx context.Context, job *SyncJob) error

	// SaveIfStatus persists the job only while the stored row still has the
	// expected status, and reports whether the write applied. The runner
	// uses it so a concurrently persisted CANCELLED row is never overwritten.
	SaveIfStatus(ctx context.Context, job *SyncJob, expected SyncJobStatus) (bool, error)

	// HasActiveJob reports whether a PENDING or PROCESSING job exists for
	// the same (account, marketplace, kind) target.
	HasActiveJob(ctx context.Context, tenantID, accountID uuid.UUID, marketplace MarketplaceCode, kind SyncKind) (bool, error)

	// CurrentStatus reads only the status column; the item loop polls this
	// between items for cooperative cancellation.
	CurrentStatus(ctx context.Context, id uuid.UUID) (SyncJobStatus, error)
}

// SyncLogRepository persists the append-only per-item log.
type SyncLogRepository interface {
	// Append stores one entry.
	Append(ctx context.Context, entry *SyncLog) error

	// FindByJob returns a job's entries ordered by creation time.
	FindByJob(ctx context.Context, tenantID, jobID uuid.UUID, page, pageSize int) ([]SyncLog, int64, error)
}
