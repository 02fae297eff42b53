package handler

import (
	"time"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/google/uuid"
)

// EnqueueJobRequest is the request body for enqueueing a sync job
// @name HandlerEnqueueJobRequest
type EnqueueJobRequest struct {
	AccountID   string `json:"account_id" binding:"required,uuid"`
	Marketplace string `json:"marketplace" binding:"required"`
	Kind        string `json:"kind" binding:"required"`

	SKUs       []string `json:"skus,omitempty"`
	ProductIDs []string `json:"product_ids,omitempty"`
	Page       int      `json:"page,omitempty" binding:"omitempty,min=1"`
	PerPage    int      `json:"per_page,omitempty" binding:"omitempty,min=1,max=200"`

	ApplyRules      bool `json:"apply_rules,omitempty"`
	CategoryMapping bool `json:"category_mapping,omitempty"`
	StockSync       bool `json:"stock_sync,omitempty"`

	// Reconciliation options (kind RECONCILE only)
	EntityType     string `json:"entity_type,omitempty"`
	FixDifferences bool   `json:"fix_differences,omitempty"`
	ReportOnly     bool   `json:"report_only,omitempty"`
}

// toOptions converts the request body into domain job options.
func (r *EnqueueJobRequest) toOptions() (integration.SyncJobOptions, error) {
	opts := integration.SyncJobOptions{
		SKUs:            r.SKUs,
		Page:            r.Page,
		PerPage:         r.PerPage,
		ApplyRules:      r.ApplyRules,
		CategoryMapping: r.CategoryMapping,
		StockSync:       r.StockSync,
		EntityType:      r.EntityType,
		FixDifferences:  r.FixDifferences,
		ReportOnly:      r.ReportOnly,
	}
	for _, raw := range r.ProductIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return opts, err
		}
		opts.ProductIDs = append(opts.ProductIDs, id)
	}
	return opts, nil
}

// ListJobsRequest holds the query parameters for listing sync jobs
// @name HandlerListJobsRequest
type ListJobsRequest struct {
	Marketplace string `form:"marketplace"`
	Kind        string `form:"kind"`
	Status      string `form:"status"`
	SortBy      string `form:"sort_by"`
	SortOrder   string `form:"sort_order"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SyncJobResponse is the API representation of a sync job
// @name HandlerSyncJobResponse
type SyncJobResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Marketplace string `json:"marketplace"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`

	Progress       int `json:"progress"`
	ProcessedItems int `json:"processed_items"`
	FailedItems    int `json:"failed_items"`
	TotalItems     int `json:"total_items"`

	Error string `json:"error,omitempty"`

	Options integration.SyncJobOptions `json:"options"`
	Meta    map[string]any             `json:"meta,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func toSyncJobResponse(job *integration.SyncJob) SyncJobResponse {
	return SyncJobResponse{
		ID:             job.ID.String(),
		AccountID:      job.AccountID.String(),
		Marketplace:    string(job.Marketplace),
		Kind:           string(job.Kind),
		Status:         string(job.Status),
		Progress:       job.Progress,
		ProcessedItems: job.ProcessedItems,
		FailedItems:    job.FailedItems,
		TotalItems:     job.TotalItems,
		Error:          job.Error,
		Options:        job.Options,
		Meta:           job.Meta,
		StartedAt:      job.StartedAt,
		FinishedAt:     job.FinishedAt,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

func toSyncJobResponses(jobs []integration.SyncJob) []SyncJobResponse {
	out := make([]SyncJobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toSyncJobResponse(&jobs[i]))
	}
	return out
}

// SyncLogResponse is the API representation of one per-item log entry
// @name HandlerSyncLogResponse
type SyncLogResponse struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id"`
	ExternalID string    `json:"external_id,omitempty"`
	LocalID    *string   `json:"local_id,omitempty"`
	SKU        string    `json:"sku,omitempty"`
	Action     string    `json:"action"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toSyncLogResponses(logs []integration.SyncLog) []SyncLogResponse {
	out := make([]SyncLogResponse, 0, len(logs))
	for _, l := range logs {
		resp := SyncLogResponse{
			ID:         l.ID.String(),
			JobID:      l.JobID.String(),
			ExternalID: l.ExternalID,
			SKU:        l.SKU,
			Action:     string(l.Action),
			Success:    l.Success,
			Error:      l.Error,
			CreatedAt:  l.CreatedAt,
		}
		if l.LocalID != nil {
			s := l.LocalID.String()
			resp.LocalID = &s
		}
		out = append(out, resp)
	}
	return out
}
