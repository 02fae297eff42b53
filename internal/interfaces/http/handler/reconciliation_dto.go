package handler

import (
	"time"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// ReconcileRequest is the request body for a reconciliation run
// @name HandlerReconcileRequest
type ReconcileRequest struct {
	AccountID   string `json:"account_id" binding:"required,uuid"`
	Marketplace string `json:"marketplace" binding:"required"`
	EntityType  string `json:"entity_type,omitempty"`
	// SKUs narrows the run to the listed products; empty compares everything.
	SKUs []string `json:"skus,omitempty"`
	// FixDifferences pushes local stock and price for every divergence found.
	FixDifferences bool `json:"fix_differences,omitempty"`
	// ReportOnly skips conflict persistence.
	ReportOnly bool `json:"report_only,omitempty"`
}

// ResolveConflictRequest picks the winning side of a conflict
// @name HandlerResolveConflictRequest
type ResolveConflictRequest struct {
	Resolution string `json:"resolution" binding:"required,oneof=LOCAL EXTERNAL"`
}

// SyncConflictResponse is the API representation of a sync conflict
// @name HandlerSyncConflictResponse
type SyncConflictResponse struct {
	ID              string     `json:"id"`
	LocalProductID  string     `json:"local_product_id"`
	Marketplace     string     `json:"marketplace"`
	SKU             string     `json:"sku"`
	Field           string     `json:"field"`
	LocalValue      string     `json:"local_value"`
	ExternalValue   string     `json:"external_value"`
	Resolved        bool       `json:"resolved"`
	ResolutionValue string     `json:"resolution_value,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toSyncConflictResponse(conflict *integration.SyncConflict) SyncConflictResponse {
	return SyncConflictResponse{
		ID:              conflict.ID.String(),
		LocalProductID:  conflict.LocalProductID.String(),
		Marketplace:     string(conflict.Marketplace),
		SKU:             conflict.SKU,
		Field:           conflict.Field,
		LocalValue:      conflict.LocalValue,
		ExternalValue:   conflict.ExternalValue,
		Resolved:        conflict.Resolved,
		ResolutionValue: conflict.ResolutionValue,
		ResolvedAt:      conflict.ResolvedAt,
		CreatedAt:       conflict.CreatedAt,
	}
}

func toSyncConflictResponses(conflicts []integration.SyncConflict) []SyncConflictResponse {
	out := make([]SyncConflictResponse, 0, len(conflicts))
	for i := range conflicts {
		out = append(out, toSyncConflictResponse(&conflicts[i]))
	}
	return out
}
