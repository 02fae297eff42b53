package handler

import (
	"time"

	appintegration "github.com/furlanettoeduardo/ERP-PRS-sub000/internal/application/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// SavePriceRuleRequest is the request body for creating or updating a price rule
// @name HandlerSavePriceRuleRequest
type SavePriceRuleRequest struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Marketplace string   `json:"marketplace,omitempty"`
	Formula     string   `json:"formula" binding:"required"`
	Value       float64  `json:"value"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	Priority    int      `json:"priority"`
	Enabled     *bool    `json:"enabled,omitempty"`
}

// PriceRuleResponse is the API representation of a price rule
// @name HandlerPriceRuleResponse
type PriceRuleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Marketplace string    `json:"marketplace,omitempty"`
	Formula     string    `json:"formula"`
	Value       float64   `json:"value"`
	MinPrice    *float64  `json:"min_price,omitempty"`
	MaxPrice    *float64  `json:"max_price,omitempty"`
	Priority    int       `json:"priority"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toPriceRuleResponse(r *integration.PriceRule) PriceRuleResponse {
	value, _ := r.Value.Float64()
	resp := PriceRuleResponse{
		ID:        r.ID.String(),
		Name:      r.Name,
		Formula:   string(r.Formula),
		Value:     value,
		Priority:  r.Priority,
		Enabled:   r.Enabled,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Marketplace != nil {
		resp.Marketplace = string(*r.Marketplace)
	}
	if r.MinPrice != nil {
		min, _ := r.MinPrice.Float64()
		resp.MinPrice = &min
	}
	if r.MaxPrice != nil {
		max, _ := r.MaxPrice.Float64()
		resp.MaxPrice = &max
	}
	return resp
}

func toPriceRuleResponses(rules []integration.PriceRule) []PriceRuleResponse {
	out := make([]PriceRuleResponse, 0, len(rules))
	for i := range rules {
		out = append(out, toPriceRuleResponse(&rules[i]))
	}
	return out
}

// PricePreviewRequest asks for the published price a product would get
// @name HandlerPricePreviewRequest
type PricePreviewRequest struct {
	ProductID   string   `json:"product_id" binding:"required,uuid"`
	Marketplace string   `json:"marketplace" binding:"required"`
	BasePrice   *float64 `json:"base_price,omitempty"`
}

// AppliedRuleResponse describes one rule's effect during a price preview
// @name HandlerAppliedRuleResponse
type AppliedRuleResponse struct {
	RuleID   string  `json:"rule_id"`
	Name     string  `json:"name"`
	Formula  string  `json:"formula"`
	Value    float64 `json:"value"`
	Result   float64 `json:"result"`
	Priority int     `json:"priority"`
}

// PricePreviewResponse is the result of a price preview
// @name HandlerPricePreviewResponse
type PricePreviewResponse struct {
	ProductID    string                `json:"product_id"`
	Marketplace  string                `json:"marketplace"`
	FinalPrice   float64               `json:"final_price"`
	AppliedRules []AppliedRuleResponse `json:"applied_rules"`
}

func toAppliedRuleResponses(rules []appintegration.AppliedRule) []AppliedRuleResponse {
	out := make([]AppliedRuleResponse, 0, len(rules))
	for _, r := range rules {
		value, _ := r.Value.Float64()
		result, _ := r.Result.Float64()
		out = append(out, AppliedRuleResponse{
			RuleID:   r.RuleID.String(),
			Name:     r.Name,
			Formula:  r.Formula,
			Value:    value,
			Result:   result,
			Priority: r.Priority,
		})
	}
	return out
}
