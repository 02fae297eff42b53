package integration

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// AppliedRule traces one rule application for the price preview endpoint.
type AppliedRule struct {
	RuleID   uuid.UUID       `json:"rule_id"`
	Name     string          `json:"name"`
	Formula  string          `json:"formula"`
	Value    decimal.Decimal `json:"value"`
	Result   decimal.Decimal `json:"result"`
	Priority int             `json:"priority"`
}

// PriceEngine computes the externally-published price from the local price:
// flat per-mapping adjustment first, then every applicable rule in ascending
// priority order, finally clamped so the result is never negative.
type PriceEngine struct {
	mappingRepo integration.ProductMappingRepository
	ruleRepo    integration.PriceRuleRepository
}

// NewPriceEngine creates a new PriceEngine.
func NewPriceEngine(mappingRepo integration.ProductMappingRepository, ruleRepo integration.PriceRuleRepository) *PriceEngine {
	return &PriceEngine{
		mappingRepo: mappingRepo,
		ruleRepo:    ruleRepo,
	}
}

// CalculateAdjustedPrice computes the marketplace price for a product. A
// missing mapping contributes a zero flat adjustment rather than an error.
func (e *PriceEngine) CalculateAdjustedPrice(
	ctx context.Context,
	tenantID uuid.UUID,
	productID uuid.UUID,
	code integration.MarketplaceCode,
	basePrice decimal.Decimal,
) (decimal.Decimal, []AppliedRule, error) {
	price := basePrice

	mapping, err := e.mappingRepo.FindByProductAndMarketplace(ctx, tenantID, productID, code)
	switch {
	case err == nil:
		price = price.Add(mapping.PriceAdjustment)
	case errors.Is(err, integration.ErrMappingNotFound):
		// No mapping yet: flat adjustment defaults to zero.
	default:
		return decimal.Zero, nil, err
	}

	rules, err := e.ruleRepo.FindApplicable(ctx, tenantID, code)
	if err != nil {
		return decimal.Zero, nil, err
	}

	applied := make([]AppliedRule, 0, len(rules))
	for i := range rules {
		rule := &rules[i]
		if !rule.AppliesTo(code, price) {
			continue
		}
		price = rule.Apply(price)
		applied = append(applied, AppliedRule{
			RuleID:   rule.ID,
			Name:     rule.Name,
			Formula:  string(rule.Formula),
			Value:    rule.Value,
			Result:   price,
			Priority: rule.Priority,
		})
	}

	// Rule composition must never publish a negative price.
	if price.IsNegative() {
		price = decimal.Zero
	}

	return price, applied, nil
}
