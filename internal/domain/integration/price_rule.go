package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// PriceRule Entity
// ---------------------------------------------------------------------------

// PriceFormula is the transformation a price rule applies.
type PriceFormula string

const (
	// PriceFormulaMarkup multiplies the running price by (1 + value/100).
	PriceFormulaMarkup PriceFormula = "MARKUP"
	// PriceFormulaPercentage behaves like markup; negative values discount.
	PriceFormulaPercentage PriceFormula = "PERCENTAGE"
	// PriceFormulaFixed adds a fixed amount to the running price.
	PriceFormulaFixed PriceFormula = "FIXED"
)

// IsValid returns true if the formula is known.
func (f PriceFormula) IsValid() bool {
	switch f {
	case PriceFormulaMarkup, PriceFormulaPercentage, PriceFormulaFixed:
		return true
	default:
		return false
	}
}

// PriceRule transforms the running price during adjusted-price computation.
// Rules apply in ascending priority order; a nil marketplace scope means the
// rule is global.
type PriceRule struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	// Marketplace scopes the rule to one platform; nil applies everywhere.
	Marketplace *MarketplaceCode
	Formula     PriceFormula
	Value       decimal.Decimal
	// MinPrice/MaxPrice gate the rule on the running price at application
	// time; nil disables the bound.
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	// Priority orders application, ascending = applied first.
	Priority  int
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPriceRule creates an enabled rule.
func NewPriceRule(tenantID uuid.UUID, name string, formula PriceFormula, value decimal.Decimal, priority int) (*PriceRule, error) {
	if tenantID == uuid.Nil {
		return nil, ErrMappingInvalidAccountID
	}
	if !formula.IsValid() {
		return nil, ErrPriceRuleInvalidFormula
	}
	now := time.Now()
	return &PriceRule{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Formula:   formula,
		Value:     value,
		Priority:  priority,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AppliesTo reports whether the rule is in scope for the marketplace and the
// running price satisfies the min/max gates.
func (r *PriceRule) AppliesTo(code MarketplaceCode, price decimal.Decimal) bool {
	if !r.Enabled {
		return false
	}
	if r.Marketplace != nil && *r.Marketplace != code {
		return false
	}
	if r.MinPrice != nil && price.LessThan(*r.MinPrice) {
		return false
	}
	if r.MaxPrice != nil && price.GreaterThan(*r.MaxPrice) {
		return false
	}
	return true
}

// Apply transforms the running price according to the rule's formula.
func (r *PriceRule) Apply(price decimal.Decimal) decimal.Decimal {
	switch r.Formula {
	case PriceFormulaMarkup, PriceFormulaPercentage:
		factor := decimal.NewFromInt(1).Add(r.Value.Div(decimal.NewFromInt(100)))
		return price.Mul(factor)
	case PriceFormulaFixed:
		return price.Add(r.Value)
	default:
		return price
	}
}

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

// PriceRuleRepository persists price rules.
type PriceRuleRepository interface {
	// FindByID returns the rule or ErrPriceRuleNotFound.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PriceRule, error)

	// FindAll lists a tenant's rules ordered by ascending priority.
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]PriceRule, error)

	// FindApplicable lists enabled rules scoped to the marketplace or
	// global, ordered by ascending priority.
	FindApplicable(ctx context.Context, tenantID uuid.UUID, code MarketplaceCode) ([]PriceRule, error)

	// Save creates or updates a rule.
	Save(ctx context.Context, rule *PriceRule) error

	// Delete removes a rule.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
