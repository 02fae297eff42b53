package integration

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/catalog"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// MappingService manages product/category mappings and price rules.
type MappingService struct {
	mappingRepo  integration.ProductMappingRepository
	categoryRepo integration.CategoryMappingRepository
	ruleRepo     integration.PriceRuleRepository
	productRepo  catalog.ProductRepository
	priceEngine  *PriceEngine
}

// NewMappingService creates a new MappingService.
func NewMappingService(
	mappingRepo integration.ProductMappingRepository,
	categoryRepo integration.CategoryMappingRepository,
	ruleRepo integration.PriceRuleRepository,
	productRepo catalog.ProductRepository,
	priceEngine *PriceEngine,
) *MappingService {
	return &MappingService{
		mappingRepo:  mappingRepo,
		categoryRepo: categoryRepo,
		ruleRepo:     ruleRepo,
		productRepo:  productRepo,
		priceEngine:  priceEngine,
	}
}

// ---------------------------------------------------------------------------
// Product mappings
// ---------------------------------------------------------------------------

// UpsertMappingInput carries the mutable fields of a product mapping.
type UpsertMappingInput struct {
	LocalProductID     uuid.UUID
	Marketplace        integration.MarketplaceCode
	ExternalProductID  string
	ExternalCategoryID string
	AttributeMapping   map[string]string
	PriceAdjustment    decimal.Decimal
	SyncPrice          *bool
	SyncStock          *bool
	SyncName           *bool
	IsActive           *bool
}

// UpsertMapping creates the (product, marketplace) mapping or updates the
// existing row in place. Calling it twice with the same pair leaves exactly
// one row, with the second call's values winning.
func (s *MappingService) UpsertMapping(ctx context.Context, tenantID uuid.UUID, in UpsertMappingInput) (*integration.ProductMapping, error) {
	mapping, err := s.mappingRepo.FindByProductAndMarketplace(ctx, tenantID, in.LocalProductID, in.Marketplace)
	if errors.Is(err, integration.ErrMappingNotFound) {
		mapping, err = integration.NewProductMapping(tenantID, in.LocalProductID, in.Marketplace)
	}
	if err != nil {
		return nil, err
	}

	if in.ExternalProductID != "" {
		mapping.ExternalProductID = in.ExternalProductID
	}
	if in.ExternalCategoryID != "" {
		mapping.ExternalCategoryID = in.ExternalCategoryID
	}
	if in.AttributeMapping != nil {
		mapping.AttributeMapping = in.AttributeMapping
	}
	mapping.PriceAdjustment = in.PriceAdjustment
	if in.SyncPrice != nil {
		mapping.SyncPrice = *in.SyncPrice
	}
	if in.SyncStock != nil {
		mapping.SyncStock = *in.SyncStock
	}
	if in.SyncName != nil {
		mapping.SyncName = *in.SyncName
	}
	if in.IsActive != nil {
		mapping.IsActive = *in.IsActive
	}

	if err := s.mappingRepo.Upsert(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// GetMapping retrieves a mapping by ID.
func (s *MappingService) GetMapping(ctx context.Context, tenantID, id uuid.UUID) (*integration.ProductMapping, error) {
	return s.mappingRepo.FindByID(ctx, tenantID, id)
}

// ListMappings lists mappings with filtering and pagination.
func (s *MappingService) ListMappings(ctx context.Context, tenantID uuid.UUID, filter integration.ProductMappingFilter) ([]integration.ProductMapping, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.mappingRepo.FindAll(ctx, tenantID, filter)
}

// DeleteMapping deletes a mapping.
func (s *MappingService) DeleteMapping(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.mappingRepo.Delete(ctx, tenantID, id)
}

// UnmappedProducts returns active local products with no mapping row for the
// marketplace; this drives onboarding/export candidate lists.
func (s *MappingService) UnmappedProducts(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode) ([]catalog.Product, error) {
	ids, err := s.mappingRepo.UnmappedProductIDs(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	return s.productRepo.FindByIDs(ctx, tenantID, ids)
}

// MappingStats aggregates mapping coverage for a marketplace.
func (s *MappingService) MappingStats(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode) (*integration.MappingStats, error) {
	return s.mappingRepo.Stats(ctx, tenantID, code)
}

// ---------------------------------------------------------------------------
// Category mappings
// ---------------------------------------------------------------------------

// UpsertCategoryMapping creates or updates the (category, marketplace) row.
func (s *MappingService) UpsertCategoryMapping(
	ctx context.Context,
	tenantID, localCategoryID uuid.UUID,
	code integration.MarketplaceCode,
	externalID, externalName string,
	schema []integration.CategoryAttribute,
) (*integration.CategoryMapping, error) {
	mapping, err := s.categoryRepo.FindByCategoryAndMarketplace(ctx, tenantID, localCategoryID, code)
	if errors.Is(err, integration.ErrCategoryMappingNotFound) {
		mapping, err = integration.NewCategoryMapping(tenantID, localCategoryID, code, externalID, externalName)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		mapping.ExternalCategoryID = externalID
		mapping.ExternalCategoryName = externalName
	}
	if schema != nil {
		mapping.AttributeSchema = schema
	}
	if err := s.categoryRepo.Upsert(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// ListCategoryMappings lists a marketplace's category mappings.
func (s *MappingService) ListCategoryMappings(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode) ([]integration.CategoryMapping, error) {
	return s.categoryRepo.FindAll(ctx, tenantID, code)
}

// DeleteCategoryMapping deletes a category mapping.
func (s *MappingService) DeleteCategoryMapping(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.categoryRepo.Delete(ctx, tenantID, id)
}

// ---------------------------------------------------------------------------
// Price rules
// ---------------------------------------------------------------------------

// SavePriceRule creates or updates a rule.
func (s *MappingService) SavePriceRule(ctx context.Context, rule *integration.PriceRule) error {
	if !rule.Formula.IsValid() {
		return integration.ErrPriceRuleInvalidFormula
	}
	return s.ruleRepo.Save(ctx, rule)
}

// GetPriceRule retrieves a rule by ID.
func (s *MappingService) GetPriceRule(ctx context.Context, tenantID, id uuid.UUID) (*integration.PriceRule, error) {
	return s.ruleRepo.FindByID(ctx, tenantID, id)
}

// ListPriceRules lists a tenant's rules ordered by ascending priority.
func (s *MappingService) ListPriceRules(ctx context.Context, tenantID uuid.UUID) ([]integration.PriceRule, error) {
	return s.ruleRepo.FindAll(ctx, tenantID)
}

// DeletePriceRule deletes a rule.
func (s *MappingService) DeletePriceRule(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.ruleRepo.Delete(ctx, tenantID, id)
}

// PreviewAdjustedPrice computes the published price for a product without
// touching the marketplace; used by the preview endpoint.
func (s *MappingService) PreviewAdjustedPrice(
	ctx context.Context,
	tenantID, productID uuid.UUID,
	code integration.MarketplaceCode,
	basePrice *decimal.Decimal,
) (decimal.Decimal, []AppliedRule, error) {
	base := decimal.Zero
	if basePrice != nil {
		base = *basePrice
	} else {
		product, err := s.productRepo.FindByID(ctx, tenantID, productID)
		if err != nil {
			return decimal.Zero, nil, err
		}
		base = product.Price
	}
	return s.priceEngine.CalculateAdjustedPrice(ctx, tenantID, productID, code, base)
}
