package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/catalog"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

func newMappingService(
	mappingRepo *mockProductMappingRepository,
	categoryRepo *mockCategoryMappingRepository,
	ruleRepo *mockPriceRuleRepository,
	productRepo *mockProductRepository,
) *MappingService {
	return NewMappingService(mappingRepo, categoryRepo, ruleRepo, productRepo, NewPriceEngine(mappingRepo, ruleRepo))
}

func TestMappingService_UpsertMapping(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	productID := uuid.New()
	code := integration.MarketplaceWooCommerce

	t.Run("creates a mapping when the pair is new", func(t *testing.T) {
		mappingRepo := new(mockProductMappingRepository)
		mappingRepo.On("FindByProductAndMarketplace", ctx, tenantID, productID, code).Return(nil, integration.ErrMappingNotFound)
		mappingRepo.On("Upsert", ctx, mock.AnythingOfType("*integration.ProductMapping")).Return(nil)

		svc := newMappingService(mappingRepo, new(mockCategoryMappingRepository), new(mockPriceRuleRepository), new(mockProductRepository))
		mapping, err := svc.UpsertMapping(ctx, tenantID, UpsertMappingInput{
			LocalProductID:    productID,
			Marketplace:       code,
			ExternalProductID: "wc-42",
			PriceAdjustment:   dec("2.50"),
		})
		require.NoError(t, err)

		assert.Equal(t, "wc-42", mapping.ExternalProductID)
		assert.True(t, mapping.PriceAdjustment.Equal(dec("2.50")))
		assert.True(t, mapping.SyncPrice)
		mappingRepo.AssertExpectations(t)
	})

	t.Run("updates the existing pair in place", func(t *testing.T) {
		mappingRepo := new(mockProductMappingRepository)

		existing, err := integration.NewProductMapping(tenantID, productID, code)
		require.NoError(t, err)
		existing.ExternalProductID = "wc-42"

		mappingRepo.On("FindByProductAndMarketplace", ctx, tenantID, productID, code).Return(existing, nil)
		mappingRepo.On("Upsert", ctx, existing).Return(nil)

		off := false
		svc := newMappingService(mappingRepo, new(mockCategoryMappingRepository), new(mockPriceRuleRepository), new(mockProductRepository))
		mapping, err := svc.UpsertMapping(ctx, tenantID, UpsertMappingInput{
			LocalProductID:  productID,
			Marketplace:     code,
			PriceAdjustment: dec("0"),
			SyncStock:       &off,
		})
		require.NoError(t, err)

		assert.Same(t, existing, mapping)
		assert.False(t, mapping.SyncStock)
		// The stored listing ID survives an update that does not carry one.
		assert.Equal(t, "wc-42", mapping.ExternalProductID)
	})

	t.Run("rejects an unknown marketplace", func(t *testing.T) {
		mappingRepo := new(mockProductMappingRepository)
		mappingRepo.On("FindByProductAndMarketplace", ctx, tenantID, productID, integration.MarketplaceCode("EBAY")).Return(nil, integration.ErrMappingNotFound)

		svc := newMappingService(mappingRepo, new(mockCategoryMappingRepository), new(mockPriceRuleRepository), new(mockProductRepository))
		_, err := svc.UpsertMapping(ctx, tenantID, UpsertMappingInput{
			LocalProductID: productID,
			Marketplace:    integration.MarketplaceCode("EBAY"),
		})
		assert.ErrorIs(t, err, integration.ErrInvalidMarketplaceCode)
	})
}

func TestMappingService_UnmappedProducts(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	code := integration.MarketplaceMercadoLivre

	t.Run("resolves unmapped IDs to products", func(t *testing.T) {
		mappingRepo := new(mockProductMappingRepository)
		productRepo := new(mockProductRepository)

		ids := []uuid.UUID{uuid.New(), uuid.New()}
		products := []catalog.Product{{ID: ids[0], SKU: "A"}, {ID: ids[1], SKU: "B"}}

		mappingRepo.On("UnmappedProductIDs", ctx, tenantID, code).Return(ids, nil)
		productRepo.On("FindByIDs", ctx, tenantID, ids).Return(products, nil)

		svc := newMappingService(mappingRepo, new(mockCategoryMappingRepository), new(mockPriceRuleRepository), productRepo)
		got, err := svc.UnmappedProducts(ctx, tenantID, code)
		require.NoError(t, err)
		assert.Equal(t, products, got)
	})

	t.Run("returns empty slice without hitting the product store", func(t *testing.T) {
		mappingRepo := new(mockProductMappingRepository)
		productRepo := new(mockProductRepository)

		mappingRepo.On("UnmappedProductIDs", ctx, tenantID, code).Return([]uuid.UUID{}, nil)

		svc := newMappingService(mappingRepo, new(mockCategoryMappingRepository), new(mockPriceRuleRepository), productRepo)
		got, err := svc.UnmappedProducts(ctx, tenantID, code)
		require.NoError(t, err)

		assert.Empty(t, got)
		productRepo.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestMappingService_UpsertCategoryMapping(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	categoryID := uuid.New()
	code := integration.MarketplaceMercadoLivre

	t.Run("creates when the pair is new", func(t *testing.T) {
		categoryRepo := new(mockCategoryMappingRepository)
		categoryRepo.On("FindByCategoryAndMarketplace", ctx, tenantID, categoryID, code).Return(nil, integration.ErrCategoryMappingNotFound)
		categoryRepo.On("Upsert", ctx, mock.AnythingOfType("*integration.CategoryMapping")).Return(nil)

		svc := newMappingService(new(mockProductMappingRepository), categoryRepo, new(mockPriceRuleRepository), new(mockProductRepository))
		cm, err := svc.UpsertCategoryMapping(ctx, tenantID, categoryID, code, "MLB1055", "Celulares", nil)
		require.NoError(t, err)

		assert.Equal(t, "MLB1055", cm.ExternalCategoryID)
		categoryRepo.AssertExpectations(t)
	})

	t.Run("re-targets the existing pair", func(t *testing.T) {
		categoryRepo := new(mockCategoryMappingRepository)

		existing, err := integration.NewCategoryMapping(tenantID, categoryID, code, "MLB1055", "Celulares")
		require.NoError(t, err)

		categoryRepo.On("FindByCategoryAndMarketplace", ctx, tenantID, categoryID, code).Return(existing, nil)
		categoryRepo.On("Upsert", ctx, existing).Return(nil)

		schema := []integration.CategoryAttribute{{ID: "BRAND", Name: "Marca", Required: true}}
		svc := newMappingService(new(mockProductMappingRepository), categoryRepo, new(mockPriceRuleRepository), new(mockProductRepository))
		cm, err := svc.UpsertCategoryMapping(ctx, tenantID, categoryID, code, "MLB1430", "Roupas", schema)
		require.NoError(t, err)

		assert.Equal(t, "MLB1430", cm.ExternalCategoryID)
		assert.Equal(t, "Roupas", cm.ExternalCategoryName)
		assert.Equal(t, schema, cm.AttributeSchema)
	})
}

func TestMappingService_PriceRules(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("save rejects invalid formula", func(t *testing.T) {
		ruleRepo := new(mockPriceRuleRepository)

		svc := newMappingService(new(mockProductMappingRepository), new(mockCategoryMappingRepository), ruleRepo, new(mockProductRepository))
		err := svc.SavePriceRule(ctx, &integration.PriceRule{Formula: integration.PriceFormula("SQUARE")})

		assert.ErrorIs(t, err, integration.ErrPriceRuleInvalidFormula)
		ruleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("preview falls back to the stored product price", func(t *testing.T) {
		mappingRepo := new(mockProductMappingRepository)
		ruleRepo := new(mockPriceRuleRepository)
		productRepo := new(mockProductRepository)
		productID := uuid.New()
		code := integration.MarketplaceAmazon

		productRepo.On("FindByID", ctx, tenantID, productID).Return(&catalog.Product{ID: productID, Price: dec("80")}, nil)
		mappingRepo.On("FindByProductAndMarketplace", ctx, tenantID, productID, code).Return(nil, integration.ErrMappingNotFound)
		ruleRepo.On("FindApplicable", ctx, tenantID, code).Return([]integration.PriceRule{}, nil)

		svc := NewMappingService(mappingRepo, new(mockCategoryMappingRepository), ruleRepo, productRepo, NewPriceEngine(mappingRepo, ruleRepo))
		price, applied, err := svc.PreviewAdjustedPrice(ctx, tenantID, productID, code, nil)
		require.NoError(t, err)

		assert.True(t, price.Equal(dec("80")))
		assert.Empty(t, applied)
	})

	t.Run("preview uses the supplied base price", func(t *testing.T) {
		mappingRepo := new(mockProductMappingRepository)
		ruleRepo := new(mockPriceRuleRepository)
		productRepo := new(mockProductRepository)
		productID := uuid.New()
		code := integration.MarketplaceAmazon

		mappingRepo.On("FindByProductAndMarketplace", ctx, tenantID, productID, code).Return(nil, integration.ErrMappingNotFound)
		ruleRepo.On("FindApplicable", ctx, tenantID, code).Return([]integration.PriceRule{}, nil)

		base := dec("120")
		svc := NewMappingService(mappingRepo, new(mockCategoryMappingRepository), ruleRepo, productRepo, NewPriceEngine(mappingRepo, ruleRepo))
		price, _, err := svc.PreviewAdjustedPrice(ctx, tenantID, productID, code, &base)
		require.NoError(t, err)

		assert.True(t, price.Equal(base))
		productRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})
}
