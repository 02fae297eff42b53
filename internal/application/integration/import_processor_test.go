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

func TestImportProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("creates local products for unknown listings", func(t *testing.T) {
		job := pendingJob(t, integration.SyncKindImport)
		require.NoError(t, job.Start())
		f := newProcessorFixture(t, job)

		page := &integration.Paginated[integration.NormalizedProduct]{
			Items: []integration.NormalizedProduct{
				{ExternalID: "ext-1", SKU: "new-sku", Name: "Novo", Price: dec("10"), Stock: 4, Active: true},
			},
			Total: 1,
		}
		f.adapter.On("FetchProducts", mock.Anything, mock.Anything, mock.Anything).Return(page, nil).Once()

		f.productRepo.On("FindBySKU", mock.Anything, job.TenantID, "NEW-SKU").Return(nil, catalog.ErrProductNotFound)
		f.productRepo.On("Save", mock.Anything, mock.MatchedBy(func(p *catalog.Product) bool {
			return p.SKU == "NEW-SKU" && p.Status == catalog.ProductStatusActive && p.Stock == 4
		})).Return(nil)

		f.mappingRepo.On("FindByProductAndMarketplace", mock.Anything, job.TenantID, mock.Anything, job.Marketplace).Return(nil, integration.ErrMappingNotFound)
		f.mappingRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(m *integration.ProductMapping) bool {
			return m.ExternalProductID == "ext-1" && m.LastSyncAt != nil
		})).Return(nil)

		proc := NewImportProcessor(f.base(), f.productRepo, f.mappingRepo)
		require.NoError(t, proc.Process(ctx, job))

		assert.Equal(t, 1, job.ProcessedItems)
		assert.Equal(t, 0, job.FailedItems)
		f.productRepo.AssertExpectations(t)
		f.mappingRepo.AssertExpectations(t)
	})

	t.Run("links existing products by normalized SKU", func(t *testing.T) {
		job := pendingJob(t, integration.SyncKindImport)
		require.NoError(t, job.Start())
		f := newProcessorFixture(t, job)

		local := &catalog.Product{ID: uuid.New(), TenantID: job.TenantID, SKU: "SKU-A"}
		page := &integration.Paginated[integration.NormalizedProduct]{
			Items: []integration.NormalizedProduct{{ExternalID: "ext-a", SKU: " sku-a "}},
			Total: 1,
		}
		f.adapter.On("FetchProducts", mock.Anything, mock.Anything, mock.Anything).Return(page, nil).Once()
		f.productRepo.On("FindBySKU", mock.Anything, job.TenantID, "SKU-A").Return(local, nil)

		existing, err := integration.NewProductMapping(job.TenantID, local.ID, job.Marketplace)
		require.NoError(t, err)
		f.mappingRepo.On("FindByProductAndMarketplace", mock.Anything, job.TenantID, local.ID, job.Marketplace).Return(existing, nil)
		f.mappingRepo.On("Upsert", mock.Anything, existing).Return(nil)

		proc := NewImportProcessor(f.base(), f.productRepo, f.mappingRepo)
		require.NoError(t, proc.Process(ctx, job))

		assert.Equal(t, "ext-a", existing.ExternalProductID)
		f.productRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("records a listing without SKU as a failed item", func(t *testing.T) {
		job := pendingJob(t, integration.SyncKindImport)
		require.NoError(t, job.Start())
		f := newProcessorFixture(t, job)

		page := &integration.Paginated[integration.NormalizedProduct]{
			Items: []integration.NormalizedProduct{{ExternalID: "ext-x", SKU: "   "}},
			Total: 1,
		}
		f.adapter.On("FetchProducts", mock.Anything, mock.Anything, mock.Anything).Return(page, nil).Once()

		proc := NewImportProcessor(f.base(), f.productRepo, f.mappingRepo)
		require.NoError(t, proc.Process(ctx, job))

		assert.Equal(t, 0, job.ProcessedItems)
		assert.Equal(t, 1, job.FailedItems)
		f.productRepo.AssertNotCalled(t, "FindBySKU", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("walks every page", func(t *testing.T) {
		job := pendingJob(t, integration.SyncKindImport)
		require.NoError(t, job.Start())
		f := newProcessorFixture(t, job)

		first := &integration.Paginated[integration.NormalizedProduct]{
			Items:   []integration.NormalizedProduct{{ExternalID: "e1", SKU: "A"}},
			Total:   2,
			HasMore: true,
		}
		second := &integration.Paginated[integration.NormalizedProduct]{
			Items: []integration.NormalizedProduct{{ExternalID: "e2", SKU: "B"}},
			Total: 2,
		}
		f.adapter.On("FetchProducts", mock.Anything, mock.Anything, mock.MatchedBy(func(p integration.Page) bool { return p.Number == 1 })).Return(first, nil).Once()
		f.adapter.On("FetchProducts", mock.Anything, mock.Anything, mock.MatchedBy(func(p integration.Page) bool { return p.Number == 2 })).Return(second, nil).Once()

		f.productRepo.On("FindBySKU", mock.Anything, job.TenantID, mock.Anything).Return(nil, catalog.ErrProductNotFound)
		f.productRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.mappingRepo.On("FindByProductAndMarketplace", mock.Anything, job.TenantID, mock.Anything, job.Marketplace).Return(nil, integration.ErrMappingNotFound)
		f.mappingRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		proc := NewImportProcessor(f.base(), f.productRepo, f.mappingRepo)
		require.NoError(t, proc.Process(ctx, job))

		assert.Equal(t, 2, job.TotalItems)
		assert.Equal(t, 2, job.ProcessedItems)
		f.adapter.AssertExpectations(t)
	})

	t.Run("an explicit page option bounds the run to one page", func(t *testing.T) {
		job := pendingJob(t, integration.SyncKindImport)
		job.Options.Page = 3
		job.Options.PerPage = 10
		require.NoError(t, job.Start())
		f := newProcessorFixture(t, job)

		page := &integration.Paginated[integration.NormalizedProduct]{
			Items:   []integration.NormalizedProduct{{ExternalID: "e1", SKU: "A"}},
			Total:   100,
			HasMore: true,
		}
		f.adapter.On("FetchProducts", mock.Anything, mock.Anything, mock.MatchedBy(func(p integration.Page) bool {
			return p.Number == 3 && p.Size == 10
		})).Return(page, nil).Once()

		f.productRepo.On("FindBySKU", mock.Anything, job.TenantID, "A").Return(nil, catalog.ErrProductNotFound)
		f.productRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.mappingRepo.On("FindByProductAndMarketplace", mock.Anything, job.TenantID, mock.Anything, job.Marketplace).Return(nil, integration.ErrMappingNotFound)
		f.mappingRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		proc := NewImportProcessor(f.base(), f.productRepo, f.mappingRepo)
		require.NoError(t, proc.Process(ctx, job))

		// Single-page runs report progress against that page only.
		assert.Equal(t, 1, job.TotalItems)
		f.adapter.AssertExpectations(t)
	})

	t.Run("fatal fetch error fails the job", func(t *testing.T) {
		job := pendingJob(t, integration.SyncKindImport)
		require.NoError(t, job.Start())
		f := newProcessorFixture(t, job)

		authErr := integration.NewAuthenticationError(job.Marketplace, "token revoked", nil)
		f.adapter.On("FetchProducts", mock.Anything, mock.Anything, mock.Anything).Return(nil, authErr)

		proc := NewImportProcessor(f.base(), f.productRepo, f.mappingRepo)
		assert.ErrorIs(t, proc.Process(ctx, job), authErr)
	})
}
