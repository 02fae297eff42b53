package integration

import (
	"context"

	"github.com/google/uuid"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/catalog"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// stockPriceBatchSize bounds one adapter write call. Platform batch limits
// are all >= 50, so one chunk is always a single request.
const stockPriceBatchSize = 50

// StockProcessor pushes local stock levels to a marketplace in batches.
// Only linked mappings with the stock sync flag enabled participate.
type StockProcessor struct {
	processorBase
	productRepo catalog.ProductRepository
	mappingRepo integration.ProductMappingRepository
}

// NewStockProcessor creates a StockProcessor.
func NewStockProcessor(
	base processorBase,
	productRepo catalog.ProductRepository,
	mappingRepo integration.ProductMappingRepository,
) *StockProcessor {
	return &StockProcessor{
		processorBase: base,
		productRepo:   productRepo,
		mappingRepo:   mappingRepo,
	}
}

// Kind implements Processor.
func (p *StockProcessor) Kind() integration.SyncKind {
	return integration.SyncKindStock
}

// Process implements Processor.
func (p *StockProcessor) Process(ctx context.Context, job *integration.SyncJob) error {
	adapter, account, err := p.resolve(ctx, job)
	if err != nil {
		return err
	}

	candidates, err := p.linkedProducts(ctx, job, func(m *integration.ProductMapping) bool { return m.SyncStock })
	if err != nil {
		return err
	}
	job.SetTotal(len(candidates))
	if _, err := p.jobRepo.SaveIfStatus(ctx, job, integration.SyncJobStatusProcessing); err != nil {
		return err
	}

	return processInChunks(ctx, &p.processorBase, job, candidates, func(chunk []catalog.Product) ([]integration.StockUpdate, error) {
		updates := make([]integration.StockUpdate, len(chunk))
		for i := range chunk {
			updates[i] = integration.StockUpdate{
				SKU:      catalog.NormalizeSKU(chunk[i].SKU),
				Quantity: chunk[i].Stock,
			}
		}
		return updates, nil
	}, func(chunkCtx context.Context, updates []integration.StockUpdate) error {
		return adapter.UpdateStock(chunkCtx, account, updates)
	}, adapter, account)
}

// linkedProducts selects the job's products and keeps only those with an
// active, linked mapping accepted by keep.
func (p *StockProcessor) linkedProducts(
	ctx context.Context,
	job *integration.SyncJob,
	keep func(*integration.ProductMapping) bool,
) ([]catalog.Product, error) {
	return selectLinkedProducts(ctx, p.productRepo, p.mappingRepo, job, keep)
}

// PriceProcessor pushes marketplace prices in batches, running each product
// through the price pipeline first.
type PriceProcessor struct {
	processorBase
	productRepo catalog.ProductRepository
	mappingRepo integration.ProductMappingRepository
	priceEngine *PriceEngine
}

// NewPriceProcessor creates a PriceProcessor.
func NewPriceProcessor(
	base processorBase,
	productRepo catalog.ProductRepository,
	mappingRepo integration.ProductMappingRepository,
	priceEngine *PriceEngine,
) *PriceProcessor {
	return &PriceProcessor{
		processorBase: base,
		productRepo:   productRepo,
		mappingRepo:   mappingRepo,
		priceEngine:   priceEngine,
	}
}

// Kind implements Processor.
func (p *PriceProcessor) Kind() integration.SyncKind {
	return integration.SyncKindPrice
}

// Process implements Processor.
func (p *PriceProcessor) Process(ctx context.Context, job *integration.SyncJob) error {
	adapter, account, err := p.resolve(ctx, job)
	if err != nil {
		return err
	}

	candidates, err := selectLinkedProducts(ctx, p.productRepo, p.mappingRepo, job, func(m *integration.ProductMapping) bool { return m.SyncPrice })
	if err != nil {
		return err
	}
	job.SetTotal(len(candidates))
	if _, err := p.jobRepo.SaveIfStatus(ctx, job, integration.SyncJobStatusProcessing); err != nil {
		return err
	}

	return processInChunks(ctx, &p.processorBase, job, candidates, func(chunk []catalog.Product) ([]integration.PriceUpdate, error) {
		updates := make([]integration.PriceUpdate, 0, len(chunk))
		for i := range chunk {
			prod := &chunk[i]
			price := prod.Price
			if job.Options.ApplyRules {
				adjusted, _, err := p.priceEngine.CalculateAdjustedPrice(ctx, job.TenantID, prod.ID, job.Marketplace, prod.Price)
				if err != nil {
					return nil, err
				}
				price = adjusted
			}
			updates = append(updates, integration.PriceUpdate{
				SKU:   catalog.NormalizeSKU(prod.SKU),
				Price: price,
			})
		}
		return updates, nil
	}, func(chunkCtx context.Context, updates []integration.PriceUpdate) error {
		return adapter.UpdatePrice(chunkCtx, account, updates)
	}, adapter, account)
}

// selectLinkedProducts resolves the job's product selection and keeps only
// products whose mapping is active, linked to a listing, and accepted by keep.
func selectLinkedProducts(
	ctx context.Context,
	productRepo catalog.ProductRepository,
	mappingRepo integration.ProductMappingRepository,
	job *integration.SyncJob,
	keep func(*integration.ProductMapping) bool,
) ([]catalog.Product, error) {
	products, err := selectProducts(ctx, productRepo, job)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	mappings, err := mappingRepo.FindByProducts(ctx, job.TenantID, ids, job.Marketplace)
	if err != nil {
		return nil, err
	}
	eligible := make(map[uuid.UUID]struct{}, len(mappings))
	for i := range mappings {
		m := &mappings[i]
		if m.IsActive && m.ExternalProductID != "" && keep(m) {
			eligible[m.LocalProductID] = struct{}{}
		}
	}
	out := products[:0]
	for i := range products {
		if _, ok := eligible[products[i].ID]; ok {
			out = append(out, products[i])
		}
	}
	return out, nil
}

// processInChunks runs the batched write loop shared by the stock and price
// kinds: cancellation check, rate-limit wait, one adapter call per chunk,
// then one log entry per item in the chunk.
func processInChunks[U any](
	ctx context.Context,
	base *processorBase,
	job *integration.SyncJob,
	products []catalog.Product,
	build func(chunk []catalog.Product) ([]U, error),
	write func(ctx context.Context, updates []U) error,
	adapter integration.MarketplaceAdapter,
	account integration.AccountContext,
) error {
	for start := 0; start < len(products); start += stockPriceBatchSize {
		end := start + stockPriceBatchSize
		if end > len(products) {
			end = len(products)
		}
		chunk := products[start:end]

		if err := base.checkCancelled(ctx, job); err != nil {
			return err
		}
		if err := adapter.WaitForRateLimit(ctx, account); err != nil {
			return err
		}

		updates, err := build(chunk)
		if err != nil {
			return err
		}
		callErr := write(ctx, updates)
		if callErr != nil && isFatal(callErr) {
			return callErr
		}
		for i := range chunk {
			entry := integration.NewSyncLog(job, chunk[i].SKU, integration.SyncActionUpdate)
			entry.LocalID = &chunk[i].ID
			if callErr != nil {
				entry.MarkFailed(callErr)
			}
			base.recordItem(ctx, job, entry)
		}
	}
	return nil
}
