package integration

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/catalog"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// ExportProcessor pushes local products to a marketplace. Products with a
// linked mapping are updated in place; unlinked products are created on the
// platform and the mapping records the new listing ID.
type ExportProcessor struct {
	processorBase
	productRepo  catalog.ProductRepository
	mappingRepo  integration.ProductMappingRepository
	categoryRepo integration.CategoryMappingRepository
	priceEngine  *PriceEngine
}

// NewExportProcessor creates an ExportProcessor.
func NewExportProcessor(
	base processorBase,
	productRepo catalog.ProductRepository,
	mappingRepo integration.ProductMappingRepository,
	categoryRepo integration.CategoryMappingRepository,
	priceEngine *PriceEngine,
) *ExportProcessor {
	return &ExportProcessor{
		processorBase: base,
		productRepo:   productRepo,
		mappingRepo:   mappingRepo,
		categoryRepo:  categoryRepo,
		priceEngine:   priceEngine,
	}
}

// Kind implements Processor.
func (p *ExportProcessor) Kind() integration.SyncKind {
	return integration.SyncKindExport
}

// Process implements Processor.
func (p *ExportProcessor) Process(ctx context.Context, job *integration.SyncJob) error {
	adapter, account, err := p.resolve(ctx, job)
	if err != nil {
		return err
	}

	products, err := selectProducts(ctx, p.productRepo, job)
	if err != nil {
		return err
	}
	job.SetTotal(len(products))
	if _, err := p.jobRepo.SaveIfStatus(ctx, job, integration.SyncJobStatusProcessing); err != nil {
		return err
	}

	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	existing, err := p.mappingRepo.FindByProducts(ctx, job.TenantID, ids, job.Marketplace)
	if err != nil {
		return err
	}
	mappings := make(map[uuid.UUID]*integration.ProductMapping, len(existing))
	for i := range existing {
		mappings[existing[i].LocalProductID] = &existing[i]
	}

	for i := range products {
		if err := p.checkCancelled(ctx, job); err != nil {
			return err
		}
		if err := adapter.WaitForRateLimit(ctx, account); err != nil {
			return err
		}

		prod := &products[i]
		mapping := mappings[prod.ID]
		entry := integration.NewSyncLog(job, prod.SKU, integration.SyncActionUpdate)
		entry.LocalID = &prod.ID

		normalized, err := p.normalize(ctx, job, prod, mapping)
		if err != nil {
			entry.MarkFailed(err)
			p.recordItem(ctx, job, entry)
			continue
		}

		var callErr error
		if mapping != nil && mapping.ExternalProductID != "" {
			normalized.ExternalID = mapping.ExternalProductID
			callErr = adapter.UpdateProduct(ctx, account, normalized)
		} else {
			entry.Action = integration.SyncActionCreate
			// A stable key per (job, sku) lets the platform drop the duplicate
			// when a create is retried after an ambiguous failure.
			createCtx := integration.WithIdempotencyKey(ctx, job.ID.String()+":"+normalized.SKU)
			externalID, createErr := adapter.CreateProduct(createCtx, account, normalized)
			callErr = createErr
			if createErr == nil {
				if mapping == nil {
					mapping, err = integration.NewProductMapping(job.TenantID, prod.ID, job.Marketplace)
					if err != nil {
						return err
					}
					mappings[prod.ID] = mapping
				}
				mapping.LinkExternal(externalID)
			}
		}

		if callErr != nil {
			if isFatal(callErr) {
				return callErr
			}
			entry.MarkFailed(callErr)
			if mapping != nil {
				mapping.RecordSyncFailure(callErr.Error())
			}
		} else {
			entry.ExternalID = mapping.ExternalProductID
			mapping.RecordSyncSuccess()
		}
		if mapping != nil {
			if err := p.mappingRepo.Upsert(ctx, mapping); err != nil {
				p.logger.Warn("Failed to persist mapping after export",
					zap.String("job_id", job.ID.String()),
					zap.String("sku", prod.SKU),
					zap.Error(err),
				)
			}
		}
		p.recordItem(ctx, job, entry)
	}
	return nil
}

// normalize builds the outbound canonical payload for one product, applying
// the mapping's attribute translation, the price pipeline, and category
// translation.
func (p *ExportProcessor) normalize(
	ctx context.Context,
	job *integration.SyncJob,
	prod *catalog.Product,
	mapping *integration.ProductMapping,
) (*integration.NormalizedProduct, error) {
	price := prod.Price
	if job.Options.ApplyRules {
		adjusted, _, err := p.priceEngine.CalculateAdjustedPrice(ctx, job.TenantID, prod.ID, job.Marketplace, prod.Price)
		if err != nil {
			return nil, err
		}
		price = adjusted
	} else if mapping != nil && mapping.SyncPrice {
		price = price.Add(mapping.PriceAdjustment)
	}

	normalized := &integration.NormalizedProduct{
		SKU:         catalog.NormalizeSKU(prod.SKU),
		Name:        prod.Name,
		Description: prod.Description,
		Price:       price,
		Stock:       prod.Stock,
		Images:      decodeStringSlice(prod.Images),
		Active:      prod.IsActive(),
		Attributes:  decodeStringMap(prod.Attributes),
	}

	if mapping != nil {
		if mapping.ExternalCategoryID != "" {
			normalized.Categories = []string{mapping.ExternalCategoryID}
		}
		if len(mapping.AttributeMapping) > 0 {
			normalized.Attributes = translateAttributes(normalized.Attributes, mapping.AttributeMapping)
		}
	}

	if job.Options.CategoryMapping && len(normalized.Categories) == 0 && prod.CategoryID != nil {
		cm, err := p.categoryRepo.FindByCategoryAndMarketplace(ctx, job.TenantID, *prod.CategoryID, job.Marketplace)
		switch {
		case err == nil:
			normalized.Categories = []string{cm.ExternalCategoryID}
		case errors.Is(err, integration.ErrCategoryMappingNotFound):
			// Unmapped category: the listing goes out uncategorized.
		default:
			return nil, err
		}
	}
	return normalized, nil
}

// selectProducts resolves the job's selection: explicit SKUs, explicit
// product IDs, or every active product of the tenant.
func selectProducts(ctx context.Context, repo catalog.ProductRepository, job *integration.SyncJob) ([]catalog.Product, error) {
	opts := job.Options
	switch {
	case len(opts.SKUs) > 0:
		skus := make([]string, len(opts.SKUs))
		for i, s := range opts.SKUs {
			skus[i] = catalog.NormalizeSKU(s)
		}
		return repo.FindBySKUs(ctx, job.TenantID, skus)
	case len(opts.ProductIDs) > 0:
		return repo.FindByIDs(ctx, job.TenantID, opts.ProductIDs)
	default:
		return repo.FindActive(ctx, job.TenantID)
	}
}

// translateAttributes renames local attribute keys to marketplace attribute
// IDs. Keys without a translation pass through unchanged.
func translateAttributes(attrs map[string]string, translation map[string]string) map[string]string {
	if len(attrs) == 0 {
		return attrs
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if mapped, ok := translation[k]; ok {
			out[mapped] = v
		} else {
			out[k] = v
		}
	}
	return out
}

// decodeStringSlice decodes a jsonb text column into a string slice.
func decodeStringSlice(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// decodeStringMap decodes a jsonb text column into a string map.
func decodeStringMap(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
