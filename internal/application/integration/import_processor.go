package integration

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/catalog"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

const defaultImportPageSize = 50

// ImportProcessor pulls a marketplace's listings into the local catalog.
// Listings are joined to local products by normalized SKU; a listing without
// a local counterpart creates one, and every processed listing ends up with
// a mapping row linking the two sides.
type ImportProcessor struct {
	processorBase
	productRepo catalog.ProductRepository
	mappingRepo integration.ProductMappingRepository
}

// NewImportProcessor creates an ImportProcessor.
func NewImportProcessor(
	base processorBase,
	productRepo catalog.ProductRepository,
	mappingRepo integration.ProductMappingRepository,
) *ImportProcessor {
	return &ImportProcessor{
		processorBase: base,
		productRepo:   productRepo,
		mappingRepo:   mappingRepo,
	}
}

// Kind implements Processor.
func (p *ImportProcessor) Kind() integration.SyncKind {
	return integration.SyncKindImport
}

// Process implements Processor.
func (p *ImportProcessor) Process(ctx context.Context, job *integration.SyncJob) error {
	adapter, account, err := p.resolve(ctx, job)
	if err != nil {
		return err
	}

	page := integration.Page{
		Number: job.Options.Page,
		Size:   job.Options.PerPage,
	}
	if page.Number <= 0 {
		page.Number = 1
	}
	if page.Size <= 0 {
		page.Size = defaultImportPageSize
	}
	// An explicit page option bounds the run to that single page.
	singlePage := job.Options.Page > 0

	seen := 0
	for {
		if err := p.checkCancelled(ctx, job); err != nil {
			return err
		}
		if err := adapter.WaitForRateLimit(ctx, account); err != nil {
			return err
		}

		res, err := adapter.FetchProducts(ctx, account, page)
		if err != nil {
			return err
		}
		seen += len(res.Items)
		if res.Total >= 0 && !singlePage {
			job.SetTotal(int(res.Total))
		} else {
			job.SetTotal(seen)
		}

		for i := range res.Items {
			if err := p.checkCancelled(ctx, job); err != nil {
				return err
			}
			p.importOne(ctx, job, &res.Items[i])
		}

		if singlePage || !res.HasMore {
			return nil
		}
		page.Number++
		page.Cursor = res.NextCursor
	}
}

// importOne upserts the local product and the mapping for one fetched
// listing. Failures are recorded per item and never abort the run.
func (p *ImportProcessor) importOne(ctx context.Context, job *integration.SyncJob, item *integration.NormalizedProduct) {
	entry := integration.NewSyncLog(job, item.SKU, integration.SyncActionUpdate)
	entry.ExternalID = item.ExternalID

	sku := catalog.NormalizeSKU(item.SKU)
	if sku == "" {
		entry.MarkFailed(integration.NewValidationError(job.Marketplace, "listing has no SKU, cannot join to a local product"))
		p.recordItem(ctx, job, entry)
		return
	}

	local, err := p.productRepo.FindBySKU(ctx, job.TenantID, sku)
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		entry.Action = integration.SyncActionCreate
		local = p.newLocalProduct(job.TenantID, sku, item)
		if err := p.productRepo.Save(ctx, local); err != nil {
			entry.MarkFailed(err)
			p.recordItem(ctx, job, entry)
			return
		}
	case err != nil:
		entry.MarkFailed(err)
		p.recordItem(ctx, job, entry)
		return
	}
	entry.LocalID = &local.ID

	if err := p.linkMapping(ctx, job, local.ID, item.ExternalID); err != nil {
		entry.MarkFailed(err)
	}
	p.recordItem(ctx, job, entry)
}

// newLocalProduct materializes a catalog record from a fetched listing.
func (p *ImportProcessor) newLocalProduct(tenantID uuid.UUID, sku string, item *integration.NormalizedProduct) *catalog.Product {
	status := catalog.ProductStatusInactive
	if item.Active {
		status = catalog.ProductStatusActive
	}
	now := time.Now()
	return &catalog.Product{
		ID:          uuid.New(),
		TenantID:    tenantID,
		SKU:         sku,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Stock:       item.Stock,
		Images:      encodeJSON(item.Images),
		Attributes:  encodeJSON(item.Attributes),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// linkMapping upserts the mapping row tying the local product to the listing.
func (p *ImportProcessor) linkMapping(ctx context.Context, job *integration.SyncJob, productID uuid.UUID, externalID string) error {
	mapping, err := p.mappingRepo.FindByProductAndMarketplace(ctx, job.TenantID, productID, job.Marketplace)
	switch {
	case errors.Is(err, integration.ErrMappingNotFound):
		mapping, err = integration.NewProductMapping(job.TenantID, productID, job.Marketplace)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}
	if externalID != "" {
		mapping.LinkExternal(externalID)
	}
	mapping.RecordSyncSuccess()
	if err := p.mappingRepo.Upsert(ctx, mapping); err != nil {
		p.logger.Warn("Failed to persist mapping after import",
			zap.String("job_id", job.ID.String()),
			zap.String("external_id", externalID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// encodeJSON serializes a value for a jsonb text column, empty on nil.
func encodeJSON(v any) string {
	if v == nil {
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
