package integration

import (
	"context"

	"github.com/google/uuid"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// CustomerSink stores customers pulled from a marketplace. Implemented by the
// persistence layer; deduplicates by (tenant, marketplace, external ID).
type CustomerSink interface {
	// Upsert stores one customer, reporting whether a new record was created.
	Upsert(ctx context.Context, tenantID uuid.UUID, marketplace integration.MarketplaceCode, customer integration.NormalizedCustomer) (created bool, err error)
}

// CustomerProcessor pulls marketplace customers into the local store.
// Marketplaces without a customer API fail the job with a not-supported
// error on the first fetch.
type CustomerProcessor struct {
	processorBase
	sink CustomerSink
}

// NewCustomerProcessor creates a CustomerProcessor.
func NewCustomerProcessor(base processorBase, sink CustomerSink) *CustomerProcessor {
	return &CustomerProcessor{
		processorBase: base,
		sink:          sink,
	}
}

// Kind implements Processor.
func (p *CustomerProcessor) Kind() integration.SyncKind {
	return integration.SyncKindCustomer
}

// Process implements Processor.
func (p *CustomerProcessor) Process(ctx context.Context, job *integration.SyncJob) error {
	adapter, account, err := p.resolve(ctx, job)
	if err != nil {
		return err
	}

	page := integration.Page{Number: 1, Size: defaultImportPageSize}
	if job.Options.PerPage > 0 {
		page.Size = job.Options.PerPage
	}

	seen := 0
	for {
		if err := p.checkCancelled(ctx, job); err != nil {
			return err
		}
		if err := adapter.WaitForRateLimit(ctx, account); err != nil {
			return err
		}

		res, err := adapter.FetchCustomers(ctx, account, page)
		if err != nil {
			// Includes the not-supported case on platforms without a
			// customer API.
			return err
		}
		seen += len(res.Items)
		if res.Total >= 0 {
			job.SetTotal(int(res.Total))
		} else {
			job.SetTotal(seen)
		}

		for i := range res.Items {
			if err := p.checkCancelled(ctx, job); err != nil {
				return err
			}
			item := res.Items[i]
			entry := integration.NewSyncLog(job, item.Email, integration.SyncActionUpdate)
			entry.ExternalID = item.ExternalID

			created, err := p.sink.Upsert(ctx, job.TenantID, job.Marketplace, item)
			if err != nil {
				entry.MarkFailed(err)
			} else if created {
				entry.Action = integration.SyncActionCreate
			}
			p.recordItem(ctx, job, entry)
		}

		if !res.HasMore {
			return nil
		}
		page.Number++
		page.Cursor = res.NextCursor
	}
}
