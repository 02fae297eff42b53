package integration

import (
	"context"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// ReconcileProcessor runs the reconciliation engine as a queued job and
// stores the report on the job's meta for later retrieval.
type ReconcileProcessor struct {
	processorBase
	service *ReconciliationService
}

// NewReconcileProcessor creates a ReconcileProcessor.
func NewReconcileProcessor(base processorBase, service *ReconciliationService) *ReconcileProcessor {
	return &ReconcileProcessor{
		processorBase: base,
		service:       service,
	}
}

// Kind implements Processor.
func (p *ReconcileProcessor) Kind() integration.SyncKind {
	return integration.SyncKindReconcile
}

// Process implements Processor.
func (p *ReconcileProcessor) Process(ctx context.Context, job *integration.SyncJob) error {
	report, err := p.service.Reconcile(ctx, ReconcileInput{
		TenantID:       job.TenantID,
		AccountID:      job.AccountID,
		Marketplace:    job.Marketplace,
		EntityType:     integration.ReconcileEntityType(job.Options.EntityType),
		SKUs:           job.Options.SKUs,
		FixDifferences: job.Options.FixDifferences,
		ReportOnly:     job.Options.ReportOnly,
	})
	if err != nil {
		return err
	}

	job.SetTotal(report.TotalChecked)
	job.ProcessedItems = report.TotalChecked
	job.Progress = 100
	if job.Meta == nil {
		job.Meta = map[string]any{}
	}
	job.Meta["report"] = report
	return nil
}
