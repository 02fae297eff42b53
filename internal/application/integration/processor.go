package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// errJobCancelled is returned by the item loop when it observes a persisted
// CANCELLED status between items. The runner must not overwrite the terminal
// state the cancel call already wrote.
var errJobCancelled = errors.New("integration: job cancelled mid-run")

// Processor performs one sync kind's work on a PROCESSING job. Per-item
// errors are recorded on the job and its log, never returned; a returned
// error fails the whole job.
type Processor interface {
	Kind() integration.SyncKind
	Process(ctx context.Context, job *integration.SyncJob) error
}

// ---------------------------------------------------------------------------
// Runner
// ---------------------------------------------------------------------------

// Runner drives one dequeued job through its lifecycle: PENDING ->
// PROCESSING -> {COMPLETED, FAILED}. Queue workers call Run once per
// delivery; re-deliveries of already-started jobs are skipped, which keeps
// at-least-once transport safe.
type Runner struct {
	jobRepo    integration.SyncJobRepository
	processors map[integration.SyncKind]Processor
	logger     *zap.Logger
}

// NewRunner creates a Runner dispatching to the given processors.
func NewRunner(jobRepo integration.SyncJobRepository, processors []Processor, logger *zap.Logger) *Runner {
	byKind := make(map[integration.SyncKind]Processor, len(processors))
	for _, p := range processors {
		byKind[p.Kind()] = p
	}
	return &Runner{
		jobRepo:    jobRepo,
		processors: byKind,
		logger:     logger,
	}
}

// Run executes one job to completion.
func (r *Runner) Run(ctx context.Context, tenantID, jobID uuid.UUID) error {
	job, err := r.jobRepo.FindByID(ctx, tenantID, jobID)
	if err != nil {
		return err
	}
	if job.Status != integration.SyncJobStatusPending {
		// Duplicate delivery or a cancel raced the dequeue.
		r.logger.Debug("Skipping non-pending job delivery",
			zap.String("job_id", jobID.String()),
			zap.String("status", string(job.Status)),
		)
		return nil
	}

	proc, ok := r.processors[job.Kind]
	if !ok {
		_ = job.Fail(fmt.Sprintf("no processor registered for kind %s", job.Kind))
		_, err := r.jobRepo.SaveIfStatus(ctx, job, integration.SyncJobStatusPending)
		return err
	}

	if err := job.Start(); err != nil {
		return err
	}
	applied, err := r.jobRepo.SaveIfStatus(ctx, job, integration.SyncJobStatusPending)
	if err != nil {
		return err
	}
	if !applied {
		// A cancel won the race between the read above and this write.
		r.logger.Info("Sync job cancelled before start", zap.String("job_id", job.ID.String()))
		return nil
	}

	r.logger.Info("Processing sync job",
		zap.String("job_id", job.ID.String()),
		zap.String("marketplace", string(job.Marketplace)),
		zap.String("kind", string(job.Kind)),
	)

	procErr := proc.Process(ctx, job)
	switch {
	case errors.Is(procErr, errJobCancelled):
		// The cancel call already persisted the terminal state.
		r.logger.Info("Sync job stopped by cancellation", zap.String("job_id", job.ID.String()))
		return nil
	case procErr != nil:
		ae := integration.AsAdapterError(job.Marketplace, procErr)
		_ = job.Fail(ae.Message)
		r.logger.Error("Sync job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("code", string(ae.Code)),
			zap.Bool("retryable", ae.Retryable),
			zap.Error(procErr),
		)
	default:
		_ = job.Complete()
		r.logger.Info("Sync job completed",
			zap.String("job_id", job.ID.String()),
			zap.Int("processed", job.ProcessedItems),
			zap.Int("failed", job.FailedItems),
		)
	}

	// The terminal write only lands while the row is still PROCESSING. A
	// cancel persisted after the last item keeps its CANCELLED state.
	applied, err = r.jobRepo.SaveIfStatus(ctx, job, integration.SyncJobStatusProcessing)
	if err != nil {
		return err
	}
	if !applied {
		r.logger.Info("Sync job cancelled before terminal write", zap.String("job_id", job.ID.String()))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Shared processor plumbing
// ---------------------------------------------------------------------------

// processorBase carries the collaborators every sync-kind processor needs.
type processorBase struct {
	registry    integration.AdapterRegistry
	credentials integration.CredentialStore
	jobRepo     integration.SyncJobRepository
	logRepo     integration.SyncLogRepository
	logger      *zap.Logger
}

// NewProcessorBase bundles the collaborators shared by every processor.
func NewProcessorBase(
	registry integration.AdapterRegistry,
	credentials integration.CredentialStore,
	jobRepo integration.SyncJobRepository,
	logRepo integration.SyncLogRepository,
	logger *zap.Logger,
) processorBase {
	return processorBase{
		registry:    registry,
		credentials: credentials,
		jobRepo:     jobRepo,
		logRepo:     logRepo,
		logger:      logger,
	}
}

// resolve returns the adapter and the account context for a job. A missing
// adapter or credential bundle is a fatal, non-retried failure.
func (b *processorBase) resolve(ctx context.Context, job *integration.SyncJob) (integration.MarketplaceAdapter, integration.AccountContext, error) {
	adapter, err := b.registry.Get(job.Marketplace)
	if err != nil {
		return nil, integration.AccountContext{}, err
	}
	bundle, err := b.credentials.Get(ctx, job.TenantID, job.AccountID, job.Marketplace)
	if err != nil {
		return nil, integration.AccountContext{}, err
	}
	account := integration.AccountContext{
		TenantID:    job.TenantID,
		AccountID:   job.AccountID,
		Credentials: bundle,
	}
	return adapter, account, nil
}

// checkCancelled polls the persisted status between items; cancellation is
// cooperative and an in-flight adapter call always completes first.
func (b *processorBase) checkCancelled(ctx context.Context, job *integration.SyncJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	status, err := b.jobRepo.CurrentStatus(ctx, job.ID)
	if err != nil {
		return err
	}
	if status == integration.SyncJobStatusCancelled {
		job.Status = integration.SyncJobStatusCancelled
		return errJobCancelled
	}
	return nil
}

// recordItem appends the per-item log entry and persists the job's counters
// so a caller polling job status sees progress mid-run.
func (b *processorBase) recordItem(ctx context.Context, job *integration.SyncJob, entry *integration.SyncLog) {
	job.RecordItem(entry.Success)
	if err := b.logRepo.Append(ctx, entry); err != nil {
		b.logger.Warn("Failed to append sync log",
			zap.String("job_id", job.ID.String()),
			zap.String("sku", entry.SKU),
			zap.Error(err),
		)
	}
	// Progress writes carry the same guard as the terminal write; a row
	// already cancelled stays cancelled and the next poll stops the loop.
	if _, err := b.jobRepo.SaveIfStatus(ctx, job, integration.SyncJobStatusProcessing); err != nil {
		b.logger.Warn("Failed to persist job progress",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}

// isFatal decides whether an adapter error fails the whole job rather than
// one item. Authentication and unexpected transport errors are fatal;
// validation and not-found are per-item; rate limits fail the job as
// retryable so a later retry re-runs the same selection.
func isFatal(err error) bool {
	var ae *integration.AdapterError
	if !errors.As(err, &ae) {
		return true
	}
	switch ae.Code {
	case integration.ErrCodeValidation, integration.ErrCodeNotFound, integration.ErrCodeNotSupported:
		return false
	default:
		return true
	}
}
