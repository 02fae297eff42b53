package integration

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// JobEnqueuer hands a persisted job to its kind's queue. The transport is
// infrastructure's concern; at-least-once delivery is assumed.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *integration.SyncJob) error
}

// JobService owns the SyncJob lifecycle exposed to external callers:
// enqueue, query, cancel and retry. Processing itself happens on the queue
// workers.
type JobService struct {
	jobRepo  integration.SyncJobRepository
	logRepo  integration.SyncLogRepository
	registry integration.AdapterRegistry
	enqueuer JobEnqueuer
	logger   *zap.Logger
}

// NewJobService creates a new JobService.
func NewJobService(
	jobRepo integration.SyncJobRepository,
	logRepo integration.SyncLogRepository,
	registry integration.AdapterRegistry,
	enqueuer JobEnqueuer,
	logger *zap.Logger,
) *JobService {
	return &JobService{
		jobRepo:  jobRepo,
		logRepo:  logRepo,
		registry: registry,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// Enqueue validates the target, persists a pending job and pushes it onto
// its kind's queue. A second job for the same (account, marketplace, kind)
// while one is pending or processing is rejected with ErrJobAlreadyRunning;
// overlapping passes over the same selection risk duplicate external writes.
func (s *JobService) Enqueue(
	ctx context.Context,
	tenantID, accountID uuid.UUID,
	marketplace integration.MarketplaceCode,
	kind integration.SyncKind,
	opts integration.SyncJobOptions,
) (*integration.SyncJob, error) {
	// The marketplace must have a registered adapter before we accept work for it.
	if _, err := s.registry.Get(marketplace); err != nil {
		return nil, err
	}

	active, err := s.jobRepo.HasActiveJob(ctx, tenantID, accountID, marketplace, kind)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, integration.ErrJobAlreadyRunning
	}

	job, err := integration.NewSyncJob(tenantID, accountID, marketplace, kind, opts)
	if err != nil {
		return nil, err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, err
	}
	if err := s.enqueuer.Enqueue(ctx, job); err != nil {
		// The job row stays PENDING; a failed push is surfaced to the caller.
		return nil, err
	}

	s.logger.Info("Sync job enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("marketplace", string(marketplace)),
		zap.String("kind", string(kind)),
	)
	return job, nil
}

// GetJob returns a job with its live status, progress and counters.
func (s *JobService) GetJob(ctx context.Context, tenantID, id uuid.UUID) (*integration.SyncJob, error) {
	return s.jobRepo.FindByID(ctx, tenantID, id)
}

// ListJobs lists a tenant's jobs matching the filter, newest first.
func (s *JobService) ListJobs(ctx context.Context, tenantID uuid.UUID, filter integration.SyncJobFilter) ([]integration.SyncJob, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.jobRepo.FindAll(ctx, tenantID, filter)
}

// GetJobLogs returns a job's per-item log entries ordered by creation time.
func (s *JobService) GetJobLogs(ctx context.Context, tenantID, jobID uuid.UUID, page, pageSize int) ([]integration.SyncLog, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return s.logRepo.FindByJob(ctx, tenantID, jobID, page, pageSize)
}

// Cancel forces a job into the CANCELLED terminal state. A processing job
// observes the persisted status between items and stops promptly.
func (s *JobService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*integration.SyncJob, error) {
	job, err := s.jobRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := job.Cancel(); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info("Sync job cancelled", zap.String("job_id", id.String()))
	return job, nil
}

// Retry resets a failed or cancelled job and re-enqueues it for a fresh
// pass over the same selection.
func (s *JobService) Retry(ctx context.Context, tenantID, id uuid.UUID) (*integration.SyncJob, error) {
	job, err := s.jobRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := job.Retry(); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, err
	}
	if err := s.enqueuer.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info("Sync job re-enqueued", zap.String("job_id", id.String()))
	return job, nil
}
