package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/telemetry"
)

// JobRunner executes one dequeued job to a terminal state. Implemented by
// the application layer's runner.
type JobRunner interface {
	Run(ctx context.Context, tenantID, jobID uuid.UUID) error
}

// PoolConfig holds worker pool configuration.
type PoolConfig struct {
	// WorkersPerQueue bounds concurrency per sync kind.
	WorkersPerQueue int
	// JobTimeout caps one job run.
	JobTimeout time.Duration
	// PopTimeout is the blocking-pop window; it also bounds shutdown latency.
	PopTimeout time.Duration
}

// DefaultPoolConfig returns the default worker pool configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		WorkersPerQueue: 2,
		JobTimeout:      30 * time.Minute,
		PopTimeout:      5 * time.Second,
	}
}

// WorkerPool consumes every per-kind queue with a bounded set of workers.
// One worker processes one job at a time; a job that outlives JobTimeout is
// cut off by its context.
type WorkerPool struct {
	config    PoolConfig
	transport Transport
	runner    JobRunner
	logger    *zap.Logger
	metrics   *telemetry.SyncMetrics

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewWorkerPool creates a worker pool over the given transport and runner.
func NewWorkerPool(config PoolConfig, transport Transport, runner JobRunner, logger *zap.Logger) *WorkerPool {
	if config.WorkersPerQueue <= 0 {
		config.WorkersPerQueue = DefaultPoolConfig().WorkersPerQueue
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultPoolConfig().JobTimeout
	}
	if config.PopTimeout <= 0 {
		config.PopTimeout = DefaultPoolConfig().PopTimeout
	}
	return &WorkerPool{
		config:    config,
		transport: transport,
		runner:    runner,
		logger:    logger,
	}
}

// SetMetrics installs the sync engine instruments. Pass nil to leave the
// pool unmetered; every record call is nil-safe.
func (p *WorkerPool) SetMetrics(metrics *telemetry.SyncMetrics) {
	p.metrics = metrics
}

// Start recovers unacked messages and launches the workers.
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = true
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for _, queue := range AllNames() {
		recovered, err := p.transport.Recover(ctx, queue)
		if err != nil {
			p.logger.Warn("Queue recovery failed",
				zap.String("queue", queue),
				zap.Error(err),
			)
		} else if recovered > 0 {
			p.logger.Info("Recovered unacked messages",
				zap.String("queue", queue),
				zap.Int("count", recovered),
			)
			p.metrics.RecordRecovered(ctx, queue, recovered)
		}
		for i := 0; i < p.config.WorkersPerQueue; i++ {
			p.wg.Add(1)
			go p.worker(ctx, queue, i)
		}
	}

	p.logger.Info("Sync worker pool started",
		zap.Int("workers_per_queue", p.config.WorkersPerQueue),
		zap.Duration("job_timeout", p.config.JobTimeout),
	)
	return nil
}

// Stop drains the workers, waiting up to ctx's deadline.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Sync worker pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Sync worker pool stop timed out")
		return ctx.Err()
	}
}

// worker loops on one queue until the pool stops.
func (p *WorkerPool) worker(ctx context.Context, queue string, workerID int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started",
		zap.String("queue", queue),
		zap.Int("worker_id", workerID),
	)

	for {
		if ctx.Err() != nil {
			p.logger.Debug("Worker stopping",
				zap.String("queue", queue),
				zap.Int("worker_id", workerID),
			)
			return
		}

		msg, err := p.transport.Pop(ctx, queue, p.config.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("Queue pop failed",
				zap.String("queue", queue),
				zap.Error(err),
			)
			// Back off so a broken transport does not spin the worker hot.
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		if msg == nil {
			continue
		}
		p.process(ctx, queue, msg, workerID)
	}
}

// process runs one job and acks its message. The message is acked even when
// the run fails: the job row carries the FAILED state, and retries are
// explicit re-enqueues.
func (p *WorkerPool) process(ctx context.Context, queue string, msg *Message, workerID int) {
	jobCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	defer cancel()

	started := time.Now()
	if err := p.runner.Run(jobCtx, msg.TenantID, msg.JobID); err != nil {
		p.logger.Error("Job run failed",
			zap.String("queue", queue),
			zap.String("job_id", msg.JobID.String()),
			zap.Int("worker_id", workerID),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err),
		)
		p.metrics.RecordJobRun(ctx, queue, telemetry.RunOutcomeError, time.Since(started))
	} else {
		p.logger.Debug("Job run finished",
			zap.String("queue", queue),
			zap.String("job_id", msg.JobID.String()),
			zap.Int("worker_id", workerID),
			zap.Duration("duration", time.Since(started)),
		)
		p.metrics.RecordJobRun(ctx, queue, telemetry.RunOutcomeOK, time.Since(started))
	}

	ackCtx, ackCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ackCancel()
	if err := p.transport.Ack(ackCtx, queue, *msg); err != nil {
		p.logger.Warn("Message ack failed",
			zap.String("queue", queue),
			zap.String("job_id", msg.JobID.String()),
			zap.Error(err),
		)
	}
}
