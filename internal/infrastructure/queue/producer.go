package queue

import (
	"context"

	"go.uber.org/zap"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// Producer pushes persisted jobs onto their kind's queue. It is the
// application layer's enqueuer port.
type Producer struct {
	transport Transport
	logger    *zap.Logger
}

// NewProducer creates a Producer on the given transport.
func NewProducer(transport Transport, logger *zap.Logger) *Producer {
	return &Producer{transport: transport, logger: logger}
}

// Enqueue pushes one job message.
func (p *Producer) Enqueue(ctx context.Context, job *integration.SyncJob) error {
	msg := Message{
		JobID:    job.ID,
		TenantID: job.TenantID,
		Kind:     string(job.Kind),
	}
	if err := p.transport.Push(ctx, Name(job.Kind), msg); err != nil {
		return err
	}
	p.logger.Debug("Job message pushed",
		zap.String("job_id", job.ID.String()),
		zap.String("queue", Name(job.Kind)),
	)
	return nil
}
