// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics provides metrics for the sync engine: job runs per queue and
// outcome, run duration, and queue recovery activity. All record methods are
// nil-safe so callers without a configured provider need no guards.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	jobRunsTotal   *Counter
	jobRunDuration *Histogram
	recoveredTotal *Counter
}

// Run outcomes for metrics labeling.
const (
	RunOutcomeOK    = "ok"
	RunOutcomeError = "error"
)

// NewSyncMetrics creates a SyncMetrics instance over the given meter.
func NewSyncMetrics(meter metric.Meter, logger *zap.Logger) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:  meter,
		logger: logger,
	}

	var err error

	sm.jobRunsTotal, err = NewCounter(
		meter,
		"sync_job_runs_total",
		"Total number of sync job runs",
		"{jobs}",
	)
	if err != nil {
		return nil, err
	}

	sm.jobRunDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "sync_job_run_duration_seconds",
		Description: "Duration of one sync job run",
		Unit:        "s",
		Boundaries:  JobDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.recoveredTotal, err = NewCounter(
		meter,
		"sync_queue_recovered_total",
		"Messages moved back from the processing list on startup recovery",
		"{messages}",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordJobRun records one completed job run with its queue, outcome, and
// wall-clock duration.
func (sm *SyncMetrics) RecordJobRun(ctx context.Context, queue, outcome string, d time.Duration) {
	if sm == nil {
		return
	}
	sm.jobRunsTotal.Inc(ctx,
		AttrQueue.String(queue),
		AttrOutcome.String(outcome),
	)
	sm.jobRunDuration.RecordDuration(ctx, d,
		AttrQueue.String(queue),
	)
}

// RecordRecovered records messages recovered for a queue on startup.
func (sm *SyncMetrics) RecordRecovered(ctx context.Context, queue string, count int) {
	if sm == nil || count <= 0 {
		return
	}
	sm.recoveredTotal.Add(ctx, int64(count),
		AttrQueue.String(queue),
	)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
