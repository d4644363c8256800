package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/push"
	"github.com/familieapp/familieapp/internal/reminder"
)

// SweepJob runs sweeps for the scheduler and the Pub/Sub handler and
// keeps run statistics.
type SweepJob struct {
	sweeper Sweeper
	timeout time.Duration
	logger  zerolog.Logger

	// Prevents overlapping runs between the scheduler and Pub/Sub.
	running sync.Mutex

	metrics *JobMetrics
}

// JobMetrics tracks job statistics.
type JobMetrics struct {
	mu sync.RWMutex

	TotalRuns   int64
	FailedRuns  int64
	SkippedRuns int64
	TotalPushed int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	LastError       string
}

// SweepJobConfig holds dependencies for creating a SweepJob.
type SweepJobConfig struct {
	Sweeper Sweeper
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewSweepJob creates a sweep job.
func NewSweepJob(cfg SweepJobConfig) *SweepJob {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &SweepJob{
		sweeper: cfg.Sweeper,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
		metrics: &JobMetrics{},
	}
}

// Run executes one sweep. A sweep skipped because push is not configured
// is not an error.
func (j *SweepJob) Run(ctx context.Context) (*reminder.Result, error) {
	j.running.Lock()
	defer j.running.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	result, err := j.sweeper.Sweep(runCtx)
	duration := time.Since(start)

	if errors.Is(err, push.ErrNotConfigured) {
		j.record(start, duration, nil, nil, true)
		j.logger.Warn().Msg("reminder sweep skipped: push is not configured")
		return nil, nil
	}

	j.record(start, duration, result, err, false)

	if err != nil {
		j.logger.Error().Err(err).Dur("duration", duration).Msg("reminder sweep failed")
		return nil, err
	}

	j.logger.Info().
		Dur("duration", duration).
		Int("pushed", result.Pushed).
		Int("failed", result.Failed).
		Int("removed_subscriptions", result.RemovedSubscriptions).
		Msg("reminder sweep completed")
	return result, nil
}

func (j *SweepJob) record(start time.Time, duration time.Duration, result *reminder.Result, err error, skipped bool) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.LastRunAt = start
	j.metrics.LastRunDuration = duration

	switch {
	case skipped:
		j.metrics.SkippedRuns++
	case err != nil:
		j.metrics.FailedRuns++
		j.metrics.LastError = err.Error()
	default:
		j.metrics.TotalPushed += int64(result.Pushed)
		j.metrics.LastError = ""
	}
}

// GetMetrics returns a copy of the current metrics.
func (j *SweepJob) GetMetrics() JobMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return JobMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		FailedRuns:      j.metrics.FailedRuns,
		SkippedRuns:     j.metrics.SkippedRuns,
		TotalPushed:     j.metrics.TotalPushed,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		LastError:       j.metrics.LastError,
	}
}

// MetricsSnapshot returns metrics as a map for the health endpoint.
func (j *SweepJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()

	snapshot := map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"failed_runs":       m.FailedRuns,
		"skipped_runs":      m.SkippedRuns,
		"total_pushed":      m.TotalPushed,
		"last_run_duration": m.LastRunDuration.String(),
	}
	if !m.LastRunAt.IsZero() {
		snapshot["last_run_at"] = m.LastRunAt.Format(time.RFC3339)
	}
	if m.LastError != "" {
		snapshot["last_error"] = m.LastError
	}
	return snapshot
}
