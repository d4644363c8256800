package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs the sweep job on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	job        *SweepJob
	schedule   string
	runOnStart bool
	entryID    cron.EntryID
	logger     zerolog.Logger
}

// NewScheduler creates a scheduler for job. The schedule is a standard
// five-field cron expression.
func NewScheduler(cfg Config, job *SweepJob, log zerolog.Logger) (*Scheduler, error) {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultConfig().Schedule
	}

	cronLog := cronLogger{log: log.With().Str("component", "cron").Logger()}
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	s := &Scheduler{
		cron:       c,
		job:        job,
		schedule:   schedule,
		runOnStart: cfg.RunOnStart,
		logger:     log,
	}

	id, err := c.AddFunc(schedule, s.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	s.entryID = id
	return s, nil
}

// Start starts the cron loop and blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.schedule).
		Time("next_run", s.Next()).
		Msg("scheduler started")

	if s.runOnStart {
		go s.tick()
	}

	<-ctx.Done()
	s.Stop()
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// Next returns the next scheduled run.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) tick() {
	// Errors are logged and counted by the job.
	_, _ = s.job.Run(context.Background())
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
