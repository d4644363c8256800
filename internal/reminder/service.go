package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/eventtime"
	"github.com/familieapp/familieapp/internal/push"
	"github.com/familieapp/familieapp/internal/store"
	"github.com/familieapp/familieapp/internal/user"
)

// Notifier delivers a payload to one subscription.
type Notifier interface {
	Enabled() bool
	Send(ctx context.Context, sub store.Subscription, payload push.Payload) error
}

// Service runs reminder sweeps over the shared document.
type Service struct {
	config      Config
	logger      zerolog.Logger
	repo        store.Repository
	notifier    Notifier
	instruments *Instruments
	now         func() time.Time

	// Metrics
	metrics *Metrics
}

// Metrics tracks sweep statistics.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	TotalSweeps          int64
	FailedSweeps         int64
	TotalPushed          int64
	TotalFailed          int64
	RemovedSubscriptions int64

	// Timings
	LastSweepAt       time.Time
	LastSweepDuration time.Duration
	TotalDuration     time.Duration

	LastError string
}

// ServiceConfig holds dependencies for creating a Service.
type ServiceConfig struct {
	Config      Config
	Logger      zerolog.Logger
	Repository  store.Repository
	Notifier    Notifier
	Instruments *Instruments

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// NewService creates a reminder service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		config:      cfg.Config.withDefaults(),
		logger:      cfg.Logger,
		repo:        cfg.Repository,
		notifier:    cfg.Notifier,
		instruments: cfg.Instruments,
		now:         now,
		metrics:     &Metrics{},
	}
}

// Result contains the outcome of one sweep.
type Result struct {
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
	DueEvents            int
	Attempted            int
	Pushed               int
	Failed               int
	RemovedSubscriptions int
}

type delivery struct {
	key      string
	eventID  string
	endpoint string
	sub      store.Subscription
	payload  push.Payload
}

// Sweep sends every reminder that is due and not yet recorded, then
// persists the new dedupe keys and drops subscriptions the push service
// reported as gone.
func (s *Service) Sweep(ctx context.Context) (*Result, error) {
	if s.notifier == nil || !s.notifier.Enabled() {
		return nil, push.ErrNotConfigured
	}

	now := s.now()
	result := &Result{StartTime: now}

	doc, err := s.repo.Get(ctx)
	if err != nil {
		s.recordFailure(err)
		return nil, fmt.Errorf("load document: %w", err)
	}

	sent := NewSentLog(doc.SentReminders)
	jobs := s.plan(doc, now, sent, result)
	result.Attempted = len(jobs)

	s.logger.Info().
		Int("due_events", result.DueEvents).
		Int("deliveries", len(jobs)).
		Int("sent_log", sent.Len()).
		Int("concurrency", s.config.Concurrency).
		Msg("starting reminder sweep")

	outcomes := s.dispatch(ctx, jobs)

	var delivered []string
	dead := make(map[string]struct{})
	for i, job := range jobs {
		err := outcomes[i]
		if err == nil {
			delivered = append(delivered, job.key)
			result.Pushed++
			continue
		}
		result.Failed++
		if push.IsGone(err) {
			dead[job.endpoint] = struct{}{}
			continue
		}
		s.logger.Warn().
			Err(err).
			Str("event_id", job.eventID).
			Msg("reminder delivery failed")
	}
	result.RemovedSubscriptions = len(dead)

	if len(delivered) > 0 || len(dead) > 0 {
		if err := s.persist(ctx, delivered, dead); err != nil {
			s.recordFailure(err)
			return nil, err
		}
	}

	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	s.updateMetrics(result)
	s.instruments.record(ctx, result)

	s.logger.Info().
		Dur("duration", result.Duration).
		Int("pushed", result.Pushed).
		Int("failed", result.Failed).
		Int("removed_subscriptions", result.RemovedSubscriptions).
		Msg("reminder sweep completed")

	return result, nil
}

// plan lists the deliveries that are due at now and absent from sent.
func (s *Service) plan(doc *store.Document, now time.Time, sent *SentLog, result *Result) []delivery {
	loc := s.config.Location
	planned := make(map[string]struct{})
	var jobs []delivery

	for _, ev := range doc.Events {
		if ev.AllDay {
			continue
		}
		startAt, ok := eventtime.Parse(ev.Start, loc)
		if !ok {
			continue
		}
		reminderAt := startAt.Add(-s.config.Lead)
		if reminderAt.After(now) || now.Sub(reminderAt) > s.config.Lookback {
			continue
		}
		result.DueEvents++

		payload := push.Payload{
			Title: "Påminnelse for " + user.DisplayName(ev.OwnerID, "familie"),
			Body:  fmt.Sprintf("%s starter %s", ev.Title, eventtime.FormatValue(ev.Start, loc)),
			URL:   push.DefaultURL,
		}

		for _, rec := range doc.Subscriptions {
			if rec.UserID != ev.OwnerID {
				continue
			}
			key := DedupeKey(ev.ID, rec.Subscription.Endpoint, reminderAt)
			if sent.Has(key) {
				continue
			}
			if _, dup := planned[key]; dup {
				continue
			}
			planned[key] = struct{}{}
			jobs = append(jobs, delivery{
				key:      key,
				eventID:  ev.ID,
				endpoint: rec.Subscription.Endpoint,
				sub:      rec.Subscription,
				payload:  payload,
			})
		}
	}
	return jobs
}

type outcome struct {
	index int
	err   error
}

// dispatch sends jobs on a bounded worker pool. The returned slice is
// indexed like jobs.
func (s *Service) dispatch(ctx context.Context, jobs []delivery) []error {
	outcomes := make([]error, len(jobs))
	if len(jobs) == 0 {
		return outcomes
	}

	jobsChan := make(chan int, len(jobs))
	resultsChan := make(chan outcome, len(jobs))

	workers := s.config.Concurrency
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobsChan {
				resultsChan <- outcome{index: idx, err: s.deliver(ctx, jobs[idx])}
			}
		}()
	}

	for i := range jobs {
		jobsChan <- i
	}
	close(jobsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for o := range resultsChan {
		outcomes[o.index] = o.err
	}
	return outcomes
}

func (s *Service) deliver(ctx context.Context, job delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.config.SendTimeout)
	defer cancel()
	return s.notifier.Send(sendCtx, job.sub, job.payload)
}

// persist merges delivered keys into the current document and removes
// dead subscriptions in one atomic update.
func (s *Service) persist(ctx context.Context, delivered []string, dead map[string]struct{}) error {
	_, err := store.Update(ctx, s.repo, func(doc *store.Document) error {
		log := NewSentLog(doc.SentReminders)
		for _, key := range delivered {
			log.Add(key)
		}
		doc.SentReminders = log.Newest(s.config.Retention)

		if len(dead) > 0 {
			kept := doc.Subscriptions[:0]
			for _, rec := range doc.Subscriptions {
				if _, gone := dead[rec.Subscription.Endpoint]; !gone {
					kept = append(kept, rec)
				}
			}
			doc.Subscriptions = kept
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save sweep results: %w", err)
	}
	return nil
}

func (s *Service) recordFailure(err error) {
	s.metrics.mu.Lock()
	defer s.metrics.mu.Unlock()

	s.metrics.TotalSweeps++
	s.metrics.FailedSweeps++
	s.metrics.LastError = err.Error()
}

func (s *Service) updateMetrics(result *Result) {
	s.metrics.mu.Lock()
	defer s.metrics.mu.Unlock()

	s.metrics.TotalSweeps++
	s.metrics.TotalPushed += int64(result.Pushed)
	s.metrics.TotalFailed += int64(result.Failed)
	s.metrics.RemovedSubscriptions += int64(result.RemovedSubscriptions)
	s.metrics.LastSweepAt = result.EndTime
	s.metrics.LastSweepDuration = result.Duration
	s.metrics.TotalDuration += result.Duration
	s.metrics.LastError = ""
}

// GetMetrics returns a copy of the current metrics.
func (s *Service) GetMetrics() Metrics {
	s.metrics.mu.RLock()
	defer s.metrics.mu.RUnlock()

	return Metrics{
		TotalSweeps:          s.metrics.TotalSweeps,
		FailedSweeps:         s.metrics.FailedSweeps,
		TotalPushed:          s.metrics.TotalPushed,
		TotalFailed:          s.metrics.TotalFailed,
		RemovedSubscriptions: s.metrics.RemovedSubscriptions,
		LastSweepAt:          s.metrics.LastSweepAt,
		LastSweepDuration:    s.metrics.LastSweepDuration,
		TotalDuration:        s.metrics.TotalDuration,
		LastError:            s.metrics.LastError,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (s *Service) MetricsSnapshot() map[string]interface{} {
	m := s.GetMetrics()
	return map[string]interface{}{
		"total_sweeps":          m.TotalSweeps,
		"failed_sweeps":         m.FailedSweeps,
		"total_pushed":          m.TotalPushed,
		"total_failed":          m.TotalFailed,
		"removed_subscriptions": m.RemovedSubscriptions,
		"last_sweep_at":         m.LastSweepAt,
		"last_sweep_duration":   m.LastSweepDuration.String(),
		"total_duration":        m.TotalDuration.String(),
		"last_error":            m.LastError,
	}
}
