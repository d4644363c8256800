package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/auth"
	"github.com/familieapp/familieapp/internal/push"
	"github.com/familieapp/familieapp/internal/reminder"
	"github.com/familieapp/familieapp/internal/resilience"
	"github.com/familieapp/familieapp/internal/worker"
)

type fakeSweeper struct {
	calls  atomic.Int32
	result *reminder.Result
	err    error
}

func (f *fakeSweeper) Sweep(_ context.Context) (*reminder.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &reminder.Result{}, nil
}

func newJob(s worker.Sweeper) *worker.SweepJob {
	return worker.NewSweepJob(worker.SweepJobConfig{Sweeper: s, Logger: zerolog.Nop()})
}

func TestDefaultConfig(t *testing.T) {
	cfg := worker.DefaultConfig()

	assert.Equal(t, "*/5 * * * *", cfg.Schedule)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Empty(t, cfg.SweepURL)
	assert.False(t, cfg.PubSubEnabled())

	cfg.PubSubProjectID = "proj"
	assert.False(t, cfg.PubSubEnabled())
	cfg.PubSubSubscription = "sweeps"
	assert.True(t, cfg.PubSubEnabled())
}

func TestSweepJob_Run(t *testing.T) {
	s := &fakeSweeper{result: &reminder.Result{Pushed: 3, RemovedSubscriptions: 1}}
	job := newJob(s)

	result, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Pushed)

	m := job.GetMetrics()
	assert.Equal(t, int64(1), m.TotalRuns)
	assert.Equal(t, int64(3), m.TotalPushed)
	assert.Zero(t, m.FailedRuns)
	assert.False(t, m.LastRunAt.IsZero())
}

func TestSweepJob_NotConfiguredIsSkipped(t *testing.T) {
	job := newJob(&fakeSweeper{err: push.ErrNotConfigured})

	result, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)

	m := job.GetMetrics()
	assert.Equal(t, int64(1), m.SkippedRuns)
	assert.Zero(t, m.FailedRuns)
}

func TestSweepJob_Failure(t *testing.T) {
	job := newJob(&fakeSweeper{err: errors.New("store down")})

	_, err := job.Run(context.Background())
	require.Error(t, err)

	m := job.GetMetrics()
	assert.Equal(t, int64(1), m.FailedRuns)
	assert.Equal(t, "store down", m.LastError)

	snapshot := job.MetricsSnapshot()
	assert.Equal(t, int64(1), snapshot["failed_runs"])
	assert.Equal(t, "store down", snapshot["last_error"])
	assert.Contains(t, snapshot, "last_run_at")
}

func TestSweepJob_AppliesTimeout(t *testing.T) {
	var deadline time.Time
	s := sweepFunc(func(ctx context.Context) (*reminder.Result, error) {
		deadline, _ = ctx.Deadline()
		return &reminder.Result{}, nil
	})
	job := worker.NewSweepJob(worker.SweepJobConfig{Sweeper: s, Timeout: time.Minute, Logger: zerolog.Nop()})

	_, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

type sweepFunc func(ctx context.Context) (*reminder.Result, error)

func (f sweepFunc) Sweep(ctx context.Context) (*reminder.Result, error) { return f(ctx) }

func TestMessageHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		health     error
		sweepErr   error
		wantErr    bool
		wantSweeps int32
	}{
		{name: "sweep", body: `{"job_type":"reminder_sweep"}`, wantSweeps: 1},
		{name: "sweep failure", body: `{"job_type":"reminder_sweep"}`, sweepErr: errors.New("boom"), wantErr: true, wantSweeps: 1},
		{name: "health ok", body: `{"job_type":"health_check"}`},
		{name: "health failure", body: `{"job_type":"health_check"}`, health: errors.New("unreachable"), wantErr: true},
		{name: "unknown job acked", body: `{"job_type":"provider_refresh"}`},
		{name: "malformed", body: `{not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSweeper{err: tt.sweepErr}
			health := func(context.Context) error { return tt.health }
			h := worker.NewMessageHandler(newJob(s), health, zerolog.Nop())

			err := h.Handle(context.Background(), []byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantSweeps, s.calls.Load())
		})
	}
}

func TestMessageHandler_NilHealth(t *testing.T) {
	h := worker.NewMessageHandler(newJob(&fakeSweeper{}), nil, zerolog.Nop())
	assert.NoError(t, h.Handle(context.Background(), []byte(`{"job_type":"health_check"}`)))
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	_, err := worker.NewScheduler(worker.Config{Schedule: "every tuesday"}, newJob(&fakeSweeper{}), zerolog.Nop())
	assert.Error(t, err)
}

func TestScheduler_RunsOnStart(t *testing.T) {
	s := &fakeSweeper{}
	cfg := worker.DefaultConfig()
	cfg.RunOnStart = true

	sched, err := worker.NewScheduler(cfg, newJob(s), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !sched.Next().IsZero() }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

const cronSecret = "test-cron-secret"

func sweepServer(t *testing.T, authenticator *auth.TriggerAuthenticator, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if status != http.StatusOK {
			problem := &models.Problem{Status: status, Title: http.StatusText(status), Detail: "Push is not configured on server."}
			problem.Write(w)
			return
		}
		if err := authenticator.Authorize(r.Header.Get("Authorization")); err != nil {
			models.NewUnauthorized("", "Invalid trigger credentials.").Write(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.SweepResponse{OK: true, Pushed: 2, RemovedSubscriptions: 1})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sweepClient() *resilience.Client {
	return resilience.NewClient(worker.SweepClientConfig(5 * time.Second))
}

func TestRemoteSweeper_Success(t *testing.T) {
	a := auth.NewTriggerAuthenticator(cronSecret)
	srv := sweepServer(t, a, http.StatusOK)

	result, err := worker.NewRemoteSweeper(srv.URL, sweepClient(), a).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pushed)
	assert.Equal(t, 1, result.RemovedSubscriptions)
}

func TestRemoteSweeper_Unauthorized(t *testing.T) {
	srv := sweepServer(t, auth.NewTriggerAuthenticator(cronSecret), http.StatusOK)

	_, err := worker.NewRemoteSweeper(srv.URL, sweepClient(), auth.NewTriggerAuthenticator("wrong-secret")).Sweep(context.Background())
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Invalid trigger credentials.")
}

func TestRemoteSweeper_NotConfigured(t *testing.T) {
	srv := sweepServer(t, auth.NewTriggerAuthenticator(""), http.StatusServiceUnavailable)

	_, err := worker.NewRemoteSweeper(srv.URL, sweepClient(), nil).Sweep(context.Background())
	assert.ErrorIs(t, err, push.ErrNotConfigured)

	job := newJob(worker.NewRemoteSweeper(srv.URL, sweepClient(), nil))
	_, err = job.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(1), job.GetMetrics().SkippedRuns)
}

func TestRemoteSweeper_UnexpectedStatus(t *testing.T) {
	srv := sweepServer(t, auth.NewTriggerAuthenticator(""), http.StatusBadGateway)

	_, err := worker.NewRemoteSweeper(srv.URL, sweepClient(), nil).Sweep(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, push.ErrNotConfigured)
	assert.Contains(t, err.Error(), "502")
}

func TestSweepClientConfig(t *testing.T) {
	cfg := worker.SweepClientConfig(time.Minute)

	assert.Equal(t, worker.SweepUpstream, cfg.Name)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.Zero(t, cfg.MaxRetries)
	assert.False(t, cfg.IsFailure(http.StatusServiceUnavailable))
	assert.True(t, cfg.IsFailure(http.StatusInternalServerError))
	assert.True(t, cfg.IsFailure(http.StatusBadGateway))
}

func TestRemoteSweeper_NotConfiguredStaysSkipped(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		models.NewPushNotConfigured("").Write(w)
	}))
	t.Cleanup(srv.Close)

	job := newJob(worker.NewRemoteSweeper(srv.URL, sweepClient(), nil))
	for i := 0; i < 6; i++ {
		_, err := job.Run(context.Background())
		require.NoError(t, err, "run %d", i+1)
	}

	m := job.GetMetrics()
	assert.Equal(t, int32(6), hits.Load())
	assert.Equal(t, int64(6), m.SkippedRuns)
	assert.Zero(t, m.FailedRuns)
}

func TestRemoteSweeper_ServerErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		models.NewInternalError("", "An unexpected error occurred.").Write(w)
	}))
	t.Cleanup(srv.Close)

	_, err := worker.NewRemoteSweeper(srv.URL, sweepClient(), nil).Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, int32(1), hits.Load())
}
