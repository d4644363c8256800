package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/auth"
	"github.com/familieapp/familieapp/internal/push"
	"github.com/familieapp/familieapp/internal/reminder"
	"github.com/familieapp/familieapp/internal/resilience"
)

// SweepUpstream names the sweep endpoint client in the upstream registry.
const SweepUpstream = "sweep-api"

// Sweeper runs one reminder sweep. *reminder.Service sweeps in-process and
// RemoteSweeper asks the API to do it.
type Sweeper interface {
	Sweep(ctx context.Context) (*reminder.Result, error)
}

var _ Sweeper = (*reminder.Service)(nil)

// HTTPDoer sends HTTP requests. *resilience.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenMinter mints bearer tokens for the sweep trigger.
type TokenMinter interface {
	Enabled() bool
	Mint(job string) (string, time.Time, error)
}

// SweepClientConfig returns the client settings for RemoteSweeper.
//
// Sweep requests are sent exactly once: a 500 can follow pushes whose
// dedupe keys were never stored, and a repeat would send them again. A 503
// means push is not configured and is not a breaker failure.
func SweepClientConfig(timeout time.Duration) resilience.ClientConfig {
	cfg := resilience.DefaultClientConfig(SweepUpstream)
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	cfg.MaxRetries = 0
	cfg.IsFailure = func(status int) bool {
		return status >= 500 && status != http.StatusServiceUnavailable
	}
	return cfg
}

// RemoteSweeper triggers sweeps through the API's reminder endpoint.
type RemoteSweeper struct {
	url    string
	client HTTPDoer
	tokens TokenMinter
	now    func() time.Time
}

// NewRemoteSweeper creates a sweeper that POSTs to url. tokens may be nil
// when the endpoint is open.
func NewRemoteSweeper(url string, client HTTPDoer, tokens TokenMinter) *RemoteSweeper {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteSweeper{
		url:    url,
		client: client,
		tokens: tokens,
		now:    time.Now,
	}
}

// Sweep triggers one remote sweep. A 503 answer maps to
// push.ErrNotConfigured and a 401 to auth.ErrUnauthorized.
func (s *RemoteSweeper) Sweep(ctx context.Context) (*reminder.Result, error) {
	start := s.now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build sweep request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if s.tokens != nil && s.tokens.Enabled() {
		token, _, err := s.tokens.Mint(JobReminderSweep)
		if err != nil {
			return nil, fmt.Errorf("mint trigger token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trigger sweep: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("read sweep response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: %s", push.ErrNotConfigured, problemDetail(body, resp.Status))
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", auth.ErrUnauthorized, problemDetail(body, resp.Status))
	default:
		return nil, fmt.Errorf("sweep endpoint returned %s: %s", resp.Status, problemDetail(body, resp.Status))
	}

	var out models.SweepResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode sweep response: %w", err)
	}
	if !out.OK {
		return nil, errors.New("sweep endpoint reported failure")
	}

	end := s.now()
	return &reminder.Result{
		StartTime:            start,
		EndTime:              end,
		Duration:             end.Sub(start),
		Pushed:               out.Pushed,
		RemovedSubscriptions: out.RemovedSubscriptions,
	}, nil
}

func problemDetail(body []byte, fallback string) string {
	var p models.Problem
	if err := json.Unmarshal(body, &p); err == nil && p.Detail != "" {
		return p.Detail
	}
	return fallback
}
