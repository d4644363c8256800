package resilience_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familieapp/familieapp/internal/resilience"
)

func post(t *testing.T, c *resilience.HostClients, target string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, target, http.NoBody)
	require.NoError(t, err)
	return c.Do(req)
}

func TestHostClients_BreakerPerHost(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer healthy.Close()

	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("webpush")
	cfg.MaxRetries = 0
	cfg.Timeout = 5 * time.Second
	cfg.Registry = registry
	clients := resilience.NewHostClients(cfg)

	for i := 0; i < 5; i++ {
		resp, err := post(t, clients, failing.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	_, err := post(t, clients, failing.URL)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	resp, err := post(t, clients, healthy.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	failingHost, _ := url.Parse(failing.URL)
	healthyHost, _ := url.Parse(healthy.URL)
	assert.Equal(t, 2, registry.Len())
	assert.True(t, registry.Health("webpush:"+failingHost.Host).IsUnhealthy())
	assert.True(t, registry.Health("webpush:"+healthyHost.Host).IsHealthy())
}

func TestHostClients_ReusesClient(t *testing.T) {
	clients := resilience.NewHostClients(resilience.DefaultClientConfig("webpush"))

	a := clients.For("fcm.googleapis.com")
	assert.Same(t, a, clients.For("fcm.googleapis.com"))
	assert.NotSame(t, a, clients.For("updates.push.services.mozilla.com"))
	assert.Equal(t, "webpush:fcm.googleapis.com", a.Name())
}
