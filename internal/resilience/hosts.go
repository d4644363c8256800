package resilience

import (
	"net/http"
	"sync"
)

// HostClients keeps one Client, and so one breaker, per request host. An
// outage at one push service leaves the others reachable.
type HostClients struct {
	mu      sync.Mutex
	base    ClientConfig
	clients map[string]*Client
}

// NewHostClients creates per-host clients from base. Each client is named
// "<base name>:<host>" and registered in base.Registry when set.
func NewHostClients(base ClientConfig) *HostClients {
	return &HostClients{
		base:    base,
		clients: make(map[string]*Client),
	}
}

// Do sends req through the client for its host.
func (h *HostClients) Do(req *http.Request) (*http.Response, error) {
	return h.For(req.URL.Host).Do(req)
}

// For returns the client for host, creating it on first use.
func (h *HostClients) For(host string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[host]; ok {
		return c
	}

	cfg := h.base
	cfg.Name = h.base.Name + ":" + host
	if h.base.CircuitBreaker != nil {
		cb := *h.base.CircuitBreaker
		cb.Name = cfg.Name
		cfg.CircuitBreaker = &cb
	}

	c := NewClient(cfg)
	h.clients[host] = c
	return c
}
