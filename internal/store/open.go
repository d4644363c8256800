package store

import (
	"context"
	"fmt"

	"github.com/familieapp/familieapp/internal/database"
)

// Supported backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
	BackendMemory   = "memory"
)

// Config selects and configures a backend.
type Config struct {
	// Backend is one of the Backend constants. Empty selects redis when
	// RedisURL is set and the file backend otherwise.
	Backend string `yaml:"backend"`

	FilePath   string          `yaml:"file_path"`
	RedisURL   string          `yaml:"redis_url"`
	RedisKey   string          `yaml:"redis_key"`
	BadgerPath string          `yaml:"badger_path"`
	Postgres   database.Config `yaml:"postgres"`
}

// ResolvedBackend returns the backend Open will use.
func (c Config) ResolvedBackend() string {
	if c.Backend != "" {
		return c.Backend
	}
	if c.RedisURL != "" {
		return BackendRedis
	}
	return BackendFile
}

// Handle is an opened repository together with its resources.
type Handle struct {
	Repository
	Backend string
	closeFn func() error
}

// Close releases connections held by the backend.
func (h *Handle) Close() error {
	if h.closeFn == nil {
		return nil
	}
	return h.closeFn()
}

// Update delegates to the wrapped repository so atomic backends keep their
// guarantees behind the handle.
func (h *Handle) Update(ctx context.Context, fn MutateFunc) (*Document, error) {
	return Update(ctx, h.Repository, fn)
}

// Ping checks that the backend is reachable. Backends without a native
// ping are probed with a read.
func (h *Handle) Ping(ctx context.Context) error {
	if p, ok := h.Repository.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	_, err := h.Repository.Get(ctx)
	return err
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg Config) (*Handle, error) {
	backend := cfg.ResolvedBackend()

	switch backend {
	case BackendFile:
		return &Handle{Repository: NewFileRepository(cfg.FilePath), Backend: backend}, nil

	case BackendMemory:
		return &Handle{Repository: NewInMemoryRepository(nil), Backend: backend}, nil

	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis backend requires REDIS_URL")
		}
		client, err := ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &Handle{
			Repository: NewRedisRepository(client, cfg.RedisKey),
			Backend:    backend,
			closeFn:    client.Close,
		}, nil

	case BackendPostgres:
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		repo := NewPostgresRepository(pool, "")
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &Handle{
			Repository: repo,
			Backend:    backend,
			closeFn: func() error {
				pool.Close()
				return nil
			},
		}, nil

	case BackendBadger:
		db, err := OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return &Handle{
			Repository: NewBadgerRepository(db),
			Backend:    backend,
			closeFn:    db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown data store backend %q", backend)
	}
}
