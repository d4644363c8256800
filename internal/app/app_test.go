package app_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familieapp/familieapp/internal/app"
	"github.com/familieapp/familieapp/internal/config"
	"github.com/familieapp/familieapp/internal/push"
	"github.com/familieapp/familieapp/internal/store"
)

func memoryConfig() config.Config {
	cfg := config.Default()
	cfg.Store.Backend = store.BackendMemory
	return cfg
}

func TestBuild_Memory(t *testing.T) {
	ctx := context.Background()

	services, err := app.Build(ctx, memoryConfig(), zerolog.Nop(), app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = services.Close() })

	assert.Equal(t, store.BackendMemory, services.Store.Backend)
	assert.False(t, services.Push.Enabled())
	assert.False(t, services.Trigger.Enabled())
	require.NoError(t, services.Store.Ping(ctx))

	_, err = services.Reminders.Sweep(ctx)
	assert.ErrorIs(t, err, push.ErrNotConfigured)
}

func TestBuild_PushUpstreamsRegisterPerHost(t *testing.T) {
	cfg := memoryConfig()
	cfg.Push.PublicKey = "pub"
	cfg.Push.PrivateKey = "priv"
	cfg.CronSecret = "secret"

	services, err := app.Build(context.Background(), cfg, zerolog.Nop(), app.Options{})
	require.NoError(t, err)

	assert.True(t, services.Push.Enabled())
	assert.True(t, services.Trigger.Enabled())
	// Push clients are created per endpoint host on first send.
	assert.Equal(t, 0, services.Upstreams.Len())
	assert.Nil(t, services.Upstreams.Health(app.WebPushUpstream))
}

func TestBuild_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "sqlite"

	_, err := app.Build(context.Background(), cfg, zerolog.Nop(), app.Options{})
	assert.Error(t, err)
}
