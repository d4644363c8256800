package cli

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/app"
	"github.com/familieapp/familieapp/internal/config"
)

// ConfigOpener opens the store and services described by cfg.
func ConfigOpener(cfg config.Config, log zerolog.Logger, opts app.Options) Opener {
	return func(ctx context.Context) (*Env, error) {
		services, err := app.Build(ctx, cfg, log, opts)
		if err != nil {
			return nil, err
		}
		return &Env{
			Calendar:  services.Calendar,
			Push:      services.Push,
			Reminders: services.Reminders,
			Close:     services.Close,
		}, nil
	}
}
