// Package main provides familiectl, the operator command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/app"
	"github.com/familieapp/familieapp/internal/cli"
	"github.com/familieapp/familieapp/internal/config"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	// Logs go to stderr so stdout stays valid JSON.
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger().
		Level(zerolog.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(cli.ConfigOpener(cfg, log, app.Options{}), Version)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already ran
	}
}
