// Package cli implements familiectl, the operator command line for the
// shared family calendar.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/calendar"
	"github.com/familieapp/familieapp/internal/push"
	"github.com/familieapp/familieapp/internal/reminder"
)

// Env holds the services a command runs against.
type Env struct {
	Calendar  *calendar.Service
	Push      *push.Service
	Reminders *reminder.Service

	// Close releases the store. May be nil.
	Close func() error
}

// Opener builds an Env. It is called once per command invocation.
type Opener func(ctx context.Context) (*Env, error)

// NewRootCommand creates the familiectl command tree.
func NewRootCommand(open Opener, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "familiectl",
		Short: "Manage the family calendar and its push reminders",
		Long: `familiectl works directly against the configured data store.

Configuration is read the same way as the API server: defaults, then the
YAML file named by CONFIG_FILE, then environment variables.

Examples:
  familiectl users
  familiectl events create --title "Tannlege" --start 2026-10-20T09:00 --owner hugo
  familiectl push test --user hugo
  familiectl reminders sweep`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newUsersCommand(),
		newEventsCommand(open),
		newPushCommand(open),
		newRemindersCommand(open),
	)
	return root
}

// withEnv opens an Env for the duration of fn.
func withEnv(cmd *cobra.Command, open Opener, fn func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := open(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if env.Close != nil {
		defer func() { _ = env.Close() }()
	}
	return describe(fn(ctx, env))
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// describe expands validation failures into one readable error.
func describe(err error) error {
	if err == nil {
		return nil
	}

	var calErr *calendar.ValidationError
	if errors.As(err, &calErr) {
		return fieldError(calErr.Errors)
	}
	var pushErr *push.ValidationError
	if errors.As(err, &pushErr) {
		return fieldError(pushErr.Errors)
	}
	return err
}

func fieldError(fields []models.FieldError) error {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, "; "))
}
