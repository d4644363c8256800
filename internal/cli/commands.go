package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/calendar"
	"github.com/familieapp/familieapp/internal/store"
	"github.com/familieapp/familieapp/internal/user"
)

func newUsersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the household members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{"users": user.All()})
		},
	}
}

func newEventsCommand(open Opener) *cobra.Command {
	events := &cobra.Command{
		Use:     "events",
		Aliases: []string{"ev"},
		Short:   "Manage calendar events",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				all, err := env.Calendar.List(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"events": all})
			})
		},
	}

	var in calendar.CreateInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		Long: `Create an event owned by one household member.

Start and end accept RFC 3339, a zone-less local time such as
2026-10-20T09:00, or a bare date for all-day events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				created, all, err := env.Calendar.Create(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"event": created, "events": all})
			})
		},
	}
	create.Flags().StringVar(&in.Title, "title", "", "event title")
	create.Flags().StringVar(&in.Description, "description", "", "optional description")
	create.Flags().StringVar(&in.Start, "start", "", "start time")
	create.Flags().StringVar(&in.End, "end", "", "optional end time")
	create.Flags().BoolVar(&in.AllDay, "all-day", false, "mark as an all-day event")
	create.Flags().StringVar(&in.OwnerID, "owner", "", "owner user id")

	del := &cobra.Command{
		Use:     "delete EVENT_ID",
		Aliases: []string{"rm"},
		Short:   "Delete an event and forget its sent reminders",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				all, err := env.Calendar.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"events": all})
			})
		},
	}

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the iCalendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				data, err := env.Calendar.Export(ctx)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil { //nolint:gosec // calendar feeds are public
					return fmt.Errorf("write %s: %w", output, err)
				}
				return nil
			})
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "file to write, stdout when empty")

	events.AddCommand(list, create, del, export)
	return events
}

func newPushCommand(open Opener) *cobra.Command {
	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Manage push subscriptions",
	}

	var (
		userID string
		sub    store.Subscription
	)
	subscribe := &cobra.Command{
		Use:   "subscribe",
		Short: "Register a browser push subscription for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				if err := env.Push.Subscribe(ctx, userID, sub); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), models.OKResponse{OK: true})
			})
		},
	}
	subscribe.Flags().StringVar(&userID, "user", "", "user id")
	subscribe.Flags().StringVar(&sub.Endpoint, "endpoint", "", "push service endpoint URL")
	subscribe.Flags().StringVar(&sub.Keys.P256dh, "p256dh", "", "client public key")
	subscribe.Flags().StringVar(&sub.Keys.Auth, "auth", "", "client auth secret")

	var endpoint string
	unsubscribe := &cobra.Command{
		Use:   "unsubscribe",
		Short: "Remove a push subscription by endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				if err := env.Push.Unsubscribe(ctx, endpoint); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), models.OKResponse{OK: true})
			})
		},
	}
	unsubscribe.Flags().StringVar(&endpoint, "endpoint", "", "push service endpoint URL")

	var testUser string
	test := &cobra.Command{
		Use:   "test",
		Short: "Send a test notification to every device of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				sent, err := env.Push.SendTest(ctx, testUser)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), models.PushTestResponse{OK: true, Sent: sent})
			})
		},
	}
	test.Flags().StringVar(&testUser, "user", "", "user id")

	var listUser string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the push subscriptions of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !user.IsKnown(listUser) {
				return fmt.Errorf("unknown user %q", listUser)
			}
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				records, err := env.Push.ListByUser(ctx, listUser)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"subscriptions": records})
			})
		},
	}
	list.Flags().StringVar(&listUser, "user", "", "user id")

	pushCmd.AddCommand(subscribe, unsubscribe, test, list)
	return pushCmd
}

func newRemindersCommand(open Opener) *cobra.Command {
	reminders := &cobra.Command{
		Use:   "reminders",
		Short: "Run reminder sweeps",
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Send every reminder that is due now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				result, err := env.Reminders.Sweep(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), models.SweepResponse{
					OK:                   true,
					Pushed:               result.Pushed,
					RemovedSubscriptions: result.RemovedSubscriptions,
				})
			})
		},
	}

	reminders.AddCommand(sweep)
	return reminders
}
