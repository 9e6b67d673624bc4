package main

import (
	"fmt"
	"time"

	"ev-tracker/internal/migration"
	"ev-tracker/internal/notify"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification tools",
	}
	notifyCmd.AddCommand(newNotifyTestCommand(ctx))
	return notifyCmd
}

func newNotifyTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test <migration-id>",
		Short: "Publish a test notification for a migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			conn, err := ctx.database(cmd.Context())
			if err != nil {
				return err
			}
			defer ctx.close()

			m, err := migration.NewPostgresRepo(conn).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			ev := notify.Event{
				ID:           uuid.NewString(),
				Kind:         notify.KindEstimateAccepted,
				MigrationID:  m.ID,
				SiteName:     m.SiteName,
				CustomerName: m.CustomerName,
				Stage:        string(m.WorkflowStage),
				Actor:        "evctl",
				Currency:     m.Currency,
				TotalMonthly: m.TotalMonthly,
				TotalOnetime: m.TotalOnetime,
				Detail:       "test notification",
				OccurredAt:   time.Now().UTC(),
			}

			var pub notify.Publisher = notify.LogPublisher{Log: ctx.logger()}
			if cfg.AMQP.URL != "" {
				p := notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, ctx.logger())
				defer p.Close()
				pub = p
			}
			if err := pub.Publish(cmd.Context(), ev); err != nil {
				return err
			}
			msg := notify.Render(ev)
			fmt.Fprintf(cmd.OutOrStdout(), "Published %q\n", msg.Subject)
			return nil
		},
	}
}
