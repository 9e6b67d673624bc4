package main

import (
	"fmt"
	"log/slog"

	"ev-tracker/internal/notify"

	"github.com/spf13/cobra"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	var prefetch int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume the notification queue and deliver to migration subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.AMQP.URL == "" {
				return fmt.Errorf("AMQP_URL is required to run the worker")
			}
			conn, err := ctx.database(cmd.Context())
			if err != nil {
				return err
			}
			defer ctx.close()

			log := ctx.logger()
			log.Info("notification worker starting", slog.String("queue", cfg.AMQP.Queue))

			consumer := notify.Consumer{
				URL:      cfg.AMQP.URL,
				Queue:    cfg.AMQP.Queue,
				Prefetch: prefetch,
				Handler: notify.Dispatcher{
					Subscribers: notify.NewPostgresSubscribers(conn),
					Sender:      notify.LogSender{Log: log},
					Log:         log,
				},
				Log: log,
			}
			return consumer.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&prefetch, "prefetch", 50, "Unacknowledged messages held at once")

	return cmd
}
