package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var envFlag string

	ctx := newCommandContext(&envFlag)

	rootCmd := &cobra.Command{
		Use:           "evctl",
		Short:         "Operations CLI for the Enterprise Voice migration tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFlag, "env-file", ".env", "Environment file loaded before reading configuration")

	rootCmd.AddCommand(newSchemaCommand(ctx))
	rootCmd.AddCommand(newTeamCommand(ctx))
	rootCmd.AddCommand(newMigrationsCommand(ctx))
	rootCmd.AddCommand(newWorkerCommand(ctx))
	rootCmd.AddCommand(newNotifyCommand(ctx))

	return rootCmd
}
