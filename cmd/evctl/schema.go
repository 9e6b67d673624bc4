package main

import (
	"fmt"

	"ev-tracker/internal/db"

	"github.com/spf13/cobra"
)

func newSchemaCommand(ctx *commandContext) *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and apply the database schema",
	}

	schemaCmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the embedded schema DDL",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), db.Schema())
			return err
		},
	})

	schemaCmd.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Apply the embedded schema (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := ctx.database(cmd.Context())
			if err != nil {
				return err
			}
			defer ctx.close()

			if err := db.Apply(cmd.Context(), conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
			return nil
		},
	})

	return schemaCmd
}
