package main

import (
	"fmt"
	"strconv"

	"ev-tracker/internal/migration"
	"ev-tracker/internal/reporting"
	"ev-tracker/internal/workflow"

	"github.com/spf13/cobra"
)

func newMigrationsCommand(ctx *commandContext) *cobra.Command {
	migCmd := &cobra.Command{
		Use:     "migrations",
		Aliases: []string{"mig"},
		Short:   "Inspect migrations",
	}

	migCmd.AddCommand(newMigrationsListCommand(ctx))
	migCmd.AddCommand(newMigrationsSummaryCommand(ctx))

	return migCmd
}

func newMigrationsListCommand(ctx *commandContext) *cobra.Command {
	var stage, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List migrations with their stage and progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stage != "" && !workflow.Valid(stage) {
				return fmt.Errorf("unknown stage %q", stage)
			}
			conn, err := ctx.database(cmd.Context())
			if err != nil {
				return err
			}
			defer ctx.close()

			items, err := migration.NewPostgresRepo(conn).List(cmd.Context(), migration.Filter{
				Stage:  workflow.Stage(stage),
				Search: search,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No migrations")
				return nil
			}

			relative := interactive(out)
			rows := make([][]string, 0, len(items))
			for _, m := range items {
				rows = append(rows, []string{
					m.ID,
					m.SiteName,
					m.CustomerName,
					workflow.Describe(m.WorkflowStage).Label,
					strconv.Itoa(workflow.Progress(m.WorkflowStage)) + "%",
					formatWhen(m.UpdatedAt, relative),
				})
			}
			headers := []string{"ID", "Site", "Customer", "Stage", "Progress", "Updated"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Only migrations in this workflow stage")
	cmd.Flags().StringVarP(&search, "query", "q", "", "Match site, customer or survey id")

	return cmd
}

func newMigrationsSummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the dashboard summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := ctx.database(cmd.Context())
			if err != nil {
				return err
			}
			defer ctx.close()

			d, err := reporting.NewService(reporting.NewPostgresRepo(conn)).Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Migrations: %d total, %d active, %d parked, %d completed\n", d.Total, d.Active, d.Parked, d.Completed)
			fmt.Fprintf(out, "Average progress: %.1f%%\n", d.AverageProgress)
			fmt.Fprintf(out, "Phone numbers: %d\n", d.NumbersTotal)

			rows := make([][]string, 0, len(d.ByStage))
			for _, sc := range d.ByStage {
				rows = append(rows, []string{sc.Label, strconv.Itoa(sc.Count)})
			}
			fmt.Fprintln(out, renderTable([]string{"Stage", "Migrations"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
