package main

import (
	"fmt"
	"os"
	"strings"

	"ev-tracker/internal/rbac"
	"ev-tracker/internal/team"

	"github.com/spf13/cobra"
)

func newTeamCommand(ctx *commandContext) *cobra.Command {
	teamCmd := &cobra.Command{
		Use:   "team",
		Short: "Manage staff accounts",
	}

	teamCmd.AddCommand(newTeamCreateCommand(ctx))
	teamCmd.AddCommand(newTeamListCommand(ctx))

	return teamCmd
}

func teamService(cmd *cobra.Command, ctx *commandContext) (*team.Service, error) {
	conn, err := ctx.database(cmd.Context())
	if err != nil {
		return nil, err
	}
	return team.NewService(team.NewPostgresRepo(conn), ctx.logger()), nil
}

func newTeamCreateCommand(ctx *commandContext) *cobra.Command {
	var email, name, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account (the first account is always an admin)",
		Long: "Create a staff account. The password is read from EVCTL_PASSWORD.\n" +
			"When no account exists yet the new account is created as the first admin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("EVCTL_PASSWORD")
			if password == "" {
				return fmt.Errorf("EVCTL_PASSWORD is required")
			}
			svc, err := teamService(cmd, ctx)
			if err != nil {
				return err
			}
			defer ctx.close()

			existing, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			var m team.Member
			if len(existing) == 0 {
				m, err = svc.Setup(cmd.Context(), team.SetupInput{Email: email, Name: name, Password: password})
			} else {
				m, err = svc.Create(cmd.Context(), team.CreateInput{Email: email, Name: name, Password: password, Role: role})
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s <%s> as %s (%s)\n", m.Name, m.Email, m.Role, m.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", rbac.RoleMember, "Role: "+strings.Join([]string{rbac.RoleAdmin, rbac.RoleMember, rbac.RoleViewer}, ", "))
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newTeamListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staff accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := teamService(cmd, ctx)
			if err != nil {
				return err
			}
			defer ctx.close()

			members, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(members) == 0 {
				fmt.Fprintln(out, "No staff accounts")
				return nil
			}
			relative := interactive(out)
			rows := make([][]string, 0, len(members))
			for _, m := range members {
				active := "yes"
				if !m.IsActive {
					active = "no"
				}
				rows = append(rows, []string{m.Email, m.Name, m.Role, active, formatWhenPtr(m.LastLoginAt, relative)})
			}
			fmt.Fprintln(out, renderTable([]string{"Email", "Name", "Role", "Active", "Last login"}, rows, nil))
			return nil
		},
	}
}
