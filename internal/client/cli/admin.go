package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/spf13/cobra"
)

// Admin is the slice of the server stack credctl administers.
type Admin interface {
	Migrate(ctx context.Context) error
	RegisterAudience(ctx context.Context, name string) (*models.Audience, error)
	ListAudiences(ctx context.Context) ([]models.Audience, error)
	ResetPassword(ctx context.Context, email, password string) error
	AssignRoles(ctx context.Context, email string, roles []string) (*models.User, error)
	Close() error
}

func (a *App) withAdmin(cmd *cobra.Command, fn func(ctx context.Context, adm Admin) error) (err error) {
	ctx := cmd.Context()
	adm, err := a.openAdmin(ctx)
	if err != nil {
		return fmt.Errorf("init failed: %w", err)
	}
	defer func() {
		if cerr := adm.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(ctx, adm)
}

func (a *App) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply all up migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAdmin(cmd, func(ctx context.Context, adm Admin) error {
				if err := adm.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "schema is up to date")
				return nil
			})
		},
	}
}

func (a *App) audienceCmd() *cobra.Command {
	audienceCmd := &cobra.Command{
		Use:   "audience",
		Short: "Manage client applications allowed to obtain tokens",
	}

	addCmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Register an audience and print its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAdmin(cmd, func(ctx context.Context, adm Admin) error {
				aud, err := adm.RegisterAudience(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "id:    %s\nname:  %s\ntoken: %s\n", aud.ID, aud.Name, aud.Token)
				return nil
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered audiences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAdmin(cmd, func(ctx context.Context, adm Admin) error {
				list, err := adm.ListAudiences(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTOKEN")
				for _, aud := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", aud.ID, aud.Name, aud.Token)
				}
				return tw.Flush()
			})
		},
	}

	audienceCmd.AddCommand(addCmd, listCmd)
	return audienceCmd
}

func (a *App) userCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Administer user accounts",
	}

	setPasswordCmd := &cobra.Command{
		Use:   "set-password EMAIL",
		Short: "Set a user's password, applying policy and reuse checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := GetNewPassword(a.out)
			if err != nil {
				return err
			}
			return a.withAdmin(cmd, func(ctx context.Context, adm Admin) error {
				if err := adm.ResetPassword(ctx, args[0], password); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "password updated")
				return nil
			})
		},
	}

	rolesCmd := &cobra.Command{
		Use:   "roles EMAIL [ROLE...]",
		Short: "Replace a user's roles; no roles clears them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAdmin(cmd, func(ctx context.Context, adm Admin) error {
				user, err := adm.AssignRoles(ctx, args[0], args[1:])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s: [%s]\n", user.Email, strings.Join(user.Roles, " "))
				return nil
			})
		},
	}

	userCmd.AddCommand(setPasswordCmd, rolesCmd)
	return userCmd
}
