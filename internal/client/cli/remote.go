package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
	"github.com/spf13/cobra"
)

var ErrNoAudience = errors.New("audience token is not set; use --audience or GOPHAUTH_AUDIENCE_TOKEN")

// withRemote opens the session file, dials the server with the saved tokens
// and persists every token change the command causes.
func (a *App) withRemote(cmd *cobra.Command, fn func(ctx context.Context, c client.Client, s *session.Store) error) (err error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
	defer cancel()

	store, err := session.Open(ctx, a.cfg.SessionFile)
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := store.Tokens(ctx)
	if err != nil {
		return err
	}

	var saveErr error
	c, err := a.dial(a.cfg, tokens, func(t client.Tokens) {
		if err := store.SaveTokens(ctx, t); err != nil {
			saveErr = err
		}
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Close()

	if err := fn(ctx, c, store); err != nil {
		return err
	}
	if saveErr != nil {
		return fmt.Errorf("save session: %w", saveErr)
	}
	return nil
}

func (a *App) requireAudience() error {
	if a.cfg.AudienceToken == "" {
		return ErrNoAudience
	}
	return nil
}

func (a *App) registerCmd() *cobra.Command {
	var email, userName string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = GetSimpleText(a.in, "Email", a.out); err != nil {
					return err
				}
			}
			if userName == "" {
				if userName, err = GetSimpleText(a.in, "Username", a.out); err != nil {
					return err
				}
			}
			password, err := GetNewPassword(a.out)
			if err != nil {
				return err
			}
			return a.withRemote(cmd, func(ctx context.Context, c client.Client, _ *session.Store) error {
				id, err := c.Register(ctx, email, userName, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "registered %s (%s)\n", email, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&userName, "username", "", "account username")
	return cmd
}

func (a *App) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAudience(); err != nil {
				return err
			}
			var err error
			if email == "" {
				if email, err = GetSimpleText(a.in, "Email", a.out); err != nil {
					return err
				}
			}
			password, err := GetPassword(a.out, "Password")
			if err != nil {
				return err
			}
			return a.withRemote(cmd, func(ctx context.Context, c client.Client, s *session.Store) error {
				if err := c.Login(ctx, email, password); err != nil {
					return err
				}
				if err := s.SetEmail(ctx, email); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "logged in as %s\n", email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *App) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAudience(); err != nil {
				return err
			}
			return a.withRemote(cmd, func(ctx context.Context, c client.Client, _ *session.Store) error {
				if err := c.Exchange(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "access token renewed")
				return nil
			})
		},
	}
}

func (a *App) passwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the password of the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := GetPassword(a.out, "Current password")
			if err != nil {
				return err
			}
			next, err := GetNewPassword(a.out)
			if err != nil {
				return err
			}
			return a.withRemote(cmd, func(ctx context.Context, c client.Client, _ *session.Store) error {
				if err := c.ChangePassword(ctx, current, next); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "password changed")
				return nil
			})
		},
	}
}

func (a *App) prefsCmd() *cobra.Command {
	var twoFactor bool
	var channel string
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Update two-factor and notification preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tf *bool
			var ch *string
			if cmd.Flags().Changed("2fa") {
				tf = &twoFactor
			}
			if cmd.Flags().Changed("channel") {
				ch = &channel
			}
			return a.withRemote(cmd, func(ctx context.Context, c client.Client, _ *session.Store) error {
				p, err := c.UpdatePreferences(ctx, tf, ch)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "two-factor: %t\nchannel:    %s\n", p.TwoFactorEnabled, p.NotificationChannel)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&twoFactor, "2fa", false, "enable or disable two-factor authentication")
	cmd.Flags().StringVar(&channel, "channel", "", "notification channel")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the refresh token and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRemote(cmd, func(ctx context.Context, c client.Client, s *session.Store) error {
				if err := c.Logout(ctx); err != nil {
					return err
				}
				if err := s.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "logged out")
				return nil
			})
		},
	}
}

func (a *App) tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the saved access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRemote(cmd, func(ctx context.Context, c client.Client, _ *session.Store) error {
				t := c.Tokens()
				if t.AccessToken == "" {
					return client.ErrNoSession
				}
				fmt.Fprintln(a.out, t.AccessToken)
				return nil
			})
		},
	}
}
