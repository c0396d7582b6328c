package main

import (
	"fmt"

	"github.com/asaskevich/govalidator"
	"github.com/spf13/cobra"

	"github.com/CrowderSoup/taskflow-pro/client"
)

func newLoginCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in with a magic link",
		Long: `Requests a magic link for the address. Servers running in development mode
return the link directly and the CLI completes sign-in on its own. Otherwise
open the emailed link and pass the token from the final URL with --token.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Configured() {
				return client.ErrNotConfigured
			}
			ctx := cmd.Context()

			if token == "" {
				if len(args) != 1 || !govalidator.IsEmail(args[0]) {
					return fmt.Errorf("a valid email address is required")
				}
				anon := client.New(a.cfg, "")
				link, err := anon.RequestMagicLink(ctx, args[0])
				if err != nil {
					return err
				}
				if link == "" {
					notice(a.out, "📧 Magic link sent to %s. Run `taskflow login --token <token>` once you have opened it.\n", args[0])
					return nil
				}
				if token, err = anon.ExchangeMagicLink(ctx, link); err != nil {
					return err
				}
			}

			id, err := client.New(a.cfg, token).Verify(ctx)
			if err != nil {
				return fmt.Errorf("verify session: %w", err)
			}
			if err := saveSession(a.sessionPath, session{Token: token, UserID: id.UserID, Email: id.Email}); err != nil {
				return err
			}
			success(a.out, "✅ Signed in as %s\n", id.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Session token from an opened magic link")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c, err := a.client(); err == nil {
				if err := c.Logout(cmd.Context()); err != nil {
					a.logger.Warn("server logout failed", "error", err)
				}
			}
			if err := removeSession(a.sessionPath); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "👋 Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			id, err := c.Verify(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (%s)\n", id.Email, id.UserID)
			return nil
		},
	}
}
