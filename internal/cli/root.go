// Package cli implements the gatekeeper command-line client: account
// registration, login and the user directory, over the gateway HTTP API.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/models"
	"github.com/spf13/cobra"
)

type app struct {
	config *Config
	api    *APIClient
	reader *bufio.Reader
}

// NewRootCmd creates the root command for the gatekeeper CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "gatekeeper",
		Short:        "Command-line client for the gatekeeper gateway",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a.config = cfg
			a.api = NewAPIClient(cfg.ServerURL)
			a.reader = bufio.NewReader(cmd.InOrStdin())
			return nil
		},
	}

	cmd.PersistentFlags().String("server", DefaultServerURL, "gateway base URL (env GATEKEEPER_URL)")
	cmd.PersistentFlags().String("token-file", defaultTokenFile(), "where the session token is stored (env GATEKEEPER_TOKEN_FILE)")

	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newUsersCmd(a))
	cmd.AddCommand(newLogoutCmd(a))

	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var email, username string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			var err error
			if email, err = valueOrPrompt(email, a.reader, "Email", out); err != nil {
				return err
			}
			if username, err = valueOrPrompt(username, a.reader, "Username", out); err != nil {
				return err
			}
			password, err := GetPassword(out)
			if err != nil {
				return err
			}

			user, err := a.api.Register(cmd.Context(), models.RegisterRequest{
				Email:    email,
				Username: username,
				Password: password,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Registered %s (%s), id %s\n", user.Username, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&username, "username", "", "account username")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			var err error
			if email, err = valueOrPrompt(email, a.reader, "Email", out); err != nil {
				return err
			}
			password, err := GetPassword(out)
			if err != nil {
				return err
			}

			resp, err := a.api.Login(cmd.Context(), models.LoginRequest{Email: email, Password: password})
			if err != nil {
				return err
			}
			if err := saveToken(a.config.TokenFile, resp.AccessToken); err != nil {
				return err
			}

			fmt.Fprintf(out, "Logged in as %s (%s)\n", resp.User.Username, resp.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newUsersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := loadToken(a.config.TokenFile)
			if err != nil {
				return err
			}

			users, err := a.api.Users(cmd.Context(), token)
			if err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.Unauthorized() {
					return fmt.Errorf("session expired or invalid, log in again: %w", err)
				}
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tCREATED")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := removeToken(a.config.TokenFile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
