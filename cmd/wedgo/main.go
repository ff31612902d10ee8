package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/kirinyoku/wedgo/docs"
	"github.com/kirinyoku/wedgo/internal/app"
	"github.com/kirinyoku/wedgo/internal/auth"
	"github.com/kirinyoku/wedgo/internal/config"
	"github.com/kirinyoku/wedgo/internal/editor"
	"github.com/kirinyoku/wedgo/internal/postgres"
	postgresrepo "github.com/kirinyoku/wedgo/internal/repository/postgres"
)

// @title                      wedgo API
// @version                    1.0
// @description                Wedding invitation backend: invitations, guests, comments and payments.
// @host                       localhost:8080
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	root := &cobra.Command{
		Use:           "wedgo",
		Short:         "Wedding invitation backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(), migrateCmd(), tokenCmd(), guestsCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.App.LogLevel)

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("failed to create application", "error", err)
				return err
			}

			if err := application.Run(cmd.Context()); err != nil {
				logger.Error("application finished with error", "error", err)
				return err
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the invitations table of APP_ENV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			pool, err := postgres.New(ctx, postgres.Config{DSN: cfg.Postgres.DSN(), MaxConns: cfg.Postgres.MaxConns})
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := postgresrepo.Migrate(ctx, pool, cfg.App.Env)
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
			}
			return err
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an owner session token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}

			token, err := auth.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer).Issue(args[0], email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func guestsCmd() *cobra.Command {
	var (
		baseURL string
		bearer  string
	)

	client := func() *editor.Client {
		if bearer == "" {
			bearer = os.Getenv("WEDGO_TOKEN")
		}
		return editor.NewClient(editor.ClientConfig{BaseURL: baseURL, Bearer: bearer, Retries: 1})
	}

	cmd := &cobra.Command{
		Use:   "guests",
		Short: "Manage an invitation's guest list through the API",
	}
	cmd.PersistentFlags().StringVar(&baseURL, "api", "http://localhost:8080", "API base URL")
	cmd.PersistentFlags().StringVar(&bearer, "token", "", "owner session token (default $WEDGO_TOKEN)")

	list := &cobra.Command{
		Use:   "list <invitation-id>",
		Short: "Print the guest list with share links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet := editor.NewGuestSheet(args[0], client(), nil, nil)
			if err := sheet.Load(cmd.Context()); err != nil {
				return err
			}
			for _, g := range sheet.Rows() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t?to=%s&token=%s\n", g.ID, g.Name, g.Slug, g.Token)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <invitation-id> <name>...",
		Short: "Append guests and save the list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet := editor.NewGuestSheet(args[0], client(), nil, nil)
			if err := sheet.Load(cmd.Context()); err != nil {
				return err
			}
			for _, name := range args[1:] {
				if _, err := sheet.Add(strings.TrimSpace(name)); err != nil {
					return err
				}
			}

			res, err := sheet.Save(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d guests\n", len(res.Guests))
			if res.CommentsError != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "comments were not updated:", res.CommentsError)
			}
			return nil
		},
	}

	cmd.AddCommand(list, add)
	return cmd
}
