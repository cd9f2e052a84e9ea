package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"portfolio/backend/internal/logger"
	"portfolio/backend/internal/migration"
)

type migrateOptions struct {
	server   string
	file     string
	email    string
	password string
	token    string
	timeout  time.Duration
	verbose  bool
}

func migrateCmd() *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Submit locally cached projects to a running server",
		Long: `Submit projects exported from the browser's local cache to a running server.

Entries are submitted one at a time, in file order. When every entry is
accepted the cache file is emptied. If an entry fails, it and every entry
after it stay in the file so the command can simply be run again.

Examples:
  portfolioctl migrate --file portfolioProjects.json --email admin@portfolio.com --password secret
  portfolioctl migrate --file portfolioProjects.json --server https://example.com --token <token>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "http://localhost:5000", "base URL of the portfolio server")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "project cache file (JSON array)")
	cmd.Flags().StringVar(&opts.email, "email", os.Getenv("PORTFOLIO_ADMIN_EMAIL"), "admin e-mail used to log in")
	cmd.Flags().StringVar(&opts.password, "password", os.Getenv("PORTFOLIO_ADMIN_PASSWORD"), "admin password used to log in")
	cmd.Flags().StringVar(&opts.token, "token", "", "existing session token, skips login")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runMigrate(cmd *cobra.Command, opts *migrateOptions) error {
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Development: true})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client := migration.NewHTTPClient(opts.server, opts.timeout)
	agent := migration.NewAgent(
		migration.NewFileCache(opts.file),
		client,
		tokenSource(client, opts),
		nil,
		log.Named("migration"),
	)

	result, err := agent.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch result.State {
	case migration.StateIdle:
		fmt.Fprintln(out, "Nothing to migrate")
		return nil
	case migration.StateBlocked:
		return errors.New("no session token: pass --token or --email and --password")
	case migration.StateDone:
		fmt.Fprintf(out, "Migrated %d projects, cache cleared\n", result.Submitted)
		return nil
	default:
		fmt.Fprintf(out, "Migrated %d projects, %d left in %s\n", result.Submitted, result.Remaining, opts.file)
		return fmt.Errorf("migration incomplete: %w", result.Err)
	}
}

// tokenSource 优先使用 --token，否则用邮箱和密码登录
func tokenSource(client *migration.HTTPClient, opts *migrateOptions) migration.TokenSource {
	if opts.token != "" {
		return migration.StaticToken(opts.token)
	}
	if opts.email == "" || opts.password == "" {
		return migration.StaticToken("")
	}
	return migration.TokenFunc(func(ctx context.Context) (string, error) {
		return client.Login(ctx, opts.email, opts.password)
	})
}
