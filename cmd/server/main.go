package main // Entry point package

import (
	"context"   // cancellation on shutdown signals
	"fmt"       // error wrapping
	"os"        // exit codes and signals
	"os/signal" // SIGINT handling
	"syscall"   // SIGTERM

	"github.com/spf13/cobra" // command tree: serve, migrate, seed-admin, consume-activity
	"go.uber.org/zap"        // structured logging

	"github.com/iliyamo/special-academy-api/internal/app"    // process assembly
	"github.com/iliyamo/special-academy-api/internal/config" // Internal config loader
	"github.com/iliyamo/special-academy-api/internal/logger" // zap construction
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the binary without a
// subcommand starts the API server.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "special-academy-api",
		Short:        "Special Academy content API",
		SilenceUsage: true,
		RunE:         withRuntime(serve),
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			Args:  cobra.NoArgs,
			RunE:  withRuntime(serve),
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the MySQL schema",
			Args:  cobra.NoArgs,
			RunE:  withRuntime(app.Migrate),
		},
		&cobra.Command{
			Use:   "seed-admin",
			Short: "Create the administrator named by ADMIN_EMAIL",
			Args:  cobra.NoArgs,
			RunE:  withRuntime(app.SeedAdmin),
		},
		&cobra.Command{
			Use:   "consume-activity",
			Short: "Persist activity events from RabbitMQ",
			Args:  cobra.NoArgs,
			RunE:  withRuntime(app.RunConsumer),
		},
	)
	return root
}

type runFunc func(ctx context.Context, cfg config.Config, log *zap.Logger) error

// withRuntime loads config and the logger, and cancels ctx on SIGINT/SIGTERM.
func withRuntime(run runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.LogLevel, cfg.IsProd())
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := run(ctx, cfg, log); err != nil {
			log.Error("command failed", zap.String("command", cmd.Name()), zap.Error(err))
			return err
		}
		return nil
	}
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
