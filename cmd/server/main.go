package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moimhub/moim-backend/internal/app"
	"github.com/moimhub/moim-backend/internal/config"
	"github.com/moimhub/moim-backend/internal/observability"
	"github.com/moimhub/moim-backend/internal/tools/smoke"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "moim-server",
		Short: "Community site backend: signup, login, and session auth",
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional env file for local development")
	cmd.AddCommand(newServeCommand(&envFile))
	cmd.AddCommand(smoke.NewCommand())
	return cmd
}

func newServeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := config.LoadEnvFile(*envFile); err != nil {
				return err
			}
			cfg, err := config.Load(ctx)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, loggerProvider, err := observability.NewLogger(ctx, cfg)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			runtime, err := observability.InitRuntime(ctx, cfg, logger, loggerProvider)
			if err != nil {
				return fmt.Errorf("init observability: %w", err)
			}

			a, err := app.Bootstrap(ctx, cfg, logger, runtime)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			return a.Run(ctx)
		},
	}
}
