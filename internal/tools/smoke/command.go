package smoke

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewCommand builds the smoke subcommand. It drives a live server through
// the full account lifecycle and prints one line per step.
func NewCommand() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
		seed    int64
	)
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Exercise signup, login, me, and logout against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			res, err := Run(ctx, Config{BaseURL: baseURL, Timeout: timeout, Seed: seed})
			if res != nil {
				for _, step := range res.Steps {
					fmt.Fprintln(cmd.OutOrStdout(), step)
				}
			}
			if err != nil {
				return fmt.Errorf("smoke failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "smoke passed")
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline for the pass")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for generated account names, 0 means random")
	return cmd
}
