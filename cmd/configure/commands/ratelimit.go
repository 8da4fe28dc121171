package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"

	"github.com/benvon/pet-shop/internal/backend"
	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/middleware"
	"github.com/benvon/pet-shop/internal/models"
)

// NewRatelimitCmd creates the ratelimit configuration command with list and set subcommands.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage the auth rate limit",
		Long:  "List or update the per-IP rate limit on the auth endpoints (e.g. 5-S, 20-M).",
	}
	cmd.AddCommand(newRatelimitListCmd())
	cmd.AddCommand(newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current rate limit configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *backend.Backends) error {
				c, err := database.NewRatelimitConfigRepository(b.Store).Get(ctx)
				if err != nil {
					return fmt.Errorf("get ratelimit config: %w", err)
				}
				printRatelimitConfig(cmd, c)
				return nil
			})
		},
	}
}

func printRatelimitConfig(cmd *cobra.Command, c *models.RatelimitConfig) {
	out := cmd.OutOrStdout()
	if c == nil {
		fmt.Fprintf(out, "No rate limit stored; servers start with AUTH_RATE_LIMIT (default %s).\n", middleware.DefaultAuthRate)
		return
	}
	fmt.Fprintln(out, "Rate limit configuration:")
	fmt.Fprintf(out, "  Rate: %s\n", c.Rate)
}

func newRatelimitSetCmd() *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set rate limit configuration",
		Long:  "Update the rate (e.g. 5-S, 100-M, 1000-H). Running servers pick it up on their next reload.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if rate == "" {
				return fmt.Errorf("--rate is required (e.g. 5-S, 100-M)")
			}
			if _, err := limiter.NewRateFromFormatted(rate); err != nil {
				return fmt.Errorf("invalid --rate %q: %w", rate, err)
			}
			return withBackends(cmd, func(ctx context.Context, b *backend.Backends) error {
				if err := database.NewRatelimitConfigRepository(b.Store).Set(ctx, &models.RatelimitConfig{Rate: rate}); err != nil {
					return fmt.Errorf("set ratelimit config: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rate limit configuration updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate (e.g. 5-S, 100-M, 1000-H) (required)")
	return cmd
}
