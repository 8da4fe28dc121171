package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/benvon/pet-shop/internal/backend"
)

type backendCheck struct {
	name string
	ping func(context.Context) error
}

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test backend connectivity",
		Long:  "Open the configured document store, identity provider and Redis, and ping each one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *backend.Backends) error {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				checks := []backendCheck{
					{"store", b.Store.Ping},
					{"identity", b.Identity.Ping},
				}
				if b.Redis != nil {
					checks = append(checks, backendCheck{"redis", func(ctx context.Context) error {
						return b.Redis.Ping(ctx).Err()
					}})
				}

				out := cmd.OutOrStdout()
				failed := 0
				for _, c := range checks {
					if err := c.ping(ctx); err != nil {
						failed++
						fmt.Fprintf(out, "✗ %s: %v\n", c.name, err)
						continue
					}
					fmt.Fprintf(out, "✓ %s\n", c.name)
				}
				if failed > 0 {
					return fmt.Errorf("%d backend check(s) failed", failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout for all checks")
	return cmd
}
