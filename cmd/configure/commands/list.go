package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benvon/pet-shop/internal/backend"
	"github.com/benvon/pet-shop/internal/database"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored settings",
		Long:  "Print the stored CORS and rate limit settings and the admin count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *backend.Backends) error {
				cors, err := database.NewCorsConfigRepository(b.Store).Get(ctx)
				if err != nil {
					return fmt.Errorf("get cors config: %w", err)
				}
				rate, err := database.NewRatelimitConfigRepository(b.Store).Get(ctx)
				if err != nil {
					return fmt.Errorf("get ratelimit config: %w", err)
				}
				admins, err := database.NewProfileRepository(b.Store).ListAdmins(ctx)
				if err != nil {
					return fmt.Errorf("list admins: %w", err)
				}

				printCorsConfig(cmd, cors)
				printRatelimitConfig(cmd, rate)
				fmt.Fprintf(cmd.OutOrStdout(), "Admins: %d\n", len(admins))
				return nil
			})
		},
	}
}
