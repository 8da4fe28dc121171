package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/pet-shop/internal/backend"
	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/middleware"
	"github.com/benvon/pet-shop/internal/models"
)

// NewCorsCmd creates the cors configuration command with list and set subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update CORS allowed origins and options (stored in the settings collection).",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsSetCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *backend.Backends) error {
				c, err := database.NewCorsConfigRepository(b.Store).Get(ctx)
				if err != nil {
					return fmt.Errorf("get cors config: %w", err)
				}
				printCorsConfig(cmd, c)
				return nil
			})
		},
	}
}

func printCorsConfig(cmd *cobra.Command, c *models.CorsConfig) {
	out := cmd.OutOrStdout()
	if c == nil {
		fmt.Fprintln(out, "No CORS configuration stored; CLIENT_URL is used. Use 'cors set' to add one.")
		return
	}
	fmt.Fprintln(out, "CORS configuration:")
	fmt.Fprintf(out, "  Allowed origins: %s\n", strings.Join(c.AllowedOrigins, ", "))
	fmt.Fprintf(out, "  Allow credentials: %v\n", c.AllowCredentials)
	fmt.Fprintf(out, "  Max-Age: %d\n", c.MaxAge)
}

func newCorsSetCmd() *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		Long:  "Update CORS allowed origins (comma-separated). Running servers pick it up on their next reload.",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := database.AllowedOriginsSlice(origins)
			if len(list) == 0 {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}
			return withBackends(cmd, func(ctx context.Context, b *backend.Backends) error {
				c := &models.CorsConfig{
					AllowedOrigins:   list,
					AllowCredentials: allowCreds,
					MaxAge:           maxAge,
				}
				if err := database.NewCorsConfigRepository(b.Store).Set(ctx, c); err != nil {
					return fmt.Errorf("set cors config: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", middleware.DefaultCORSMaxAge, "Access-Control-Max-Age (seconds)")
	return cmd
}
