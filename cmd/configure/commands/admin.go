package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/backend"
	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/services/admin"
)

// NewAdminCmd creates the admin role command with grant, revoke and list subcommands.
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
		Long:  "Grant, revoke or list the admin role. The stored profile flag is authoritative; the identity claim is mirrored.",
	}
	cmd.AddCommand(newAdminSetCmd("grant", "Grant the admin role to an account", true))
	cmd.AddCommand(newAdminSetCmd("revoke", "Remove the admin role from an account", false))
	cmd.AddCommand(newAdminListCmd())
	return cmd
}

func adminService(b *backend.Backends) *admin.Service {
	return admin.NewService(b.Identity, database.NewProfileRepository(b.Store), zap.NewNop())
}

func newAdminSetCmd(use, short string, grant bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *backend.Backends) error {
				svc := adminService(b)
				set := svc.Revoke
				if grant {
					set = svc.Grant
				}
				member, err := set(ctx, args[0])
				if err != nil {
					return fmt.Errorf("%s admin: %w", use, err)
				}
				if grant {
					fmt.Fprintf(cmd.OutOrStdout(), "Admin role granted to %s (uid %s)\n", member.Email, member.UID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Admin role removed from %s (uid %s)\n", member.Email, member.UID)
				}
				return nil
			})
		},
	}
}

func newAdminListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *backend.Backends) error {
				members, err := adminService(b).List(ctx)
				if err != nil {
					return fmt.Errorf("list admins: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(members) == 0 {
					fmt.Fprintln(out, "No admin users. Use 'admin grant <email>' to add one.")
					return nil
				}
				fmt.Fprintln(out, "Admin users:")
				for _, m := range members {
					fmt.Fprintf(out, "  - %s (uid %s)", m.Email, m.UID)
					if m.FullName != "" {
						fmt.Fprintf(out, " %s", m.FullName)
					}
					fmt.Fprintln(out)
				}
				return nil
			})
		},
	}
}
