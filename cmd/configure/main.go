package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benvon/pet-shop/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "pet-shop-configure",
		Short: "Configuration tool for the Pet Shop API",
		Long:  "CLI tool for managing admins, CORS and rate limit settings, and seeding pet listings",
	}

	rootCmd.AddCommand(commands.NewAdminCmd())
	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewPetsCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
