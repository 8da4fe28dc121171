package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/backend"
	"github.com/benvon/pet-shop/internal/config"
)

// openBackends connects to the backends selected by the environment. Tests replace it.
var openBackends = func(ctx context.Context) (*backend.Backends, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return backend.Open(ctx, cfg, zap.NewNop())
}

// withBackends opens the backends, runs fn and closes them again.
func withBackends(cmd *cobra.Command, fn func(ctx context.Context, b *backend.Backends) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := openBackends(ctx)
	if err != nil {
		return fmt.Errorf("open backends: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close backends: %v\n", err)
		}
	}()
	return fn(ctx, b)
}
