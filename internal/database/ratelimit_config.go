package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/pet-shop/internal/docstore"
	"github.com/benvon/pet-shop/internal/models"
)

const ratelimitConfigID = "ratelimit"

// RatelimitConfigRepository handles the auth rate limit settings document.
type RatelimitConfigRepository struct {
	store docstore.Store
}

// NewRatelimitConfigRepository creates a new ratelimit config repository.
func NewRatelimitConfigRepository(store docstore.Store) *RatelimitConfigRepository {
	return &RatelimitConfigRepository{store: store}
}

// Get retrieves the rate limit config. It returns nil, nil when none has been stored.
func (r *RatelimitConfigRepository) Get(ctx context.Context) (*models.RatelimitConfig, error) {
	doc, err := r.store.Get(ctx, SettingsCollection, ratelimitConfigID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ratelimit config: %w", err)
	}
	return &models.RatelimitConfig{
		Rate:      docstore.String(doc.Data, "rate"),
		UpdatedAt: docstore.Time(doc.Data, "updatedAt"),
	}, nil
}

// Set replaces the rate limit config. Rate format: e.g. "5-S", "100-M".
func (r *RatelimitConfigRepository) Set(ctx context.Context, c *models.RatelimitConfig) error {
	rate := strings.TrimSpace(c.Rate)
	if rate == "" {
		return fmt.Errorf("rate cannot be empty")
	}
	c.Rate = rate
	c.UpdatedAt = time.Now().UTC()
	err := r.store.Set(ctx, SettingsCollection, ratelimitConfigID, map[string]any{
		"rate":      rate,
		"updatedAt": c.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("set ratelimit config: %w", err)
	}
	return nil
}
