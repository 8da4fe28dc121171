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

const corsConfigID = "cors"

// CorsConfigRepository handles the CORS settings document.
type CorsConfigRepository struct {
	store docstore.Store
}

// NewCorsConfigRepository creates a new CORS config repository.
func NewCorsConfigRepository(store docstore.Store) *CorsConfigRepository {
	return &CorsConfigRepository{store: store}
}

// Get retrieves the CORS config. It returns nil, nil when none has been stored.
func (r *CorsConfigRepository) Get(ctx context.Context) (*models.CorsConfig, error) {
	doc, err := r.store.Get(ctx, SettingsCollection, corsConfigID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cors config: %w", err)
	}
	return &models.CorsConfig{
		AllowedOrigins:   docstore.Strings(doc.Data, "allowedOrigins"),
		AllowCredentials: docstore.Bool(doc.Data, "allowCredentials"),
		MaxAge:           int(docstore.Float(doc.Data, "maxAge")),
		UpdatedAt:        docstore.Time(doc.Data, "updatedAt"),
	}, nil
}

// Set replaces the CORS config. Origins are trimmed and deduplicated.
func (r *CorsConfigRepository) Set(ctx context.Context, c *models.CorsConfig) error {
	origins := AllowedOriginsSlice(strings.Join(c.AllowedOrigins, ","))
	if len(origins) == 0 {
		return fmt.Errorf("allowed origins cannot be empty")
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("max age cannot be negative")
	}
	c.AllowedOrigins = origins
	c.UpdatedAt = time.Now().UTC()
	err := r.store.Set(ctx, SettingsCollection, corsConfigID, map[string]any{
		"allowedOrigins":   origins,
		"allowCredentials": c.AllowCredentials,
		"maxAge":           c.MaxAge,
		"updatedAt":        c.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("set cors config: %w", err)
	}
	return nil
}

// AllowedOriginsSlice returns allowed origins as a slice (split by comma).
func AllowedOriginsSlice(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, p := range strings.Split(raw, ",") {
		s := strings.TrimRight(strings.TrimSpace(p), "/")
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
