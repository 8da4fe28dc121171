package database

import (
	"context"
	"testing"

	"github.com/benvon/pet-shop/internal/docstore/memory"
	"github.com/benvon/pet-shop/internal/models"
)

func TestAllowedOriginsSlice(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "https://a.example.com", []string{"https://a.example.com"}},
		{"comma", "https://a.com, https://b.com", []string{"https://a.com", "https://b.com"}},
		{"dedup", "x, x, y", []string{"x", "y"}},
		{"trim", "  a  ,  b  ", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AllowedOriginsSlice(tt.raw)
			if len(got) != len(tt.want) {
				t.Errorf("AllowedOriginsSlice(%q) length = %d, want %d", tt.raw, len(got), len(tt.want))
				return
			}
			seen := make(map[string]bool)
			for _, s := range got {
				seen[s] = true
			}
			for _, w := range tt.want {
				if !seen[w] {
					t.Errorf("AllowedOriginsSlice(%q) missing %q", tt.raw, w)
				}
			}
		})
	}
}

func TestCorsConfigRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewCorsConfigRepository(memory.New())

	got, err := repo.Get(ctx)
	if err != nil || got != nil {
		t.Fatalf("Expected nil, nil before any Set, got %v, %v", got, err)
	}

	if err := repo.Set(ctx, &models.CorsConfig{}); err == nil {
		t.Error("Expected error for empty origins")
	}

	err = repo.Set(ctx, &models.CorsConfig{
		AllowedOrigins:   []string{" https://a.example.com/ ", "https://a.example.com", "https://b.example.com"},
		AllowCredentials: true,
		MaxAge:           600,
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err = repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.AllowedOrigins) != 2 || got.AllowedOrigins[0] != "https://a.example.com" {
		t.Errorf("Unexpected origins %v", got.AllowedOrigins)
	}
	if !got.AllowCredentials || got.MaxAge != 600 {
		t.Errorf("Unexpected config %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("Expected updatedAt to be set")
	}
}

func TestRatelimitConfigRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewRatelimitConfigRepository(memory.New())

	got, err := repo.Get(ctx)
	if err != nil || got != nil {
		t.Fatalf("Expected nil, nil before any Set, got %v, %v", got, err)
	}
	if err := repo.Set(ctx, &models.RatelimitConfig{Rate: "  "}); err == nil {
		t.Error("Expected error for blank rate")
	}
	if err := repo.Set(ctx, &models.RatelimitConfig{Rate: " 5-S "}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err = repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Rate != "5-S" {
		t.Errorf("Expected rate 5-S, got %q", got.Rate)
	}
}
