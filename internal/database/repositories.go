package database

import (
	"context"
	"time"

	"github.com/benvon/pet-shop/internal/models"
)

// ProfileRepositoryInterface defines the profile operations used by services and middleware.
type ProfileRepositoryInterface interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) error
	Update(ctx context.Context, uid string, upd models.ProfileUpdate, now time.Time) error
	SetAdmin(ctx context.Context, uid string, admin bool, now time.Time) error
	ListAdmins(ctx context.Context) ([]models.Profile, error)
}

// PetRepositoryInterface defines the interface for pet repository operations
type PetRepositoryInterface interface {
	List(ctx context.Context, category string, page, limit int) ([]models.Pet, int, error)
	ListByCategory(ctx context.Context, category string) ([]models.Pet, error)
	Get(ctx context.Context, id string) (*models.Pet, error)
	Create(ctx context.Context, pet *models.Pet) error
	Update(ctx context.Context, id string, upd models.PetUpdate, now time.Time) (*models.Pet, error)
	Delete(ctx context.Context, id string) error
}

// FavoriteRepositoryInterface defines the interface for favorite repository operations
type FavoriteRepositoryInterface interface {
	ListByUser(ctx context.Context, userID string) ([]models.Favorite, error)
	Get(ctx context.Context, id string) (*models.Favorite, error)
	Create(ctx context.Context, fav *models.Favorite) error
	Delete(ctx context.Context, id string) error
}

// CorsConfigRepositoryInterface is read by the CORS reloader and written by the configure CLI.
type CorsConfigRepositoryInterface interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
	Set(ctx context.Context, c *models.CorsConfig) error
}

// RatelimitConfigRepositoryInterface is read by the rate limit reloader and written by the configure CLI.
type RatelimitConfigRepositoryInterface interface {
	Get(ctx context.Context) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// Ensure concrete types implement the interfaces
var (
	_ ProfileRepositoryInterface         = (*ProfileRepository)(nil)
	_ PetRepositoryInterface             = (*PetRepository)(nil)
	_ FavoriteRepositoryInterface        = (*FavoriteRepository)(nil)
	_ CorsConfigRepositoryInterface      = (*CorsConfigRepository)(nil)
	_ RatelimitConfigRepositoryInterface = (*RatelimitConfigRepository)(nil)
)
