package database

import (
	"context"
	"fmt"

	"github.com/benvon/pet-shop/internal/docstore"
	"github.com/benvon/pet-shop/internal/models"
)

// FavoriteRepository handles user favorites.
type FavoriteRepository struct {
	store docstore.Store
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(store docstore.Store) *FavoriteRepository {
	return &FavoriteRepository{store: store}
}

// ListByUser returns the user's favorites, newest first. Pet is left nil.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	q := docstore.Query{Collection: FavoritesCollection, OrderBy: "createdAt", Direction: docstore.Desc}.Where("userId", userID)
	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	out := make([]models.Favorite, 0, len(docs))
	for i := range docs {
		out = append(out, *favoriteFromDocument(&docs[i]))
	}
	return out, nil
}

// Get retrieves a favorite by id.
func (r *FavoriteRepository) Get(ctx context.Context, id string) (*models.Favorite, error) {
	doc, err := r.store.Get(ctx, FavoritesCollection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorite: %w", err)
	}
	return favoriteFromDocument(doc), nil
}

// Create stores the favorite under models.FavoriteID so a duplicate pair fails with
// ErrAlreadyExists.
func (r *FavoriteRepository) Create(ctx context.Context, fav *models.Favorite) error {
	fav.ID = models.FavoriteID(fav.UserID, fav.PetID)
	_, err := r.store.Create(ctx, FavoritesCollection, fav.ID, map[string]any{
		"userId":    fav.UserID,
		"petId":     fav.PetID,
		"createdAt": fav.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to create favorite: %w", err)
	}
	return nil
}

// Delete removes a favorite.
func (r *FavoriteRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, FavoritesCollection, id); err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

func favoriteFromDocument(doc *docstore.Document) *models.Favorite {
	return &models.Favorite{
		ID:        doc.ID,
		UserID:    docstore.String(doc.Data, "userId"),
		PetID:     docstore.String(doc.Data, "petId"),
		CreatedAt: docstore.Time(doc.Data, "createdAt"),
	}
}
