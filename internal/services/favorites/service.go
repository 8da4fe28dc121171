// Package favorites manages users' saved pet listings.
package favorites

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benvon/pet-shop/internal/apperror"
	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/logger"
	"github.com/benvon/pet-shop/internal/models"
)

// joinConcurrency caps concurrent pet lookups while listing favorites.
const joinConcurrency = 8

// Service handles favorites.
type Service struct {
	favorites database.FavoriteRepositoryInterface
	pets      database.PetRepositoryInterface
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a favorites service.
func NewService(favorites database.FavoriteRepositoryInterface, pets database.PetRepositoryInterface, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{favorites: favorites, pets: pets, logger: log, now: time.Now}
}

// List returns the user's favorites newest first, each joined to its listing. Pet is
// nil for listings that have since been deleted.
func (s *Service) List(ctx context.Context, userID string) ([]models.Favorite, error) {
	favs, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(joinConcurrency)
	for i := range favs {
		g.Go(func() error {
			pet, err := s.pets.Get(gctx, favs[i].PetID)
			if errors.Is(err, database.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			favs[i].Pet = pet
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperror.Internal(err)
	}
	return favs, nil
}

// Add saves petID for the user. The listing must exist and the pair must be new.
func (s *Service) Add(ctx context.Context, userID, petID string) (*models.Favorite, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, apperror.Validation("Please provide pet ID")
	}

	pet, err := s.pets.Get(ctx, petID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperror.ErrPetNotFound
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	fav := &models.Favorite{UserID: userID, PetID: petID, CreatedAt: s.now().UTC()}
	err = s.favorites.Create(ctx, fav)
	if errors.Is(err, database.ErrAlreadyExists) {
		return nil, apperror.ErrAlreadyFavorite
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	fav.Pet = pet
	s.logger.Debug("favorite_added", zap.String("uid", logger.SanitizeUID(userID)), zap.String("pet_id", logger.SanitizeString(petID, 128)))
	return fav, nil
}

// Remove deletes a favorite owned by the user.
func (s *Service) Remove(ctx context.Context, userID, favoriteID string) error {
	fav, err := s.favorites.Get(ctx, favoriteID)
	if errors.Is(err, database.ErrNotFound) {
		return apperror.ErrFavoriteNotFound
	}
	if err != nil {
		return apperror.Internal(err)
	}
	if fav.UserID != userID {
		return apperror.ErrNotFavoriteOwner
	}

	err = s.favorites.Delete(ctx, favoriteID)
	if errors.Is(err, database.ErrNotFound) {
		return apperror.ErrFavoriteNotFound
	}
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}
