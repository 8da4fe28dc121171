package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/models"
	"github.com/benvon/pet-shop/internal/response"
	"github.com/benvon/pet-shop/internal/services/favorites"
)

// FavoriteHandler handles the caller's saved listings
type FavoriteHandler struct {
	favorites *favorites.Service
	logger    *zap.Logger
}

// NewFavoriteHandler creates a new favorites handler
func NewFavoriteHandler(svc *favorites.Service, logger *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: svc, logger: logger}
}

// RegisterRoutes registers favorites routes. The router should already have the
// /favorites prefix and the auth middleware applied.
func (h *FavoriteHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListFavorites).Methods(http.MethodGet)
	r.HandleFunc("", h.AddFavorite).Methods(http.MethodPost)
	r.HandleFunc("/{id}", h.RemoveFavorite).Methods(http.MethodDelete)
}

// AddFavoriteRequest is the body of POST /api/favorites
type AddFavoriteRequest struct {
	PetID string `json:"petId"`
}

// ListFavorites returns the caller's favorites with their listings
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	id, err := currentIdentity(r)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	favs, err := h.favorites.List(r.Context(), id.UID)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	if favs == nil {
		favs = []models.Favorite{}
	}
	response.OK(w, map[string]any{"favorites": favs, "count": len(favs)}, "")
}

// AddFavorite saves a listing for the caller
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := currentIdentity(r)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	var req AddFavoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	fav, err := h.favorites.Add(r.Context(), id.UID, req.PetID)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	response.Created(w, fav, "Added to favorites")
}

// RemoveFavorite deletes one of the caller's favorites
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := currentIdentity(r)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	if err := h.favorites.Remove(r.Context(), id.UID, mux.Vars(r)["id"]); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	response.OK(w, nil, "Favorite removed successfully")
}
