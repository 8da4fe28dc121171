package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/models"
	"github.com/benvon/pet-shop/internal/response"
	"github.com/benvon/pet-shop/internal/services/accounts"
)

// UserHandler handles the caller's profile
type UserHandler struct {
	accounts *accounts.Service
	logger   *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *accounts.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{accounts: svc, logger: logger}
}

// RegisterRoutes registers profile routes. The router should already have the /users
// prefix and the auth middleware applied.
func (h *UserHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/profile", h.GetProfile).Methods(http.MethodGet)
	r.HandleFunc("/profile", h.UpdateProfile).Methods(http.MethodPut)
}

// GetProfile returns the caller's profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := currentIdentity(r)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	profile, err := h.accounts.GetOrCreateProfile(r.Context(), id)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	response.OK(w, profile, "User profile retrieved")
}

// UpdateProfile changes fullName, phone, address and profileImage. Other fields in the
// body are ignored.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := currentIdentity(r)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	var upd models.ProfileUpdate
	if err := decodeJSON(r, &upd); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	profile, err := h.accounts.UpdateProfile(r.Context(), id, upd)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	response.OK(w, profile, "Profile updated successfully")
}
