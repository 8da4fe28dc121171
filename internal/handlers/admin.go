package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/response"
	"github.com/benvon/pet-shop/internal/services/admin"
)

// AdminHandler handles admin role management
type AdminHandler struct {
	admin  *admin.Service
	logger *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svc *admin.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: svc, logger: logger}
}

// RegisterProtectedRoutes registers routes any authenticated caller may use.
func (h *AdminHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/check", h.Check).Methods(http.MethodGet)
}

// RegisterAdminRoutes registers role management routes. The router should already have
// the auth and admin middleware applied.
func (h *AdminHandler) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("/set-admin", h.SetAdmin).Methods(http.MethodPost)
	r.HandleFunc("/remove-admin", h.RemoveAdmin).Methods(http.MethodPost)
	r.HandleFunc("/admins", h.ListAdmins).Methods(http.MethodGet)
}

// AdminEmailRequest is the body of the set-admin and remove-admin routes
type AdminEmailRequest struct {
	Email string `json:"email"`
}

// Check reports whether the caller is an admin
func (h *AdminHandler) Check(w http.ResponseWriter, r *http.Request) {
	id, err := currentIdentity(r)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	response.OK(w, h.admin.Status(id), "")
}

// SetAdmin grants the admin role
func (h *AdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	var req AdminEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	member, err := h.admin.Grant(r.Context(), req.Email)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	response.OK(w, member, fmt.Sprintf("Admin role granted to %s", member.Email))
}

// RemoveAdmin revokes the admin role
func (h *AdminHandler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	var req AdminEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	member, err := h.admin.Revoke(r.Context(), req.Email)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	response.OK(w, member, fmt.Sprintf("Admin role removed from %s", member.Email))
}

// ListAdmins returns every admin
func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	members, err := h.admin.List(r.Context())
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	if members == nil {
		members = []admin.Member{}
	}
	response.OK(w, map[string]any{"admins": members, "count": len(members)}, "")
}
