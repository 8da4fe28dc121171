package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/response"
	"github.com/benvon/pet-shop/internal/services/accounts"
)

// AuthHandler handles registration, login and session endpoints
type AuthHandler struct {
	accounts *accounts.Service
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *accounts.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: svc, logger: logger}
}

// RegisterPublicRoutes registers the credential-exchanging routes. The router should
// already have the /auth prefix and the rate limiter applied.
func (h *AuthHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/google", h.GoogleLogin).Methods(http.MethodPost)
	r.HandleFunc("/facebook", h.FacebookLogin).Methods(http.MethodPost)
}

// RegisterProtectedRoutes registers routes that need an authenticated caller.
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
}

// GoogleLoginRequest is the body of POST /api/auth/google
type GoogleLoginRequest struct {
	IDToken string `json:"idToken"`
}

// FacebookLoginRequest is the body of POST /api/auth/facebook
type FacebookLoginRequest struct {
	AccessToken string `json:"accessToken"`
}

// Register creates an account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req accounts.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	res, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	response.Created(w, res, "Registration successful")
}

// Login signs in with email and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req accounts.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	res, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	response.OK(w, res, "Login successful")
}

// GoogleLogin signs in with a Google ID token
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	res, err := h.accounts.LoginWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	response.OK(w, res, "Google login successful")
}

// FacebookLogin signs in with a Facebook user access token
func (h *AuthHandler) FacebookLogin(w http.ResponseWriter, r *http.Request) {
	var req FacebookLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	res, err := h.accounts.LoginWithFacebook(r.Context(), req.AccessToken)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}
	response.OK(w, res, "Facebook login successful")
}

// Me returns the caller's profile, creating it on first use
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
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

// Logout is stateless; clients discard their token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	response.OK(w, nil, "Logout successful")
}
