package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/apperror"
	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/identity"
	logpkg "github.com/benvon/pet-shop/internal/logger"
	"github.com/benvon/pet-shop/internal/models"
	"github.com/benvon/pet-shop/internal/request"
	"github.com/benvon/pet-shop/internal/response"
)

// TokenVerifier is the part of identity.Provider the auth middleware needs.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*identity.Token, error)
}

// ProfileReader looks up the stored profile holding the admin flag.
type ProfileReader interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
}

// Auth verifies the bearer token and attaches the resolved identity to the request
// context. The admin flag comes from the stored profile on every request; a missing
// profile means not admin. It never creates profiles.
func Auth(verifier TokenVerifier, profiles ProfileReader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Error(w, apperror.ErrNoToken)
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || scheme != "Bearer" {
				response.Error(w, apperror.ErrInvalidToken)
				return
			}
			token = strings.TrimSpace(token)
			if token == "" {
				response.Error(w, apperror.ErrNoToken)
				return
			}

			ctx := r.Context()
			claims, err := verifier.VerifyIDToken(ctx, token)
			if err != nil {
				logger.Debug("token_verification_failed",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				response.Error(w, apperror.ErrInvalidToken)
				return
			}

			id := models.Identity{
				UID:         claims.UID,
				Email:       claims.Email,
				DisplayName: claims.Name,
				PhotoURL:    claims.Picture,
			}

			profile, err := profiles.Get(ctx, claims.UID)
			switch {
			case err == nil:
				id.Admin = profile.IsAdmin
			case errors.Is(err, database.ErrNotFound):
			default:
				response.FromError(w, r, logger, apperror.Internal(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithIdentity(ctx, id)))
		})
	}
}
