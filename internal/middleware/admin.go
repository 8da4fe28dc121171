package middleware

import (
	"net/http"

	"github.com/benvon/pet-shop/internal/apperror"
	"github.com/benvon/pet-shop/internal/request"
	"github.com/benvon/pet-shop/internal/response"
)

// RequireAdmin rejects requests whose identity is not an admin. It must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := request.IdentityFromContext(r.Context())
		if !ok {
			response.Error(w, apperror.ErrAuthRequired)
			return
		}
		if !id.Admin {
			response.Error(w, apperror.ErrAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}
