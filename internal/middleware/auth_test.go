package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/identity"
	"github.com/benvon/pet-shop/internal/models"
	"github.com/benvon/pet-shop/internal/request"
	"github.com/benvon/pet-shop/internal/response"
)

type fakeVerifier map[string]*identity.Token

func (f fakeVerifier) VerifyIDToken(_ context.Context, token string) (*identity.Token, error) {
	if tok, ok := f[token]; ok {
		return tok, nil
	}
	return nil, identity.ErrInvalidToken
}

type fakeProfiles struct {
	profiles map[string]*models.Profile
	err      error
}

func (f *fakeProfiles) Get(_ context.Context, uid string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.profiles[uid]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("failed to get profile: %w", database.ErrNotFound)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	return body
}

func TestAuth(t *testing.T) {
	t.Parallel()

	verifier := fakeVerifier{
		"admin-token":  {UID: "admin", Email: "admin@example.com", Name: "Ada"},
		"user-token":   {UID: "user", Email: "user@example.com"},
		"newbie-token": {UID: "newbie", Email: "newbie@example.com", Picture: "https://img/n.png"},
	}
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"admin": {UID: "admin", IsAdmin: true},
		"user":  {UID: "user"},
	}}

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
		wantUID     string
		wantAdmin   bool
	}{
		{name: "missing header", wantStatus: 401, wantMessage: "No token provided"},
		{name: "empty bearer", header: "Bearer ", wantStatus: 401, wantMessage: "No token provided"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantStatus: 401, wantMessage: "Invalid token"},
		{name: "bad token", header: "Bearer forged", wantStatus: 401, wantMessage: "Invalid token"},
		{name: "admin", header: "Bearer admin-token", wantStatus: 200, wantUID: "admin", wantAdmin: true},
		{name: "regular user", header: "Bearer user-token", wantStatus: 200, wantUID: "user"},
		{name: "no profile yet", header: "Bearer newbie-token", wantStatus: 200, wantUID: "newbie"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got models.Identity
			reached := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				got, _ = request.IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Auth(verifier, profiles, zap.NewNop())(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				if reached {
					t.Error("Expected handler not to be reached")
				}
				body := decodeError(t, rec)
				if body.Message != tt.wantMessage || body.Error != "UNAUTHORIZED" {
					t.Errorf("Expected %q UNAUTHORIZED, got %q %s", tt.wantMessage, body.Message, body.Error)
				}
				return
			}
			if got.UID != tt.wantUID || got.Admin != tt.wantAdmin {
				t.Errorf("Expected identity %s admin=%v, got %+v", tt.wantUID, tt.wantAdmin, got)
			}
		})
	}
}

func TestAuth_ProfileStoreFailure(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfiles{err: errors.New("connection reset")}
	verifier := fakeVerifier{"tok": {UID: "u"}}

	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	Auth(verifier, profiles, zap.NewNop())(http.NotFoundHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "INTERNAL_ERROR" {
		t.Errorf("Expected INTERNAL_ERROR, got %s", body.Error)
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		identity   *models.Identity
		wantStatus int
		wantCode   string
	}{
		{name: "no identity", wantStatus: 401, wantCode: "UNAUTHORIZED"},
		{name: "not admin", identity: &models.Identity{UID: "u"}, wantStatus: 403, wantCode: "FORBIDDEN"},
		{name: "admin", identity: &models.Identity{UID: "a", Admin: true}, wantStatus: 204},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

			req := httptest.NewRequest(http.MethodDelete, "/api/pets/1", nil)
			if tt.identity != nil {
				req = req.WithContext(request.WithIdentity(req.Context(), *tt.identity))
			}
			rec := httptest.NewRecorder()
			RequireAdmin(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantCode != "" {
				if body := decodeError(t, rec); body.Error != tt.wantCode {
					t.Errorf("Expected code %s, got %s", tt.wantCode, body.Error)
				}
			}
		})
	}
}
