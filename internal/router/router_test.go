package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/docstore/memory"
	"github.com/benvon/pet-shop/internal/handlers"
	"github.com/benvon/pet-shop/internal/identity/local"
	"github.com/benvon/pet-shop/internal/middleware"
	"github.com/benvon/pet-shop/internal/models"
	"github.com/benvon/pet-shop/internal/services/accounts"
	"github.com/benvon/pet-shop/internal/services/admin"
	"github.com/benvon/pet-shop/internal/services/favorites"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type testAPI struct {
	t        *testing.T
	handler  http.Handler
	profiles *database.ProfileRepository
	pets     *database.PetRepository
}

func newTestAPI(t *testing.T, withRateLimit string) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	store := memory.New()

	idp, err := local.New(store, []byte("0123456789abcdef0123456789abcdef"), time.Hour, local.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("Failed to create identity provider: %v", err)
	}
	profiles := database.NewProfileRepository(store)
	pets := database.NewPetRepository(store)
	favs := database.NewFavoriteRepository(store)

	deps := Deps{
		Logger:      logger,
		Environment: "test",
		Verifier:    idp,
		Profiles:    profiles,
		Pets:        pets,
		Accounts:    accounts.NewService(idp, profiles, nil, logger),
		Favorites:   favorites.NewService(favs, pets, logger),
		Admin:       admin.NewService(idp, profiles, logger),
		CORS:        middleware.NewCORSReloader(database.NewCorsConfigRepository(store), "http://localhost:3000", logger, 0),
		HealthChecks: map[string]handlers.HealthCheck{
			"store": store.Ping,
		},
	}
	if withRateLimit != "" {
		limiterStore, err := middleware.NewLimiterStore(nil)
		if err != nil {
			t.Fatalf("Failed to create limiter store: %v", err)
		}
		deps.RateLimit = middleware.NewRateLimitReloader(limiterStore, database.NewRatelimitConfigRepository(store), withRateLimit, logger, 0)
	}

	return &testAPI{t: t, handler: New(deps), profiles: profiles, pets: pets}
}

func (a *testAPI) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)

	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		a.t.Fatalf("%s %s: failed to decode response %q: %v", method, path, rr.Body.String(), err)
	}
	return rr.Code, env
}

// register creates an account and returns its uid and token.
func (a *testAPI) register(email string) (string, string) {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"fullName": "Test User",
		"email":    email,
		"password": "secret123",
	})
	if code != http.StatusCreated {
		a.t.Fatalf("Expected register status 201, got %d: %+v", code, env)
	}
	var res models.AuthResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		a.t.Fatalf("Failed to decode auth result: %v", err)
	}
	return res.User.ID, res.Token
}

func (a *testAPI) makeAdmin(uid string) {
	a.t.Helper()
	if err := a.profiles.SetAdmin(context.Background(), uid, true, time.Now()); err != nil {
		a.t.Fatalf("SetAdmin() error = %v", err)
	}
}

func TestRouter_Envelopes(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "")

	tests := []struct {
		name            string
		method          string
		path            string
		body            any
		expectedStatus  int
		expectedMessage string
		expectedCode    string
	}{
		{name: "unknown route", method: http.MethodGet, path: "/api/unknown", expectedStatus: http.StatusNotFound, expectedMessage: "Route not found"},
		{name: "wrong method", method: http.MethodPatch, path: "/api/pets", expectedStatus: http.StatusMethodNotAllowed, expectedMessage: "Method not allowed"},
		{name: "missing token", method: http.MethodGet, path: "/api/auth/me", expectedStatus: http.StatusUnauthorized, expectedMessage: "No token provided", expectedCode: "UNAUTHORIZED"},
		{name: "missing token on favorites", method: http.MethodGet, path: "/api/favorites", expectedStatus: http.StatusUnauthorized, expectedCode: "UNAUTHORIZED"},
		{name: "missing token on pet create", method: http.MethodPost, path: "/api/pets", body: map[string]string{"name": "Rex"}, expectedStatus: http.StatusUnauthorized, expectedCode: "UNAUTHORIZED"},
		{name: "weak password", method: http.MethodPost, path: "/api/auth/register", body: map[string]string{"email": "a@example.com", "password": "short"}, expectedStatus: http.StatusBadRequest, expectedCode: "WEAK_PASSWORD"},
		{name: "missing credentials", method: http.MethodPost, path: "/api/auth/login", body: map[string]string{}, expectedStatus: http.StatusBadRequest, expectedMessage: "Email and password are required", expectedCode: "VALIDATION_ERROR"},
		{name: "unknown user login", method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"email": "nobody@example.com", "password": "secret123"}, expectedStatus: http.StatusUnauthorized, expectedCode: "INVALID_CREDENTIALS"},
		{name: "facebook not configured", method: http.MethodPost, path: "/api/auth/facebook", body: map[string]string{"accessToken": "abc"}, expectedStatus: http.StatusInternalServerError, expectedCode: "CONFIGURATION_ERROR"},
		{name: "pet not found", method: http.MethodGet, path: "/api/pets/missing", expectedStatus: http.StatusNotFound, expectedMessage: "Pet not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := api.do(tt.method, tt.path, "", tt.body)
			if code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, code)
			}
			if env.Success {
				t.Error("Expected success=false")
			}
			if tt.expectedMessage != "" && env.Message != tt.expectedMessage {
				t.Errorf("Expected message %q, got %q", tt.expectedMessage, env.Message)
			}
			if env.Error != tt.expectedCode {
				t.Errorf("Expected code %q, got %q", tt.expectedCode, env.Error)
			}
		})
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "")

	tests := []struct {
		name          string
		method        string
		path          string
		expectedAllow string
	}{
		{name: "patch on pet collection", method: http.MethodPatch, path: "/api/pets", expectedAllow: "GET, POST"},
		{name: "put on favorites", method: http.MethodPut, path: "/api/favorites", expectedAllow: "GET, POST"},
		{name: "delete on profile", method: http.MethodDelete, path: "/api/users/profile", expectedAllow: "GET, PUT"},
		{name: "get on login", method: http.MethodGet, path: "/api/auth/login", expectedAllow: "POST"},
		{name: "post on single pet", method: http.MethodPost, path: "/api/pets/abc", expectedAllow: "GET, PUT, DELETE"},
		{name: "get on admin grant", method: http.MethodGet, path: "/api/admin/set-admin", expectedAllow: "POST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			api.handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusMethodNotAllowed {
				t.Fatalf("Expected status 405, got %d: %s", rr.Code, rr.Body.String())
			}
			if allow := rr.Header().Get("Allow"); allow != tt.expectedAllow {
				t.Errorf("Expected Allow %q, got %q", tt.expectedAllow, allow)
			}
			var env envelope
			if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if env.Success || env.Message != "Method not allowed" {
				t.Errorf("Expected method-not-allowed envelope, got %+v", env)
			}
		})
	}
}

func TestRouter_UnsupportedMediaType(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("email=a"))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("Expected status 415, got %d", rr.Code)
	}
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health?mode=extended", nil)
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var body struct {
		Status      string            `json:"status"`
		Environment string            `json:"environment"`
		Checks      map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if body.Status != "OK" || body.Environment != "test" || body.Checks["store"] != "healthy" {
		t.Errorf("Unexpected health body %+v", body)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected security headers on health response")
	}
}

func TestRouter_ProfileFlow(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "")
	uid, token := api.register("owner@example.com")

	code, env := api.do(http.MethodGet, "/api/auth/me", token, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %+v", code, env)
	}
	var profile models.Profile
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	if profile.UID != uid || profile.FullName != "Test User" {
		t.Errorf("Unexpected profile %+v", profile)
	}

	code, env = api.do(http.MethodPut, "/api/users/profile", token, map[string]any{
		"phone":   "555-0100",
		"isAdmin": true,
	})
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %+v", code, env)
	}
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	if profile.Phone != "555-0100" {
		t.Errorf("Expected phone to be updated, got %q", profile.Phone)
	}
	if profile.IsAdmin {
		t.Error("Expected isAdmin to be ignored on profile update")
	}

	if code, env := api.do(http.MethodPost, "/api/auth/logout", token, nil); code != http.StatusOK || env.Message != "Logout successful" {
		t.Errorf("Expected logout success, got %d %+v", code, env)
	}

	if code, env := api.do(http.MethodGet, "/api/admin/check", token, nil); code != http.StatusOK {
		t.Errorf("Expected admin check to succeed, got %d %+v", code, env)
	}
}

func TestRouter_AdminGate(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "")
	uid, token := api.register("admin@example.com")
	_, otherToken := api.register("member@example.com")

	pet := map[string]any{"name": "Biscuit", "category": "dogs", "price": 100}

	code, env := api.do(http.MethodPost, "/api/pets", token, pet)
	if code != http.StatusForbidden || env.Error != "FORBIDDEN" {
		t.Fatalf("Expected 403 FORBIDDEN for non-admin, got %d %+v", code, env)
	}
	if code, _ := api.do(http.MethodGet, "/api/admin/admins", token, nil); code != http.StatusForbidden {
		t.Errorf("Expected 403 on admin list for non-admin, got %d", code)
	}

	api.makeAdmin(uid)

	code, env = api.do(http.MethodPost, "/api/pets", token, pet)
	if code != http.StatusCreated {
		t.Fatalf("Expected 201 for admin, got %d %+v", code, env)
	}

	code, env = api.do(http.MethodPost, "/api/admin/set-admin", token, map[string]string{"email": "member@example.com"})
	if code != http.StatusOK || env.Message != "Admin role granted to member@example.com" {
		t.Fatalf("Expected grant success, got %d %+v", code, env)
	}
	if code, _ := api.do(http.MethodGet, "/api/admin/admins", otherToken, nil); code != http.StatusOK {
		t.Errorf("Expected granted member to list admins, got %d", code)
	}

	code, env = api.do(http.MethodPost, "/api/admin/set-admin", token, map[string]string{"email": "ghost@example.com"})
	if code != http.StatusNotFound || env.Message != "User not found" {
		t.Errorf("Expected 404 User not found, got %d %+v", code, env)
	}

	code, env = api.do(http.MethodGet, "/api/admin/admins", token, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("Failed to decode admin list: %v", err)
	}
	if list.Count != 2 {
		t.Errorf("Expected 2 admins, got %d", list.Count)
	}
}

func TestRouter_Favorites(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "")
	_, owner := api.register("owner@example.com")
	_, other := api.register("other@example.com")

	pet := models.Pet{Name: "Mochi", Category: "cats", CreatedAt: time.Now()}
	if err := api.pets.Create(context.Background(), &pet); err != nil {
		t.Fatalf("Failed to create pet: %v", err)
	}

	code, env := api.do(http.MethodPost, "/api/favorites", owner, map[string]string{"petId": pet.ID})
	if code != http.StatusCreated || env.Message != "Added to favorites" {
		t.Fatalf("Expected 201 Added to favorites, got %d %+v", code, env)
	}
	var fav models.Favorite
	if err := json.Unmarshal(env.Data, &fav); err != nil {
		t.Fatalf("Failed to decode favorite: %v", err)
	}
	if fav.Pet == nil || fav.Pet.ID != pet.ID {
		t.Errorf("Expected embedded pet, got %+v", fav.Pet)
	}

	if code, env := api.do(http.MethodPost, "/api/favorites", owner, map[string]string{"petId": pet.ID}); code != http.StatusBadRequest || env.Error != "ALREADY_FAVORITE" {
		t.Errorf("Expected ALREADY_FAVORITE, got %d %+v", code, env)
	}
	if code, env := api.do(http.MethodPost, "/api/favorites", owner, map[string]string{"petId": "missing"}); code != http.StatusNotFound || env.Error != "PET_NOT_FOUND" {
		t.Errorf("Expected PET_NOT_FOUND, got %d %+v", code, env)
	}
	if code, env := api.do(http.MethodPost, "/api/favorites", owner, map[string]string{}); code != http.StatusBadRequest || env.Message != "Please provide pet ID" {
		t.Errorf("Expected missing pet id error, got %d %+v", code, env)
	}

	if code, env := api.do(http.MethodDelete, "/api/favorites/"+fav.ID, other, nil); code != http.StatusForbidden || env.Error != "FORBIDDEN" {
		t.Errorf("Expected 403 for non-owner, got %d %+v", code, env)
	}

	code, env = api.do(http.MethodGet, "/api/favorites", owner, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	var list struct {
		Favorites []models.Favorite `json:"favorites"`
		Count     int               `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("Failed to decode favorites: %v", err)
	}
	if list.Count != 1 {
		t.Fatalf("Expected favorite to survive non-owner delete, got count %d", list.Count)
	}

	if code, env := api.do(http.MethodDelete, "/api/favorites/"+fav.ID, owner, nil); code != http.StatusOK || env.Message != "Favorite removed successfully" {
		t.Errorf("Expected removal, got %d %+v", code, env)
	}
	if code, env := api.do(http.MethodDelete, "/api/favorites/"+fav.ID, owner, nil); code != http.StatusNotFound || env.Error != "FAVORITE_NOT_FOUND" {
		t.Errorf("Expected FAVORITE_NOT_FOUND, got %d %+v", code, env)
	}
}

func TestRouter_PetPagination(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 10 {
		pet := models.Pet{Name: string(rune('A' + i)), Category: "dogs", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := api.pets.Create(context.Background(), &pet); err != nil {
			t.Fatalf("Failed to create pet: %v", err)
		}
	}

	code, env := api.do(http.MethodGet, "/api/pets?page=2&limit=3", "", nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	var list models.PetList
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("Failed to decode pets: %v", err)
	}
	names := ""
	for _, p := range list.Pets {
		names += p.Name
	}
	if names != "GFE" {
		t.Errorf("Expected items 4-6 newest first (GFE), got %s", names)
	}
	if list.Pagination.Pages != 4 || list.Pagination.Total != 10 {
		t.Errorf("Expected 10 items over 4 pages, got %+v", list.Pagination)
	}
}

func TestRouter_AuthRateLimit(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "2-M")

	creds := map[string]string{"email": "nobody@example.com", "password": "secret123"}
	for i := range 2 {
		if code, _ := api.do(http.MethodPost, "/api/auth/login", "", creds); code != http.StatusUnauthorized {
			t.Fatalf("Expected attempt %d to reach the handler, got %d", i+1, code)
		}
	}

	code, env := api.do(http.MethodPost, "/api/auth/login", "", creds)
	if code != http.StatusTooManyRequests || env.Error != "RATE_LIMITED" {
		t.Errorf("Expected 429 RATE_LIMITED, got %d %+v", code, env)
	}

	// Reads are not rate limited.
	for range 3 {
		if code, _ := api.do(http.MethodGet, "/api/pets", "", nil); code != http.StatusOK {
			t.Errorf("Expected pets listing to be unaffected, got %d", code)
		}
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/favorites", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin, got %q", got)
	}
}
