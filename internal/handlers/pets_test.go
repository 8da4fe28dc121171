package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/docstore/memory"
	"github.com/benvon/pet-shop/internal/models"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return env
}

func newPetRouter(t *testing.T) (*mux.Router, *database.PetRepository) {
	t.Helper()
	repo := database.NewPetRepository(memory.New())
	h := NewPetHandler(repo, zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	r := mux.NewRouter()
	pets := r.PathPrefix("/api/pets").Subrouter()
	h.RegisterPublicRoutes(pets)
	h.RegisterAdminRoutes(pets)
	return r, repo
}

func seedPets(t *testing.T, repo *database.PetRepository, n int, category string) []models.Pet {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Pet, 0, n)
	for i := range n {
		pet := models.Pet{
			Name:      fmt.Sprintf("%s-%d", category, i+1),
			Category:  category,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Create(context.Background(), &pet); err != nil {
			t.Fatalf("Failed to seed pet: %v", err)
		}
		out = append(out, pet)
	}
	return out
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestListPets_Pagination(t *testing.T) {
	t.Parallel()

	r, repo := newPetRouter(t)
	seedPets(t, repo, 10, "dogs")

	rr := serve(r, http.MethodGet, "/api/pets?page=2&limit=3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var list models.PetList
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &list); err != nil {
		t.Fatalf("Failed to decode pet list: %v", err)
	}

	// Newest first: page 2 of 3 holds the 4th to 6th newest listings.
	want := []string{"dogs-7", "dogs-6", "dogs-5"}
	if len(list.Pets) != len(want) {
		t.Fatalf("Expected %d pets, got %d", len(want), len(list.Pets))
	}
	for i, name := range want {
		if list.Pets[i].Name != name {
			t.Errorf("Expected pet %d to be %s, got %s", i, name, list.Pets[i].Name)
		}
	}

	expected := models.Pagination{Page: 2, Limit: 3, Total: 10, Pages: 4}
	if list.Pagination != expected {
		t.Errorf("Expected pagination %+v, got %+v", expected, list.Pagination)
	}
}

func TestListPets_Category(t *testing.T) {
	t.Parallel()

	r, repo := newPetRouter(t)
	seedPets(t, repo, 3, "dogs")
	seedPets(t, repo, 2, "cats")

	tests := []struct {
		name          string
		query         string
		expectedTotal int
	}{
		{name: "no filter", query: "", expectedTotal: 5},
		{name: "all", query: "?category=all", expectedTotal: 5},
		{name: "cats", query: "?category=cats", expectedTotal: 2},
		{name: "unknown category", query: "?category=dragons", expectedTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(r, http.MethodGet, "/api/pets"+tt.query, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			var list models.PetList
			if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &list); err != nil {
				t.Fatalf("Failed to decode pet list: %v", err)
			}
			if list.Pagination.Total != tt.expectedTotal {
				t.Errorf("Expected total %d, got %d", tt.expectedTotal, list.Pagination.Total)
			}
			if len(list.Pets) != tt.expectedTotal {
				t.Errorf("Expected %d pets, got %d", tt.expectedTotal, len(list.Pets))
			}
		})
	}
}

func TestListPets_InvalidPaging(t *testing.T) {
	t.Parallel()

	r, _ := newPetRouter(t)
	for _, query := range []string{"?page=0", "?limit=abc", "?page=-2"} {
		rr := serve(r, http.MethodGet, "/api/pets"+query, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", query, rr.Code)
		}
		if env := decodeEnvelope(t, rr); env.Error != "VALIDATION_ERROR" {
			t.Errorf("%s: expected VALIDATION_ERROR, got %q", query, env.Error)
		}
	}
}

func TestListByCategory(t *testing.T) {
	t.Parallel()

	r, repo := newPetRouter(t)
	seedPets(t, repo, 12, "birds")
	seedPets(t, repo, 1, "fish")

	rr := serve(r, http.MethodGet, "/api/pets/category/birds", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var data struct {
		Pets  []models.Pet `json:"pets"`
		Count int          `json:"count"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &data); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if data.Count != 12 || len(data.Pets) != 12 {
		t.Errorf("Expected 12 unpaginated birds, got count=%d len=%d", data.Count, len(data.Pets))
	}
}

func TestGetPet(t *testing.T) {
	t.Parallel()

	r, repo := newPetRouter(t)
	pets := seedPets(t, repo, 1, "rabbits")

	rr := serve(r, http.MethodGet, "/api/pets/"+pets[0].ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	rr = serve(r, http.MethodGet, "/api/pets/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr)
	if env.Message != "Pet not found" {
		t.Errorf("Expected message 'Pet not found', got %q", env.Message)
	}
	if env.Error != "" {
		t.Errorf("Expected no error code, got %q", env.Error)
	}
}

func TestCreatePet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name:           "valid listing",
			body:           `{"name":"  Biscuit ","category":"dogs","price":120,"owner":{"name":"Ana"},"healthStatus":{"vaccines":true}}`,
			expectedStatus: http.StatusCreated,
		},
		{name: "missing name", body: `{"category":"dogs"}`, expectedStatus: http.StatusBadRequest},
		{name: "unknown category", body: `{"name":"Rex","category":"dragons"}`, expectedStatus: http.StatusBadRequest},
		{name: "negative price", body: `{"name":"Rex","category":"dogs","price":-1}`, expectedStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"name":`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, repo := newPetRouter(t)
			rr := serve(r, http.MethodPost, "/api/pets", tt.body)
			if rr.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			env := decodeEnvelope(t, rr)
			if env.Message != "Pet created successfully" {
				t.Errorf("Expected created message, got %q", env.Message)
			}
			var pet models.Pet
			if err := json.Unmarshal(env.Data, &pet); err != nil {
				t.Fatalf("Failed to decode pet: %v", err)
			}
			if pet.ID == "" || pet.Name != "Biscuit" {
				t.Errorf("Expected sanitized pet with id, got %+v", pet)
			}
			if !pet.HealthStatus.Vaccines || pet.Owner.Name != "Ana" {
				t.Errorf("Expected nested fields to persist, got %+v", pet)
			}

			stored, err := repo.Get(context.Background(), pet.ID)
			if err != nil {
				t.Fatalf("Expected stored pet, got %v", err)
			}
			if !stored.CreatedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
				t.Errorf("Expected server createdAt, got %v", stored.CreatedAt)
			}
		})
	}
}

func TestUpdateAndDeletePet(t *testing.T) {
	t.Parallel()

	r, repo := newPetRouter(t)
	pet := seedPets(t, repo, 1, "cats")[0]

	rr := serve(r, http.MethodPut, "/api/pets/"+pet.ID, `{"price":75,"location":"Lisbon"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var updated models.Pet
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &updated); err != nil {
		t.Fatalf("Failed to decode pet: %v", err)
	}
	if updated.Price != 75 || updated.Location != "Lisbon" || updated.Name != pet.Name {
		t.Errorf("Expected merged update, got %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Error("Expected updatedAt to be set")
	}

	if rr := serve(r, http.MethodPut, "/api/pets/missing", `{"price":1}`); rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing update, got %d", rr.Code)
	}

	rr = serve(r, http.MethodDelete, "/api/pets/"+pet.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Message != "Pet deleted successfully" {
		t.Errorf("Expected delete message, got %q", env.Message)
	}

	if rr := serve(r, http.MethodDelete, "/api/pets/"+pet.ID, ""); rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for second delete, got %d", rr.Code)
	}
}
