package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/apperror"
	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/models"
	"github.com/benvon/pet-shop/internal/response"
	"github.com/benvon/pet-shop/internal/validation"
)

var errPetNotFound = apperror.NotFound("Pet not found")

// PetHandler handles pet listing requests
type PetHandler struct {
	pets   database.PetRepositoryInterface
	logger *zap.Logger
	now    func() time.Time
}

// NewPetHandler creates a new pet handler
func NewPetHandler(pets database.PetRepositoryInterface, logger *zap.Logger) *PetHandler {
	return &PetHandler{pets: pets, logger: logger, now: time.Now}
}

// RegisterPublicRoutes registers the read-only listing routes under /pets.
func (h *PetHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListPets).Methods(http.MethodGet)
	r.HandleFunc("/category/{category}", h.ListByCategory).Methods(http.MethodGet)
	r.HandleFunc("/{id}", h.GetPet).Methods(http.MethodGet)
}

// RegisterAdminRoutes registers the write routes under /pets. The router should already
// have the auth and admin middleware applied.
func (h *PetHandler) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("", h.CreatePet).Methods(http.MethodPost)
	r.HandleFunc("/{id}", h.UpdatePet).Methods(http.MethodPut)
	r.HandleFunc("/{id}", h.DeletePet).Methods(http.MethodDelete)
}

// ListPets returns one page of listings, newest first
func (h *PetHandler) ListPets(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	category := r.URL.Query().Get("category")
	if category == "all" {
		category = ""
	}

	pets, total, err := h.pets.List(r.Context(), category, page, limit)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	response.OK(w, models.PetList{
		Pets:       nonNilPets(pets),
		Pagination: models.NewPagination(page, limit, total),
	}, "")
}

// ListByCategory returns every listing in a category
func (h *PetHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	pets, err := h.pets.ListByCategory(r.Context(), mux.Vars(r)["category"])
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	pets = nonNilPets(pets)
	response.OK(w, map[string]any{"pets": pets, "count": len(pets)}, "")
}

// GetPet returns a single listing
func (h *PetHandler) GetPet(w http.ResponseWriter, r *http.Request) {
	pet, err := h.pets.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.FromError(w, r, h.logger, h.mapNotFound(err))
		return
	}
	response.OK(w, pet, "")
}

// CreatePet stores a new listing
func (h *PetHandler) CreatePet(w http.ResponseWriter, r *http.Request) {
	var pet models.Pet
	if err := decodeJSON(r, &pet); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	sanitizePet(&pet)
	if err := validation.Validate.Struct(pet); err != nil {
		response.FromError(w, r, h.logger, apperror.Validation(validation.Message(err)).Wrap(err))
		return
	}

	pet.ID = ""
	pet.CreatedAt = h.now().UTC()
	pet.UpdatedAt = nil
	if err := h.pets.Create(r.Context(), &pet); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	h.logger.Info("pet_created", zap.String("pet_id", pet.ID), zap.String("category", pet.Category))
	response.Created(w, pet, "Pet created successfully")
}

// UpdatePet merges the supplied fields into a listing
func (h *PetHandler) UpdatePet(w http.ResponseWriter, r *http.Request) {
	var upd models.PetUpdate
	if err := decodeJSON(r, &upd); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	sanitizePetUpdate(&upd)
	if err := validation.Validate.Struct(upd); err != nil {
		response.FromError(w, r, h.logger, apperror.Validation(validation.Message(err)).Wrap(err))
		return
	}

	pet, err := h.pets.Update(r.Context(), mux.Vars(r)["id"], upd, h.now())
	if err != nil {
		response.FromError(w, r, h.logger, h.mapNotFound(err))
		return
	}
	response.OK(w, pet, "Pet updated successfully")
}

// DeletePet removes a listing
func (h *PetHandler) DeletePet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.pets.Delete(r.Context(), id); err != nil {
		response.FromError(w, r, h.logger, h.mapNotFound(err))
		return
	}

	h.logger.Info("pet_deleted", zap.String("pet_id", id))
	response.OK(w, nil, "Pet deleted successfully")
}

func (h *PetHandler) mapNotFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return errPetNotFound.Wrap(err)
	}
	return err
}

func nonNilPets(pets []models.Pet) []models.Pet {
	if pets == nil {
		return []models.Pet{}
	}
	return pets
}

func sanitizePet(p *models.Pet) {
	for _, s := range []*string{
		&p.Name, &p.Breed, &p.Age, &p.Gender, &p.Weight, &p.Color,
		&p.Location, &p.Distance, &p.ImageURL, &p.Description, &p.Category,
		&p.Owner.Name, &p.Owner.ImageURL,
	} {
		*s = validation.SanitizeText(*s)
	}
}

func sanitizePetUpdate(u *models.PetUpdate) {
	for _, s := range []*string{
		u.Name, u.Breed, u.Age, u.Gender, u.Weight, u.Color,
		u.Location, u.Distance, u.ImageURL, u.Description, u.Category,
	} {
		if s != nil {
			*s = validation.SanitizeText(*s)
		}
	}
	if u.Owner != nil {
		u.Owner.Name = validation.SanitizeText(u.Owner.Name)
		u.Owner.ImageURL = validation.SanitizeText(u.Owner.ImageURL)
	}
}
