package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/pet-shop/internal/docstore"
	"github.com/benvon/pet-shop/internal/models"
)

// PetRepository handles pet listings.
type PetRepository struct {
	store docstore.Store
}

// NewPetRepository creates a new pet repository
func NewPetRepository(store docstore.Store) *PetRepository {
	return &PetRepository{store: store}
}

// List returns one page of listings, newest first, and the total number of listings
// matching category. An empty category matches everything.
func (r *PetRepository) List(ctx context.Context, category string, page, limit int) ([]models.Pet, int, error) {
	q := docstore.Query{Collection: PetsCollection}
	if category != "" {
		q = q.Where("category", category)
	}

	total, err := r.store.Count(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count pets: %w", err)
	}

	q.OrderBy = "createdAt"
	q.Direction = docstore.Desc
	q.Offset = models.Pagination{Page: page, Limit: limit}.Offset()
	q.Limit = limit

	pets, err := r.query(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return pets, total, nil
}

// ListByCategory returns every listing in category, newest first.
func (r *PetRepository) ListByCategory(ctx context.Context, category string) ([]models.Pet, error) {
	q := docstore.Query{Collection: PetsCollection, OrderBy: "createdAt", Direction: docstore.Desc}.Where("category", category)
	return r.query(ctx, q)
}

// Get retrieves a listing by id.
func (r *PetRepository) Get(ctx context.Context, id string) (*models.Pet, error) {
	doc, err := r.store.Get(ctx, PetsCollection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	return petFromDocument(doc), nil
}

// Create stores a new listing and sets its ID.
func (r *PetRepository) Create(ctx context.Context, pet *models.Pet) error {
	id, err := r.store.Create(ctx, PetsCollection, pet.ID, petFields(pet))
	if err != nil {
		return fmt.Errorf("failed to create pet: %w", err)
	}
	pet.ID = id
	return nil
}

// Update merges the non-nil fields of upd into the listing and returns the result.
func (r *PetRepository) Update(ctx context.Context, id string, upd models.PetUpdate, now time.Time) (*models.Pet, error) {
	fields := petUpdateFields(upd)
	fields["updatedAt"] = now.UTC()
	if err := r.store.Update(ctx, PetsCollection, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update pet: %w", err)
	}
	return r.Get(ctx, id)
}

// Delete removes a listing.
func (r *PetRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, PetsCollection, id); err != nil {
		return fmt.Errorf("failed to delete pet: %w", err)
	}
	return nil
}

func (r *PetRepository) query(ctx context.Context, q docstore.Query) ([]models.Pet, error) {
	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	pets := make([]models.Pet, 0, len(docs))
	for i := range docs {
		pets = append(pets, *petFromDocument(&docs[i]))
	}
	return pets, nil
}

func petFields(p *models.Pet) map[string]any {
	fields := map[string]any{
		"name":         p.Name,
		"breed":        p.Breed,
		"age":          p.Age,
		"gender":       p.Gender,
		"weight":       p.Weight,
		"color":        p.Color,
		"location":     p.Location,
		"distance":     p.Distance,
		"price":        p.Price,
		"imageUrl":     p.ImageURL,
		"description":  p.Description,
		"category":     p.Category,
		"owner":        ownerFields(p.Owner),
		"healthStatus": healthFields(p.HealthStatus),
		"createdAt":    p.CreatedAt.UTC(),
	}
	if p.UpdatedAt != nil {
		fields["updatedAt"] = p.UpdatedAt.UTC()
	}
	return fields
}

func petUpdateFields(u models.PetUpdate) map[string]any {
	fields := map[string]any{}
	set := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	set("name", u.Name)
	set("breed", u.Breed)
	set("age", u.Age)
	set("gender", u.Gender)
	set("weight", u.Weight)
	set("color", u.Color)
	set("location", u.Location)
	set("distance", u.Distance)
	set("imageUrl", u.ImageURL)
	set("description", u.Description)
	set("category", u.Category)
	if u.Price != nil {
		fields["price"] = *u.Price
	}
	if u.Owner != nil {
		fields["owner"] = ownerFields(*u.Owner)
	}
	if u.HealthStatus != nil {
		fields["healthStatus"] = healthFields(*u.HealthStatus)
	}
	return fields
}

func ownerFields(o models.PetOwner) map[string]any {
	return map[string]any{"name": o.Name, "imageUrl": o.ImageURL}
}

func healthFields(h models.HealthStatus) map[string]any {
	return map[string]any{"vaccines": h.Vaccines, "neutered": h.Neutered, "healthRecord": h.HealthRecord}
}

func petFromDocument(doc *docstore.Document) *models.Pet {
	d := doc.Data
	owner := docstore.Map(d, "owner")
	health := docstore.Map(d, "healthStatus")
	return &models.Pet{
		ID:          doc.ID,
		Name:        docstore.String(d, "name"),
		Breed:       docstore.String(d, "breed"),
		Age:         docstore.String(d, "age"),
		Gender:      docstore.String(d, "gender"),
		Weight:      docstore.String(d, "weight"),
		Color:       docstore.String(d, "color"),
		Location:    docstore.String(d, "location"),
		Distance:    docstore.String(d, "distance"),
		Price:       docstore.Float(d, "price"),
		ImageURL:    docstore.String(d, "imageUrl"),
		Description: docstore.String(d, "description"),
		Category:    docstore.String(d, "category"),
		Owner: models.PetOwner{
			Name:     docstore.String(owner, "name"),
			ImageURL: docstore.String(owner, "imageUrl"),
		},
		HealthStatus: models.HealthStatus{
			Vaccines:     docstore.Bool(health, "vaccines"),
			Neutered:     docstore.Bool(health, "neutered"),
			HealthRecord: docstore.Bool(health, "healthRecord"),
		},
		CreatedAt: docstore.Time(d, "createdAt"),
		UpdatedAt: docstore.OptionalTime(d, "updatedAt"),
	}
}
