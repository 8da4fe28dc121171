package models

import "time"

// PetCategories lists the accepted listing categories.
var PetCategories = []string{"dogs", "cats", "birds", "rabbits", "fish", "reptiles", "other"}

// PetOwner is a denormalized snapshot of whoever is rehoming the pet.
type PetOwner struct {
	Name     string `json:"name" yaml:"name" validate:"max=200"`
	ImageURL string `json:"imageUrl" yaml:"imageUrl" validate:"max=2048"`
}

// HealthStatus summarises the paperwork that comes with a pet.
type HealthStatus struct {
	Vaccines     bool `json:"vaccines" yaml:"vaccines"`
	Neutered     bool `json:"neutered" yaml:"neutered"`
	HealthRecord bool `json:"healthRecord" yaml:"healthRecord"`
}

// Pet is an adoption listing.
type Pet struct {
	ID           string       `json:"id" yaml:"-"`
	Name         string       `json:"name" yaml:"name" validate:"required,max=100"`
	Breed        string       `json:"breed" yaml:"breed" validate:"max=100"`
	Age          string       `json:"age" yaml:"age" validate:"max=50"`
	Gender       string       `json:"gender" yaml:"gender" validate:"max=20"`
	Weight       string       `json:"weight" yaml:"weight" validate:"max=50"`
	Color        string       `json:"color" yaml:"color" validate:"max=50"`
	Location     string       `json:"location" yaml:"location" validate:"max=200"`
	Distance     string       `json:"distance" yaml:"distance" validate:"max=50"`
	Price        float64      `json:"price" yaml:"price" validate:"gte=0"`
	ImageURL     string       `json:"imageUrl" yaml:"imageUrl" validate:"max=2048"`
	Description  string       `json:"description" yaml:"description" validate:"max=5000"`
	Category     string       `json:"category" yaml:"category" validate:"required,pet_category"`
	Owner        PetOwner     `json:"owner" yaml:"owner"`
	HealthStatus HealthStatus `json:"healthStatus" yaml:"healthStatus"`
	CreatedAt    time.Time    `json:"createdAt" yaml:"-"`
	UpdatedAt    *time.Time   `json:"updatedAt,omitempty" yaml:"-"`
}

// PetUpdate is a partial listing update. Nil fields are left untouched; owner and
// healthStatus are replaced as a whole when present.
type PetUpdate struct {
	Name         *string       `json:"name" validate:"omitempty,min=1,max=100"`
	Breed        *string       `json:"breed" validate:"omitempty,max=100"`
	Age          *string       `json:"age" validate:"omitempty,max=50"`
	Gender       *string       `json:"gender" validate:"omitempty,max=20"`
	Weight       *string       `json:"weight" validate:"omitempty,max=50"`
	Color        *string       `json:"color" validate:"omitempty,max=50"`
	Location     *string       `json:"location" validate:"omitempty,max=200"`
	Distance     *string       `json:"distance" validate:"omitempty,max=50"`
	Price        *float64      `json:"price" validate:"omitempty,gte=0"`
	ImageURL     *string       `json:"imageUrl" validate:"omitempty,max=2048"`
	Description  *string       `json:"description" validate:"omitempty,max=5000"`
	Category     *string       `json:"category" validate:"omitempty,pet_category"`
	Owner        *PetOwner     `json:"owner"`
	HealthStatus *HealthStatus `json:"healthStatus"`
}

// PetList is the paginated listing payload.
type PetList struct {
	Pets       []Pet      `json:"pets"`
	Pagination Pagination `json:"pagination"`
}
