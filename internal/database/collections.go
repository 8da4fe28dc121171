package database

import "github.com/benvon/pet-shop/internal/docstore"

// Collection names in the document store.
const (
	UsersCollection     = "users"
	PetsCollection      = "pets"
	FavoritesCollection = "favorites"
	SettingsCollection  = "settings"
)

// Re-exported so services need not import docstore to classify repository errors.
var (
	ErrNotFound      = docstore.ErrNotFound
	ErrAlreadyExists = docstore.ErrAlreadyExists
)
