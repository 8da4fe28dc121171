package models

import (
	"time"

	"github.com/google/uuid"
)

// favoriteNamespace scopes the name-based UUIDs of favorite documents.
var favoriteNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("pet-shop:favorites"))

// Favorite links a user to a pet listing. Pet is only populated when listing favorites
// and stays nil when the listing no longer exists.
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PetID     string    `json:"petId"`
	CreatedAt time.Time `json:"createdAt"`
	Pet       *Pet      `json:"pet"`
}

// FavoriteID derives the document id of a (user, pet) pair so a second insert of the
// same pair collides instead of duplicating. The ids are joined with a NUL byte, which
// neither id space contains.
func FavoriteID(userID, petID string) string {
	return uuid.NewSHA1(favoriteNamespace, []byte(userID+"\x00"+petID)).String()
}
