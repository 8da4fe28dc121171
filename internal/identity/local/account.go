package local

import (
	"time"

	"github.com/benvon/pet-shop/internal/docstore"
	"github.com/benvon/pet-shop/internal/identity"
)

type account struct {
	UID           string
	Email         string
	PasswordHash  string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	Disabled      bool
	CustomClaims  map[string]any
	CreatedAt     time.Time
}

func (a *account) fields() map[string]any {
	claims := a.CustomClaims
	if claims == nil {
		claims = map[string]any{}
	}
	return map[string]any{
		"uid":           a.UID,
		"email":         a.Email,
		"passwordHash":  a.PasswordHash,
		"displayName":   a.DisplayName,
		"photoURL":      a.PhotoURL,
		"emailVerified": a.EmailVerified,
		"disabled":      a.Disabled,
		"customClaims":  claims,
		"createdAt":     a.CreatedAt,
	}
}

func accountFromDocument(doc *docstore.Document) *account {
	return &account{
		UID:           doc.ID,
		Email:         docstore.String(doc.Data, "email"),
		PasswordHash:  docstore.String(doc.Data, "passwordHash"),
		DisplayName:   docstore.String(doc.Data, "displayName"),
		PhotoURL:      docstore.String(doc.Data, "photoURL"),
		EmailVerified: docstore.Bool(doc.Data, "emailVerified"),
		Disabled:      docstore.Bool(doc.Data, "disabled"),
		CustomClaims:  docstore.Map(doc.Data, "customClaims"),
		CreatedAt:     docstore.Time(doc.Data, "createdAt"),
	}
}

func (a *account) user() *identity.User {
	return &identity.User{
		UID:           a.UID,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		PhotoURL:      a.PhotoURL,
		EmailVerified: a.EmailVerified,
		Disabled:      a.Disabled,
		CustomClaims:  a.CustomClaims,
	}
}
