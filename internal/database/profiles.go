package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/pet-shop/internal/docstore"
	"github.com/benvon/pet-shop/internal/models"
)

// ProfileRepository stores user profiles in the users collection, keyed by identity UID.
type ProfileRepository struct {
	store docstore.Store
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(store docstore.Store) *ProfileRepository {
	return &ProfileRepository{store: store}
}

// Get retrieves a profile. Missing profiles yield an error wrapping ErrNotFound.
func (r *ProfileRepository) Get(ctx context.Context, uid string) (*models.Profile, error) {
	doc, err := r.store.Get(ctx, UsersCollection, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profileFromDocument(doc), nil
}

// Create inserts a profile and fails with ErrAlreadyExists when one is already stored.
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	p.ID = p.UID
	if _, err := r.store.Create(ctx, UsersCollection, p.UID, profileFields(p)); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of upd and stamps updatedAt.
func (r *ProfileRepository) Update(ctx context.Context, uid string, upd models.ProfileUpdate, now time.Time) error {
	fields := map[string]any{"updatedAt": now.UTC()}
	if upd.FullName != nil {
		fields["fullName"] = *upd.FullName
	}
	if upd.Phone != nil {
		fields["phone"] = *upd.Phone
	}
	if upd.Address != nil {
		fields["address"] = *upd.Address
	}
	if upd.ProfileImage != nil {
		fields["profileImage"] = *upd.ProfileImage
	}
	if err := r.store.Update(ctx, UsersCollection, uid, fields); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// SetAdmin flips the isAdmin flag read by the auth middleware.
func (r *ProfileRepository) SetAdmin(ctx context.Context, uid string, admin bool, now time.Time) error {
	err := r.store.Update(ctx, UsersCollection, uid, map[string]any{"isAdmin": admin, "updatedAt": now.UTC()})
	if err != nil {
		return fmt.Errorf("failed to set admin flag: %w", err)
	}
	return nil
}

// ListAdmins returns every profile flagged as admin.
func (r *ProfileRepository) ListAdmins(ctx context.Context) ([]models.Profile, error) {
	docs, err := r.store.Query(ctx, docstore.Query{Collection: UsersCollection}.Where("isAdmin", true))
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	out := make([]models.Profile, 0, len(docs))
	for i := range docs {
		out = append(out, *profileFromDocument(&docs[i]))
	}
	return out, nil
}

func profileFields(p *models.Profile) map[string]any {
	fields := map[string]any{
		"uid":          p.UID,
		"email":        p.Email,
		"fullName":     p.FullName,
		"phone":        p.Phone,
		"address":      p.Address,
		"profileImage": p.ProfileImage,
		"isAdmin":      p.IsAdmin,
		"createdAt":    p.CreatedAt.UTC(),
	}
	if p.UpdatedAt != nil {
		fields["updatedAt"] = p.UpdatedAt.UTC()
	}
	return fields
}

func profileFromDocument(doc *docstore.Document) *models.Profile {
	d := doc.Data
	uid := docstore.String(d, "uid")
	if uid == "" {
		uid = doc.ID
	}
	return &models.Profile{
		ID:           doc.ID,
		UID:          uid,
		Email:        docstore.String(d, "email"),
		FullName:     docstore.String(d, "fullName"),
		Phone:        docstore.String(d, "phone"),
		Address:      docstore.String(d, "address"),
		ProfileImage: docstore.String(d, "profileImage"),
		IsAdmin:      docstore.Bool(d, "isAdmin"),
		CreatedAt:    docstore.Time(d, "createdAt"),
		UpdatedAt:    docstore.OptionalTime(d, "updatedAt"),
	}
}
