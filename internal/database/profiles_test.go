package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/pet-shop/internal/docstore/memory"
	"github.com/benvon/pet-shop/internal/models"
)

func TestProfileRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewProfileRepository(memory.New())
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	p := &models.Profile{UID: "u1", Email: "jane@example.com", FullName: "Jane", CreatedAt: created}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.ID != "u1" {
		t.Errorf("Expected ID to equal UID, got %s", p.ID)
	}
	if err := repo.Create(ctx, &models.Profile{UID: "u1"}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}

	phone := "555-0100"
	later := created.Add(time.Hour)
	if err := repo.Update(ctx, "u1", models.ProfileUpdate{Phone: &phone}, later); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Phone != phone || got.FullName != "Jane" {
		t.Errorf("Unexpected profile after update: %+v", got)
	}
	if got.UpdatedAt == nil || !got.UpdatedAt.Equal(later) {
		t.Errorf("Expected updatedAt %v, got %v", later, got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected createdAt %v, got %v", created, got.CreatedAt)
	}

	if err := repo.Update(ctx, "ghost", models.ProfileUpdate{Phone: &phone}, later); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Get(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestProfileRepository_Admins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewProfileRepository(memory.New())
	for _, uid := range []string{"a", "b", "c"} {
		if err := repo.Create(ctx, &models.Profile{UID: uid, Email: uid + "@example.com", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("Create(%s) error = %v", uid, err)
		}
	}
	if err := repo.SetAdmin(ctx, "b", true, time.Now()); err != nil {
		t.Fatalf("SetAdmin() error = %v", err)
	}

	admins, err := repo.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins() error = %v", err)
	}
	if len(admins) != 1 || admins[0].UID != "b" || !admins[0].IsAdmin {
		t.Errorf("Expected only b to be admin, got %+v", admins)
	}

	if err := repo.SetAdmin(ctx, "b", false, time.Now()); err != nil {
		t.Fatalf("SetAdmin() error = %v", err)
	}
	admins, _ = repo.ListAdmins(ctx)
	if len(admins) != 0 {
		t.Errorf("Expected no admins after revoke, got %d", len(admins))
	}
}
