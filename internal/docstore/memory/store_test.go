package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benvon/pet-shop/internal/docstore"
)

func TestStore_CreateGetUpdateDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	id, err := s.Create(ctx, "pets", "", map[string]any{"name": "Max", "owner": map[string]any{"name": "Ahmet"}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("Expected generated id")
	}

	if _, err := s.Create(ctx, "pets", id, map[string]any{}); !errors.Is(err, docstore.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}

	doc, err := s.Get(ctx, "pets", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	// Mutating the returned copy must not leak into the store.
	docstore.Map(doc.Data, "owner")["name"] = "changed"

	if err := s.Update(ctx, "pets", id, map[string]any{"breed": "Golden"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	doc, _ = s.Get(ctx, "pets", id)
	if docstore.String(doc.Data, "name") != "Max" || docstore.String(doc.Data, "breed") != "Golden" {
		t.Errorf("Expected merged document, got %v", doc.Data)
	}
	if got := docstore.String(docstore.Map(doc.Data, "owner"), "name"); got != "Ahmet" {
		t.Errorf("Expected owner name 'Ahmet', got %q", got)
	}

	if err := s.Update(ctx, "pets", "missing", map[string]any{"x": 1}); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on update, got %v", err)
	}
	if err := s.Delete(ctx, "pets", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "pets", id); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.Get(ctx, "pets", id); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestStore_QueryOrderingAndPagination(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		category := "dogs"
		if i%2 == 1 {
			category = "cats"
		}
		_, err := s.Create(ctx, "pets", fmt.Sprintf("p%02d", i), map[string]any{
			"name":      fmt.Sprintf("pet-%d", i),
			"category":  category,
			"createdAt": base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	// No createdAt: counted, never listed when ordering by createdAt.
	if err := s.Set(ctx, "pets", "legacy", map[string]any{"category": "dogs"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	tests := []struct {
		name      string
		query     docstore.Query
		wantIDs   []string
		wantCount int
	}{
		{
			name:      "second page of three, newest first",
			query:     docstore.Query{Collection: "pets", OrderBy: "createdAt", Direction: docstore.Desc, Offset: 3, Limit: 3},
			wantIDs:   []string{"p06", "p05", "p04"},
			wantCount: 11,
		},
		{
			name:      "filtered ascending",
			query:     docstore.Query{Collection: "pets", Filters: []docstore.Filter{{Field: "category", Value: "cats"}}, OrderBy: "createdAt", Limit: 2},
			wantIDs:   []string{"p01", "p03"},
			wantCount: 5,
		},
		{
			name:      "offset past end",
			query:     docstore.Query{Collection: "pets", OrderBy: "createdAt", Offset: 50},
			wantIDs:   []string{},
			wantCount: 11,
		},
		{
			name:      "unknown collection",
			query:     docstore.Query{Collection: "nothing"},
			wantIDs:   []string{},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			docs, err := s.Query(ctx, tt.query)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(docs) != len(tt.wantIDs) {
				t.Fatalf("Expected %d documents, got %d", len(tt.wantIDs), len(docs))
			}
			for i, id := range tt.wantIDs {
				if docs[i].ID != id {
					t.Errorf("Expected document %d to be %s, got %s", i, id, docs[i].ID)
				}
			}
			count, err := s.Count(ctx, tt.query)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != tt.wantCount {
				t.Errorf("Expected count %d, got %d", tt.wantCount, count)
			}
		})
	}
}

func TestStore_NumericFilterNormalisation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	if _, err := s.Create(ctx, "pets", "a", map[string]any{"price": int64(5000)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	docs, err := s.Query(ctx, docstore.Query{Collection: "pets"}.Where("price", 5000.0))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("Expected int64 and float64 to compare equal, got %d matches", len(docs))
	}
}

func TestStore_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().Get(ctx, "pets", "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
