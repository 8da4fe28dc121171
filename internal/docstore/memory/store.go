// Package memory is an in-process docstore.Store used by tests and local development.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/benvon/pet-shop/internal/docstore"
	"github.com/google/uuid"
)

// Store keeps collections in maps guarded by a RWMutex. Values are deep-copied on
// the way in and out so callers never share state with the store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

var _ docstore.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]map[string]any)}
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return &docstore.Document{ID: id, Data: copyMap(data)}, nil
}

func (s *Store) Create(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collection(collection)
	if _, exists := docs[id]; exists {
		return "", fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrAlreadyExists)
	}
	docs[id] = copyMap(data)
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collection(collection)[id] = copyMap(data)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	for k, v := range data {
		doc[k] = copyValue(v)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	if _, ok := docs[id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	delete(docs, id)
	return nil
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	matched := s.match(q)
	s.mu.RUnlock()

	if q.OrderBy != "" {
		slices.SortStableFunc(matched, func(a, b docstore.Document) int {
			c := docstore.Compare(a.Data[q.OrderBy], b.Data[q.OrderBy])
			if c == 0 {
				c = cmp.Compare(a.ID, b.ID)
			}
			if q.Direction == docstore.Desc {
				return -c
			}
			return c
		})
	} else {
		slices.SortFunc(matched, func(a, b docstore.Document) int { return cmp.Compare(a.ID, b.ID) })
	}

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []docstore.Document{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (s *Store) Count(ctx context.Context, q docstore.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	q.OrderBy = ""
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(q)), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

// match returns deep copies of the documents satisfying every filter. Callers hold s.mu.
func (s *Store) match(q docstore.Query) []docstore.Document {
	out := []docstore.Document{}
	for id, data := range s.collections[q.Collection] {
		if q.OrderBy != "" {
			if _, ok := data[q.OrderBy]; !ok {
				continue
			}
		}
		keep := true
		for _, f := range q.Filters {
			if !docstore.Equal(data[f.Field], f.Value) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, docstore.Document{ID: id, Data: copyMap(data)})
		}
	}
	return out
}

func (s *Store) collection(name string) map[string]map[string]any {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[name] = docs
	}
	return docs
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	case time.Time:
		return t.UTC()
	}
	return v
}
