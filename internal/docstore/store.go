// Package docstore is a small collection/document abstraction over the managed
// document database. Repositories in internal/database are written against Store
// so the backing database can be Firestore, PostgreSQL (JSONB) or memory.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("document already exists")
)

// Document is a single stored record.
type Document struct {
	ID   string
	Data map[string]any
}

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter is an equality predicate on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents from one collection. Documents missing the OrderBy field
// are excluded from results, matching Firestore semantics. Count ignores ordering,
// Offset and Limit.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Direction  Direction
	Offset     int
	Limit      int
}

// Where returns a copy of q with an added equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// Store is implemented by every document database backend.
//
// Field values are limited to string, bool, numbers, time.Time, nil,
// map[string]any and []any (or []string); backends may return numbers as int64
// or float64 and times as time.Time or RFC 3339 strings, so callers decode
// through the helpers in values.go.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Create inserts a new document and fails with ErrAlreadyExists if id is taken.
	// An empty id asks the store to assign one.
	Create(ctx context.Context, collection, id string, data map[string]any) (string, error)
	// Set writes the full document, creating or replacing it.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges top-level fields into an existing document.
	Update(ctx context.Context, collection, id string, data map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q Query) ([]Document, error)
	Count(ctx context.Context, q Query) (int, error)
	Ping(ctx context.Context) error
	Close() error
}
