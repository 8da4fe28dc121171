// Package firestore backs docstore.Store with Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/benvon/pet-shop/internal/docstore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const countAlias = "total"

// Store adapts a Firestore client.
type Store struct {
	client *firestore.Client
}

var _ docstore.Store = (*Store)(nil)

// New wraps an existing client. The store takes ownership and closes it on Close.
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get %s/%s", collection, id), err)
	}
	return &docstore.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *Store) Create(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	col := s.client.Collection(collection)
	ref := col.NewDoc()
	if id != "" {
		ref = col.Doc(id)
	}
	if _, err := ref.Create(ctx, data); err != nil {
		return "", mapError(fmt.Sprintf("create %s/%s", collection, ref.ID), err)
	}
	return ref.ID, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return mapError(fmt.Sprintf("set %s/%s", collection, id), err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, data map[string]any) error {
	if len(data) == 0 {
		_, err := s.Get(ctx, collection, id)
		return err
	}
	updates := make([]firestore.Update, 0, len(data))
	for field, value := range data {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{field}, Value: value})
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return mapError(fmt.Sprintf("update %s/%s", collection, id), err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return mapError(fmt.Sprintf("delete %s/%s", collection, id), err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	fq := s.build(q)
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Direction == docstore.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Offset > 0 {
		fq = fq.Offset(q.Offset)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	iter := fq.Documents(ctx)
	defer iter.Stop()

	docs := []docstore.Document{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapError("query "+q.Collection, err)
		}
		docs = append(docs, docstore.Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

func (s *Store) Count(ctx context.Context, q docstore.Query) (int, error) {
	fq := s.build(q)
	res, err := fq.NewAggregationQuery().WithCount(countAlias).Get(ctx)
	if err != nil {
		return 0, mapError("count "+q.Collection, err)
	}
	v, ok := res[countAlias].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count %s: unexpected aggregation result %T", q.Collection, res[countAlias])
	}
	return int(v.GetIntegerValue()), nil
}

// Ping reads at most one document, which is enough to prove credentials and connectivity.
func (s *Store) Ping(ctx context.Context) error {
	iter := s.client.Collection("settings").Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return mapError("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) build(q docstore.Query) firestore.Query {
	fq := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		fq = fq.WhereEntity(firestore.PropertyFilter{Path: f.Field, Operator: "==", Value: f.Value})
	}
	return fq
}

// mapError translates gRPC status codes into docstore sentinels.
func mapError(op string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", op, docstore.ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", op, docstore.ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}
