package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/benvon/pet-shop/internal/apperror"
	"github.com/benvon/pet-shop/internal/models"
	"github.com/benvon/pet-shop/internal/request"
)

const (
	// DefaultPageSize is the default page size for pet listings
	DefaultPageSize = 10
	// MaxPageSize is the maximum page size for pet listings
	MaxPageSize = 100
)

// decodeJSON decodes the request body into v. An empty body leaves v untouched so
// handlers report missing fields with their own messages.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return apperror.ErrPayloadTooLarge
	}
	return apperror.ErrMalformedJSON.Wrap(err)
}

// currentIdentity returns the identity attached by the auth middleware.
func currentIdentity(r *http.Request) (models.Identity, error) {
	id, ok := request.IdentityFromContext(r.Context())
	if !ok {
		return models.Identity{}, apperror.ErrAuthRequired
	}
	return id, nil
}

// positiveIntParam reads an optional positive integer query parameter.
func positiveIntParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.Validation(name + " must be a positive integer")
	}
	return n, nil
}

// pageParams parses page and limit, capping limit at MaxPageSize.
func pageParams(r *http.Request) (page, limit int, err error) {
	if page, err = positiveIntParam(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if limit, err = positiveIntParam(r, "limit", DefaultPageSize); err != nil {
		return 0, 0, err
	}
	return page, min(limit, MaxPageSize), nil
}
