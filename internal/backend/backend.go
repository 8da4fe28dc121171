// Package backend opens the document store, identity provider and Redis client
// selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	firebaseapp "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/config"
	"github.com/benvon/pet-shop/internal/docstore"
	"github.com/benvon/pet-shop/internal/docstore/firestore"
	"github.com/benvon/pet-shop/internal/docstore/memory"
	"github.com/benvon/pet-shop/internal/docstore/postgres"
	"github.com/benvon/pet-shop/internal/identity"
	"github.com/benvon/pet-shop/internal/identity/firebase"
	"github.com/benvon/pet-shop/internal/identity/local"
)

// Backends holds the opened dependencies. Close releases them.
type Backends struct {
	Store    docstore.Store
	Identity identity.Provider
	Redis    *redis.Client
}

// Open connects every backend cfg selects. On error anything already opened is closed.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backends, error) {
	b := &Backends{}
	opened := false
	defer func() {
		if !opened {
			_ = b.Close()
		}
	}()

	var app *firebaseapp.App
	if cfg.UsesFirebase() {
		creds := firebase.Credentials{ProjectID: cfg.FirebaseProjectID, File: cfg.FirebaseCredentialsFile}
		data, ok, err := cfg.FirebaseServiceAccountJSON()
		if err != nil {
			return nil, err
		}
		if ok {
			creds.JSON = data
		}
		if app, err = firebase.NewApp(ctx, creds); err != nil {
			return nil, err
		}
	}

	var err error
	if b.Store, err = openStore(ctx, cfg, app); err != nil {
		return nil, err
	}
	log.Info("document_store_opened", zap.String("backend", cfg.StoreBackend))

	if b.Identity, err = openIdentity(ctx, cfg, app, b.Store); err != nil {
		return nil, err
	}
	log.Info("identity_provider_ready", zap.String("backend", cfg.IdentityBackend))

	if cfg.RedisURL != "" {
		if b.Redis, err = OpenRedis(ctx, cfg.RedisURL); err != nil {
			return nil, err
		}
		log.Info("connected_to_redis")
	}
	opened = true
	return b, nil
}

func openStore(ctx context.Context, cfg *config.Config, app *firebaseapp.App) (docstore.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise firestore: %w", err)
		}
		return firestore.New(client), nil
	case config.StorePostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
}

func openIdentity(ctx context.Context, cfg *config.Config, app *firebaseapp.App, store docstore.Store) (identity.Provider, error) {
	switch cfg.IdentityBackend {
	case config.IdentityFirebase:
		return firebase.NewProvider(ctx, app, cfg.FirebaseWebAPIKey, firebase.WithToolkitURL(cfg.IdentityToolkitURL))
	case config.IdentityLocal:
		return local.New(store, []byte(cfg.LocalTokenSecret), cfg.LocalTokenTTL)
	}
	return nil, fmt.Errorf("unsupported identity backend %q", cfg.IdentityBackend)
}

// OpenRedis parses url and checks the server answers.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Close releases the store and the Redis client.
func (b *Backends) Close() error {
	if b == nil {
		return nil
	}
	var errs []error
	if b.Redis != nil {
		errs = append(errs, b.Redis.Close())
	}
	if b.Store != nil {
		errs = append(errs, b.Store.Close())
	}
	return errors.Join(errs...)
}
