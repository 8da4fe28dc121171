package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/models"
)

// DefaultCORSMaxAge is used when no CORS settings document exists.
const DefaultCORSMaxAge = 86400

// CORSConfigReader reads the stored CORS settings. A nil config means none is stored.
type CORSConfigReader interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
}

// CORSReloader wraps rs/cors and periodically reloads CORS config from the settings store.
type CORSReloader struct {
	repo     CORSConfigReader
	fallback string // CLIENT_URL
	log      *zap.Logger
	interval time.Duration
	once     sync.Once
	mu       sync.RWMutex
	current  *cors.Cors
}

// NewCORSReloader creates a CORS middleware that loads config from the settings store and hot-reloads it.
func NewCORSReloader(repo CORSConfigReader, clientURLFallback string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	return &CORSReloader{
		repo:     repo,
		fallback: strings.TrimSpace(clientURLFallback),
		log:      log,
		interval: reloadInterval,
	}
}

// Middleware returns a middleware applying the current CORS policy. The first call
// loads the stored config.
func (r *CORSReloader) Middleware() func(http.Handler) http.Handler {
	r.once.Do(func() { r.load(context.Background()) })
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.mu.RLock()
			c := r.current
			r.mu.RUnlock()
			c.Handler(next).ServeHTTP(w, req)
		})
	}
}

// Start runs the reload loop until ctx is cancelled. Call after Middleware() is applied.
func (r *CORSReloader) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.load(ctx)
		}
	}
}

func (r *CORSReloader) load(ctx context.Context) {
	origins := database.AllowedOriginsSlice(r.fallback)
	allowCreds := true
	maxAge := DefaultCORSMaxAge

	cfg, err := r.repo.Get(ctx)
	switch {
	case err != nil:
		r.log.Warn("failed_to_load_cors_config_using_fallback", zap.Error(err))
	case cfg != nil && len(cfg.AllowedOrigins) > 0:
		origins = cfg.AllowedOrigins
		allowCreds = cfg.AllowCredentials
		maxAge = cfg.MaxAge
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: allowCreds,
		MaxAge:           maxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
	})

	r.mu.Lock()
	r.current = c
	r.mu.Unlock()
	r.log.Debug("cors_config_loaded", zap.Strings("origins", origins), zap.Bool("allow_credentials", allowCreds))
}
