package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/backend"
	"github.com/benvon/pet-shop/internal/config"
	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/handlers"
	"github.com/benvon/pet-shop/internal/logger"
	"github.com/benvon/pet-shop/internal/middleware"
	"github.com/benvon/pet-shop/internal/router"
	"github.com/benvon/pet-shop/internal/services/accounts"
	"github.com/benvon/pet-shop/internal/services/admin"
	"github.com/benvon/pet-shop/internal/services/favorites"
	"github.com/benvon/pet-shop/internal/services/social"
	"github.com/benvon/pet-shop/internal/telemetry"
)

const settingsReloadInterval = time.Minute

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.Environment, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
		zap.String("client_url", cfg.ClientURL),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("identity_backend", cfg.IdentityBackend),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracingService := ""
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), telemetry.Config{
				ServiceName: cfg.OTELServiceName,
				Environment: cfg.Environment,
				Endpoint:    cfg.OTELEndpoint,
				Insecure:    cfg.Environment != "production",
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracingService = cfg.OTELServiceName
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	backends, err := backend.Open(startupCtx, cfg, zapLogger)
	startupCancel()
	if err != nil {
		zapLogger.Fatal("failed_to_open_backends", zap.Error(err))
	}
	defer func() {
		if err := backends.Close(); err != nil {
			zapLogger.Warn("failed_to_close_backends", zap.Error(err))
		}
	}()

	// Repositories
	profileRepo := database.NewProfileRepository(backends.Store)
	petRepo := database.NewPetRepository(backends.Store)
	favoriteRepo := database.NewFavoriteRepository(backends.Store)
	corsConfigRepo := database.NewCorsConfigRepository(backends.Store)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(backends.Store)

	// Services
	facebook := social.NewFacebook(cfg.FacebookGraphURL, nil)
	accountService := accounts.NewService(backends.Identity, profileRepo, facebook, zapLogger)
	favoriteService := favorites.NewService(favoriteRepo, petRepo, zapLogger)
	adminService := admin.NewService(backends.Identity, profileRepo, zapLogger)

	// Settings reloaders
	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.ClientURL, zapLogger, settingsReloadInterval)
	limiterStore, err := middleware.NewLimiterStore(backends.Redis)
	if err != nil {
		zapLogger.Fatal("failed_to_create_limiter_store", zap.Error(err))
	}
	rateLimitReloader := middleware.NewRateLimitReloader(limiterStore, ratelimitConfigRepo, cfg.AuthRateLimit, zapLogger, settingsReloadInterval)

	healthChecks := map[string]handlers.HealthCheck{
		"store":    backends.Store.Ping,
		"identity": backends.Identity.Ping,
		"ratelimit": func(ctx context.Context) error {
			if backends.Redis == nil {
				return nil
			}
			return backends.Redis.Ping(ctx).Err()
		},
	}

	handler := router.New(router.Deps{
		Logger:         zapLogger,
		Environment:    cfg.Environment,
		Verifier:       backends.Identity,
		Profiles:       profileRepo,
		Pets:           petRepo,
		Accounts:       accountService,
		Favorites:      favoriteService,
		Admin:          adminService,
		CORS:           corsReloader,
		RateLimit:      rateLimitReloader,
		HealthChecks:   healthChecks,
		OpenAPIPath:    cfg.OpenAPIPath,
		EnableHSTS:     cfg.EnableHSTS,
		RequestTimeout: cfg.RequestTimeout,
		MaxRequestSize: middleware.DefaultMaxRequestSize,
		TracingService: tracingService,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	reloadCtx, reloadCancel := context.WithCancel(context.Background())
	defer reloadCancel()
	go corsReloader.Start(reloadCtx)
	go rateLimitReloader.Start(reloadCtx)

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	reloadCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
