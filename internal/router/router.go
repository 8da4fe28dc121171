// Package router assembles the HTTP routes and middleware of the API.
package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/apperror"
	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/handlers"
	"github.com/benvon/pet-shop/internal/middleware"
	"github.com/benvon/pet-shop/internal/response"
	"github.com/benvon/pet-shop/internal/services/accounts"
	"github.com/benvon/pet-shop/internal/services/admin"
	"github.com/benvon/pet-shop/internal/services/favorites"
)

// Deps are the collaborators the routes are built from. CORS, RateLimit and
// HealthChecks are optional.
type Deps struct {
	Logger      *zap.Logger
	Environment string

	Verifier  middleware.TokenVerifier
	Profiles  middleware.ProfileReader
	Pets      database.PetRepositoryInterface
	Accounts  *accounts.Service
	Favorites *favorites.Service
	Admin     *admin.Service

	CORS      *middleware.CORSReloader
	RateLimit *middleware.RateLimitReloader

	HealthChecks   map[string]handlers.HealthCheck
	OpenAPIPath    string
	EnableHSTS     bool
	RequestTimeout time.Duration
	MaxRequestSize int64

	// TracingService enables otelmux spans under this service name when set.
	TracingService string
}

// New builds the API handler. CORS wraps the router so preflight requests are answered
// before route matching.
func New(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := mux.NewRouter()
	// mux loses a method mismatch once a later route shares a matched prefix, so a
	// miss is re-matched under the other methods before answering 404.
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if allowed := allowedMethods(r, req); len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			response.Error(w, apperror.ErrMethodNotAllowed)
			return
		}
		response.Error(w, apperror.ErrRouteNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Allow", strings.Join(allowedMethods(r, req), ", "))
		response.Error(w, apperror.ErrMethodNotAllowed)
	})

	// Registered first runs outermost.
	if d.TracingService != "" {
		r.Use(otelmux.Middleware(d.TracingService))
	}
	r.Use(middleware.SecurityHeaders(d.EnableHSTS))
	r.Use(middleware.MaxRequestSize(d.MaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(middleware.ErrorHandler(log))
	r.Use(middleware.Audit(log))
	r.Use(middleware.Logging(log))

	requireAuth := middleware.Auth(d.Verifier, d.Profiles, log)

	handlers.NewHealthChecker(d.Environment, d.HealthChecks).RegisterRoutes(r)

	api := r.PathPrefix("/api").Subrouter()
	if d.OpenAPIPath != "" {
		handlers.NewOpenAPIHandler(d.OpenAPIPath, log).RegisterRoutes(api)
	}

	// Auth
	authHandler := handlers.NewAuthHandler(d.Accounts, log)
	publicAuth := api.PathPrefix("/auth").Methods(http.MethodPost).Subrouter()
	if d.RateLimit != nil {
		publicAuth.Use(d.RateLimit.Middleware())
	}
	authHandler.RegisterPublicRoutes(publicAuth)

	protectedAuth := api.PathPrefix("/auth").Subrouter()
	protectedAuth.Use(requireAuth)
	authHandler.RegisterProtectedRoutes(protectedAuth)

	// Users
	users := api.PathPrefix("/users").Subrouter()
	users.Use(requireAuth)
	handlers.NewUserHandler(d.Accounts, log).RegisterRoutes(users)

	// Pets: reads are public, writes need an admin.
	petHandler := handlers.NewPetHandler(d.Pets, log)
	publicPets := api.PathPrefix("/pets").Methods(http.MethodGet).Subrouter()
	petHandler.RegisterPublicRoutes(publicPets)

	adminPets := api.PathPrefix("/pets").Methods(http.MethodPost, http.MethodPut, http.MethodDelete).Subrouter()
	adminPets.Use(requireAuth, middleware.RequireAdmin)
	petHandler.RegisterAdminRoutes(adminPets)

	// Favorites
	favs := api.PathPrefix("/favorites").Subrouter()
	favs.Use(requireAuth)
	handlers.NewFavoriteHandler(d.Favorites, log).RegisterRoutes(favs)

	// Admin
	adminHandler := handlers.NewAdminHandler(d.Admin, log)
	adminAuth := api.PathPrefix("/admin").Subrouter()
	adminAuth.Use(requireAuth)
	adminHandler.RegisterProtectedRoutes(adminAuth)

	adminOnly := api.PathPrefix("/admin").Subrouter()
	adminOnly.Use(requireAuth, middleware.RequireAdmin)
	adminHandler.RegisterAdminRoutes(adminOnly)

	if d.CORS != nil {
		return d.CORS.Middleware()(r)
	}
	return r
}

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// allowedMethods lists the methods some route serves for the request path.
func allowedMethods(r *mux.Router, req *http.Request) []string {
	var allowed []string
	for _, method := range routeMethods {
		if method == req.Method {
			continue
		}
		alt := req.Clone(req.Context())
		alt.Method = method
		var match mux.RouteMatch
		if r.Match(alt, &match) && match.MatchErr == nil {
			allowed = append(allowed, method)
		}
	}
	return allowed
}
