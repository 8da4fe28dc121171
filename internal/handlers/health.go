package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
)

const (
	healthOK       = "OK"
	healthDegraded = "DEGRADED"
	checkTimeout   = 5 * time.Second
)

// HealthCheck probes one dependency; a nil error means healthy.
type HealthCheck func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	environment string
	checks      map[string]HealthCheck
	now         func() time.Time
}

// NewHealthChecker creates a new health checker. The checks only run in extended mode.
func NewHealthChecker(environment string, checks map[string]HealthCheck) *HealthChecker {
	return &HealthChecker{environment: environment, checks: checks, now: time.Now}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   string            `json:"timestamp"`
	Environment string            `json:"environment"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// RegisterRoutes registers the health route
func (h *HealthChecker) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
}

// HealthCheck handles the /health endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      healthOK,
		Timestamp:   h.now().UTC().Format(time.RFC3339),
		Environment: h.environment,
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		resp.Checks = make(map[string]string, len(h.checks))

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			if err := h.run(r.Context(), h.checks[name]); err != nil {
				resp.Status = healthDegraded
				resp.Checks[name] = "unhealthy: " + err.Error()
				continue
			}
			resp.Checks[name] = "healthy"
		}

		if resp.Status == healthDegraded {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *HealthChecker) run(ctx context.Context, check HealthCheck) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return check(ctx)
}
