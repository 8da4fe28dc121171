package models

import "time"

// CorsConfig holds the CORS settings document.
type CorsConfig struct {
	AllowedOrigins   []string  `json:"allowedOrigins"`
	AllowCredentials bool      `json:"allowCredentials"`
	MaxAge           int       `json:"maxAge"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
