package models

import "time"

// RatelimitConfig holds the auth rate limit in limiter format (e.g. "5-S", "20-M").
type RatelimitConfig struct {
	Rate      string    `json:"rate"`
	UpdatedAt time.Time `json:"updatedAt"`
}
