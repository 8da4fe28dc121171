package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store and identity backends understood by the server.
const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"

	IdentityFirebase = "firebase"
	IdentityLocal    = "local"
)

// Config holds application configuration
type Config struct {
	ServerPort  string
	Environment string
	ClientURL   string

	StoreBackend string
	DatabaseURL  string

	IdentityBackend         string
	FirebaseCredentialsFile string
	FirebaseProjectID       string
	FirebasePrivateKey      string
	FirebaseClientEmail     string
	FirebaseWebAPIKey       string
	IdentityToolkitURL      string
	FacebookGraphURL        string
	LocalTokenSecret        string
	LocalTokenTTL           time.Duration

	RedisURL       string
	AuthRateLimit  string
	RequestTimeout time.Duration

	EnableHSTS      bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
	OTELServiceName string
	OpenAPIPath     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:              getEnv("PORT", getEnv("SERVER_PORT", "5001")),
		Environment:             getEnv("APP_ENV", getEnv("NODE_ENV", "development")),
		ClientURL:               getEnv("CLIENT_URL", "http://localhost:3000"),
		StoreBackend:            strings.ToLower(getEnv("STORE_BACKEND", StoreFirestore)),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		IdentityBackend:         strings.ToLower(getEnv("IDENTITY_BACKEND", IdentityFirebase)),
		FirebaseCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebasePrivateKey:      strings.ReplaceAll(getEnv("FIREBASE_PRIVATE_KEY", ""), `\n`, "\n"),
		FirebaseClientEmail:     getEnv("FIREBASE_CLIENT_EMAIL", ""),
		FirebaseWebAPIKey:       getEnv("FIREBASE_WEB_API_KEY", ""),
		IdentityToolkitURL:      getEnv("IDENTITY_TOOLKIT_URL", "https://identitytoolkit.googleapis.com"),
		FacebookGraphURL:        getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com"),
		LocalTokenSecret:        getEnv("LOCAL_TOKEN_SECRET", ""),
		LocalTokenTTL:           getEnvDuration("LOCAL_TOKEN_TTL", time.Hour),
		RedisURL:                getEnv("REDIS_URL", ""),
		AuthRateLimit:           getEnv("AUTH_RATE_LIMIT", "20-M"),
		RequestTimeout:          getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		EnableHSTS:              getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode:         getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:             getEnvBool("ENABLE_OTEL", getEnvBool("OTEL_ENABLED", false)),
		OTELEndpoint:            getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELServiceName:         getEnv("OTEL_SERVICE_NAME", "pet-shop-api"),
		OpenAPIPath:             getEnv("OPENAPI_PATH", "api/openapi.yaml"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreFirestore, StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.IdentityBackend {
	case IdentityFirebase:
	case IdentityLocal:
		if len(c.LocalTokenSecret) < 32 {
			return fmt.Errorf("LOCAL_TOKEN_SECRET must be at least 32 bytes when IDENTITY_BACKEND=local")
		}
	default:
		return fmt.Errorf("unsupported IDENTITY_BACKEND %q", c.IdentityBackend)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// UsesFirebase reports whether any configured backend needs a Firebase app.
func (c *Config) UsesFirebase() bool {
	return c.StoreBackend == StoreFirestore || c.IdentityBackend == IdentityFirebase
}

// FirebaseServiceAccountJSON assembles service-account credentials from the discrete
// FIREBASE_* variables. ok is false unless all three are set.
func (c *Config) FirebaseServiceAccountJSON() (data []byte, ok bool, err error) {
	if c.FirebaseProjectID == "" || c.FirebasePrivateKey == "" || c.FirebaseClientEmail == "" {
		return nil, false, nil
	}
	data, err = json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   c.FirebaseProjectID,
		"private_key":  c.FirebasePrivateKey,
		"client_email": c.FirebaseClientEmail,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode firebase credentials: %w", err)
	}
	return data, true, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs := getEnvInt(key, -1); secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
