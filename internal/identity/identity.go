// Package identity defines the contract of the external identity provider: token
// verification, account lookup and creation, custom claims and password sign-in.
package identity

import (
	"context"
	"errors"
)

// Errors shared by every provider. Implementations wrap these so callers can
// classify failures with errors.Is.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("weak password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrNotConfigured      = errors.New("identity provider not configured")
	ErrUpstream           = errors.New("identity provider unavailable")
)

// MinPasswordLength is the shortest password the providers accept.
const MinPasswordLength = 6

// Token holds the verified claims of an ID token.
type Token struct {
	UID     string
	Email   string
	Name    string
	Picture string
	Claims  map[string]any
}

// User is an account record held by the provider.
type User struct {
	UID           string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	Disabled      bool
	CustomClaims  map[string]any
}

// NewUser describes an account to create. An empty UID lets the provider choose one.
type NewUser struct {
	UID           string
	Email         string
	Password      string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
}

// SignInResult is returned by a successful password grant.
type SignInResult struct {
	UID     string
	IDToken string
}

// Provider is the identity service used by the auth middleware and account services.
type Provider interface {
	VerifyIDToken(ctx context.Context, token string) (*Token, error)
	CreateUser(ctx context.Context, u NewUser) (*User, error)
	GetUser(ctx context.Context, uid string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CustomToken(ctx context.Context, uid string) (string, error)
	SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error
	SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error)
	Ping(ctx context.Context) error
}
