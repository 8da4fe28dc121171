package firebase

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/benvon/pet-shop/internal/httpjson"
	"github.com/benvon/pet-shop/internal/identity"
)

// DefaultToolkitURL is the Identity Toolkit REST endpoint base.
const DefaultToolkitURL = "https://identitytoolkit.googleapis.com"

// Provider talks to Firebase Auth.
type Provider struct {
	auth       *auth.Client
	apiKey     string
	toolkitURL string
	httpClient *http.Client
}

var _ identity.Provider = (*Provider)(nil)

// Option customises a Provider.
type Option func(*Provider)

// WithToolkitURL overrides the Identity Toolkit base URL (emulators, tests).
func WithToolkitURL(u string) Option {
	return func(p *Provider) {
		if u != "" {
			p.toolkitURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the client used for password sign-in.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// NewProvider builds a provider from a Firebase app. apiKey is the project's web API key;
// without it password sign-in reports identity.ErrNotConfigured.
func NewProvider(ctx context.Context, app *firebase.App, apiKey string, opts ...Option) (*Provider, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase auth: %w", err)
	}
	p := &Provider{
		auth:       client,
		apiKey:     apiKey,
		toolkitURL: DefaultToolkitURL,
		httpClient: httpjson.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) VerifyIDToken(ctx context.Context, token string) (*identity.Token, error) {
	t, err := p.auth.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	return &identity.Token{
		UID:     t.UID,
		Email:   claimString(t.Claims, "email"),
		Name:    claimString(t.Claims, "name"),
		Picture: claimString(t.Claims, "picture"),
		Claims:  t.Claims,
	}, nil
}

func (p *Provider) CreateUser(ctx context.Context, u identity.NewUser) (*identity.User, error) {
	params := (&auth.UserToCreate{}).Email(u.Email).EmailVerified(u.EmailVerified)
	if u.UID != "" {
		params = params.UID(u.UID)
	}
	if u.Password != "" {
		params = params.Password(u.Password)
	}
	if u.DisplayName != "" {
		params = params.DisplayName(u.DisplayName)
	}
	if u.PhotoURL != "" {
		params = params.PhotoURL(u.PhotoURL)
	}

	rec, err := p.auth.CreateUser(ctx, params)
	if err != nil {
		return nil, mapAuthError("create user", err)
	}
	return toUser(rec), nil
}

func (p *Provider) GetUser(ctx context.Context, uid string) (*identity.User, error) {
	rec, err := p.auth.GetUser(ctx, uid)
	if err != nil {
		return nil, mapAuthError("get user", err)
	}
	return toUser(rec), nil
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	rec, err := p.auth.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapAuthError("get user by email", err)
	}
	return toUser(rec), nil
}

func (p *Provider) CustomToken(ctx context.Context, uid string) (string, error) {
	token, err := p.auth.CustomToken(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("mint custom token: %w", err)
	}
	return token, nil
}

func (p *Provider) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	if err := p.auth.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return mapAuthError("set custom claims", err)
	}
	return nil
}

// Ping looks up a uid that never exists; a not-found answer proves the service is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.auth.GetUser(ctx, "health-check-probe")
	if err == nil || auth.IsUserNotFound(err) {
		return nil
	}
	return fmt.Errorf("%w: %v", identity.ErrUpstream, err)
}

func toUser(rec *auth.UserRecord) *identity.User {
	u := &identity.User{
		EmailVerified: rec.EmailVerified,
		Disabled:      rec.Disabled,
		CustomClaims:  rec.CustomClaims,
	}
	if rec.UserInfo != nil {
		u.UID = rec.UID
		u.Email = rec.Email
		u.DisplayName = rec.DisplayName
		u.PhotoURL = rec.PhotoURL
	}
	return u
}

func mapAuthError(op string, err error) error {
	switch {
	case auth.IsEmailAlreadyExists(err), auth.IsUIDAlreadyExists(err):
		return fmt.Errorf("%s: %w", op, identity.ErrEmailAlreadyExists)
	case auth.IsUserNotFound(err):
		return fmt.Errorf("%s: %w", op, identity.ErrUserNotFound)
	case auth.IsUserDisabled(err):
		return fmt.Errorf("%s: %w", op, identity.ErrUserDisabled)
	}
	// The SDK validates parameters locally and reports them as plain errors.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "malformed email"), strings.Contains(msg, "email must be"):
		return fmt.Errorf("%s: %w", op, identity.ErrInvalidEmail)
	case strings.Contains(msg, "password must be"):
		return fmt.Errorf("%s: %w", op, identity.ErrWeakPassword)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func claimString(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}
