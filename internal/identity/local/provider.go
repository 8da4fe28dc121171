// Package local is a self-hosted identity.Provider: accounts live in the document store,
// passwords are bcrypt hashes and tokens are HS256 JWTs. It backs development setups and
// tests, and deployments that do not use Firebase.
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benvon/pet-shop/internal/docstore"
	"github.com/benvon/pet-shop/internal/identity"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"golang.org/x/crypto/bcrypt"
)

const (
	accountsCollection = "accounts"
	emailsCollection   = "account_emails"

	// DefaultIssuer is the iss claim of locally minted tokens.
	DefaultIssuer = "pet-shop-local"
	// MaxFailedAttempts locks password sign-in for an account for the rest of LockoutWindow.
	MaxFailedAttempts = 5
	// LockoutWindow is how long failed attempts count against an account.
	LockoutWindow = 15 * time.Minute
)

var validate = validator.New()

// Provider implements identity.Provider on top of a docstore.Store.
type Provider struct {
	store  docstore.Store
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	cost   int

	mu       sync.Mutex
	failures map[string]failureRecord // by account uid
}

type failureRecord struct {
	count int
	since time.Time
}

var _ identity.Provider = (*Provider)(nil)

// Option customises a Provider.
type Option func(*Provider)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithBcryptCost lowers the hashing cost for tests.
func WithBcryptCost(cost int) Option {
	return func(p *Provider) { p.cost = cost }
}

// New returns a provider signing tokens with secret, valid for ttl.
func New(store docstore.Store, secret []byte, ttl time.Duration, opts ...Option) (*Provider, error) {
	if len(secret) < 32 {
		return nil, errors.New("local identity secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	p := &Provider{
		store:    store,
		secret:   secret,
		issuer:   DefaultIssuer,
		ttl:      ttl,
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
		failures: make(map[string]failureRecord),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) VerifyIDToken(ctx context.Context, token string) (*identity.Token, error) {
	parsed, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, p.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(p.issuer),
		jwt.WithClock(jwt.ClockFunc(p.now)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	if parsed.Subject() == "" {
		return nil, fmt.Errorf("%w: missing subject", identity.ErrInvalidToken)
	}

	claims := parsed.PrivateClaims()
	return &identity.Token{
		UID:     parsed.Subject(),
		Email:   stringClaim(claims, "email"),
		Name:    stringClaim(claims, "name"),
		Picture: stringClaim(claims, "picture"),
		Claims:  claims,
	}, nil
}

func (p *Provider) CreateUser(ctx context.Context, u identity.NewUser) (*identity.User, error) {
	email := normalizeEmail(u.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("create user: %w", identity.ErrInvalidEmail)
	}

	var hash []byte
	if u.Password != "" {
		if len(u.Password) < identity.MinPasswordLength {
			return nil, fmt.Errorf("create user: %w", identity.ErrWeakPassword)
		}
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(u.Password), p.cost); err != nil {
			return nil, fmt.Errorf("create user: hash password: %w", err)
		}
	}

	uid := u.UID
	if uid == "" {
		uid = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	// The email index document is claimed first so two concurrent sign-ups cannot share an address.
	if _, err := p.store.Create(ctx, emailsCollection, email, map[string]any{"uid": uid}); err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return nil, fmt.Errorf("create user: %w", identity.ErrEmailAlreadyExists)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	acct := account{
		UID:           uid,
		Email:         email,
		PasswordHash:  string(hash),
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
		EmailVerified: u.EmailVerified,
		CreatedAt:     p.now().UTC(),
	}
	if _, err := p.store.Create(ctx, accountsCollection, uid, acct.fields()); err != nil {
		_ = p.store.Delete(ctx, emailsCollection, email)
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return nil, fmt.Errorf("create user: %w", identity.ErrEmailAlreadyExists)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return acct.user(), nil
}

func (p *Provider) GetUser(ctx context.Context, uid string) (*identity.User, error) {
	acct, err := p.account(ctx, uid)
	if err != nil {
		return nil, err
	}
	return acct.user(), nil
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	acct, err := p.accountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return acct.user(), nil
}

// CustomToken mints a session token directly. Unlike Firebase custom tokens it is
// accepted by VerifyIDToken without an exchange step.
func (p *Provider) CustomToken(ctx context.Context, uid string) (string, error) {
	acct, err := p.account(ctx, uid)
	if err != nil {
		return "", err
	}
	return p.mint(acct)
}

func (p *Provider) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	if claims == nil {
		claims = map[string]any{}
	}
	err := p.store.Update(ctx, accountsCollection, uid, map[string]any{"customClaims": claims})
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("set custom claims: %w", identity.ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("set custom claims: %w", err)
	}
	return nil
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*identity.SignInResult, error) {
	acct, err := p.accountByEmail(ctx, email)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, identity.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if p.locked(acct.UID) {
		return nil, identity.ErrTooManyAttempts
	}
	if acct.Disabled {
		return nil, identity.ErrUserDisabled
	}
	if acct.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		p.recordFailure(acct.UID)
		return nil, identity.ErrInvalidCredentials
	}

	p.mu.Lock()
	delete(p.failures, acct.UID)
	p.mu.Unlock()

	token, err := p.mint(acct)
	if err != nil {
		return nil, err
	}
	return &identity.SignInResult{UID: acct.UID, IDToken: token}, nil
}

func (p *Provider) Ping(ctx context.Context) error {
	return p.store.Ping(ctx)
}

// Disable flips the disabled flag on an account.
func (p *Provider) Disable(ctx context.Context, uid string, disabled bool) error {
	err := p.store.Update(ctx, accountsCollection, uid, map[string]any{"disabled": disabled})
	if errors.Is(err, docstore.ErrNotFound) {
		return identity.ErrUserNotFound
	}
	return err
}

func (p *Provider) mint(acct *account) (string, error) {
	now := p.now()
	b := jwt.NewBuilder().
		Issuer(p.issuer).
		Subject(acct.UID).
		IssuedAt(now).
		Expiration(now.Add(p.ttl)).
		Claim("email", acct.Email)
	if acct.DisplayName != "" {
		b = b.Claim("name", acct.DisplayName)
	}
	if acct.PhotoURL != "" {
		b = b.Claim("picture", acct.PhotoURL)
	}
	for k, v := range acct.CustomClaims {
		b = b.Claim(k, v)
	}

	tok, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, p.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

func (p *Provider) locked(uid string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.failures[uid]
	if !ok {
		return false
	}
	if p.now().Sub(rec.since) >= LockoutWindow {
		delete(p.failures, uid)
		return false
	}
	return rec.count >= MaxFailedAttempts
}

func (p *Provider) recordFailure(uid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	rec, ok := p.failures[uid]
	if !ok || now.Sub(rec.since) >= LockoutWindow {
		rec = failureRecord{since: now}
	}
	rec.count++
	p.failures[uid] = rec
}

func (p *Provider) account(ctx context.Context, uid string) (*account, error) {
	doc, err := p.store.Get(ctx, accountsCollection, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", identity.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return accountFromDocument(doc), nil
}

func (p *Provider) accountByEmail(ctx context.Context, email string) (*account, error) {
	doc, err := p.store.Get(ctx, emailsCollection, normalizeEmail(email))
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", identity.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return p.account(ctx, docstore.String(doc.Data, "uid"))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}
