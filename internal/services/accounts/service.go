// Package accounts implements registration, password and social login, and profile
// management on top of the identity provider and the profile repository.
package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/apperror"
	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/identity"
	"github.com/benvon/pet-shop/internal/logger"
	"github.com/benvon/pet-shop/internal/models"
	"github.com/benvon/pet-shop/internal/services/social"
	"github.com/benvon/pet-shop/internal/validation"
)

// FacebookClient resolves a Facebook user access token to its owner.
type FacebookClient interface {
	Me(ctx context.Context, accessToken string) (*social.FacebookUser, error)
}

// Service handles account operations.
type Service struct {
	identity identity.Provider
	profiles database.ProfileRepositoryInterface
	facebook FacebookClient
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates an account service.
func NewService(idp identity.Provider, profiles database.ProfileRepositoryInterface, facebook FacebookClient, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		identity: idp,
		profiles: profiles,
		facebook: facebook,
		logger:   log,
		now:      time.Now,
	}
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates the identity and its profile and returns a sign-in token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.AuthResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperror.Validation("Email and password are required")
	}
	if err := validation.Validate.Var(email, "email"); err != nil {
		return nil, apperror.ErrInvalidEmail
	}
	if len(req.Password) < identity.MinPasswordLength {
		return nil, apperror.ErrWeakPassword
	}
	fullName := validation.SanitizeText(req.FullName)

	user, err := s.identity.CreateUser(ctx, identity.NewUser{
		Email:       email,
		Password:    req.Password,
		DisplayName: fullName,
	})
	if err != nil {
		return nil, mapProviderError(err)
	}

	profile, err := s.ensureProfile(ctx, user.UID, user.Email, fullName, "", false)
	if err != nil {
		return nil, err
	}

	token, err := s.identity.CustomToken(ctx, user.UID)
	if err != nil {
		return nil, mapProviderError(err)
	}

	s.logger.Info("user_registered", zap.String("uid", logger.SanitizeUID(user.UID)), zap.String("email", logger.SanitizeEmail(user.Email)))
	return authResult(profile, token), nil
}

// Login signs in with email and password. The returned token is the provider ID token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*models.AuthResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperror.Validation("Email and password are required")
	}

	res, err := s.identity.SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		return nil, mapSignInError(err)
	}

	tok, err := s.identity.VerifyIDToken(ctx, res.IDToken)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	fullName := tok.Name
	if fullName == "" {
		if u, err := s.identity.GetUser(ctx, tok.UID); err == nil {
			fullName = u.DisplayName
		}
	}

	profile, err := s.ensureProfile(ctx, tok.UID, tok.Email, fullName, tok.Picture, false)
	if err != nil {
		return nil, err
	}
	return authResult(profile, res.IDToken), nil
}

// LoginWithGoogle accepts a Google-issued ID token already federated into the identity
// provider and echoes it back as the session token.
func (s *Service) LoginWithGoogle(ctx context.Context, idToken string) (*models.AuthResult, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, apperror.Validation("Google ID token is required")
	}

	tok, err := s.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		if errors.Is(err, identity.ErrUpstream) {
			return nil, apperror.ErrServiceUnavailable.Wrap(err)
		}
		return nil, apperror.New(apperror.KindUnauthorized, apperror.CodeInvalidToken, "Invalid Google ID token").Wrap(err)
	}

	profile, err := s.ensureProfile(ctx, tok.UID, tok.Email, tok.Name, tok.Picture, true)
	if err != nil {
		return nil, err
	}
	return authResult(profile, idToken), nil
}

// LoginWithFacebook resolves the access token through the Graph API, finds or creates
// the matching identity and returns a custom token for it.
func (s *Service) LoginWithFacebook(ctx context.Context, accessToken string) (*models.AuthResult, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, apperror.Validation("Facebook access token is required")
	}
	if s.facebook == nil {
		return nil, apperror.ErrConfiguration
	}

	fb, err := s.facebook.Me(ctx, accessToken)
	if err != nil {
		if errors.Is(err, social.ErrInvalidToken) {
			return nil, apperror.New(apperror.KindUnauthorized, apperror.CodeInvalidToken, "Invalid Facebook access token").Wrap(err)
		}
		return nil, apperror.ErrServiceUnavailable.Wrap(err)
	}

	newUser := identity.NewUser{
		Email:         fb.Email,
		DisplayName:   fb.Name,
		PhotoURL:      fb.PictureURL,
		EmailVerified: true,
	}
	if newUser.Email == "" {
		newUser.UID = "facebook_" + fb.ID
		newUser.Email = fb.ID + "@facebook.temp"
		newUser.EmailVerified = false
	}

	user, err := s.findOrCreateUser(ctx, newUser)
	if err != nil {
		return nil, err
	}

	profile, err := s.ensureProfile(ctx, user.UID, user.Email, fb.Name, fb.PictureURL, true)
	if err != nil {
		return nil, err
	}

	token, err := s.identity.CustomToken(ctx, user.UID)
	if err != nil {
		return nil, mapProviderError(err)
	}
	return authResult(profile, token), nil
}

// GetOrCreateProfile returns the caller's profile, creating it from the identity on first use.
func (s *Service) GetOrCreateProfile(ctx context.Context, id models.Identity) (*models.Profile, error) {
	return s.ensureProfile(ctx, id.UID, id.Email, id.DisplayName, id.PhotoURL, false)
}

// UpdateProfile applies the editable fields of upd to the caller's profile.
func (s *Service) UpdateProfile(ctx context.Context, id models.Identity, upd models.ProfileUpdate) (*models.Profile, error) {
	if err := validation.Validate.Struct(upd); err != nil {
		return nil, apperror.Validation(validation.Message(err))
	}
	if _, err := s.GetOrCreateProfile(ctx, id); err != nil {
		return nil, err
	}

	if upd.FullName != nil {
		v := validation.SanitizeText(*upd.FullName)
		upd.FullName = &v
	}
	if upd.Phone != nil {
		v := validation.SanitizeText(*upd.Phone)
		upd.Phone = &v
	}
	if upd.Address != nil {
		v := validation.SanitizeText(*upd.Address)
		upd.Address = &v
	}
	if upd.ProfileImage != nil {
		v := strings.TrimSpace(*upd.ProfileImage)
		upd.ProfileImage = &v
	}

	if err := s.profiles.Update(ctx, id.UID, upd, s.now()); err != nil {
		return nil, apperror.Internal(err)
	}
	profile, err := s.profiles.Get(ctx, id.UID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return profile, nil
}

func (s *Service) findOrCreateUser(ctx context.Context, u identity.NewUser) (*identity.User, error) {
	user, err := s.identity.GetUserByEmail(ctx, u.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, identity.ErrUserNotFound) {
		return nil, mapProviderError(err)
	}

	user, err = s.identity.CreateUser(ctx, u)
	if errors.Is(err, identity.ErrEmailAlreadyExists) {
		// Lost a race with a concurrent login for the same address.
		user, err = s.identity.GetUserByEmail(ctx, u.Email)
	}
	if err != nil {
		return nil, mapProviderError(err)
	}
	return user, nil
}

// ensureProfile reads the profile for uid and creates it when absent. A concurrent
// creator wins the create-if-absent write and the loser re-reads. With refreshPicture
// the stored profileImage is replaced when picture differs from it.
func (s *Service) ensureProfile(ctx context.Context, uid, email, fullName, picture string, refreshPicture bool) (*models.Profile, error) {
	profile, err := s.profiles.Get(ctx, uid)
	switch {
	case err == nil:
		if refreshPicture && picture != "" && picture != profile.ProfileImage {
			now := s.now()
			if err := s.profiles.Update(ctx, uid, models.ProfileUpdate{ProfileImage: &picture}, now); err != nil {
				return nil, apperror.Internal(err)
			}
			profile.ProfileImage = picture
			profile.UpdatedAt = &now
		}
		return profile, nil
	case !errors.Is(err, database.ErrNotFound):
		return nil, apperror.Internal(err)
	}

	profile = &models.Profile{
		UID:          uid,
		Email:        email,
		FullName:     fullName,
		ProfileImage: picture,
		CreatedAt:    s.now().UTC(),
	}
	err = s.profiles.Create(ctx, profile)
	if errors.Is(err, database.ErrAlreadyExists) {
		if profile, err = s.profiles.Get(ctx, uid); err == nil {
			return profile, nil
		}
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	s.logger.Debug("profile_created", zap.String("uid", logger.SanitizeUID(uid)))
	return profile, nil
}

func authResult(p *models.Profile, token string) *models.AuthResult {
	return &models.AuthResult{
		User:  models.UserSummary{ID: p.UID, Email: p.Email, FullName: p.FullName},
		Token: token,
	}
}

func mapProviderError(err error) error {
	switch {
	case errors.Is(err, identity.ErrEmailAlreadyExists):
		return apperror.ErrEmailAlreadyExists.Wrap(err)
	case errors.Is(err, identity.ErrInvalidEmail):
		return apperror.ErrInvalidEmail.Wrap(err)
	case errors.Is(err, identity.ErrWeakPassword):
		return apperror.ErrWeakPassword.Wrap(err)
	case errors.Is(err, identity.ErrUserNotFound):
		return apperror.ErrUserNotFound.Wrap(err)
	case errors.Is(err, identity.ErrNotConfigured):
		return apperror.ErrConfiguration.Wrap(err)
	case errors.Is(err, identity.ErrUpstream):
		return apperror.ErrServiceUnavailable.Wrap(err)
	}
	return apperror.Internal(err)
}

func mapSignInError(err error) error {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrUserNotFound):
		return apperror.ErrInvalidCredentials.Wrap(err)
	case errors.Is(err, identity.ErrUserDisabled):
		return apperror.ErrUserDisabled.Wrap(err)
	case errors.Is(err, identity.ErrTooManyAttempts):
		return apperror.ErrTooManyAttempts.Wrap(err)
	case errors.Is(err, identity.ErrNotConfigured):
		return apperror.ErrConfiguration.Wrap(err)
	}
	return apperror.ErrServiceUnavailable.Wrap(err)
}
