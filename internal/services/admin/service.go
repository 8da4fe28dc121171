// Package admin grants and revokes the admin role. The isAdmin flag on the profile is
// authoritative; the "admin" custom claim on the identity is kept in step for clients
// that read it from their token.
package admin

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/apperror"
	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/identity"
	"github.com/benvon/pet-shop/internal/logger"
	"github.com/benvon/pet-shop/internal/models"
)

// Status is the payload of GET /api/admin/check.
type Status struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Admin   bool   `json:"admin"`
	IsAdmin bool   `json:"isAdmin"`
}

// Member identifies a user whose role changed, or an entry in the admin list.
type Member struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	FullName     string `json:"fullName,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Service manages the admin role.
type Service struct {
	identity identity.Provider
	profiles database.ProfileRepositoryInterface
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates an admin service.
func NewService(idp identity.Provider, profiles database.ProfileRepositoryInterface, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{identity: idp, profiles: profiles, logger: log, now: time.Now}
}

// Status reports the admin flag resolved by the auth middleware.
func (s *Service) Status(id models.Identity) Status {
	return Status{UID: id.UID, Email: id.Email, Admin: id.Admin, IsAdmin: id.Admin}
}

// Grant gives the admin role to the account registered under email.
func (s *Service) Grant(ctx context.Context, email string) (*Member, error) {
	return s.setAdmin(ctx, email, true)
}

// Revoke removes the admin role from the account registered under email.
func (s *Service) Revoke(ctx context.Context, email string) (*Member, error) {
	return s.setAdmin(ctx, email, false)
}

// List returns every profile flagged as admin.
func (s *Service) List(ctx context.Context) ([]Member, error) {
	profiles, err := s.profiles.ListAdmins(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	out := make([]Member, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, Member{UID: p.UID, Email: p.Email, FullName: p.FullName, ProfileImage: p.ProfileImage})
	}
	return out, nil
}

func (s *Service) setAdmin(ctx context.Context, email string, admin bool) (*Member, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.Validation("Email is required")
	}

	user, err := s.identity.GetUserByEmail(ctx, email)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, apperror.ErrServiceUnavailable.Wrap(err)
	}

	now := s.now().UTC()
	err = s.profiles.SetAdmin(ctx, user.UID, admin, now)
	if errors.Is(err, database.ErrNotFound) {
		err = s.profiles.Create(ctx, &models.Profile{
			UID:          user.UID,
			Email:        user.Email,
			FullName:     user.DisplayName,
			ProfileImage: user.PhotoURL,
			IsAdmin:      admin,
			CreatedAt:    now,
		})
		if errors.Is(err, database.ErrAlreadyExists) {
			err = s.profiles.SetAdmin(ctx, user.UID, admin, now)
		}
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	claims := maps.Clone(user.CustomClaims)
	if claims == nil {
		claims = map[string]any{}
	}
	claims["admin"] = admin
	if err := s.identity.SetCustomClaims(ctx, user.UID, claims); err != nil {
		s.logger.Warn("admin_claim_mirror_failed",
			zap.String("uid", logger.SanitizeUID(user.UID)),
			zap.String("error", logger.SanitizeError(err)))
	}

	s.logger.Info("admin_role_changed",
		zap.String("uid", logger.SanitizeUID(user.UID)),
		zap.String("email", logger.SanitizeEmail(user.Email)),
		zap.Bool("admin", admin))
	return &Member{UID: user.UID, Email: user.Email, FullName: user.DisplayName}, nil
}
