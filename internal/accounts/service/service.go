// Package service implements the account workflows: signup provisioning with
// compensating rollback, dependency-ordered deprovisioning, signin with
// profile self-heal, and role management.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"konduktv_backend/internal/accounts/domain"
	"konduktv_backend/internal/accounts/ports"
	"konduktv_backend/internal/accounts/validator"
	"konduktv_backend/internal/authgw"
	"konduktv_backend/internal/events"
	"konduktv_backend/platform/apperr"
	"konduktv_backend/platform/logger"
)

type Service struct {
	identity ports.IdentityGateway
	profiles ports.ProfileStore
	tenants  ports.TenantStore
	members  ports.MembershipStore
	bus      events.Bus
	log      *logger.Logger
}

func New(identity ports.IdentityGateway, profiles ports.ProfileStore, tenants ports.TenantStore, members ports.MembershipStore, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		identity: identity,
		profiles: profiles,
		tenants:  tenants,
		members:  members,
		bus:      bus,
		log:      log,
	}
}

// SignInResult is what a successful sign-in returns: the caller's profile,
// every domain they belong to (managed or joined, deduplicated), and the
// token pair.
type SignInResult struct {
	User    domain.Profile
	Domains []domain.Tenant
	Session domain.Session
}

// SignIn authenticates against the hosted auth service and loads the
// caller's profile and domains. A missing profile row is recreated with the
// default role rather than failing the sign-in.
func (s *Service) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	if err := validator.ValidateEmail(email); err != nil {
		return SignInResult{}, apperr.Validation(err.Error())
	}

	session, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, authgw.ErrInvalidCredentials) {
			s.log.AuthEvent("signin", email, false, "invalid credentials")
			return SignInResult{}, apperr.Unauthorized("authentication failed")
		}
		return SignInResult{}, apperr.Upstream("authentication failed", err)
	}

	userID := session.User.ID

	profile, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		// Self-heal: an identity without a profile row can happen when a
		// previous provisioning attempt was compensated mid-flight.
		profile, err = s.profiles.CreateProfile(ctx, userID, email, domain.RoleTeamMember)
	}
	if err != nil {
		s.log.DatabaseError("signin.profile", err)
		return SignInResult{}, apperr.Wrap(apperr.KindInternal, "failed to fetch user profile", err)
	}

	domains, err := s.tenants.ListTenantsForUser(ctx, userID)
	if err != nil {
		s.log.DatabaseError("signin.domains", err)
		return SignInResult{}, apperr.Wrap(apperr.KindInternal, "failed to fetch user domains", err)
	}

	s.log.AuthEvent("signin", email, true, "")
	return SignInResult{
		User:    profile,
		Domains: domains,
		Session: toSession(session),
	}, nil
}

// GetProfile returns the caller's own profile.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (domain.Profile, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Profile{}, apperr.NotFound("profile not found")
	}
	if err != nil {
		return domain.Profile{}, apperr.Wrap(apperr.KindInternal, "failed to fetch profile", err)
	}
	return profile, nil
}

// UpdateProfile applies the caller's own profile changes. Identity fields
// (id, email, timestamps) are never updatable; only the role field is.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, role domain.Role) (domain.Profile, error) {
	if !role.Valid() || !role.AssignableByManager() {
		return domain.Profile{}, apperr.Validation("invalid role")
	}
	profile, err := s.profiles.UpdateRole(ctx, userID, role)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Profile{}, apperr.NotFound("profile not found")
	}
	if err != nil {
		return domain.Profile{}, apperr.Wrap(apperr.KindInternal, "failed to update profile", err)
	}
	return profile, nil
}

// ListUsers returns every profile. Managers only.
func (s *Service) ListUsers(ctx context.Context, callerID uuid.UUID) ([]domain.Profile, error) {
	if err := s.requireManager(ctx, callerID); err != nil {
		return nil, err
	}
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch users", err)
	}
	return profiles, nil
}

// SetUserRole changes another user's role. Managers only; the admin role is
// never grantable through this path.
func (s *Service) SetUserRole(ctx context.Context, callerID, userID uuid.UUID, role domain.Role) (domain.Profile, error) {
	if err := s.requireManager(ctx, callerID); err != nil {
		return domain.Profile{}, err
	}
	if !role.Valid() || !role.AssignableByManager() {
		return domain.Profile{}, apperr.Validation("invalid role")
	}
	profile, err := s.profiles.UpdateRole(ctx, userID, role)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Profile{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return domain.Profile{}, apperr.Wrap(apperr.KindInternal, "failed to update user role", err)
	}
	return profile, nil
}

func (s *Service) requireManager(ctx context.Context, callerID uuid.UUID) error {
	profile, err := s.profiles.GetProfile(ctx, callerID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to verify user role", err)
	}
	switch profile.Role {
	case domain.RoleManager, domain.RoleAdmin:
		return nil
	case domain.RoleTeamMember:
		return apperr.Forbidden("manager role required")
	}
	return apperr.Forbidden("manager role required")
}

func toSession(s authgw.Session) domain.Session {
	return domain.Session{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		RefreshToken: s.RefreshToken,
	}
}
