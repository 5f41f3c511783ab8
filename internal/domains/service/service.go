// Package service implements tenant management: domain creation with a
// one-step rollback, per-request manager access control, and the scoped
// update and delete operations.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	account "konduktv_backend/internal/accounts/domain"
	"konduktv_backend/internal/domains/repository"
	"konduktv_backend/platform/apperr"
	"konduktv_backend/platform/logger"
)

// SubscriptionTrial is the status every new domain starts in.
const SubscriptionTrial = "trial"

// Store is the persistence surface the service needs; implemented by
// repository.Repository.
type Store interface {
	CreateDomain(ctx context.Context, domainName string, managerID uuid.UUID, subscriptionStatus string) (repository.Domain, error)
	GetDomain(ctx context.Context, id uuid.UUID) (repository.Domain, error)
	GetDomainByName(ctx context.Context, domainName string) (repository.Domain, error)
	UpdateDomain(ctx context.Context, id uuid.UUID, domainName, subscriptionStatus *string) (repository.Domain, error)
	ListDomainsForUser(ctx context.Context, userID uuid.UUID) ([]repository.Domain, error)
	DeleteDomains(ctx context.Context, ids []uuid.UUID, managerID uuid.UUID) (int64, error)
	CreateMembership(ctx context.Context, domainID, userID uuid.UUID, role string) error
	GetMembership(ctx context.Context, domainID, userID uuid.UUID) (repository.Membership, error)
	DeleteMembershipsByDomains(ctx context.Context, domainIDs []uuid.UUID) (int64, error)
}

type Service struct {
	store Store
	log   *logger.Logger
}

func New(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// CreateDomain creates a domain plus the caller's manager membership. If the
// membership insert fails the domain is rolled back so no unmanaged domain
// is left behind.
func (s *Service) CreateDomain(ctx context.Context, callerID uuid.UUID, domainName string) (repository.Domain, error) {
	if domainName == "" {
		return repository.Domain{}, apperr.Validation("domain name is required")
	}

	// Precheck gives a clean conflict before any writes; the unique index
	// still backstops a race.
	if _, err := s.store.GetDomainByName(ctx, domainName); err == nil {
		return repository.Domain{}, apperr.Conflict("domain already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return repository.Domain{}, apperr.Wrap(apperr.KindInternal, "failed to check domain existence", err)
	}

	domain, err := s.store.CreateDomain(ctx, domainName, callerID, SubscriptionTrial)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return repository.Domain{}, apperr.Conflict("domain already exists")
		}
		return repository.Domain{}, apperr.Wrap(apperr.KindInternal, "failed to create domain", err)
	}

	if err := s.store.CreateMembership(ctx, domain.ID, callerID, string(account.RoleManager)); err != nil {
		if _, delErr := s.store.DeleteDomains(ctx, []uuid.UUID{domain.ID}, callerID); delErr != nil {
			s.log.CompensationFailed("domain", delErr)
		}
		return repository.Domain{}, apperr.Wrap(apperr.KindInternal, "failed to create team", err)
	}

	return domain, nil
}

// ListDomains returns every domain the caller manages or belongs to.
func (s *Service) ListDomains(ctx context.Context, callerID uuid.UUID) ([]repository.Domain, error) {
	domains, err := s.store.ListDomainsForUser(ctx, callerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch domains", err)
	}
	return domains, nil
}

// UpdateDomain applies domain changes. Only a manager of the domain may
// update it; the check runs against the store on every request.
func (s *Service) UpdateDomain(ctx context.Context, callerID, domainID uuid.UUID, domainName, subscriptionStatus *string) (repository.Domain, error) {
	if err := s.requireManager(ctx, domainID, callerID, "only domain managers can update domain settings"); err != nil {
		return repository.Domain{}, err
	}

	domain, err := s.store.UpdateDomain(ctx, domainID, domainName, subscriptionStatus)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Domain{}, apperr.NotFound("domain not found")
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return repository.Domain{}, apperr.Conflict("domain already exists")
	}
	if err != nil {
		return repository.Domain{}, apperr.Wrap(apperr.KindInternal, "failed to update domain", err)
	}
	return domain, nil
}

// DeleteDomain removes a domain and its memberships. The caller must be a
// manager of the domain and its recorded owner; the final delete is scoped
// to the owner so a concurrent ownership change cannot race past the check.
func (s *Service) DeleteDomain(ctx context.Context, callerID, domainID uuid.UUID) error {
	if err := s.requireManager(ctx, domainID, callerID, "only domain managers can delete domains"); err != nil {
		return err
	}

	domain, err := s.store.GetDomain(ctx, domainID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("domain not found or not owned by user")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to verify domain ownership", err)
	}
	if domain.ManagerID != callerID {
		return apperr.NotFound("domain not found or not owned by user")
	}

	if _, err := s.store.DeleteMembershipsByDomains(ctx, []uuid.UUID{domainID}); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete domain teams", err)
	}
	if _, err := s.store.DeleteDomains(ctx, []uuid.UUID{domainID}, callerID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete domain", err)
	}
	return nil
}

func (s *Service) requireManager(ctx context.Context, domainID, callerID uuid.UUID, denied string) error {
	membership, err := s.store.GetMembership(ctx, domainID, callerID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Forbidden(denied)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to verify permissions", err)
	}

	switch account.Role(membership.Role) {
	case account.RoleManager:
		return nil
	case account.RoleTeamMember, account.RoleAdmin:
		return apperr.Forbidden(denied)
	}
	return apperr.Forbidden(denied)
}
