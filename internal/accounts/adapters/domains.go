// Package adapters implements the account context's ports on top of other
// contexts. The composition root wires these so neither context imports the
// other's internals.
package adapters

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"konduktv_backend/internal/accounts/domain"
	"konduktv_backend/internal/accounts/ports"
	domainsrepo "konduktv_backend/internal/domains/repository"
	domainsservice "konduktv_backend/internal/domains/service"
)

// DomainStore adapts the domains repository to the account context's tenant
// and membership ports.
type DomainStore struct {
	repo *domainsrepo.Repository
}

func NewDomainStore(repo *domainsrepo.Repository) *DomainStore {
	return &DomainStore{repo: repo}
}

func (a *DomainStore) CreateTenant(ctx context.Context, domainName string, managerID uuid.UUID) (domain.Tenant, error) {
	d, err := a.repo.CreateDomain(ctx, domainName, managerID, domainsservice.SubscriptionTrial)
	if errors.Is(err, domainsrepo.ErrDuplicate) {
		return domain.Tenant{}, domain.ErrDuplicate
	}
	if err != nil {
		return domain.Tenant{}, err
	}
	return toTenant(d), nil
}

func (a *DomainStore) ListTenantIDsByManager(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error) {
	return a.repo.ListDomainIDsByManager(ctx, managerID)
}

func (a *DomainStore) ListTenantsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Tenant, error) {
	ds, err := a.repo.ListDomainsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tenants := make([]domain.Tenant, 0, len(ds))
	for _, d := range ds {
		tenants = append(tenants, toTenant(d))
	}
	return tenants, nil
}

func (a *DomainStore) DeleteTenants(ctx context.Context, ids []uuid.UUID, managerID uuid.UUID) (int64, error) {
	return a.repo.DeleteDomains(ctx, ids, managerID)
}

func (a *DomainStore) CreateMembership(ctx context.Context, tenantID, userID uuid.UUID, role domain.Role) error {
	err := a.repo.CreateMembership(ctx, tenantID, userID, string(role))
	if errors.Is(err, domainsrepo.ErrDuplicate) {
		return domain.ErrDuplicate
	}
	return err
}

func (a *DomainStore) DeleteMembershipsByTenants(ctx context.Context, tenantIDs []uuid.UUID) (int64, error) {
	return a.repo.DeleteMembershipsByDomains(ctx, tenantIDs)
}

func (a *DomainStore) DeleteMembershipsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return a.repo.DeleteMembershipsByUser(ctx, userID)
}

func toTenant(d domainsrepo.Domain) domain.Tenant {
	return domain.Tenant{
		ID:                 d.ID,
		DomainName:         d.DomainName,
		ManagerID:          d.ManagerID,
		SubscriptionStatus: d.SubscriptionStatus,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

var (
	_ ports.TenantStore     = (*DomainStore)(nil)
	_ ports.MembershipStore = (*DomainStore)(nil)
)
