// Package ports defines the interfaces the account workflows require from
// external systems: the hosted auth service and the stores owned by other
// contexts. Implementations are wired by the composition root so the
// account context never imports another context's internals.
package ports

import (
	"context"

	"github.com/google/uuid"

	"konduktv_backend/internal/accounts/domain"
	"konduktv_backend/internal/authgw"
)

// IdentityGateway is the slice of the hosted auth service the account
// workflows depend on.
type IdentityGateway interface {
	CreateUser(ctx context.Context, email, password string) (authgw.AuthUser, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	SignInWithPassword(ctx context.Context, email, password string) (authgw.Session, error)
	GetUserByEmail(ctx context.Context, email string) (authgw.AuthUser, error)
}

// ProfileStore persists profile rows keyed by identity id.
type ProfileStore interface {
	CreateProfile(ctx context.Context, id uuid.UUID, email string, role domain.Role) (domain.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (domain.Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) (domain.Profile, error)
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) (int64, error)
}

// TenantStore is the account context's view of domain persistence. The
// domains context implements it through an adapter.
type TenantStore interface {
	CreateTenant(ctx context.Context, domainName string, managerID uuid.UUID) (domain.Tenant, error)
	ListTenantIDsByManager(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error)
	ListTenantsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Tenant, error)
	// DeleteTenants removes the given tenants, scoped to the manager so a
	// concurrent ownership change cannot widen the delete.
	DeleteTenants(ctx context.Context, ids []uuid.UUID, managerID uuid.UUID) (int64, error)
}

// MembershipStore persists team membership rows.
type MembershipStore interface {
	CreateMembership(ctx context.Context, tenantID, userID uuid.UUID, role domain.Role) error
	DeleteMembershipsByTenants(ctx context.Context, tenantIDs []uuid.UUID) (int64, error)
	DeleteMembershipsByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
