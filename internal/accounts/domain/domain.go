// Package domain defines the account context's entities: roles, profiles,
// and the tenant and session summaries the workflows exchange. Other
// contexts import only this package, never the context's internals.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store sentinels shared by every implementation of the account ports.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Role is the closed set of application roles. Authorization checks switch
// over it exhaustively so adding a role is a compile-time-visible change.
type Role string

const (
	// RoleManager may administer domains it manages and team roles.
	RoleManager Role = "manager"
	// RoleTeamMember is the default role assigned at provisioning.
	RoleTeamMember Role = "team_member"
	// RoleAdmin is an operator role; admins cannot self-delete.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleTeamMember, RoleAdmin:
		return true
	}
	return false
}

// AssignableByManager reports whether a manager may grant r through the role
// endpoints. The admin role is never grantable there.
func (r Role) AssignableByManager() bool {
	switch r {
	case RoleManager, RoleTeamMember:
		return true
	case RoleAdmin:
		return false
	}
	return false
}

// Profile is the application-level user record mirroring a hosted-auth
// identity. Its ID equals the identity's ID.
type Profile struct {
	ID        uuid.UUID
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tenant is the account context's view of a domain. The domains context owns
// the full entity; provisioning and deprovisioning only need this summary.
type Tenant struct {
	ID                 uuid.UUID
	DomainName         string
	ManagerID          uuid.UUID
	SubscriptionStatus string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Session is the token pair minted by the hosted auth service.
type Session struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int64
	RefreshToken string
}
