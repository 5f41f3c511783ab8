// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"konduktv_backend/platform/events"
	"konduktv_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Account Domain Events
// =============================================================================

// UserProvisioned is published after a signup workflow completes: identity,
// profile, initial domain, and manager membership all exist.
type UserProvisioned struct {
	BaseEvent
	UserID     uuid.UUID `json:"userId"`
	Email      string    `json:"email"`
	DomainID   uuid.UUID `json:"domainId"`
	DomainName string    `json:"domainName"`
}

func (e UserProvisioned) EventName() string { return "accounts.user.provisioned" }

// UserDeprovisioned is published after a deprovisioning workflow removes a
// user's memberships, owned domains, profile, and identity.
type UserDeprovisioned struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

func (e UserDeprovisioned) EventName() string { return "accounts.user.deprovisioned" }
