// Package notification provides event handlers for sending emails in
// response to account events. Domain modules publish events on the bus and
// never know about email providers or templates.
package notification

import (
	"context"

	"konduktv_backend/internal/email"
	"konduktv_backend/internal/events"
	apphttp "konduktv_backend/internal/http"
	"konduktv_backend/platform/logger"
)

// Module subscribes to account lifecycle events and sends the corresponding
// emails. Delivery failures are logged, never propagated: notifications are
// advisory and must not affect workflow outcomes.
type Module struct {
	sender email.Sender
	log    *logger.Logger
}

func New(sender email.Sender, log *logger.Logger) *Module {
	return &Module{sender: sender, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes is a no-op; this module has no HTTP surface.
func (m *Module) RegisterRoutes(_ *apphttp.RouterContext) {}

// Subscribe registers the module's event handlers on the bus.
func (m *Module) Subscribe(bus events.Bus) {
	bus.Subscribe(events.UserProvisioned{}.EventName(), events.HandlerFunc(m.handleUserProvisioned))
	bus.Subscribe(events.UserDeprovisioned{}.EventName(), events.HandlerFunc(m.handleUserDeprovisioned))
}

func (m *Module) handleUserProvisioned(ctx context.Context, e events.Event) error {
	event, ok := e.(events.UserProvisioned)
	if !ok {
		return nil
	}
	if err := m.sender.SendWelcomeEmail(ctx, event.Email, event.DomainName); err != nil {
		m.log.Error("failed to send welcome email", "email", event.Email, "error", err)
	}
	return nil
}

func (m *Module) handleUserDeprovisioned(ctx context.Context, e events.Event) error {
	event, ok := e.(events.UserDeprovisioned)
	if !ok {
		return nil
	}
	if err := m.sender.SendGoodbyeEmail(ctx, event.Email); err != nil {
		m.log.Error("failed to send goodbye email", "email", event.Email, "error", err)
	}
	return nil
}

var _ apphttp.Module = (*Module)(nil)
