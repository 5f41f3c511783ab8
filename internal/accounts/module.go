// Package accounts provides the account bounded context module: signup and
// signin, profile and role management, and the provisioning and
// deprovisioning workflows.
package accounts

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"konduktv_backend/internal/accounts/handler"
	"konduktv_backend/internal/accounts/ports"
	"konduktv_backend/internal/accounts/repository"
	"konduktv_backend/internal/accounts/service"
	"konduktv_backend/internal/events"
	apphttp "konduktv_backend/internal/http"
	"konduktv_backend/platform/config"
	"konduktv_backend/platform/logger"
	"konduktv_backend/platform/ratelimit"
	"konduktv_backend/platform/validator"
)

// Module is the accounts bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the accounts module. The tenant and membership stores are
// implemented by the domains context and injected through adapters so the
// provisioning workflow can span both contexts without a package cycle.
func NewModule(
	pool *pgxpool.Pool,
	identity ports.IdentityGateway,
	tenants ports.TenantStore,
	members ports.MembershipStore,
	counter ratelimit.Counter,
	cfg *config.Config,
	bus events.Bus,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	profiles := repository.New(pool)
	svc := service.New(identity, profiles, tenants, members, bus, log)
	h := handler.New(svc, val, counter, cfg)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "accounts"
}

// Service exposes the account service for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the account routes. The auth endpoints are public
// but sit behind the stricter auth rate limiter; everything else requires a
// validated session.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	m.handler.RegisterProtectedRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
