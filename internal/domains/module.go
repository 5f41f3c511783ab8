// Package domains provides the tenant bounded context module: domain CRUD
// with per-request manager access control and team memberships.
package domains

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"konduktv_backend/internal/domains/handler"
	"konduktv_backend/internal/domains/repository"
	"konduktv_backend/internal/domains/service"
	apphttp "konduktv_backend/internal/http"
	"konduktv_backend/platform/logger"
	"konduktv_backend/platform/validator"
)

// Module is the domains bounded context implementing http.Module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

// NewModule wires the domains module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repository: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "domains"
}

// Repository exposes the store for the account context's adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// RegisterRoutes mounts the domain routes behind the session middleware.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
