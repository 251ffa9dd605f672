// Package agents provides the agent-profile bounded context: promotion of
// users to agents, unique agent codes, referral links, and KYC details.
package agents

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge_backend/internal/agents/codegen"
	"bridge_backend/internal/agents/handler"
	"bridge_backend/internal/agents/ports"
	"bridge_backend/internal/agents/repository"
	"bridge_backend/internal/agents/service"
	"bridge_backend/internal/events"
	apphttp "bridge_backend/internal/http"
	"bridge_backend/platform/logger"
	"bridge_backend/platform/validator"
)

// Module is the agents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the agents module with all its dependencies.
func NewModule(pool *pgxpool.Pool, users ports.UserProvider, roles ports.RoleGranter, eventBus events.Bus, cfg service.ReferralConfig, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	codes := codegen.New(repo)
	svc := service.New(repo, codes, users, roles, eventBus, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agents"
}

// Service returns the agents service for wiring by the composition root.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapters built on this context.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts agent routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Agent self-service
	ctx.Protected.GET("/agents/me", m.handler.GetMe)
	ctx.Protected.PATCH("/agents/me", m.handler.UpdateMe)
	ctx.Protected.GET("/agents/me/referral-qr", m.handler.ReferralQR)

	// Admin agent management
	ctx.Admin.POST("/agents", m.handler.Promote)
	ctx.Admin.GET("/agents", m.handler.List)
	ctx.Admin.GET("/agents/:id", m.handler.AdminGet)
	ctx.Admin.PATCH("/agents/:id", m.handler.AdminUpdate)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
