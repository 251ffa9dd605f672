// Package auth provides the identity and account bounded context module.
// This file defines the module that encapsulates all auth setup and route registration.
package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge_backend/internal/auth/handler"
	"bridge_backend/internal/auth/repository"
	"bridge_backend/internal/auth/service"
	"bridge_backend/internal/auth/verifier"
	"bridge_backend/internal/events"
	apphttp "bridge_backend/internal/http"
	"bridge_backend/platform/logger"
	"bridge_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	verifier verifier.TokenVerifier
	repo     repository.Repository
	log      *logger.Logger
}

// NewModule creates and initializes the auth module with all its dependencies.
// The token verifier is constructed by the composition root so the module
// stays agnostic of the identity provider in use.
func NewModule(pool *pgxpool.Pool, tokenVerifier verifier.TokenVerifier, eventBus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler:  h,
		service:  svc,
		verifier: tokenVerifier,
		repo:     repo,
		log:      log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service for wiring by the composition root.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapters built on this context.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// Middleware returns the request authentication middleware that verifies
// bearer tokens and resolves them to local accounts.
func (m *Module) Middleware() gin.HandlerFunc {
	return RequireIdentity(m.verifier, m.service, m.log)
}

// RegisterRoutes mounts user routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Self-service profile routes
	ctx.Protected.GET("/users/me", m.handler.GetMe)
	ctx.Protected.POST("/users/me/sync", m.handler.SyncMe)

	// Admin account management
	ctx.Admin.GET("/users", m.handler.ListUsers)
	ctx.Admin.PUT("/users/:id/roles", m.handler.SetUserRoles)
	ctx.Admin.PATCH("/users/:id", m.handler.SetUserActive)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
