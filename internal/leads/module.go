// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge_backend/internal/adapters/storage"
	"bridge_backend/internal/authz"
	"bridge_backend/internal/events"
	apphttp "bridge_backend/internal/http"
	"bridge_backend/internal/leads/handler"
	"bridge_backend/internal/leads/ports"
	"bridge_backend/internal/leads/repository"
	"bridge_backend/internal/leads/service"
	"bridge_backend/platform/logger"
	"bridge_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	catalog ports.ProductCatalog,
	clients ports.ClientResolver,
	users ports.UserProvider,
	agents ports.AgentDirectory,
	renderer ports.SummaryRenderer,
	storageSvc storage.StorageService,
	docsBucket string,
	pdfBucket string,
	shareCfg service.ShareConfig,
	policy *authz.Policy,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, catalog, clients, users, agents, renderer, storageSvc, docsBucket, pdfBucket, shareCfg, policy, eventBus, log)

	return &Module{
		handler:       handler.New(svc, val),
		publicHandler: handler.NewPublicHandler(svc, val),
		service:       svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service for wiring by the composition root.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Agent and admin lead workflows
	ctx.Protected.POST("/leads", m.handler.Create)
	ctx.Protected.GET("/leads", m.handler.List)
	ctx.Protected.GET("/leads/stats", m.handler.Stats)
	ctx.Protected.GET("/leads/:id", m.handler.Get)
	ctx.Protected.PATCH("/leads/:id", m.handler.Update)
	ctx.Protected.DELETE("/leads/:id", m.handler.Delete)
	ctx.Protected.POST("/leads/:id/submit", m.handler.Submit)
	ctx.Protected.POST("/leads/:id/status", m.handler.UpdateStatus)
	ctx.Protected.POST("/leads/:id/notes", m.handler.AddNote)
	ctx.Protected.GET("/leads/:id/activities", m.handler.ListActivities)
	ctx.Protected.POST("/leads/:id/documents", m.handler.UploadDocument)
	ctx.Protected.GET("/leads/:id/documents", m.handler.ListDocuments)

	// Admin-only operations
	ctx.Admin.POST("/leads/:id/assign", m.handler.Assign)
	ctx.Admin.POST("/forms", m.handler.CreateForm)
	ctx.Admin.GET("/forms", m.handler.ListForms)
	ctx.Admin.GET("/forms/:id", m.handler.GetForm)
	ctx.Admin.PATCH("/forms/:id", m.handler.UpdateForm)

	// Unauthenticated shared-form surface; the public group is rate limited
	ctx.Public.GET("/forms/:token", m.publicHandler.GetPublicForm)
	ctx.Public.POST("/forms/:token/submit", m.publicHandler.SubmitPublicForm)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
