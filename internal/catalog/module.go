// Package catalog manages the insurance product catalog: categories,
// sub-categories, and the products agents submit leads for.
package catalog

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge_backend/internal/authz"
	"bridge_backend/internal/catalog/handler"
	"bridge_backend/internal/catalog/repository"
	"bridge_backend/internal/catalog/service"
	apphttp "bridge_backend/internal/http"
	"bridge_backend/platform/logger"
	"bridge_backend/platform/validator"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, policy *authz.Policy, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, policy, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapters built on this context.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Protected read-only endpoints
	ctx.Protected.GET("/catalog/categories", m.handler.ListCategories)
	ctx.Protected.GET("/catalog/products", m.handler.ListProducts)
	ctx.Protected.GET("/catalog/products/:id", m.handler.GetProduct)

	// Admin management endpoints; entries are deactivated, never deleted,
	// because leads keep foreign keys to products.
	adminGroup := ctx.Admin.Group("/catalog")
	adminGroup.POST("/categories", m.handler.CreateCategory)
	adminGroup.PATCH("/categories/:id", m.handler.UpdateCategory)
	adminGroup.POST("/sub-categories", m.handler.CreateSubCategory)
	adminGroup.PATCH("/sub-categories/:id", m.handler.UpdateSubCategory)
	adminGroup.POST("/products", m.handler.CreateProduct)
	adminGroup.PATCH("/products/:id", m.handler.UpdateProduct)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
