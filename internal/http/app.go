// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"bridge_backend/internal/events"
	"bridge_backend/platform/config"
	"bridge_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks against the database.
	Health HealthChecker
	// StorageHealth is used for readiness checks against object storage.
	// Nil when storage is disabled.
	StorageHealth HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// AuthMiddleware verifies identity tokens and provisions users.
	AuthMiddleware gin.HandlerFunc
	// AdminMiddleware gates the admin route group via the authorization policy.
	AdminMiddleware gin.HandlerFunc
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
