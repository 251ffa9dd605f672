// Package router assembles the Gin engine from the initialized application.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "bridge_backend/internal/http"
	"bridge_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const serviceName = "bridge-backend"

const (
	readinessTimeout = 5 * time.Second
	dbPingAttempts   = 3
	dbPingRetryDelay = 500 * time.Millisecond
)

// New builds the HTTP engine: global middleware, health probes, route
// groups, and per-module route registration.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	registerHealthRoutes(engine, app)

	publicLimiter := httpkit.NewPublicRateLimiter(app.Logger)

	v1 := engine.Group("/api/v1")
	protected := v1.Group("", app.AuthMiddleware)
	admin := protected.Group("/admin", app.AdminMiddleware)
	public := v1.Group("/public", publicLimiter.RateLimit())

	routerCtx := &apphttp.RouterContext{
		Engine:            engine,
		V1:                v1,
		Protected:         protected,
		Admin:             admin,
		Public:            public,
		AuthMiddleware:    app.AuthMiddleware,
		PublicRateLimiter: publicLimiter,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Info("registered module routes", "module", module.Name())
	}

	return engine
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: app.Config.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if app.Config.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = app.Config.GetCORSOrigins()
	}
	return cors.New(corsCfg)
}

func registerHealthRoutes(engine *gin.Engine, app *apphttp.App) {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	engine.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return pingWithRetry(gctx, app.Health, dbPingAttempts)
		})
		if app.StorageHealth != nil {
			g.Go(func() error {
				return app.StorageHealth.Ping(gctx)
			})
		}

		if err := g.Wait(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}

func pingWithRetry(ctx context.Context, checker apphttp.HealthChecker, attempts int) error {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = checker.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(dbPingRetryDelay):
			}
		}
	}
	return lastErr
}
