package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bridge_backend/internal/adapters/storage"
	"bridge_backend/internal/agents"
	agentadapter "bridge_backend/internal/agents/adapter"
	"bridge_backend/internal/auth"
	authadapter "bridge_backend/internal/auth/adapter"
	"bridge_backend/internal/auth/verifier"
	"bridge_backend/internal/authz"
	"bridge_backend/internal/catalog"
	catalogadapter "bridge_backend/internal/catalog/adapter"
	clientadapter "bridge_backend/internal/clients/adapter"
	clientrepo "bridge_backend/internal/clients/repository"
	clientservice "bridge_backend/internal/clients/service"
	"bridge_backend/internal/email"
	"bridge_backend/internal/events"
	apphttp "bridge_backend/internal/http"
	"bridge_backend/internal/http/router"
	"bridge_backend/internal/leads"
	"bridge_backend/internal/notification"
	"bridge_backend/internal/pdf"
	"bridge_backend/platform/config"
	"bridge_backend/platform/db"
	"bridge_backend/platform/logger"
	"bridge_backend/platform/validator"
)

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// SMTP sender, or a no-op when email is disabled
	sender := email.NewSender(cfg)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for documents and generated PDFs (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, storageSvc, "lead-documents", cfg.GetMinioBucketLeadDocuments())
	ensureBucket(ctx, log, storageSvc, "lead-pdfs", cfg.GetMinioBucketLeadPDFs())
	log.Info(
		"storage service initialized",
		"documentsBucket", cfg.GetMinioBucketLeadDocuments(),
		"pdfBucket", cfg.GetMinioBucketLeadPDFs(),
	)

	// Gotenberg-backed summary renderer. Rendering is best-effort at the
	// call sites, so a missing Gotenberg only disables the PDFs.
	if !cfg.IsGotenbergEnabled() {
		log.Warn("GOTENBERG_URL not configured; lead summary PDFs disabled")
	}
	gotenberg := pdf.NewGotenbergClient(cfg.GetGotenbergURL(), cfg.GetGotenbergUsername(), cfg.GetGotenbergPassword())
	renderer, err := pdf.NewRenderer(gotenberg)
	if err != nil {
		log.Error("failed to initialize summary renderer", "error", err)
		panic("failed to initialize summary renderer: " + err.Error())
	}

	// Identity verification: OIDC against a JWKS endpoint, or a static
	// HMAC secret for development and tests.
	var tokenVerifier verifier.TokenVerifier
	if cfg.IdentityJWKSURL != "" {
		tokenVerifier = verifier.NewOIDC(cfg.IdentityIssuer, cfg.IdentityAudience, cfg.IdentityJWKSURL)
		log.Info("identity verification via OIDC", "issuer", cfg.IdentityIssuer)
	} else {
		tokenVerifier = verifier.NewStaticHMAC(cfg.IdentityHS256Secret, cfg.IdentityIssuer, cfg.IdentityAudience)
		log.Warn("identity verification via static HMAC secret; use OIDC in production")
	}

	// Single authorization policy shared by every module
	policy := authz.NewPolicy()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule := auth.NewModule(pool, tokenVerifier, eventBus, log, val)
	userProvider := authadapter.NewUserProviderAdapter(authModule.Repository())
	roleGranter := authadapter.NewRoleGranterAdapter(authModule.Repository())

	agentsModule := agents.NewModule(pool, userProvider, roleGranter, eventBus, cfg, log, val)
	catalogModule := catalog.NewModule(pool, policy, log, val)

	// The clients context has no HTTP surface; leads reach it through the
	// resolver adapter.
	clientsService := clientservice.New(clientrepo.New(), log)

	leadsModule := leads.NewModule(
		pool,
		catalogadapter.NewProductCatalogAdapter(catalogModule.Repository()),
		clientadapter.NewClientResolverAdapter(clientsService, pool),
		authadapter.NewLeadActorProviderAdapter(authModule.Repository()),
		agentadapter.NewAgentDirectoryAdapter(agentsModule.Repository(), userProvider),
		renderer,
		storageSvc,
		cfg.GetMinioBucketLeadDocuments(),
		cfg.GetMinioBucketLeadPDFs(),
		cfg,
		policy,
		eventBus,
		val,
		log,
	)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, agentsModule.Service(), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:          cfg,
		Logger:          log,
		Health:          db.NewPoolAdapter(pool),
		StorageHealth:   storageSvc,
		EventBus:        eventBus,
		AuthMiddleware:  authModule.Middleware(),
		AdminMiddleware: authz.AdminOnly(policy),
		Modules: []apphttp.Module{
			authModule,
			agentsModule,
			catalogModule,
			leadsModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
