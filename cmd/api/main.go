package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/cache"
	"github.com/meditabi/meditabi_api/internal/config"
	"github.com/meditabi/meditabi_api/internal/database"
	"github.com/meditabi/meditabi_api/internal/handler"
	"github.com/meditabi/meditabi_api/internal/middleware"
	"github.com/meditabi/meditabi_api/internal/repository"
	"github.com/meditabi/meditabi_api/internal/service"
	"github.com/meditabi/meditabi_api/internal/worker"
	"github.com/meditabi/meditabi_api/pkg/resend"
)

// main is the application entrypoint for the Meditabi booking API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting meditabi api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Initialize caches
	guideCache := cache.NewGuideCache(redisClient)
	sessionCache := cache.NewSessionCache(redisClient)

	// 4. Initialize repositories
	guideRepo := repository.NewGuideRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	tierRepo := repository.NewCommissionTierRepository(db)
	trackingRepo := repository.NewTrackingRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 5. Initialize services
	guideSvc := service.NewGuideService(guideRepo, guideCache)
	resolverSvc := service.NewResolverService(guideSvc, cfg.WhiteLabel.Domain, cfg.WhiteLabel.LocalAlias)
	trackingSvc := service.NewTrackingService(trackingRepo, sessionCache)
	commissionSvc := service.NewCommissionService(tierRepo)
	adminAuthSvc := service.NewAdminAuthService(adminRepo)

	// Provision the bootstrap operator account so a fresh deployment has a
	// working login. Existing accounts are never touched.
	if cfg.Admin.BootstrapEmail != "" && cfg.Admin.BootstrapPassword != "" {
		if err := adminAuthSvc.EnsureAdmin(context.Background(), cfg.Admin.BootstrapEmail, cfg.Admin.BootstrapPassword, cfg.Admin.BootstrapName); err != nil {
			log.Error().Err(err).Msg("Failed to provision bootstrap admin account")
		}
	} else {
		log.Warn().Msg("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin bootstrap")
	}

	var notificationSvc *service.NotificationService
	if cfg.Resend.APIKey != "" {
		notificationSvc = service.NewNotificationService(resend.NewClient(cfg.Resend.APIKey), cfg.Resend.FromAddress)
	} else {
		log.Warn().Msg("RESEND_API_KEY not set, order status email disabled")
		notificationSvc = service.NewNotificationService(nil, cfg.Resend.FromAddress)
	}

	orderSvc := service.NewOrderService(orderRepo, commissionSvc, notificationSvc)

	assetSvc, err := service.NewAssetService(&cfg.Asset)
	if err != nil {
		log.Warn().Err(err).Msg("asset storage not configured, logo upload disabled")
	}

	// 6. Initialize handlers
	handlers := &appHandlers{
		health:     handler.NewHealthHandler(db, redisClient),
		whiteLabel: handler.NewWhiteLabelHandler(guideSvc, resolverSvc, trackingSvc),
		commission: handler.NewCommissionHandler(commissionSvc),
		webhook:    handler.NewCheckoutWebhookHandler(orderRepo, guideSvc, cfg.Checkout.WebhookSecret),
		auth:       handler.NewAuthHandler(adminAuthSvc),
		adminOrder: handler.NewAdminOrderHandler(orderSvc, orderRepo),
		adminGuide: handler.NewAdminGuideHandler(guideRepo, guideSvc, trackingRepo, orderRepo, assetSvc),
	}

	// 7. Initialize middleware
	wlMw := middleware.NewWhiteLabelMiddleware(resolverSvc)
	jwtMw := middleware.NewJWTMiddleware(cfg.Admin.AllowedEmails)
	adminWriteLimiter := middleware.NewRateLimiter(5, time.Minute)

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LocaleMiddleware())
	router.Use(wlMw.Handle())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw, adminWriteLimiter)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	go worker.NewPageViewRollupWorker(trackingRepo, cfg.Worker.RollupInterval).Start(ctx)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// appHandlers groups all HTTP handlers used by the server.
type appHandlers struct {
	health     *handler.HealthHandler
	whiteLabel *handler.WhiteLabelHandler
	commission *handler.CommissionHandler
	webhook    *handler.CheckoutWebhookHandler
	auth       *handler.AuthHandler
	adminOrder *handler.AdminOrderHandler
	adminGuide *handler.AdminGuideHandler
}

// setupRoutes registers all routes. The rate limiter on mutating admin
// routes runs before authentication so unauthenticated abuse is bounded
// without paying the token validation cost.
func setupRoutes(router *gin.Engine, h *appHandlers, jwtMw *middleware.JWTMiddleware, writeLimiter *middleware.RateLimiter) {
	router.GET("/v1/health", h.health.GetHealth)

	// Checkout collaborator webhook
	router.POST("/webhook/checkout", h.webhook.HandleCheckoutCompleted)

	// Partner entry routes
	router.GET("/p/:slug", h.whiteLabel.EnterBySlug)
	router.GET("/g/:slug", h.whiteLabel.LandingBySlug)

	// Public API
	api := router.Group("/api")
	{
		api.POST("/whitelabel/track", h.whiteLabel.Track)
		api.GET("/commission-tiers", h.commission.GetTiers)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", writeLimiter.Handle(), h.auth.Login)

	adminRead := admin.Group("")
	adminRead.Use(jwtMw.Handle())
	{
		adminRead.GET("/orders", h.adminOrder.ListOrders)
		adminRead.GET("/orders/:id", h.adminOrder.GetOrder)
		adminRead.GET("/guides", h.adminGuide.ListGuides)
		adminRead.GET("/guides/:id", h.adminGuide.GetGuide)
		adminRead.GET("/guides/:id/stats", h.adminGuide.GetStats)
	}

	adminWrite := admin.Group("")
	adminWrite.Use(writeLimiter.Handle(), jwtMw.Handle())
	{
		adminWrite.POST("/orders/:id/action", h.adminOrder.ApplyAction)
		adminWrite.POST("/guides", h.adminGuide.CreateGuide)
		adminWrite.PUT("/guides/:id", h.adminGuide.UpdateGuide)
		adminWrite.PUT("/guides/:id/status", h.adminGuide.UpdateSubscriptionStatus)
		adminWrite.POST("/guides/:id/logo", h.adminGuide.UploadLogo)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
