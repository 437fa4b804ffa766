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

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "forklifttracker/docs"
	"forklifttracker/internal/caching"
	"forklifttracker/internal/config"
	"forklifttracker/internal/handlers"
	"forklifttracker/internal/i18n"
	"forklifttracker/internal/jobs"
	"forklifttracker/internal/jobs/background"
	"forklifttracker/internal/logging"
	"forklifttracker/internal/messaging"
	"forklifttracker/internal/metrics"
	"forklifttracker/internal/middleware"
	"forklifttracker/internal/realtime"
	"forklifttracker/internal/repositories"
	"forklifttracker/internal/services"
	"forklifttracker/internal/storage"
	"forklifttracker/pkg/database"
)

const version = "1.0.0"

// @title Forklift Tracker API
// @version 1.0
// @description Multi-tenant forklift maintenance tracking.
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.IsDevelopment())

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	// Cache
	redisClient := caching.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	cacheSvc := caching.NewRedisCacheServiceWithClient(redisClient)
	defer cacheSvc.Close()

	// Object storage
	objects, err := storage.NewMinioStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		return fmt.Errorf("initialize object storage: %w", err)
	}
	if err := objects.EnsureBucketExists(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", cfg.MinioBucket, err)
	}

	metrics.Init()
	catalog := i18n.MustLoad()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	companyRepo := repositories.NewCompanyRepo(pool)
	membershipRepo := repositories.NewMembershipRepo(pool)
	forkliftRepo := repositories.NewForkliftRepo(pool)
	documentRepo := repositories.NewDocumentRepo(pool)
	auditLogRepo := repositories.NewAuditLogsRepo(pool)

	// Events go to local websocket clients, other instances via redis and,
	// when configured, to RabbitMQ
	hub := realtime.NewHub(membershipRepo)
	defer hub.Close()

	relay := realtime.NewRelay(redisClient, realtime.DefaultRelayChannel, hub)
	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Realtime relay stopped")
		}
	}()

	publisher := services.MultiPublisher{hub, relay}
	if cfg.AMQPURL != "" {
		rabbit, err := messaging.NewRabbitPublisher(cfg.AMQPURL, messaging.DefaultExchange)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, events stay in-process")
		} else {
			defer rabbit.Close()
			publisher = append(publisher, rabbit)
		}
	}

	// Services
	auditSvc := services.NewAuditLogsService(auditLogRepo)
	authSvc := services.NewAuthService(cacheSvc, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userSvc := services.NewUserService(userRepo)
	accessSvc := services.NewAccessService(companyRepo, membershipRepo, cacheSvc)
	documentSvc := services.NewDocumentService(documentRepo, objects, auditSvc)
	companySvc := services.NewCompanyService(companyRepo, membershipRepo, forkliftRepo, accessSvc, cacheSvc, objects, auditSvc, publisher)
	forkliftSvc := services.NewForkliftService(forkliftRepo, accessSvc, documentSvc, auditSvc, publisher, cacheSvc)
	reportSvc := services.NewReportService(forkliftSvc, catalog, objects)

	// Background jobs
	scanner := jobs.NewServiceDueScanner(companyRepo, forkliftRepo, cacheSvc, publisher, cfg.ServiceDueDays)
	scheduler, err := background.NewJobScheduler(scanner, auditSvc)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
	}()

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, userSvc)
	companyHandlers := handlers.NewCompanyHandlers(companySvc)
	forkliftHandlers := handlers.NewForkliftHandlers(forkliftSvc)
	reportHandlers := handlers.NewReportHandlers(reportSvc, catalog)
	i18nHandlers := handlers.NewI18nHandlers(catalog)
	auditLogsHandlers := handlers.NewAuditLogsHandlers(auditSvc)
	realtimeHandlers := handlers.NewRealtimeHandlers(hub)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, objects, version)

	e := newServer(cfg)

	// Operational endpoints (no auth required)
	e.GET("/health", healthHandlers.LivenessCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/detailed", healthHandlers.DetailedHealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	versionMiddleware := middleware.NewVersionMiddleware()
	requireAuth := middleware.RequireAuth(authSvc)
	companyAccess := middleware.NewCompanyAccess(accessSvc)
	auditMiddleware := middleware.NewAuditMiddleware(auditSvc)

	v1 := e.Group("/v1", versionMiddleware.VersionHeader("v1"))

	// Authentication routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandlers.Register, middleware.RateLimit(cacheSvc, "register", 10, time.Minute))
	auth.POST("/login", authHandlers.Login, middleware.RateLimit(cacheSvc, "login", 10, time.Minute))
	auth.POST("/refresh", authHandlers.Refresh, middleware.RateLimit(cacheSvc, "refresh", 30, time.Minute))
	auth.POST("/logout", authHandlers.Logout, requireAuth)

	// Translations are public so the login page can render them
	v1.GET("/i18n", i18nHandlers.Languages)
	v1.GET("/i18n/:lang", i18nHandlers.Table)

	// Protected routes
	protected := v1.Group("", requireAuth, auditMiddleware.AuditRequest())
	protected.GET("/me", authHandlers.Me)

	// Websocket handshakes may carry the token as ?token=
	v1.GET("/ws", realtimeHandlers.Connect, middleware.RequireSocketAuth(authSvc), auditMiddleware.AuditRequest())

	companies := protected.Group("/companies")
	companies.POST("", companyHandlers.CreateCompany)
	companies.GET("", companyHandlers.ListCompanies)
	companies.POST("/join", companyHandlers.JoinCompany)
	companies.GET("/:id", companyHandlers.GetCompany)
	companies.GET("/:id/is-admin", companyHandlers.IsAdmin)
	companies.GET("/:id/users", companyHandlers.ListUsers)
	companies.PATCH("/:id/users/:userId", companyHandlers.UpdateUser,
		companyAccess.RequireAdmin("Only company admins can manage users"))
	companies.POST("/:id/regenerate-code", companyHandlers.RegenerateCode,
		companyAccess.RequireAdmin("Only company admins can regenerate the join code"))
	companies.DELETE("/:id", companyHandlers.DeleteCompany,
		companyAccess.RequireAdmin("Only company admins can delete the company"))
	companies.GET("/:id/service-due", companyHandlers.ServiceDue,
		companyAccess.RequireMember("Access denied"))
	companies.GET("/:id/audit-logs", auditLogsHandlers.ListAuditLogs,
		companyAccess.RequireAdmin("Only company admins can view audit logs"))

	forklifts := protected.Group("/forklifts")
	forklifts.GET("", forkliftHandlers.ListForklifts)
	forklifts.POST("", forkliftHandlers.CreateForklift)
	forklifts.GET("/print", reportHandlers.PrintCustomer)
	forklifts.GET("/:id", forkliftHandlers.GetForklift)
	forklifts.PATCH("/:id", forkliftHandlers.UpdateForklift)
	forklifts.DELETE("/:id", forkliftHandlers.DeleteForklift)
	forklifts.GET("/:id/documents", forkliftHandlers.ListDocuments)
	forklifts.DELETE("/:id/documents/:docId", forkliftHandlers.DeleteDocument)
	forklifts.GET("/:id/print", reportHandlers.PrintForklift)
	forklifts.POST("/:id/service-sheet", reportHandlers.ServiceSheet)

	addr := fmt.Sprintf(":%d", cfg.Port)
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("version", version).Str("addr", addr).Str("env", cfg.AppEnv).Msg("Forklift tracker starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newServer(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.ContextLogger())
	e.Use(middleware.RequestLogger())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Accept-Language"},
	}))
	// Service sheets embed documents as data URLs
	e.Use(echoMiddleware.BodyLimit("50M"))
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.Metrics())
	e.Use(middleware.NewVersionMiddleware().APIVersionResolver())

	return e
}
