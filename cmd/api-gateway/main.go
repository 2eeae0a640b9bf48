package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/fleet-fuel-api/api/swagger"
	"github.com/noah-isme/fleet-fuel-api/internal/handler"
	"github.com/noah-isme/fleet-fuel-api/internal/middleware"
	"github.com/noah-isme/fleet-fuel-api/internal/models"
	"github.com/noah-isme/fleet-fuel-api/internal/repository"
	"github.com/noah-isme/fleet-fuel-api/internal/service"
	"github.com/noah-isme/fleet-fuel-api/pkg/cache"
	"github.com/noah-isme/fleet-fuel-api/pkg/config"
	"github.com/noah-isme/fleet-fuel-api/pkg/database"
	"github.com/noah-isme/fleet-fuel-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fleet-fuel-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fleet-fuel-api/pkg/middleware/requestid"
	"github.com/noah-isme/fleet-fuel-api/pkg/storage"
)

// @title Fleet Fuel Operations API
// @version 0.1.0
// @description Vehicle-to-route assignment and conflict resolution backend
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	// Repositories.
	unitRepo := repository.NewUnitRepository(db)
	routeRepo := repository.NewRouteRepository(db)
	itineraryRepo := repository.NewItineraryRepository(db)
	permanentRepo := repository.NewPermanentAssignmentRepository(db)
	exceptionalRepo := repository.NewExceptionalAssignmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportJobRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr, metricsSvc)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "fleet-fuel-api",
	})
	unitSvc := service.NewUnitService(unitRepo, cacheRepo, cfg.Assignments.CatalogCacheTTL, validate, logr)
	routeSvc := service.NewRouteService(routeRepo, cacheRepo, cfg.Assignments.CatalogCacheTTL, validate, logr)
	itinerarySvc := service.NewItineraryService(itineraryRepo, cacheRepo, cfg.Assignments.CatalogCacheTTL, validate, logr)
	availabilitySvc := service.NewAvailabilityService(unitRepo, routeRepo, itineraryRepo, permanentRepo, exceptionalRepo, cfg.Assignments.MaxScanRangeDays, logr)
	exceptionalSvc := service.NewExceptionalAssignmentService(unitRepo, routeRepo, exceptionalRepo, availabilitySvc, validate, logr)
	permanentSvc := service.NewPermanentAssignmentService(unitRepo, itineraryRepo, itineraryRepo, permanentRepo, availabilitySvc, validate, logr)

	var reportSvc *service.ScheduleReportService
	if cfg.Reports.Enabled {
		reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewScheduleReportService(
			unitRepo, availabilitySvc, reportRepo, reportStorage, signer,
			cfg.Assignments.MaxScanRangeDays, cfg.Reports.WorkerConcurrency, cfg.Reports.WorkerRetries,
			validate, logr,
		)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	unitHandler := handler.NewUnitHandler(unitSvc)
	routeHandler := handler.NewRouteHandler(routeSvc)
	itineraryHandler := handler.NewItineraryHandler(itinerarySvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc, metricsSvc)
	exceptionalHandler := handler.NewExceptionalAssignmentHandler(exceptionalSvc, metricsSvc)
	permanentHandler := handler.NewPermanentAssignmentHandler(permanentSvc, metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	writers := middleware.RequireRoles(models.RoleAdmin, models.RoleOperator)
	admins := middleware.RequireRoles(models.RoleAdmin)

	units := protected.Group("/units")
	units.GET("", unitHandler.List)
	units.GET("/:id", unitHandler.Get)
	units.POST("", writers, unitHandler.Create)
	units.PUT("/:id", writers, unitHandler.Update)
	units.DELETE("/:id", admins, unitHandler.Deactivate)
	units.GET("/:id/availability", availabilityHandler.Validate)
	units.GET("/:id/availability/day", availabilityHandler.ResolveDay)
	units.GET("/:id/availability/range", availabilityHandler.ScanRange)
	units.GET("/:id/permanent-assignment", permanentHandler.ActiveForUnit)

	routes := protected.Group("/routes")
	routes.GET("", routeHandler.List)
	routes.GET("/:id", routeHandler.Get)
	routes.POST("", writers, routeHandler.Create)
	routes.PUT("/:id", writers, routeHandler.Update)

	itineraries := protected.Group("/itineraries")
	itineraries.GET("", itineraryHandler.List)
	itineraries.GET("/:id", itineraryHandler.Get)
	itineraries.POST("", writers, itineraryHandler.Create)
	itineraries.PUT("/:id", writers, itineraryHandler.Update)

	exceptional := protected.Group("/exceptional-assignments")
	exceptional.GET("", exceptionalHandler.List)
	exceptional.POST("", writers, exceptionalHandler.Assign)
	exceptional.PUT("/:id", writers, exceptionalHandler.Update)
	exceptional.POST("/:id/cancel", writers, exceptionalHandler.Cancel)

	permanent := protected.Group("/permanent-assignments")
	permanent.POST("", writers, permanentHandler.Create)
	permanent.PUT("/:id", writers, permanentHandler.Update)
	permanent.POST("/:id/unassign", writers, permanentHandler.Unassign)
	permanent.POST("/:id/reactivate", writers, permanentHandler.Reactivate)
	permanent.POST("/:id/obsolete", admins, permanentHandler.MarkObsolete)
	permanent.GET("/:id/history", permanentHandler.History)

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		reports := api.Group("/reports/schedule")
		reports.GET("/download", reportHandler.Download)
		reports.POST("", middleware.JWT(authSvc), reportHandler.Request)
		reports.GET("/:id", middleware.JWT(authSvc), reportHandler.Get)
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if reportSvc != nil {
		reportSvc.Start(workerCtx)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}

	if reportSvc != nil {
		reportSvc.Stop()
	}
	logr.Sugar().Infow("server stopped")
}
