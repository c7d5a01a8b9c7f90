package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fraud-desk/alert_service/docs"
	"github.com/fraud-desk/alert_service/internal/api/handlers"
	"github.com/fraud-desk/alert_service/internal/api/middleware"
	"github.com/fraud-desk/alert_service/internal/infrastructure/di"
	"github.com/fraud-desk/alert_service/pkg/ratelimit"
	"github.com/fraud-desk/alert_service/pkg/tracing"
)

// dispositionRoles may record verdicts
var dispositionRoles = []string{"analyst", "supervisor"}

// SetupRoutes configures all application routes
func SetupRoutes(container *di.Container) *gin.Engine {
	cfg := container.Config
	router := gin.New()

	// Global middleware - order matters
	router.Use(tracing.HTTPMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(container.Logger))
	router.Use(middleware.Recovery(container.Logger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())

	healthHandler := handlers.NewHealthHandler(container.Health, container.Logger)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/live", healthHandler.Live)
	router.GET("/version", handlers.VersionHandler())
	router.GET("/metrics", handlers.Metrics())

	// Swagger documentation (non-production only)
	if cfg.Environment != "production" {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	alertHandlers := handlers.NewAlertHandlers(container.AlertService, container.Logger)
	authenticated := middleware.Authentication(cfg.JWT.Secret, cfg.JWT.Issuer, container.Logger)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.APIVersionMiddleware([]string{"v1"}))
	v1.Use(middleware.RateLimit(cfg.Server.RateLimitPerMin))
	v1.Use(middleware.GzipCompression())
	{
		alerts := v1.Group("/alerts")
		alerts.GET("", alertHandlers.ListAlerts)
		alerts.GET("/stats", alertHandlers.GetStats)
		alerts.GET("/monthly", alertHandlers.GetMonthly)
		alerts.GET("/options", alertHandlers.GetOptions)
		alerts.GET("/:id", alertHandlers.GetAlert)
		alerts.GET("/:id/history", alertHandlers.GetHistory)

		alerts.GET("/:id/audit", authenticated, alertHandlers.GetAuditTrail)
		alerts.PATCH("/:id/disposition",
			authenticated,
			middleware.RoleBasedAccessControl(dispositionRoles, container.Logger),
			dispositionLimit(container),
			middleware.Idempotency(container.Idempotency, container.ZapLog),
			alertHandlers.DisposeAlert,
		)
	}

	return router
}

// dispositionLimit caps verdicts per analyst, shared across replicas when Redis is configured
func dispositionLimit(container *di.Container) gin.HandlerFunc {
	if container.DispositionLimiter != nil {
		return ratelimit.Middleware(container.DispositionLimiter, ratelimit.AnalystKeyFunc, container.ZapLog)
	}
	return middleware.RateLimit(container.Config.Server.DispositionsPerMin)
}
