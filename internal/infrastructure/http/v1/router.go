// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stayledger/internal/domain/property"
	"stayledger/internal/domain/reconciliation"
	"stayledger/internal/infrastructure/http/v1/handlers"
	"stayledger/internal/infrastructure/http/v1/middleware"
	"stayledger/internal/infrastructure/storage/postgres"
	"stayledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Logger *logger.Logger

	Pool *postgres.Pool

	Reconciliations *reconciliation.Service
	Properties      property.Repository
	Audit           *postgres.AuditStore

	// JWTValidator validates bearer tokens. nil disables auth (local
	// development only).
	JWTValidator middleware.JWTValidator
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery wraps everything, errors render last.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	if cfg.JWTValidator != nil {
		api.Use(middleware.Auth(cfg.JWTValidator))
	}

	recHandler := handlers.NewReconciliationHandler(cfg.Reconciliations, cfg.Audit)
	recs := api.Group("/reconciliations")
	{
		recs.POST("", recHandler.Create)
		recs.GET("", recHandler.List)
		recs.POST("/sweep", recHandler.Sweep)
		recs.GET("/:id", recHandler.Get)
		recs.DELETE("/:id", recHandler.Delete)
		recs.POST("/:id/finalize", recHandler.Finalize)
		recs.GET("/:id/audit", recHandler.AuditTrail)
	}

	propHandler := handlers.NewPropertyHandler(cfg.Properties)
	props := api.Group("/properties")
	{
		props.GET("", propHandler.List)
		props.GET("/:id", propHandler.Get)
	}

	return router
}
