package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/herbtrace/herbtrace-backend/internal/handlers"
	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/middleware"
)

type RouterConfig struct {
	Log               *logger.Logger
	AllowOrigins      []string
	CollectionHandler *handlers.CollectionHandler
	ProcessingHandler *handlers.ProcessingHandler
	QualityHandler    *handlers.QualityHandler
	ProductHandler    *handlers.ProductHandler
	TraceHandler      *handlers.TraceHandler
	AnalyticsHandler  *handlers.AnalyticsHandler
	LedgerHandler     *handlers.LedgerHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(otelgin.Middleware("herbtrace-backend"))

	// Cors
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Record
		api.POST("/collection", cfg.CollectionHandler.Record)
		api.POST("/processing", cfg.ProcessingHandler.Record)
		api.POST("/quality", cfg.QualityHandler.Record)
		api.POST("/product", cfg.ProductHandler.Record)
		// Trace
		api.GET("/trace/:id", cfg.TraceHandler.GetTrace)
		// Analytics
		api.GET("/analytics/dashboard", cfg.AnalyticsHandler.GetDashboard)
		// Ledger
		api.GET("/ledger/status", cfg.LedgerHandler.GetStatus)
		api.GET("/ledger/verify/:batch", cfg.LedgerHandler.VerifyChain)
	}

	return router
}
