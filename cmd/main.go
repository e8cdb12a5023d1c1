package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	redisclient "github.com/herbtrace/herbtrace-backend/internal/clients/redis"
	"github.com/herbtrace/herbtrace-backend/internal/db"
	"github.com/herbtrace/herbtrace-backend/internal/gateway"
	"github.com/herbtrace/herbtrace-backend/internal/geofence"
	"github.com/herbtrace/herbtrace-backend/internal/handlers"
	"github.com/herbtrace/herbtrace-backend/internal/ledger"
	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/observability"
	"github.com/herbtrace/herbtrace-backend/internal/repos"
	"github.com/herbtrace/herbtrace-backend/internal/server"
	"github.com/herbtrace/herbtrace-backend/internal/services"
	"github.com/herbtrace/herbtrace-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "herbtrace-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOtel(ctx); err != nil {
				log.Warn("OTel shutdown failed", "error", err)
			}
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	dbDriver := utils.GetEnv("DB_DRIVER", "postgres", log)
	frontendURL := utils.GetEnv("FRONTEND_URL", "http://localhost:3000", log)
	geofencePath := utils.GetEnv("GEOFENCE_CONFIG", "", log)
	reconcileInterval := utils.GetEnvAsDuration("RECONCILE_INTERVAL", 5*time.Minute, log)
	reconcileGrace := utils.GetEnvAsDuration("RECONCILE_GRACE", time.Minute, log)

	// Database
	var gormDB *gorm.DB
	switch strings.ToLower(dbDriver) {
	case "sqlite":
		sqliteService, err := db.NewSQLiteService(log)
		if err != nil {
			log.Error("SQLite init failed", "error", err)
			os.Exit(1)
		}
		if err = sqliteService.AutoMigrateAll(); err != nil {
			log.Error("SQLite auto migration failed", "error", err)
			os.Exit(1)
		}
		gormDB = sqliteService.DB()
	default:
		postgresService, err := db.NewPostgresService(log)
		if err != nil {
			log.Error("Postgres init failed", "error", err)
			os.Exit(1)
		}
		if err = postgresService.AutoMigrateAll(); err != nil {
			log.Error("Postgres auto migration failed", "error", err)
			os.Exit(1)
		}
		gormDB = postgresService.DB()
	}

	// Repos
	log.Info("Setting up Repos from main...")
	eventRepo := repos.NewCollectionEventRepo(gormDB, log)
	stepRepo := repos.NewProcessingStepRepo(gormDB, log)
	testRepo := repos.NewQualityTestRepo(gormDB, log)
	productRepo := repos.NewProductRepo(gormDB, log)
	txRepo := repos.NewLedgerTxRepo(gormDB, log)

	// Chain appender
	appender := ledger.NewAppender(txRepo, log)

	// Geofence policy
	policy := geofence.DefaultPolicy()
	if geofencePath != "" {
		loaded, err := geofence.LoadPolicy(geofencePath, log)
		if err != nil {
			log.Error("Could not load geofence config", "path", geofencePath, "error", err)
			os.Exit(1)
		}
		policy = loaded
	}

	// Mirror network (optional)
	var mirror gateway.Ledger = gateway.NewNoopLedger()
	fabric := gateway.NewFabricLedger(log)
	if fabric.Configured() {
		mirror = fabric
	} else {
		log.Info("Fabric mirror not configured, chain activity stays local")
	}

	// Trace cache (optional)
	var cache redisclient.TraceCache
	if os.Getenv("REDIS_ADDR") != "" {
		cache, err = redisclient.NewTraceCache(log)
		if err != nil {
			log.Warn("Redis trace cache unavailable", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	collectionService := services.NewCollectionService(log, policy, eventRepo, appender, mirror, cache)
	processingService := services.NewProcessingService(log, stepRepo, appender, mirror, cache)
	qualityService := services.NewQualityService(log, testRepo, appender, mirror, cache)
	productService := services.NewProductService(log, productRepo, appender, mirror, cache, frontendURL)
	traceService := services.NewTraceService(log, productRepo, eventRepo, stepRepo, testRepo, txRepo, appender, cache)
	analyticsService := services.NewAnalyticsService(log, eventRepo, stepRepo, testRepo, productRepo, txRepo)
	reconciler := services.NewReconcilerService(log, eventRepo, stepRepo, testRepo, productRepo, txRepo, appender, reconcileInterval, reconcileGrace)
	go reconciler.Start(context.Background())

	// Handlers
	log.Info("Setting up handlers from main...")
	collectionHandler := handlers.NewCollectionHandler(log, collectionService)
	processingHandler := handlers.NewProcessingHandler(log, processingService)
	qualityHandler := handlers.NewQualityHandler(log, qualityService)
	productHandler := handlers.NewProductHandler(log, productService)
	traceHandler := handlers.NewTraceHandler(log, traceService)
	analyticsHandler := handlers.NewAnalyticsHandler(log, analyticsService)
	ledgerHandler := handlers.NewLedgerHandler(log, traceService, mirror)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:               log,
		AllowOrigins:      splitOrigins(utils.GetEnv("CORS_ORIGINS", "", log)),
		CollectionHandler: collectionHandler,
		ProcessingHandler: processingHandler,
		QualityHandler:    qualityHandler,
		ProductHandler:    productHandler,
		TraceHandler:      traceHandler,
		AnalyticsHandler:  analyticsHandler,
		LedgerHandler:     ledgerHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
