// Package main is the entry point for the tillpoint API server.
// Database-per-Store: every store gets its own PostgreSQL database.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tillpoint/internal/core/store"
	"tillpoint/internal/domain/auth"
	"tillpoint/internal/domain/draft"
	"tillpoint/internal/domain/scan"
	"tillpoint/internal/domain/scan/rules"
	v1 "tillpoint/internal/infrastructure/http/v1"
	"tillpoint/internal/infrastructure/storage/postgres"
	"tillpoint/internal/infrastructure/storage/postgres/auth_repo"
	"tillpoint/pkg/logger"
	"tillpoint/pkg/numerator"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting tillpoint server")

	// --- Meta-database connection ---
	metaDSN := mustEnv("META_DATABASE_URL")
	metaPool, err := pgxpool.New(ctx, metaDSN)
	if err != nil {
		log.Fatalw("failed to connect to meta database", "error", err)
	}
	defer metaPool.Close()

	if err := metaPool.Ping(ctx); err != nil {
		log.Fatalw("failed to ping meta database", "error", err)
	}
	log.Info("meta database connection established")

	// --- Store Registry and Manager ---
	registry := store.NewPostgresRegistry(metaPool)

	managerCfg := store.DefaultManagerConfig()
	managerCfg.DBUser = mustEnv("STORE_DB_USER")
	managerCfg.DBPassword = mustEnv("STORE_DB_PASSWORD")

	// Optional configuration overrides
	if maxPools := getEnvInt("STORE_MAX_POOLS", 100); maxPools > 0 {
		managerCfg.MaxTotalPools = maxPools
	}
	if maxConns := getEnvInt("STORE_MAX_CONNS_PER_POOL", 10); maxConns > 0 {
		managerCfg.MaxConnsPerStore = int32(maxConns)
	}
	if idleTimeout := getEnvDuration("STORE_POOL_IDLE_TIMEOUT", 30*time.Minute); idleTimeout > 0 {
		managerCfg.PoolIdleTimeout = idleTimeout
	}

	storeManager := store.NewManager(managerCfg, registry, log)
	defer storeManager.Close()

	log.Infow("store manager initialized",
		"max_pools", managerCfg.MaxTotalPools,
		"max_conns_per_store", managerCfg.MaxConnsPerStore,
		"idle_timeout", managerCfg.PoolIdleTimeout,
	)

	// Optional: Prewarm pools for known stores
	if getEnv("PREWARM_POOLS", "false") == "true" {
		log.Info("prewarming store pools...")
		if err := storeManager.PrewarmPools(ctx); err != nil {
			log.Warnw("failed to prewarm some pools", "error", err)
		}
	}

	// --- JWT Service ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtConfig := auth.DefaultJWTConfig(jwtSecret)
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Auth Service ---
	// Note: Auth repos will get TxManager from context per-request
	authService := auth.NewService(
		auth_repo.NewUserRepo(),
		auth_repo.NewRoleRepo(),
		auth_repo.NewTokenRepo(),
		nil, // TxManager will come from context
		jwtService,
		auth.DefaultServiceConfig(),
	)

	// --- Numerator Service ---
	numeratorService := numerator.NewFromContext()

	// --- Draft and Scan infrastructure ---
	draftManager := draft.NewManager(draft.DefaultManagerConfig(), log)
	defer draftManager.Close()

	scanManager := scan.NewManager(scan.DefaultConfig(), scan.SystemClock(), log)
	defer scanManager.Shutdown()

	ruleEngine, err := rules.NewEngine()
	if err != nil {
		log.Fatalw("failed to build scan rule engine", "error", err)
	}

	auditService, err := postgres.NewAuditService()
	if err != nil {
		log.Fatalw("failed to build audit service", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		StoreManager: storeManager,
		MetaPool:     metaPool,
		Logger:       log,
		JWTValidator: jwtService,
		AuthService:  authService,
		Numerator:    numeratorService,
		DraftManager: draftManager,
		ScanManager:  scanManager,
		RuleEngine:   ruleEngine,
		AuditService: auditService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
