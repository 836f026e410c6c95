// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"tillpoint/internal/core/store"
	"tillpoint/internal/domain/auth"
	"tillpoint/internal/domain/catalogs/customer"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/domain/documents/debt"
	"tillpoint/internal/domain/documents/sale"
	"tillpoint/internal/domain/documents/theftaudit"
	"tillpoint/internal/domain/draft"
	"tillpoint/internal/domain/posting"
	"tillpoint/internal/domain/registers/stock"
	"tillpoint/internal/domain/scan"
	"tillpoint/internal/domain/scan/rules"
	"tillpoint/internal/domain/soldset"
	"tillpoint/internal/infrastructure/http/v1/handlers"
	"tillpoint/internal/infrastructure/http/v1/middleware"
	"tillpoint/internal/infrastructure/storage/postgres"
	"tillpoint/internal/infrastructure/storage/postgres/catalog_repo"
	"tillpoint/internal/infrastructure/storage/postgres/document_repo"
	"tillpoint/internal/infrastructure/storage/postgres/register_repo"
	"tillpoint/internal/infrastructure/storage/postgres/soldset_repo"
	"tillpoint/pkg/logger"
	"tillpoint/pkg/numerator"
)

// RouterConfig holds router configuration for the Database-per-Store setup.
type RouterConfig struct {
	// StoreManager manages database pools for all stores
	StoreManager *store.Manager

	// MetaPool is connection to meta-database (for health checks)
	MetaPool *pgxpool.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Numerator for document number generation
	Numerator numerator.Generator

	// DraftManager holds in-memory draft entries
	DraftManager *draft.Manager

	// ScanManager holds live scan sessions
	ScanManager *scan.Manager

	// RuleEngine evaluates per-store scan acceptance rules
	RuleEngine *rules.Engine

	// AuditService records entity change history
	AuditService *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no store required)
	healthHandler := handlers.NewHealthHandler(cfg.MetaPool, cfg.StoreManager)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
		health.GET("/stores", healthHandler.StoresStats)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Auth routes - need StoreDB middleware BEFORE auth (users live
		// in the store database)
		registerAuthRoutes(v1, cfg)

		// Protected endpoints - StoreDB runs first, then Auth
		protected := v1.Group("")
		protected.Use(middleware.StoreDB(cfg.StoreManager)) // 1. Resolve store, get DB pool
		protected.Use(middleware.Auth(cfg.JWTValidator))    // 2. Validate JWT, bind user to store

		registerCatalogRoutes(protected, cfg)
		registerDocumentRoutes(protected, cfg)
		registerDraftRoutes(protected, cfg)
		registerRegisterRoutes(protected, cfg)
		registerAuditRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	// Public auth endpoints (no JWT required, but need store for DB access)
	publicAuth := rg.Group("/auth")
	publicAuth.Use(middleware.StoreDB(cfg.StoreManager))

	// Protected auth endpoints (JWT required)
	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.StoreDB(cfg.StoreManager))
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	// Note: Repos and services are created once but TxManager is obtained from context per-request

	soldSetService := soldset.NewService(soldset_repo.NewSoldSetRepo())

	// --- PRODUCTS ---
	{
		repo := catalog_repo.NewProductRepo()
		service := product.NewService(repo, cfg.Numerator)
		handler := handlers.NewProductHandler(baseHandler, service, soldSetService)

		group := catalogs.Group("/products")
		RegisterCatalogRoutes(group, handler, "admin", "manager")
		group.GET("/barcode/:barcode", handler.FindByBarcode)
		group.GET("/device/:deviceId", handler.FindByDeviceID)
		group.GET("/low-stock", handler.ListLowStock)
		group.GET("/:id/availability", handler.GetAvailability)
	}

	// --- CUSTOMERS ---
	{
		repo := catalog_repo.NewCustomerRepo()
		service := customer.NewService(repo, cfg.Numerator)
		handler := handlers.NewCustomerHandler(baseHandler, service)

		group := catalogs.Group("/customers")
		RegisterCatalogRoutes(group, handler, "admin", "manager", "cashier")
		group.GET("/phone/:phone", handler.FindByPhone)
	}
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	docsGroup := rg.Group("/document")
	baseHandler := handlers.NewBaseHandler()

	// Shared dependencies for documents
	stockService := stock.NewService(register_repo.NewStockRepo())
	postingEngine := posting.NewEngine(stockService, nil).
		WithEvents(posting.Fanout(postgres.NewOutboxPublisher(), cfg.AuditService))
	soldSetService := soldset.NewService(soldset_repo.NewSoldSetRepo())

	// --- SALES ---
	{
		repo := document_repo.NewSaleRepo()
		service := sale.NewService(repo, postingEngine, cfg.Numerator, soldSetService, nil)
		handler := handlers.NewSaleHandler(baseHandler, service)
		RegisterDocumentRoutes(docsGroup.Group("/sales"), handler, "admin", "manager", "cashier")
	}

	// --- DEBTS ---
	{
		repo := document_repo.NewDebtRepo()
		service := debt.NewService(repo, postingEngine, cfg.Numerator, soldSetService, nil)
		handler := handlers.NewDebtHandler(baseHandler, service)

		group := docsGroup.Group("/debts")
		RegisterDocumentRoutes(group, handler, "admin", "manager", "cashier")
		group.POST("/:id/settle", middleware.RequireRole("admin", "manager", "cashier"), handler.Settle)
	}

	// --- THEFT AUDITS ---
	{
		repo := document_repo.NewTheftAuditRepo()
		service := theftaudit.NewService(repo, postingEngine, cfg.Numerator, nil)
		handler := handlers.NewTheftAuditHandler(baseHandler, service)
		RegisterDocumentRoutes(docsGroup.Group("/theft-audits"), handler, "admin", "manager")
	}
}

// registerDraftRoutes registers draft and scan-session endpoints.
func registerDraftRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	stockService := stock.NewService(register_repo.NewStockRepo())
	postingEngine := posting.NewEngine(stockService, nil).
		WithEvents(posting.Fanout(postgres.NewOutboxPublisher(), cfg.AuditService))
	soldSetService := soldset.NewService(soldset_repo.NewSoldSetRepo())

	productService := product.NewService(catalog_repo.NewProductRepo(), cfg.Numerator)

	saleService := sale.NewService(document_repo.NewSaleRepo(), postingEngine, cfg.Numerator, soldSetService, nil)
	debtService := debt.NewService(document_repo.NewDebtRepo(), postingEngine, cfg.Numerator, soldSetService, nil)
	auditService := theftaudit.NewService(document_repo.NewTheftAuditRepo(), postingEngine, cfg.Numerator, nil)

	draftHandler := handlers.NewDraftHandler(
		baseHandler, cfg.DraftManager, cfg.ScanManager,
		saleService, debtService, auditService,
	)

	drafts := rg.Group("/drafts")
	{
		drafts.POST("", draftHandler.Create)
		drafts.GET("", draftHandler.List)
		drafts.GET("/:id", draftHandler.Get)
		drafts.DELETE("/:id", draftHandler.Delete)
		drafts.PUT("/:id/lines/:lineIndex/quantity", draftHandler.SetLineQuantity)
		drafts.POST("/:id/save", draftHandler.Save)
	}

	validator := scan.NewValidator(cfg.DraftManager, productService, soldSetService, cfg.RuleEngine)
	scanHandler := handlers.NewScanHandler(baseHandler, cfg.ScanManager, validator)

	sessions := rg.Group("/scan/sessions")
	{
		sessions.POST("", scanHandler.OpenSession)
		sessions.GET("/:id", scanHandler.GetSession)
		sessions.PUT("/:id/target", scanHandler.Retarget)
		sessions.DELETE("/:id", scanHandler.CloseSession)
		sessions.POST("/:id/camera", scanHandler.CameraScan)
		sessions.POST("/:id/wedge", scanHandler.WedgeKeys)
		sessions.POST("/:id/manual", scanHandler.ManualScan)
	}
}

// registerAuditRoutes registers audit trail endpoints.
func registerAuditRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuditService == nil {
		return
	}

	handler := handlers.NewAuditHandler(handlers.NewBaseHandler(), cfg.AuditService)
	rg.GET("/audit/:entityType/:entityId", middleware.RequireRole("admin", "manager"), handler.GetHistory)
}

// registerRegisterRoutes registers accumulation register endpoints.
func registerRegisterRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	registers := rg.Group("/registers")
	baseHandler := handlers.NewBaseHandler()

	// Stock register
	{
		stockRepo := register_repo.NewStockRepo()
		stockService := stock.NewService(stockRepo)
		stockHandler := handlers.NewStockHandler(baseHandler, stockService, stockRepo)

		stockHandler.RegisterRoutes(registers.Group("/stock"))
	}
}
