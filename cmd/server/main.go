package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appintegration "github.com/furlanettoeduardo/ERP-PRS-sub000/internal/application/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/auth"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/cache"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/config"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/credentials"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/logger"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/marketplace"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/persistence"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/queue"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/telemetry"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/interfaces/http/handler"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/interfaces/http/middleware"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/furlanettoeduardo/ERP-PRS-sub000/docs"
)

//	@title			Marketplace Sync API
//	@version		1.0
//	@description	Marketplace synchronization backend: canonical catalog mapping, async sync jobs, reconciliation.
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/furlanettoeduardo/ERP-PRS-sub000
//	@contact.email	support@sync.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Marketplace Sync Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize tracing when enabled
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Metrics share the collector endpoint with tracing
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("marketplace-sync"), log)
	if err != nil {
		log.Fatal("Failed to initialize sync metrics", zap.Error(err))
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			SlowQueryThresh: 200 * time.Millisecond,
			DBSystem:        "postgresql",
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Queue transport: Redis when configured, in-memory for single-node development
	var transport queue.Transport
	var tokenBlacklist auth.TokenBlacklist
	var webhookDeduper cache.IdempotencyStore
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cancel()
		transport = queue.NewRedisTransport(redisClient)
		tokenBlacklist = auth.NewRedisTokenBlacklistWithClient(redisClient)
		webhookDeduper = cache.NewRedisIdempotencyStoreWithClient(redisClient, "")
		log.Info("Redis queue transport enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		transport = queue.NewMemoryTransport()
		memDeduper := cache.NewInMemoryIdempotencyStore()
		webhookDeduper = memDeduper
		// The Redis variant shares the transport's client; only the
		// in-memory store owns resources of its own.
		defer func() {
			if err := memDeduper.Close(); err != nil {
				log.Error("Error closing webhook dedup store", zap.Error(err))
			}
		}()
		log.Warn("Redis not configured, using in-memory queue transport")
	}
	defer func() {
		if err := transport.Close(); err != nil {
			log.Error("Error closing queue transport", zap.Error(err))
		}
	}()

	// Credential storage with envelope encryption
	encryptor, err := credentials.NewEncryptor(cfg.Credentials.EncryptionSecret)
	if err != nil {
		log.Fatal("Failed to initialize credential encryptor", zap.Error(err))
	}
	credStore := credentials.NewGormCredentialStore(db.DB, encryptor)

	// Marketplace adapters
	meliCfg := marketplace.NewMeliConfig()
	applyEndpointOverrides(&cfg.Marketplaces.Meli, &meliCfg.APIBaseURL, &meliCfg.AuthBaseURL, &meliCfg.TimeoutSeconds, &meliCfg.RequestsPerSecond, &meliCfg.Burst)
	meliAdapter, err := marketplace.NewMeliAdapter(meliCfg)
	if err != nil {
		log.Fatal("Failed to initialize Mercado Livre adapter", zap.Error(err))
	}
	meliAdapter.SetCredentialStore(credStore)

	shopeeCfg := marketplace.NewShopeeConfig()
	applyEndpointOverrides(&cfg.Marketplaces.Shopee, &shopeeCfg.APIBaseURL, nil, &shopeeCfg.TimeoutSeconds, &shopeeCfg.RequestsPerSecond, &shopeeCfg.Burst)
	shopeeAdapter, err := marketplace.NewShopeeAdapter(shopeeCfg)
	if err != nil {
		log.Fatal("Failed to initialize Shopee adapter", zap.Error(err))
	}

	wooCfg := marketplace.NewWooConfig()
	applyEndpointOverrides(&cfg.Marketplaces.Woo, nil, nil, &wooCfg.TimeoutSeconds, &wooCfg.RequestsPerSecond, &wooCfg.Burst)
	wooAdapter, err := marketplace.NewWooAdapter(wooCfg)
	if err != nil {
		log.Fatal("Failed to initialize WooCommerce adapter", zap.Error(err))
	}

	amazonCfg := marketplace.NewAmazonConfig()
	applyEndpointOverrides(&cfg.Marketplaces.Amazon, &amazonCfg.APIBaseURL, &amazonCfg.AuthURL, &amazonCfg.TimeoutSeconds, &amazonCfg.RequestsPerSecond, &amazonCfg.Burst)
	amazonAdapter, err := marketplace.NewAmazonAdapter(amazonCfg)
	if err != nil {
		log.Fatal("Failed to initialize Amazon adapter", zap.Error(err))
	}

	registry := marketplace.NewRegistry(meliAdapter, shopeeAdapter, wooAdapter, amazonAdapter)

	// Initialize repositories
	jobRepo := persistence.NewGormSyncJobRepository(db.DB)
	logRepo := persistence.NewGormSyncLogRepository(db.DB)
	mappingRepo := persistence.NewGormProductMappingRepository(db.DB)
	categoryMappingRepo := persistence.NewGormCategoryMappingRepository(db.DB)
	priceRuleRepo := persistence.NewGormPriceRuleRepository(db.DB)
	conflictRepo := persistence.NewGormSyncConflictRepository(db.DB)
	customerRepo := persistence.NewGormMarketplaceCustomerRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)

	// Initialize application services
	priceEngine := appintegration.NewPriceEngine(mappingRepo, priceRuleRepo)
	producer := queue.NewProducer(transport, log)
	jobService := appintegration.NewJobService(jobRepo, logRepo, registry, producer, log)
	mappingService := appintegration.NewMappingService(mappingRepo, categoryMappingRepo, priceRuleRepo, productRepo, priceEngine)
	reconciliationService := appintegration.NewReconciliationService(registry, credStore, productRepo, mappingRepo, conflictRepo, log)
	accountService := appintegration.NewAccountService(credStore, registry, log)

	// Job processors and worker pool
	processorBase := appintegration.NewProcessorBase(registry, credStore, jobRepo, logRepo, log)
	processors := []appintegration.Processor{
		appintegration.NewImportProcessor(processorBase, productRepo, mappingRepo),
		appintegration.NewExportProcessor(processorBase, productRepo, mappingRepo, categoryMappingRepo, priceEngine),
		appintegration.NewStockProcessor(processorBase, productRepo, mappingRepo),
		appintegration.NewPriceProcessor(processorBase, productRepo, mappingRepo, priceEngine),
		appintegration.NewCustomerProcessor(processorBase, customerRepo),
		appintegration.NewReconcileProcessor(processorBase, reconciliationService),
	}
	runner := appintegration.NewRunner(jobRepo, processors, log)

	workerPool := queue.NewWorkerPool(queue.PoolConfig{
		WorkersPerQueue: cfg.Sync.WorkersPerQueue,
		JobTimeout:      cfg.Sync.JobTimeout,
		PopTimeout:      cfg.Sync.PopTimeout,
	}, transport, runner, log)
	workerPool.SetMetrics(syncMetrics)
	if err := workerPool.Start(context.Background()); err != nil {
		log.Fatal("Failed to start worker pool", zap.Error(err))
	}
	log.Info("Worker pool started",
		zap.Int("workers_per_queue", cfg.Sync.WorkersPerQueue),
		zap.Duration("job_timeout", cfg.Sync.JobTimeout),
	)

	// JWT service for token validation and rotation
	jwtService := auth.NewJWTService(cfg.JWT)

	// Webhook verification secrets per marketplace
	webhookSecrets := map[integration.MarketplaceCode]string{
		integration.MarketplaceMercadoLivre: cfg.Marketplaces.Meli.WebhookSecret,
		integration.MarketplaceShopee:       cfg.Marketplaces.Shopee.WebhookSecret,
		integration.MarketplaceWooCommerce:  cfg.Marketplaces.Woo.WebhookSecret,
		integration.MarketplaceAmazon:       cfg.Marketplaces.Amazon.WebhookSecret,
	}

	// Initialize handlers
	syncJobHandler := handler.NewSyncJobHandler(jobService)
	mappingHandler := handler.NewMappingHandler(mappingService)
	priceRuleHandler := handler.NewPriceRuleHandler(mappingService)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService)
	accountHandler := handler.NewAccountHandler(accountService, registry)
	webhookHandler := handler.NewWebhookHandler(accountService, jobService, webhookSecrets, webhookDeduper, log)
	authHandler := handler.NewAuthHandler(jwtService, tokenBlacklist)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans (if enabled)
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
	}
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger UI, served from the generated docs package
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Inbound marketplace webhook deliveries (no authentication; identity
	// travels in the URL, authenticity in the platform signature header)
	webhookGroup := engine.Group("/api/v1/webhooks")
	webhookGroup.POST("/:code/:tenantId/:accountId", webhookHandler.Receive)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	// Configure skip paths for public endpoints
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/auth/refresh",
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Resolve tenant from JWT claims after authentication
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths,
		"/api/v1/auth/refresh",
		"/api/v1/ping",
		"/api/v1/system/ping",
		"/api/v1/system/info",
	)
	tenantConfig.Logger = log
	r.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	// Register domain route groups

	// Sync jobs domain
	syncRoutes := router.NewDomainGroup("sync", "/sync")
	syncRoutes.POST("/jobs", syncJobHandler.Enqueue)
	syncRoutes.GET("/jobs", syncJobHandler.List)
	syncRoutes.GET("/jobs/:id", syncJobHandler.Get)
	syncRoutes.GET("/jobs/:id/logs", syncJobHandler.Logs)
	syncRoutes.POST("/jobs/:id/cancel", syncJobHandler.Cancel)
	syncRoutes.POST("/jobs/:id/retry", syncJobHandler.Retry)
	r.Register(syncRoutes)

	// Product and category mapping domain
	mappingRoutes := router.NewDomainGroup("mappings", "/mappings")
	mappingRoutes.PUT("", mappingHandler.Upsert)
	mappingRoutes.GET("", mappingHandler.List)
	mappingRoutes.GET("/unmapped", mappingHandler.Unmapped)
	mappingRoutes.GET("/stats", mappingHandler.Stats)
	mappingRoutes.PUT("/categories", mappingHandler.UpsertCategory)
	mappingRoutes.GET("/categories", mappingHandler.ListCategories)
	mappingRoutes.DELETE("/categories/:id", mappingHandler.DeleteCategory)
	mappingRoutes.GET("/:id", mappingHandler.Get)
	mappingRoutes.DELETE("/:id", mappingHandler.Delete)
	r.Register(mappingRoutes)

	// Price rules domain
	priceRuleRoutes := router.NewDomainGroup("price-rules", "/price-rules")
	priceRuleRoutes.POST("", priceRuleHandler.Create)
	priceRuleRoutes.GET("", priceRuleHandler.List)
	priceRuleRoutes.POST("/preview", priceRuleHandler.Preview)
	priceRuleRoutes.GET("/:id", priceRuleHandler.Get)
	priceRuleRoutes.PUT("/:id", priceRuleHandler.Update)
	priceRuleRoutes.DELETE("/:id", priceRuleHandler.Delete)
	r.Register(priceRuleRoutes)

	// Reconciliation domain
	reconcileRoutes := router.NewDomainGroup("reconcile", "/reconcile")
	reconcileRoutes.POST("", reconciliationHandler.Reconcile)
	reconcileRoutes.GET("/conflicts", reconciliationHandler.Conflicts)
	reconcileRoutes.POST("/conflicts/:id/resolve", reconciliationHandler.Resolve)
	r.Register(reconcileRoutes)

	// Marketplace accounts domain
	marketplaceRoutes := router.NewDomainGroup("marketplaces", "/marketplaces")
	marketplaceRoutes.GET("", accountHandler.ListMarketplaces)
	marketplaceRoutes.PUT("/:code/accounts/:accountId/credentials", accountHandler.Connect)
	marketplaceRoutes.POST("/:code/accounts/:accountId/credentials/validate", accountHandler.Validate)
	marketplaceRoutes.DELETE("/:code/accounts/:accountId/credentials", accountHandler.Disconnect)
	marketplaceRoutes.POST("/:code/accounts/:accountId/webhooks", accountHandler.RegisterWebhook)
	marketplaceRoutes.DELETE("/:code/accounts/:accountId/webhooks/:webhookId", accountHandler.RemoveWebhook)
	r.Register(marketplaceRoutes)

	// Auth routes (token refresh and revocation)
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	authRoutes.POST("/logout", authHandler.Logout)
	r.Register(authRoutes)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Drain in-flight sync jobs before exiting
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.Sync.ShutdownTimeout)
	defer drainCancel()
	if err := workerPool.Stop(drainCtx); err != nil {
		log.Error("Worker pool did not drain cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// applyEndpointOverrides copies configured endpoint settings onto an adapter
// config, leaving adapter defaults in place for unset values. Nil targets mark
// settings the adapter does not have.
func applyEndpointOverrides(src *config.MarketplaceEndpointConfig, apiBaseURL, authBaseURL *string, timeoutSeconds *int, requestsPerSecond *float64, burst *int) {
	if apiBaseURL != nil && src.APIBaseURL != "" {
		*apiBaseURL = src.APIBaseURL
	}
	if authBaseURL != nil && src.AuthBaseURL != "" {
		*authBaseURL = src.AuthBaseURL
	}
	if src.TimeoutSeconds > 0 {
		*timeoutSeconds = src.TimeoutSeconds
	}
	if src.RequestsPerSecond > 0 {
		*requestsPerSecond = src.RequestsPerSecond
	}
	if src.Burst > 0 {
		*burst = src.Burst
	}
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
