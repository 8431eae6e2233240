package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/dinarbooks/backend/docs"
	backupapp "github.com/dinarbooks/backend/internal/application/backup"
	currencyapp "github.com/dinarbooks/backend/internal/application/currency"
	"github.com/dinarbooks/backend/internal/application/event"
	inventoryapp "github.com/dinarbooks/backend/internal/application/inventory"
	partnerapp "github.com/dinarbooks/backend/internal/application/partner"
	reportapp "github.com/dinarbooks/backend/internal/application/report"
	tradeapp "github.com/dinarbooks/backend/internal/application/trade"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/dinarbooks/backend/internal/infrastructure/auth"
	"github.com/dinarbooks/backend/internal/infrastructure/cache"
	"github.com/dinarbooks/backend/internal/infrastructure/config"
	"github.com/dinarbooks/backend/internal/infrastructure/logger"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence"
	"github.com/dinarbooks/backend/internal/infrastructure/scheduler"
	"github.com/dinarbooks/backend/internal/infrastructure/storage"
	"github.com/dinarbooks/backend/internal/infrastructure/telemetry"
	"github.com/dinarbooks/backend/internal/interfaces/http/handler"
	"github.com/dinarbooks/backend/internal/interfaces/http/middleware"
	"github.com/dinarbooks/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Dinarbooks API
//	@version		1.0
//	@description	Dual-currency (IQD/USD) ledger, trade documents and inventory

//	@host		localhost:8080
//	@BasePath	/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFrom(cfg.Telemetry)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, zapcore.WarnLevel)

	log.Info("Starting dinarbooks backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL && level == zapcore.DebugLevel),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		dbTracing.SlowQueryThresh = cfg.Database.SlowThreshold
		dbTracing.DBName = cfg.Database.DBName
		if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Domain events fan out after commit; metrics are the only subscriber today
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter("dinarbooks/ledger"))
	if err != nil {
		log.Fatal("Failed to register ledger metrics", zap.Error(err))
	}
	events := event.NewDispatcher(log, ledgerMetrics)

	creditPolicy, err := partner.ParseCreditLimitPolicy(cfg.Ledger.CreditLimitPolicy)
	if err != nil {
		log.Fatal("Invalid credit limit policy", zap.Error(err))
	}

	repos := persistence.NewRepositories(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)
	rateRepo := persistence.NewGormExchangeRateRepository(db.DB)

	rateService := currencyapp.NewService(rateRepo, log)
	productService := inventoryapp.NewProductService(repos.Products(), repos.StockMovements(), txScope, events, log).
		WithLowStockThreshold(cfg.Ledger.LowStockThreshold)
	partyService := partnerapp.NewPartyService(repos.Parties(), repos.LedgerEntries(), repos.Documents(), txScope, events, log).
		WithHistoryBatchSize(cfg.Ledger.HistoryBatchSize)
	paymentService := partnerapp.NewPaymentService(repos.Payments(), txScope, events, log)
	documentService := tradeapp.NewDocumentService(repos.Documents(), repos.Returns(), txScope, events, log).
		WithCreditLimitPolicy(creditPolicy).
		WithNumberPrefixes(map[trade.NumberSeries]string{
			trade.SeriesSale:     cfg.Ledger.InvoicePrefixSale,
			trade.SeriesPurchase: cfg.Ledger.InvoicePrefixPurchase,
			trade.SeriesReturn:   cfg.Ledger.InvoicePrefixReturn,
		})
	reportService := reportapp.NewService(persistence.NewGormReportRepository(db.DB), rateRepo, log).
		WithLowStockThreshold(cfg.Ledger.LowStockThreshold)

	archives, err := newBackupStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize backup storage", zap.Error(err))
	}
	backupService := backupapp.NewService(persistence.NewGormSnapshotter(db.DB), archives, cfg.Database.DBName, log)

	var backupTrigger *scheduler.BackupTrigger
	if cfg.Backup.ScheduleEnabled {
		backupTrigger, err = scheduler.NewBackupTrigger(scheduler.BackupTriggerConfig{
			Jobs:          scheduler.BackupJobsFromConfig(cfg.Backup),
			CheckInterval: cfg.Backup.CheckInterval,
		}, backupService, log)
		if err != nil {
			log.Fatal("Invalid backup schedule", zap.Error(err))
		}
		if err := backupTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start backup scheduler", zap.Error(err))
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics := telemetry.NewHTTPMetrics()

	// Global middleware, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	if tracerProvider.IsEnabled() {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(logger.GinMiddleware(log))
	if cfg.Metrics.Enabled {
		engine.Use(middleware.Metrics(httpMetrics))
	}
	engine.Use(middleware.Secure(middleware.SecureOptions(cfg.IsProduction()), log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		go sweepRateLimiter(rateLimiter, cfg.HTTP.RateLimitWindow)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	system := handler.NewSystemHandler(cfg.App.Name, version, db)
	engine.GET("/health", system.Health)
	if cfg.Metrics.Enabled {
		engine.GET(cfg.Metrics.Path, gin.WrapH(httpMetrics.Handler()))
	}

	// API-only middleware: authentication runs before idempotency so keys are
	// scoped to the caller
	var apiMiddleware []gin.HandlerFunc
	var jwtAuth gin.HandlerFunc
	if cfg.Auth.Enabled {
		jwtAuth = middleware.JWTAuth(middleware.JWTMiddlewareConfig{
			Verifier: auth.NewTokenService(cfg.Auth),
			Logger:   log,
		})
		apiMiddleware = append(apiMiddleware, jwtAuth)
		log.Info("Bearer token authentication enabled", zap.String("issuer", cfg.Auth.Issuer))
	}

	swaggerGuard, err := middleware.SwaggerProtection(middleware.SwaggerConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
	}, jwtAuth)
	if err != nil {
		log.Fatal("Invalid swagger configuration", zap.Error(err))
	}
	engine.GET("/swagger/*any", swaggerGuard, ginSwagger.WrapHandler(swaggerFiles.Handler))
	if cfg.Idempotency.Enabled {
		store, err := cache.NewIdempotencyStore(ctx, cfg, log)
		if err != nil {
			log.Fatal("Failed to initialize idempotency store", zap.Error(err))
		}
		defer func() { _ = store.Close() }()
		apiMiddleware = append(apiMiddleware, middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  store,
			TTL:    cfg.Idempotency.TTL,
			Logger: log,
		}))
	}

	r := router.NewRouter(engine, router.WithMiddleware(apiMiddleware...))
	router.RegisterAPI(r, router.Handlers{
		ExchangeRates:    handler.NewExchangeRateHandler(rateService),
		Customers:        handler.NewCustomerHandler(partyService, documentService),
		Suppliers:        handler.NewSupplierHandler(partyService, documentService),
		Products:         handler.NewProductHandler(productService),
		Sales:            handler.NewSalesHandler(documentService),
		Purchases:        handler.NewPurchasesHandler(documentService),
		CustomerPayments: handler.NewCustomerPaymentHandler(paymentService),
		SupplierPayments: handler.NewSupplierPaymentHandler(paymentService),
		Reports:          handler.NewReportHandler(reportService),
		Backups:          handler.NewBackupHandler(backupService),
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if backupTrigger != nil {
		if err := backupTrigger.Stop(shutdownCtx); err != nil {
			log.Warn("Backup scheduler did not stop cleanly", zap.Error(err))
		}
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logger": loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

func sweepRateLimiter(rl *middleware.RateLimiter, window time.Duration) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for range ticker.C {
		rl.Sweep()
	}
}

func newBackupStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (backupapp.ObjectStore, error) {
	if cfg.Backup.Store != "s3" {
		log.Info("Backups stored on local disk", zap.String("dir", cfg.Backup.Dir))
		return storage.NewOSFileStore(cfg.Backup.Dir)
	}
	store, err := storage.NewS3Store(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Backups stored in bucket", zap.String("bucket", store.Bucket()))
	return store, nil
}
