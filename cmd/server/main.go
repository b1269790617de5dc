package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	settlementapp "github.com/agencyops/backend/internal/application/settlement"
	"github.com/agencyops/backend/internal/domain/currency"
	"github.com/agencyops/backend/internal/infrastructure/auth"
	"github.com/agencyops/backend/internal/infrastructure/cache"
	"github.com/agencyops/backend/internal/infrastructure/config"
	"github.com/agencyops/backend/internal/infrastructure/event"
	"github.com/agencyops/backend/internal/infrastructure/logger"
	"github.com/agencyops/backend/internal/infrastructure/persistence"
	"github.com/agencyops/backend/internal/infrastructure/scheduler"
	"github.com/agencyops/backend/internal/infrastructure/storage"
	"github.com/agencyops/backend/internal/infrastructure/telemetry"
	"github.com/agencyops/backend/internal/interfaces/http/handler"
	"github.com/agencyops/backend/internal/interfaces/http/middleware"
	"github.com/agencyops/backend/internal/interfaces/http/router"
)

//	@title			Agency Settlement API
//	@version		1.0
//	@description	Partner referral settlement, payment confirmation, reconciliation and supplier payouts

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry comes up first so the log bridge can wrap every later logger.
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry)
	if err != nil {
		baseLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log := logProvider.Bridge(baseLog, logger.ParseLevel(cfg.Log.Level))
	defer func() { _ = log.Sync() }()

	log.Info("Starting settlement backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	db, err := persistence.NewDatabase(&cfg.Database, cfg.Log.Level, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing {
		if err := telemetry.InstrumentDB(db.DB, cfg.Database.DBName); err != nil {
			log.Fatal("Failed to instrument database", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Rates
	snapshots, err := cache.NewSnapshotStore(ctx, cfg.Redis, cache.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize rate snapshot store", zap.Error(err))
	}
	upstream, err := cache.NewStaticRateOracle(cfg.Currency.SnapshotRates)
	if err != nil {
		log.Fatal("Invalid snapshot rates", zap.Error(err))
	}
	rateOracle := cache.NewCachingRateOracle(upstream, snapshots, cfg.Currency.CacheTTL)
	var refresher *scheduler.RateRefresher
	if cfg.Currency.RefreshInterval > 0 {
		refresher, err = scheduler.NewRateRefresher(scheduler.RateRefresherConfig{Interval: cfg.Currency.RefreshInterval}, rateOracle, log)
		if err != nil {
			log.Fatal("Invalid rate refresher configuration", zap.Error(err))
		}
		if err := refresher.Start(ctx); err != nil {
			log.Fatal("Failed to start rate refresher", zap.Error(err))
		}
	}
	defaultRates, err := currency.ParseRateTable(cfg.Currency.DefaultRates)
	if err != nil {
		log.Fatal("Invalid default rates", zap.Error(err))
	}

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	metrics, err := telemetry.NewSettlementMetrics(meterProvider.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to register settlement metrics", zap.Error(err))
	}

	opts := []settlementapp.Option{
		settlementapp.WithEventPublisher(eventBus),
		settlementapp.WithRateOracle(rateOracle),
		settlementapp.WithDefaultRates(defaultRates),
		settlementapp.WithMaxRateAge(cfg.Currency.MaxSnapshotAge),
		settlementapp.WithMetrics(metrics),
	}
	if cfg.Storage.Enabled {
		receipts, err := storage.NewS3ReceiptStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize receipt storage", zap.Error(err))
		}
		if err := receipts.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare receipt bucket", zap.Error(err))
		}
		opts = append(opts, settlementapp.WithReceiptStorage(receipts))
		log.Info("Receipt storage enabled", zap.String("bucket", receipts.Bucket()))
	}

	service := settlementapp.NewService(settlementapp.Repositories{
		Transactions: persistence.NewGormTransactionRepository(db.DB),
		Payments:     persistence.NewGormPaymentRepository(db.DB),
		Dispatches:   persistence.NewGormDispatchRepository(db.DB),
		Payouts:      persistence.NewGormPayoutRepository(db.DB),
		Rates:        persistence.NewGormRateRepository(db.DB),
	}, opts...)

	middleware.SetupValidator()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(
		logger.Recovery(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		}),
		logger.GinMiddleware(log),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(meterProvider.Meter(telemetry.TracerName)),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.DefaultCORSConfig(cfg.HTTP.CORSAllowOrigins)),
		middleware.BodyLimit(cfg.HTTP.MaxBodyBytes),
		middleware.Timeout(cfg.HTTP.WriteTimeout),
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)
	systemHandler.RegisterProbes(engine)

	r := router.NewRouter(engine,
		router.WithMiddleware(
			middleware.JWTAuthMiddleware(auth.NewTokenVerifier(cfg.JWT)),
			middleware.TracingAttributeInjector(),
		),
	)
	r.Register(handler.NewTransactionHandler(service)).
		Register(handler.NewPaymentHandler(service)).
		Register(handler.NewReconciliationHandler(service)).
		Register(handler.NewDispatchHandler(service)).
		Register(systemHandler)
	r.Setup()
	log.Debug("API routes mounted", zap.Strings("routes", r.Routes()))

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	if refresher != nil {
		if err := refresher.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping rate refresher", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := snapshots.Close(); err != nil {
		log.Error("Error closing rate snapshot store", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing traces", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Error("Error flushing logs", zap.Error(err))
	}
}
