package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appinvoicing "github.com/RACCHUS/BookkeepingApp-sub007/internal/application/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/bootstrap"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/auth"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/cache"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/config"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/event"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/logger"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/persistence"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/printing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/scheduler"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/storage"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/telemetry"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/interfaces/http/handler"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.ServiceVersion = version
	obs, err := setupObservability(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	bridged, err := obs.bridgeLogger(cfg, log)
	if err != nil {
		log.Fatal("Failed to bridge logger to OpenTelemetry", zap.Error(err))
	}
	log = bridged
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting invoicing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database with query tracing and metrics
	db, err := bootstrap.OpenDatabase(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	meter := obs.metricsMeter()
	stopDBMetrics := instrumentDatabase(ctx, cfg, db, meter, log)
	defer stopDBMetrics()

	redisClient, err := bootstrap.OpenRedis(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	sequence, err := bootstrap.DocumentSequence(cfg, db.DB, redisClient)
	if err != nil {
		log.Fatal("Failed to configure numbering", zap.Error(err))
	}

	// Event bus: every event is journaled, invoicing metrics subscribe when enabled
	serializer := event.NewEventSerializer()
	event.RegisterInvoicingEvents(serializer)
	eventBus := event.NewInMemoryEventBus(log.Named("events"))
	eventBus.Subscribe(event.NewJournalHandler(serializer, log.Named("journal")))

	var recorder bootstrap.Recorder
	if meter != nil {
		invoicingMetrics, err := telemetry.NewInvoicingMetrics(telemetry.InvoicingMetricsConfig{
			Meter:          meter,
			Logger:         log,
			LedgerProvider: persistence.NewGormLedgerMetrics(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to create invoicing metrics", zap.Error(err))
		}
		invoicingMetrics.StartPeriodicCollection(ctx, time.Minute)
		defer invoicingMetrics.Stop()
		eventBus.Subscribe(appinvoicing.NewMetricsEventHandler(invoicingMetrics))
		recorder = invoicingMetrics
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// PDF rendering and optional archive
	pdf, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.PDF.Timeout,
		RemoteURL:      cfg.PDF.RemoteURL,
		ExecPath:       cfg.PDF.ChromePath,
		NoSandbox:      os.Geteuid() == 0,
		Logger:         log.Named("chromedp"),
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() { _ = pdf.Close() }()
	renderer, err := printing.NewDocumentRenderer(pdf, printing.DocumentOptions{
		Issuer: cfg.App.Name,
		Logger: log.Named("documents"),
	})
	if err != nil {
		log.Fatal("Failed to parse document templates", zap.Error(err))
	}

	var archive appinvoicing.DocumentArchive
	if cfg.Storage.Enabled {
		s3Archive, err := storage.NewS3DocumentArchive(ctx, cfg.Storage,
			storage.WithLogger(log.Named("storage")),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize document storage", zap.Error(err))
		}
		archive = s3Archive
	}

	services := bootstrap.NewServices(bootstrap.Options{
		Config:    cfg,
		DB:        db.DB,
		Logger:    log,
		Sequence:  sequence,
		Publisher: eventBus,
		Recorder:  recorder,
		Renderer:  renderer,
		Archive:   archive,
	})

	// Background recurring processing and status sweep
	if cfg.Scheduler.Enabled {
		stopJobs, err := startScheduler(ctx, cfg, services, meter, log)
		if err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer stopJobs()
	}

	idempotencyOpts := []cache.IdempotencyStoreFactoryOption{cache.WithLogger(log)}
	if redisClient != nil {
		idempotencyOpts = append(idempotencyOpts, cache.WithRedisClient(redisClient))
	}

	engine, err := router.New(router.Dependencies{
		Options: router.Options{
			ServiceName:      cfg.Telemetry.ServiceName,
			HTTP:             cfg.HTTP,
			TracingEnabled:   cfg.Telemetry.Enabled,
			ProfilingEnabled: cfg.Telemetry.ProfilingEnabled,
			AllowUserHeader:  !cfg.IsProduction(),
			Idempotency:      shared.IdempotencyConfig{Enabled: cfg.Idempotency.Enabled, TTL: cfg.Idempotency.TTL},
		},
		Logger:           log,
		JWT:              auth.NewJWTService(cfg.JWT),
		IdempotencyStore: cache.NewIdempotencyStoreFactory(idempotencyOpts...).CreateStore(),
		Meter:            meter,
		Handlers: router.Handlers{
			Quotes:    handler.NewQuoteHandler(services.Quotes, services.Conversions, services.Documents, log),
			Invoices:  handler.NewInvoiceHandler(services.Invoices, services.Documents, log),
			Recurring: handler.NewRecurringHandler(services.Recurring, log),
			System:    handler.NewSystemHandler(cfg.App.Name, version, healthChecks(db, redisClient)),
		},
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not stop cleanly", zap.Error(err))
	}
	if err := obs.shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry did not shut down cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// instrumentDatabase registers the tracing and metrics GORM plugins. The returned func stops pool collection.
func instrumentDatabase(ctx context.Context, cfg *config.Config, db *persistence.Database, meter metric.Meter, log *zap.Logger) func() {
	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:          cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:         "postgresql",
		WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
	}, log)
	if err := tracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing not registered", zap.Error(err))
	}

	if meter == nil {
		return func() {}
	}
	metricsCfg := telemetry.DefaultDBMetricsConfig()
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		metricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	}
	dbMetrics, err := telemetry.NewDBMetrics(meter, metricsCfg, log)
	if err != nil {
		log.Warn("Database metrics disabled", zap.Error(err))
		return func() {}
	}
	if err := db.DB.Use(telemetry.NewDBMetricsPlugin(dbMetrics, log)); err != nil {
		log.Warn("Database metrics plugin not registered", zap.Error(err))
		return func() {}
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		dbMetrics.SetSQLDB(sqlDB)
		dbMetrics.StartPoolStatsCollection(ctx)
	}
	return dbMetrics.Stop
}

// startScheduler runs recurring processing and the status sweep on their configured intervals
func startScheduler(ctx context.Context, cfg *config.Config, services *bootstrap.Services, meter metric.Meter, log *zap.Logger) (func(), error) {
	executor := scheduler.NewInvoicingExecutor(services.Recurring, services.Reconcile, log.Named("jobs"))
	jobs := scheduler.NewScheduler(scheduler.Config{
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		JobTimeout:        cfg.Scheduler.JobTimeout,
	}, executor, log.Named("scheduler"))
	if meter != nil {
		observer, err := scheduler.NewMetricsObserver(meter)
		if err != nil {
			return nil, err
		}
		jobs.SetObserver(observer)
	}
	if err := jobs.Start(ctx); err != nil {
		return nil, err
	}

	trigger := scheduler.NewIntervalTrigger(scheduler.TriggerConfig{
		RecurringInterval: cfg.Scheduler.RecurringInterval,
		ReconcileInterval: cfg.Scheduler.ReconcileInterval,
		RunOnStart:        true,
	}, jobs, log)
	if err := trigger.Start(ctx); err != nil {
		_ = jobs.Stop(context.Background())
		return nil, err
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := trigger.Stop(stopCtx); err != nil {
			log.Warn("Trigger did not stop cleanly", zap.Error(err))
		}
		if err := jobs.Stop(stopCtx); err != nil {
			log.Warn("Scheduler did not stop cleanly", zap.Error(err))
		}
	}, nil
}

// healthChecks returns the readiness probes for the stores the service depends on
func healthChecks(db *persistence.Database, redisClient *redis.Client) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": db.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
