// Package bootstrap assembles the invoicing services from configuration.
// The API server and the operator CLI share it so both run the same wiring.
package bootstrap

import (
	"context"
	"fmt"

	appinvoicing "github.com/RACCHUS/BookkeepingApp-sub007/internal/application/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/cache"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/config"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/logger"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/persistence"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder receives the counters the services report outside of domain events
type Recorder interface {
	appinvoicing.RunRecorder
	appinvoicing.FallbackRecorder
}

// Options are the collaborators NewServices needs
type Options struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
	// Sequence defaults to the database sequence
	Sequence invoicing.DocumentSequence
	// Publisher, Recorder, Renderer and Archive are optional
	Publisher shared.EventPublisher
	Recorder  Recorder
	Renderer  appinvoicing.DocumentRenderer
	Archive   appinvoicing.DocumentArchive
}

// Services are the application services of the engine
type Services struct {
	Numbering   *appinvoicing.NumberingService
	Quotes      *appinvoicing.QuoteService
	Invoices    *appinvoicing.InvoiceService
	Conversions *appinvoicing.ConversionService
	Recurring   *appinvoicing.RecurringService
	Reconcile   *appinvoicing.ReconcileService
	// Documents is nil without a renderer
	Documents *appinvoicing.DocumentService
}

// OpenDatabase connects GORM with the zap backed query logger
func OpenDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormCfg := logger.GormConfig{
		Level:         logger.MapGormLogLevel(cfg.Log.Level),
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}
	if cfg.App.Env == "production" {
		gormCfg.MaxSQLLength = 1024
	}
	gormLog := logger.NewGormLogger(log, gormCfg)
	db, err := persistence.Open(ctx, &cfg.Database, gormLog)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// OpenRedis connects to Redis when it is enabled. A nil client means Redis is off.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// DocumentSequence picks the numbering backend named in configuration
func DocumentSequence(cfg *config.Config, db *gorm.DB, client *redis.Client) (invoicing.DocumentSequence, error) {
	switch cfg.Numbering.Backend {
	case config.NumberingBackendRedis:
		if client == nil {
			return nil, fmt.Errorf("numbering backend %q requires redis.enabled", cfg.Numbering.Backend)
		}
		return cache.NewRedisDocumentSequence(client, ""), nil
	case config.NumberingBackendDatabase, "":
		return persistence.NewGormDocumentSequence(db), nil
	default:
		return nil, fmt.Errorf("unknown numbering backend %q", cfg.Numbering.Backend)
	}
}

// NewServices builds every application service on one database
func NewServices(opts Options) *Services {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	quoteRepo := persistence.NewGormQuoteRepository(opts.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(opts.DB)
	paymentRepo := persistence.NewGormPaymentRepository(opts.DB)
	scheduleRepo := persistence.NewGormRecurringScheduleRepository(opts.DB)
	txScope := persistence.NewGormTransactionScope(opts.DB)

	sequence := opts.Sequence
	if sequence == nil {
		sequence = persistence.NewGormDocumentSequence(opts.DB)
	}

	retrier := appinvoicing.NewRetrier(appinvoicing.RetryConfig{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	}, log.Named("retry"))

	numbering := appinvoicing.NewNumberingService(sequence, appinvoicing.NumberingConfig{
		InvoicePrefix: cfg.Numbering.InvoicePrefix,
		QuotePrefix:   cfg.Numbering.QuotePrefix,
		PadWidth:      cfg.Numbering.PadWidth,
	}, log.Named("numbering"))

	s := &Services{
		Numbering:   numbering,
		Quotes:      appinvoicing.NewQuoteService(quoteRepo, numbering, retrier, log.Named("quotes")),
		Invoices:    appinvoicing.NewInvoiceService(invoiceRepo, paymentRepo, txScope, numbering, retrier, log.Named("invoices")),
		Conversions: appinvoicing.NewConversionService(txScope, numbering, retrier, log.Named("conversion")),
		Recurring: appinvoicing.NewRecurringService(scheduleRepo, txScope, numbering, retrier,
			appinvoicing.RecurringConfig{BatchSize: cfg.Scheduler.BatchSize}, log.Named("recurring")),
		Reconcile: appinvoicing.NewReconcileService(quoteRepo, invoiceRepo, retrier, cfg.Scheduler.BatchSize, log.Named("reconcile")),
	}

	if opts.Renderer != nil {
		s.Documents = appinvoicing.NewDocumentService(quoteRepo, invoiceRepo, paymentRepo,
			opts.Renderer, opts.Archive, log.Named("documents"))
		s.Documents.SetDownloadURLTTL(cfg.Storage.PresignExpiration)
	}

	if opts.Publisher != nil {
		s.Quotes.SetEventPublisher(opts.Publisher)
		s.Invoices.SetEventPublisher(opts.Publisher)
		s.Conversions.SetEventPublisher(opts.Publisher)
		s.Recurring.SetEventPublisher(opts.Publisher)
		s.Reconcile.SetEventPublisher(opts.Publisher)
	}
	if opts.Recorder != nil {
		s.Numbering.SetFallbackRecorder(opts.Recorder)
		s.Recurring.SetRunRecorder(opts.Recorder)
	}
	return s
}
