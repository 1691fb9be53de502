package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQuery = 200 * time.Millisecond

type queryStartKey struct{ plugin string }

// statementKinds maps each GORM processor to the SQL verb it runs. Row and Raw read it from the statement.
var statementKinds = []struct{ kind, verb string }{
	{"create", "INSERT"},
	{"query", "SELECT"},
	{"update", "UPDATE"},
	{"delete", "DELETE"},
	{"row", ""},
	{"raw", ""},
}

// registerTimed stamps a start time before every statement and calls after once it completes.
// When precede is set, after runs ahead of the callback named precede+kind.
func registerTimed(db *gorm.DB, plugin, precede string, after func(db *gorm.DB, verb string, elapsed time.Duration)) error {
	key := queryStartKey{plugin}
	before := func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tx.Statement.Context = context.WithValue(ctx, key, time.Now())
	}
	done := func(verb string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			var elapsed time.Duration
			if tx.Statement.Context != nil {
				if start, ok := tx.Statement.Context.Value(key).(time.Time); ok {
					elapsed = time.Since(start)
				}
			}
			v := verb
			if v == "" {
				v = sqlVerb(tx.Statement.SQL.String())
			}
			after(tx, v, elapsed)
		}
	}

	cb := db.Callback()
	var errs []error
	for _, k := range statementKinds {
		p := cb.Create()
		switch k.kind {
		case "query":
			p = cb.Query()
		case "update":
			p = cb.Update()
		case "delete":
			p = cb.Delete()
		case "row":
			p = cb.Row()
		case "raw":
			p = cb.Raw()
		}
		gormName := "gorm:" + k.kind
		errs = append(errs, p.Before(gormName).Register(plugin+":before_"+k.kind, before))
		afterCb := p.After(gormName)
		if precede != "" {
			afterCb = afterCb.Before(precede + k.kind)
		}
		errs = append(errs, afterCb.Register(plugin+":after_"+k.kind, done(k.verb)))
	}
	return errors.Join(errs...)
}

func sqlVerb(statement string) string {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return "OTHER"
	}
	switch verb := strings.ToUpper(fields[0]); verb {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return verb
	case "WITH":
		return "SELECT"
	default:
		return "OTHER"
	}
}

// DBTracingConfig configures otelgorm spans.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound values in db.statement. Development only.
	LogFullSQL       bool
	SlowQueryThresh  time.Duration
	DBSystem         string
	WithoutVariables bool
}

// DBTracingPlugin registers otelgorm and marks slow or failed statements on their spans.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates the plugin; nothing is registered until RegisterOtelGorm.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// RegisterOtelGorm installs the tracing callbacks on db. It is a no-op when disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if p.config.WithoutVariables || !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	// annotate must see the span before otelgorm ends it
	if err := registerTimed(db, "otel_timing", "otel:after:", p.annotate); err != nil {
		return err
	}
	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.config.DBSystem),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func (p *DBTracingPlugin) annotate(db *gorm.DB, _ string, elapsed time.Duration) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
	if elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

// DBMetricsConfig configures query and pool instruments.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DefaultDBMetricsConfig returns a 200ms slow threshold and 15s pool sampling.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: defaultSlowQuery,
		PoolStatsInterval:  15 * time.Second,
	}
}

// DBMetrics holds the query counters and the connection pool gauges.
type DBMetrics struct {
	queries  *Counter
	slow     *Counter
	duration *Histogram
	pool     *Gauge
	poolMax  *Gauge
	config   DBMetricsConfig
	logger   *zap.Logger

	mu       sync.Mutex
	sqlDB    *sql.DB
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates the instruments on meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQuery
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}
	m := &DBMetrics{config: cfg, logger: logger, stop: make(chan struct{})}

	var err error
	if m.queries, err = NewCounter(meter, "db_query_total", "Database statements by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.slow, err = NewCounter(meter, "db_slow_query_total", "Database statements slower than the threshold by table", "{query}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.pool, err = NewGauge(meter, "db_pool_connections", "Pool connections by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolMax, err = NewGauge(meter, "db_pool_connections_max", "Pool connection limit", "{connection}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordQuery counts one statement and its latency.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, elapsed time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "OTHER"
	}
	m.queries.Inc(ctx, AttrDBOperation.String(operation))
	m.duration.RecordDuration(ctx, elapsed, AttrDBOperation.String(operation))
	if elapsed > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slow.Inc(ctx, AttrDBTable.String(table))
	}
}

// SetSQLDB sets the pool sampled by StartPoolStatsCollection.
func (m *DBMetrics) SetSQLDB(db *sql.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sqlDB = db
}

// StartPoolStatsCollection samples pool stats until Stop or ctx ends.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	m.mu.Lock()
	db := m.sqlDB
	m.mu.Unlock()
	if db == nil {
		m.logger.Warn("Pool stats collection needs SetSQLDB first")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()
		for {
			m.recordPool(ctx, db.Stats())
			select {
			case <-ticker.C:
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) recordPool(ctx context.Context, stats sql.DBStats) {
	m.poolMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.pool.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.pool.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.pool.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop ends pool collection. It is safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()
	})
}

// DBMetricsPlugin feeds every GORM statement into DBMetrics.
type DBMetricsPlugin struct {
	metrics *DBMetrics
	logger  *zap.Logger
}

// NewDBMetricsPlugin wraps metrics as a gorm.Plugin.
func NewDBMetricsPlugin(metrics *DBMetrics, logger *zap.Logger) *DBMetricsPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBMetricsPlugin{metrics: metrics, logger: logger}
}

// Name implements gorm.Plugin.
func (p *DBMetricsPlugin) Name() string { return "db_metrics" }

// Initialize implements gorm.Plugin.
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	return registerTimed(db, "db_metrics", "", func(tx *gorm.DB, op string, elapsed time.Duration) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		p.metrics.RecordQuery(ctx, op, tx.Statement.Table, elapsed)
	})
}
