package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig tunes statement logging.
type GormConfig struct {
	Level gormlogger.LogLevel
	// SlowThreshold marks slower statements at WARN; zero disables the check.
	SlowThreshold time.Duration
	// LogNotFound also reports gorm.ErrRecordNotFound, which finders treat as a normal miss.
	LogNotFound bool
	// MaxSQLLength truncates logged statements; zero keeps them whole.
	// Statements carry bound values, so production keeps this small.
	MaxSQLLength int
}

// GormLogger adapts zap to GORM's logger. Statement logs carry the request's correlation fields.
type GormLogger struct {
	logger *zap.Logger
	cfg    GormConfig
}

// NewGormLogger names the logger "gorm" and applies cfg.
func NewGormLogger(zapLogger *zap.Logger, cfg GormConfig) *GormLogger {
	return &GormLogger{logger: zapLogger.Named("gorm"), cfg: cfg}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.cfg.Level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Info {
		For(ctx, l.logger).Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Warn {
		For(ctx, l.logger).Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Error {
		For(ctx, l.logger).Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface and logs executed statements
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	slow := l.cfg.SlowThreshold != 0 && elapsed > l.cfg.SlowThreshold

	switch {
	case err != nil && l.cfg.Level >= gormlogger.Error:
		if !l.cfg.LogNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		For(ctx, l.logger).Error("SQL error", append(l.statementFields(elapsed, fc), zap.Error(err))...)
	case slow && l.cfg.Level >= gormlogger.Warn:
		For(ctx, l.logger).Warn("Slow SQL", append(l.statementFields(elapsed, fc),
			zap.Duration("threshold", l.cfg.SlowThreshold))...)
	case l.cfg.Level >= gormlogger.Info:
		For(ctx, l.logger).Debug("SQL", l.statementFields(elapsed, fc)...)
	}
}

func (l *GormLogger) statementFields(elapsed time.Duration, fc func() (string, int64)) []zap.Field {
	sql, rows := fc()
	if n := l.cfg.MaxSQLLength; n > 0 && len(sql) > n {
		sql = sql[:n] + "..."
	}
	return []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
}

// MapGormLogLevel maps a string log level to a GORM log level
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
