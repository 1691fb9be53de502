package main

import (
	"context"
	"errors"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/config"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/logger"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const meterName = "invoicing"

// observability bundles the OpenTelemetry providers and the profiler
type observability struct {
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

func setupObservability(ctx context.Context, cfg *config.Config, log *zap.Logger) (*observability, error) {
	tc := cfg.Telemetry
	o := &observability{}

	var err error
	o.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	o.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsExportInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, errors.Join(err, o.shutdown(ctx))
	}

	o.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, errors.Join(err, o.shutdown(ctx))
	}

	o.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             tc.ProfilingEnabled,
		ServerAddress:       tc.ProfilingServerAddress,
		ApplicationName:     tc.ServiceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		return nil, errors.Join(err, o.shutdown(ctx))
	}
	if tc.ProfilingEnabled {
		if err := o.tracer.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}
	return o, nil
}

// bridgeLogger returns a logger that also exports to the collector when log export is enabled
func (o *observability) bridgeLogger(cfg *config.Config, base *zap.Logger) (*zap.Logger, error) {
	if o.logs == nil || !o.logs.IsEnabled() {
		return base, nil
	}
	return logger.New(logger.FromAppConfig(cfg.Log), telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		LoggerProvider: o.logs,
		Level:          logger.ParseLevel(cfg.Log.Level),
	}))
}

// metricsMeter returns the meter for business and HTTP metrics, or nil when metrics are off
func (o *observability) metricsMeter() metric.Meter {
	if o.meter == nil || !o.meter.IsEnabled() {
		return nil
	}
	return o.meter.Meter(meterName)
}

func (o *observability) shutdown(ctx context.Context) error {
	var errs []error
	if o.profiler != nil {
		errs = append(errs, o.profiler.Stop())
	}
	if o.logs != nil {
		errs = append(errs, o.logs.Shutdown(ctx))
	}
	if o.meter != nil {
		errs = append(errs, o.meter.Shutdown(ctx))
	}
	if o.tracer != nil {
		errs = append(errs, o.tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
