package telemetry_test

import (
	"context"
	"testing"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestProviders_DisabledAreInert(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{ServiceName: "invoicing"}, log)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.EnableSpanProfiles())
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{ServiceName: "invoicing"}, log)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("invoicing"), "disabled provider still hands out a no-op meter")
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{ServiceName: "invoicing"}, log)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))

	core := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{ServiceName: "invoicing", LoggerProvider: lp, Level: zapcore.InfoLevel})
	assert.False(t, core.Enabled(zapcore.ErrorLevel), "bridge is a nop core while export is off")
	assert.False(t, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{}).Enabled(zapcore.ErrorLevel))
}

func TestTracerProvider_EnabledWithoutCollector(t *testing.T) {
	ctx := context.Background()

	// The gRPC exporter connects lazily, so construction succeeds with nothing listening.
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "127.0.0.1:4317",
		SamplingRatio:     0.5,
		ServiceName:       "invoicing",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())
	require.NoError(t, tp.EnableSpanProfiles())
	require.NoError(t, tp.EnableSpanProfiles(), "second call is a no-op")

	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	_ = tp.Shutdown(shutdownCtx)
}

func TestNewProfiler(t *testing.T) {
	log := zaptest.NewLogger(t)

	t.Run("disabled", func(t *testing.T) {
		p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{ServerAddress: "http://pyroscope:4040"}, log)
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("enabled needs an address and a name", func(t *testing.T) {
		_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ApplicationName: "invoicing"}, log)
		assert.Error(t, err)

		_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, log)
		assert.Error(t, err)
	})
}
