package telemetry

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig configures continuous profiling against a Pyroscope server.
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string

	ProfileCPU          bool
	ProfileAllocObjects bool
	ProfileAllocSpace   bool
	ProfileInuseObjects bool
	ProfileInuseSpace   bool
	ProfileGoroutines   bool
}

func (c ProfilerConfig) profileTypes() []pyroscope.ProfileType {
	flags := []struct {
		on  bool
		typ pyroscope.ProfileType
	}{
		{c.ProfileCPU, pyroscope.ProfileCPU},
		{c.ProfileAllocObjects, pyroscope.ProfileAllocObjects},
		{c.ProfileAllocSpace, pyroscope.ProfileAllocSpace},
		{c.ProfileInuseObjects, pyroscope.ProfileInuseObjects},
		{c.ProfileInuseSpace, pyroscope.ProfileInuseSpace},
		{c.ProfileGoroutines, pyroscope.ProfileGoroutines},
	}
	var types []pyroscope.ProfileType
	for _, f := range flags {
		if f.on {
			types = append(types, f.typ)
		}
	}
	return types
}

// Profiler owns the Pyroscope session.
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	stopOnce sync.Once
	stopErr  error
}

// NewProfiler starts profiling, or returns an inert profiler when disabled.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	if cfg.ServerAddress == "" || cfg.ApplicationName == "" {
		return nil, errors.New("profiling needs a server address and an application name")
	}

	types := cfg.profileTypes()
	if len(types) == 0 {
		logger.Warn("Profiling enabled with no profile types")
	}
	tags := map[string]string{}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            logger.Named("pyroscope").Sugar(),
		Tags:              tags,
		ProfileTypes:      types,
	})
	if err != nil {
		return nil, fmt.Errorf("start profiler: %w", err)
	}
	p.profiler = profiler

	logger.Info("Continuous profiling enabled",
		zap.String("server_address", cfg.ServerAddress),
		zap.Int("profile_types", len(types)),
	)
	return p, nil
}

// Stop flushes and ends the session. Later calls return the first result.
func (p *Profiler) Stop() error {
	p.stopOnce.Do(func() {
		if p.profiler == nil {
			return
		}
		if err := p.profiler.Stop(); err != nil {
			p.stopErr = fmt.Errorf("stop profiler: %w", err)
			p.logger.Error("Profiler stop failed", zap.Error(err))
		}
	})
	return p.stopErr
}

// IsEnabled reports whether profiles are being pushed.
func (p *Profiler) IsEnabled() bool {
	return p.profiler != nil
}
