package scheduler

import (
	"context"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsObserver records job durations and outcomes
type MetricsObserver struct {
	duration *telemetry.Histogram
	runs     *telemetry.Counter
}

// NewMetricsObserver creates job metrics on meter
func NewMetricsObserver(meter metric.Meter) (*MetricsObserver, error) {
	duration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "scheduler_job_duration_seconds",
		Description: "Duration of background job executions",
		Unit:        "s",
		Boundaries:  []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	})
	if err != nil {
		return nil, err
	}
	runs, err := telemetry.NewCounter(meter, "scheduler_job_runs_total", "Background job executions by outcome", "{run}")
	if err != nil {
		return nil, err
	}
	return &MetricsObserver{duration: duration, runs: runs}, nil
}

// JobFinished records one finished attempt
func (o *MetricsObserver) JobFinished(ctx context.Context, job *Job, d time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("kind", string(job.Kind)),
		attribute.String("status", string(job.Status)),
	}
	o.duration.RecordDuration(ctx, d, attrs...)
	o.runs.Inc(ctx, attrs...)
}
