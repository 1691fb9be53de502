package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TriggerConfig sets how often each job kind is submitted. A zero interval disables that kind.
type TriggerConfig struct {
	RecurringInterval time.Duration
	ReconcileInterval time.Duration
	// RunOnStart submits every enabled kind once when the trigger starts
	RunOnStart bool
}

// IntervalTrigger submits jobs to the scheduler on fixed intervals
type IntervalTrigger struct {
	config    TriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewIntervalTrigger creates a new trigger
func NewIntervalTrigger(cfg TriggerConfig, scheduler *Scheduler, logger *zap.Logger) *IntervalTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntervalTrigger{
		config:    cfg,
		scheduler: scheduler,
		logger:    logger.Named("trigger"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start launches one ticker loop per enabled job kind
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return nil
	}
	t.running = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	for kind, interval := range t.intervals() {
		if interval <= 0 {
			continue
		}
		t.wg.Add(1)
		go t.loop(ctx, kind, interval)
	}

	t.logger.Info("Interval trigger started",
		zap.Duration("recurring_interval", t.config.RecurringInterval),
		zap.Duration("reconcile_interval", t.config.ReconcileInterval),
	)
	return nil
}

// Stop stops the ticker loops
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	t.cancel()
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Interval trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerNow submits a job of kind immediately
func (t *IntervalTrigger) TriggerNow(kind JobKind) (*Job, error) {
	return t.scheduler.Submit(kind, t.now())
}

func (t *IntervalTrigger) intervals() map[JobKind]time.Duration {
	return map[JobKind]time.Duration{
		JobKindRecurring: t.config.RecurringInterval,
		JobKindReconcile: t.config.ReconcileInterval,
	}
}

func (t *IntervalTrigger) loop(ctx context.Context, kind JobKind, interval time.Duration) {
	defer t.wg.Done()

	if t.config.RunOnStart {
		t.fire(kind)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.fire(kind)
		}
	}
}

func (t *IntervalTrigger) fire(kind JobKind) {
	_, err := t.TriggerNow(kind)
	switch {
	case err == nil:
	case errors.Is(err, ErrJobAlreadyRunning):
		t.logger.Debug("Previous job still in progress, skipping tick", zap.String("kind", string(kind)))
	default:
		t.logger.Warn("Failed to submit job", zap.String("kind", string(kind)), zap.Error(err))
	}
}
