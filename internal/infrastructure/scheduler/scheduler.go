package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobKind identifies the background work a job performs
type JobKind string

const (
	// JobKindRecurring generates invoices for due recurring schedules
	JobKindRecurring JobKind = "RECURRING_INVOICES"
	// JobKindReconcile persists time-driven status changes (expired quotes, overdue invoices)
	JobKindReconcile JobKind = "RECONCILE_STATUSES"
)

// Job is one execution of a background task, evaluated at RunAt
type Job struct {
	ID          uuid.UUID
	Kind        JobKind
	RunAt       time.Time
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

// NewJob creates a pending job
func NewJob(kind JobKind, runAt time.Time, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Kind:       kind,
		RunAt:      runAt,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

func (j *Job) start(now time.Time) {
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

func (j *Job) complete(now time.Time) {
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

func (j *Job) fail(now time.Time, err error) {
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err.Error()
}

// ShouldRetry reports whether a failed job has retries left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// JobExecutor executes jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobObserver is told about every finished job
type JobObserver interface {
	JobFinished(ctx context.Context, job *Job, duration time.Duration)
}

// Config holds scheduler configuration
type Config struct {
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	QueueSize         int
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs: 2,
		JobTimeout:        10 * time.Minute,
		RetryAttempts:     2,
		RetryDelay:        30 * time.Second,
		QueueSize:         16,
	}
}

// Scheduler runs submitted jobs on a bounded worker pool.
// At most one job per kind is queued or running at any time.
type Scheduler struct {
	config   Config
	executor JobExecutor
	observer JobObserver
	logger   *zap.Logger

	jobs     chan *Job
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	inFlight map[JobKind]bool
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg Config, executor JobExecutor, logger *zap.Logger) *Scheduler {
	defaults := DefaultConfig()
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = defaults.MaxConcurrentJobs
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaults.JobTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   cfg,
		executor: executor,
		logger:   logger.Named("scheduler"),
		inFlight: make(map[JobKind]bool),
	}
}

// SetObserver registers an observer for finished jobs
func (s *Scheduler) SetObserver(observer JobObserver) {
	s.observer = observer
}

// Start launches the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.jobs = make(chan *Job, s.config.QueueSize)

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := range s.config.MaxConcurrentJobs {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for workers until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the worker pool is started
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Submit queues a job of kind evaluated at runAt
func (s *Scheduler) Submit(kind JobKind, runAt time.Time) (*Job, error) {
	job := NewJob(kind, runAt, s.config.RetryAttempts)
	if err := s.enqueue(job, false); err != nil {
		return nil, err
	}
	s.logger.Debug("Job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)),
	)
	return job, nil
}

func (s *Scheduler) enqueue(job *Job, retry bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrSchedulerNotRunning
	}
	if !retry && s.inFlight[job.Kind] {
		return ErrJobAlreadyRunning
	}

	select {
	case s.jobs <- job:
		s.inFlight[job.Kind] = true
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) release(kind JobKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, kind)
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)),
	)

	started := time.Now()
	job.start(started)
	log.Info("Processing job", zap.Int("attempt", job.RetryCount+1))

	err := s.execute(ctx, job)
	finished := time.Now()

	if err == nil {
		job.complete(finished)
		s.notify(ctx, job, finished.Sub(started))
		s.release(job.Kind)
		log.Info("Job completed", zap.Duration("duration", finished.Sub(started)))
		return
	}

	job.fail(finished, err)
	s.notify(ctx, job, finished.Sub(started))
	log.Error("Job failed", zap.Error(err))

	if !job.ShouldRetry() || ctx.Err() != nil {
		s.release(job.Kind)
		return
	}
	job.RetryCount++
	job.Status = JobStatusPending
	s.scheduleRetry(ctx, job, log)
}

func (s *Scheduler) notify(ctx context.Context, job *Job, duration time.Duration) {
	if s.observer != nil {
		s.observer.JobFinished(ctx, job, duration)
	}
}

// execute runs the job with the job timeout and converts executor panics into errors
func (s *Scheduler) execute(ctx context.Context, job *Job) (err error) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return s.executor.Execute(jobCtx, job)
}

func (s *Scheduler) scheduleRetry(ctx context.Context, job *Job, log *zap.Logger) {
	log.Info("Job scheduled for retry",
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("delay", s.config.RetryDelay),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(s.config.RetryDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			s.release(job.Kind)
			return
		case <-timer.C:
		}
		if err := s.enqueue(job, true); err != nil {
			s.release(job.Kind)
			log.Warn("Failed to re-queue job for retry", zap.Error(err))
		}
	}()
}
