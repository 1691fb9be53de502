package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when submitting to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobAlreadyRunning is returned when a job of the same kind is queued or running
	ErrJobAlreadyRunning = errors.New("job of this kind is already in progress")

	// ErrUnknownJobKind is returned for job kinds without an executor
	ErrUnknownJobKind = errors.New("unknown job kind")
)
