package queue

import (
	"fmt"
	"time"

	"skeenode/pkg/models"
)

type workerConfig struct {
	maxConcurrent int // 0 means unbounded
	retry         *models.RetryConfigOverride
	duplicates    models.DuplicatePolicy
	err           error
}

// WorkerOption configures a worker type at registration.
type WorkerOption func(*workerConfig)

// MaxConcurrent bounds how many jobs of this worker may run at once.
// Workers without this option run unbounded.
func MaxConcurrent(n int) WorkerOption {
	return func(c *workerConfig) {
		if n < 1 {
			c.err = fmt.Errorf("max_concurrent must be positive, got %d", n)
			return
		}
		c.maxConcurrent = n
	}
}

// Retry overrides the global retry policy for every job of this
// worker.
func Retry(o *models.RetryConfigOverride) WorkerOption {
	return func(c *workerConfig) { c.retry = o }
}

// DropDuplicates suppresses a submission that is structurally equal to
// one already pending, delayed, or running for this worker.
func DropDuplicates() WorkerOption {
	return func(c *workerConfig) { c.duplicates = models.DropDuplicates }
}

type enqueueConfig struct {
	retry *models.RetryConfigOverride
	delay time.Duration
	err   error
}

// EnqueueOption configures a single submission.
type EnqueueOption func(*enqueueConfig)

// WithRetry overrides the merged global/worker retry policy for this
// job alone.
func WithRetry(o *models.RetryConfigOverride) EnqueueOption {
	return func(c *enqueueConfig) { c.retry = o }
}

// WithDelay holds the job back for d before it is first offered for
// admission.
func WithDelay(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		if d < 0 {
			c.err = fmt.Errorf("delay_for must be non-negative, got %s", d)
			return
		}
		c.delay = d
	}
}
