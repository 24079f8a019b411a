// Package coordinator drives one submitted job from admission through
// to a terminal event, retrying on failure according to its resolved
// RetryConfig. Each submission owns its own attempt counter in its own
// goroutine; there is no shared retry bookkeeping anywhere in this
// package.
package coordinator

import (
	"context"
	"time"

	"skeenode/pkg/eventbus"
	"skeenode/pkg/executor"
	"skeenode/pkg/logger"
	"skeenode/pkg/metrics"
	"skeenode/pkg/models"
	"skeenode/pkg/retrypolicy"

	"go.uber.org/zap"
)

// admitter is the subset of *scheduler.Scheduler a Coordinator needs;
// narrowed to an interface so it can be faked in tests without a real
// actor goroutine.
type admitter interface {
	RequestRun(ctx context.Context, job models.Job, wt models.WorkerType, delay time.Duration) (bool, error)
	ConfirmDone(job models.Job, worker string)
}

// Coordinator submits jobs and drives their lifecycle to completion.
type Coordinator struct {
	sched admitter
	bus   *eventbus.Bus
}

// New returns a Coordinator wired to sched and bus.
func New(sched admitter, bus *eventbus.Bus) *Coordinator {
	return &Coordinator{sched: sched, bus: bus}
}

// Submit spawns one goroutine that drives job to a terminal event:
// dropped (duplicate), finished (success), or failed (retries
// exhausted). It does not block the caller.
func (c *Coordinator) Submit(ctx context.Context, job models.Job, wt models.WorkerType, cfg models.RetryConfig, delay time.Duration) {
	go c.drive(ctx, job, wt, cfg, delay)
}

func (c *Coordinator) drive(ctx context.Context, job models.Job, wt models.WorkerType, cfg models.RetryConfig, delay time.Duration) {
	attempt := 1
	nextDelay := delay
	if nextDelay <= 0 && job.DelayUntil != nil {
		nextDelay = time.Until(*job.DelayUntil)
	}

	for {
		// Fast path: an unbounded, accept-duplicates worker with no
		// delay needs nothing from the scheduler — no slot is taken, so
		// no confirm_done must be sent either.
		fastPath := nextDelay <= 0 && wt.Unbounded && wt.Duplicates == models.AcceptDuplicates

		if !fastPath {
			admitted, err := c.sched.RequestRun(ctx, job, wt, nextDelay)
			if err != nil {
				return // context cancelled or scheduler stopped; nothing more to do
			}
			if !admitted {
				c.bus.Publish(eventbus.Event{Kind: eventbus.Dropped, Job: job})
				return
			}
		}

		job.Attempt = attempt
		outcome := executor.Run(ctx, job, wt)
		if !fastPath {
			c.sched.ConfirmDone(job, wt.Name)
		}

		if outcome.Success {
			metrics.FinishedTotal.WithLabelValues(wt.Name).Inc()
			c.bus.Publish(eventbus.Event{Kind: eventbus.Finished, Job: job})
			return
		}

		if !retrypolicy.ShouldRetry(cfg, attempt) {
			logger.Error("job failed after exhausting retries",
				zap.String("job_id", string(job.ID)),
				zap.String("worker", wt.Name),
				zap.Any("args", job.Args),
				zap.Int("attempts", attempt),
				zap.Error(outcome.Err),
				zap.String("stack", outcome.Stack),
			)
			metrics.FailedTotal.WithLabelValues(wt.Name).Inc()
			c.bus.Publish(eventbus.Event{Kind: eventbus.Failed, Job: job, Err: outcome.Err, Stack: outcome.Stack})
			return
		}

		metrics.RetriesTotal.WithLabelValues(wt.Name).Inc()
		nextDelay = time.Duration(retrypolicy.DelayFor(cfg, attempt)) * time.Millisecond
		attempt++
	}
}
