// Package scheduler owns all admission state for every registered
// worker type: who is pending, who is delayed, who is running, and
// which keys are currently suppressed as duplicates. All of that state
// is mutated by exactly one goroutine, the actor, so nothing in this
// package needs a mutex around the per-worker state itself.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"skeenode/pkg/models"
)

// Scheduler is the actor's external handle. Every exported method
// talks to the actor goroutine over a channel; the
// fast path that skips the actor entirely for unbounded,
// accept-duplicates workers lives in the coordinator, which is the
// only caller that knows it will never need a slot released.
type Scheduler struct {
	reqCh   chan requestRunMsg
	doneCh  chan confirmDoneMsg
	statCh  chan statsMsg
	closeCh chan struct{}
	done    chan struct{}

	workers map[string]models.WorkerType // immutable after Start; safe to read concurrently
}

type requestRunMsg struct {
	job   models.Job
	wt    models.WorkerType
	runAt time.Time // zero means eligible immediately
	reply chan bool
}

type confirmDoneMsg struct {
	worker string
	job    models.Job
}

type statsMsg struct {
	reply chan map[string]WorkerStats
}

// WorkerStats is a point-in-time snapshot of one worker's queue depths.
type WorkerStats struct {
	Pending int
	Running int
	Delayed int
}

// New constructs a Scheduler with the given registered worker types and
// starts its actor goroutine. ctx governs the actor's lifetime.
func New(ctx context.Context, workers map[string]models.WorkerType) *Scheduler {
	s := &Scheduler{
		reqCh:   make(chan requestRunMsg),
		doneCh:  make(chan confirmDoneMsg),
		statCh:  make(chan statsMsg),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
		workers: workers,
	}
	go s.run(ctx)
	return s
}

// Stop asks the actor goroutine to exit and waits for it to do so.
func (s *Scheduler) Stop() {
	close(s.closeCh)
	<-s.done
}

// RequestRun asks to run job under worker wt after delay elapses (zero
// delay means "as soon as admission rules allow"). It blocks until the
// scheduler admits the job, drops it as a duplicate, or ctx is done.
// The run_at deadline is fixed here, at request time, so queueing
// inside the actor never pushes it later.
func (s *Scheduler) RequestRun(ctx context.Context, job models.Job, wt models.WorkerType, delay time.Duration) (admitted bool, err error) {
	var runAt time.Time
	if delay > 0 {
		runAt = time.Now().Add(delay)
	}

	reply := make(chan bool, 1)
	msg := requestRunMsg{job: job, wt: wt, runAt: runAt, reply: reply}

	select {
	case s.reqCh <- msg:
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.done:
		return false, fmt.Errorf("scheduler: stopped")
	}

	select {
	case admitted = <-reply:
		return admitted, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.done:
		return false, fmt.Errorf("scheduler: stopped")
	}
}

// ConfirmDone releases job's running slot for worker, allowing the next
// pending job (if any) to be admitted.
func (s *Scheduler) ConfirmDone(job models.Job, worker string) {
	select {
	case s.doneCh <- confirmDoneMsg{worker: worker, job: job}:
	case <-s.done:
	}
}

// Stats returns a snapshot of every worker's current queue depths.
func (s *Scheduler) Stats() map[string]WorkerStats {
	reply := make(chan map[string]WorkerStats, 1)
	select {
	case s.statCh <- statsMsg{reply: reply}:
	case <-s.done:
		return nil
	}
	select {
	case stats := <-reply:
		return stats
	case <-s.done:
		return nil
	}
}
