package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skeenode/pkg/logger"
	"skeenode/pkg/metrics"
	"skeenode/pkg/models"
)

// run keeps the actor alive for the scheduler's lifetime. A panic
// inside the loop (an invariant violation) is recovered by loop itself,
// which then returns false; run starts a new loop, so the broken worker
// state is discarded wholesale and a fresh one takes its place. Waiters that were parked in the lost
// state never get a reply — that is the documented crash-loses-jobs
// behavior of a non-persistent queue.
func (s *Scheduler) run(ctx context.Context) {
	for {
		if clean := s.loop(ctx); clean {
			close(s.done)
			return
		}
	}
}

// loop is the actor proper: the single goroutine that owns every
// workerState. It processes request_run, confirm_done, stats, and
// timer-fire messages strictly one at a time, which is what lets the
// rest of this package mutate shared state without any locking.
func (s *Scheduler) loop(ctx context.Context) (clean bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scheduler state corrupted, reinitializing",
				zap.Any("panic", r),
			)
			clean = false
		}
	}()

	states := make(map[string]*workerState, len(s.workers))
	for name, wt := range s.workers {
		states[name] = newWorkerState(wt)
	}

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false

	rearm := func() {
		var earliest time.Time
		found := false
		for _, ws := range states {
			if t, ok := ws.earliestDelayed(); ok {
				if !found || t.Before(earliest) {
					earliest = t
					found = true
				}
			}
		}
		if timerArmed && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timerArmed = found
		if found {
			d := time.Until(earliest)
			if d < 0 {
				d = 0
			}
			timer.Reset(d)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return true
		case <-s.closeCh:
			return true

		case msg := <-s.reqCh:
			ws, ok := states[msg.wt.Name]
			if !ok {
				panic(fmt.Sprintf("scheduler: request_run for unknown worker %q", msg.wt.Name))
			}
			s.onRequestRun(ws, msg)
			ws.observe(msg.wt.Name)
			rearm()

		case msg := <-s.doneCh:
			ws, ok := states[msg.worker]
			if !ok {
				panic(fmt.Sprintf("scheduler: confirm_done for unknown worker %q", msg.worker))
			}
			s.onConfirmDone(ws, msg.job)
			ws.observe(msg.worker)

		case msg := <-s.statCh:
			out := make(map[string]WorkerStats, len(states))
			for name, ws := range states {
				out[name] = ws.stats()
			}
			msg.reply <- out

		case <-timer.C:
			timerArmed = false
			s.onTimerFire(states)
			rearm()
		}
	}
}

// onRequestRun implements the admission algorithm for a single
// request: duplicate check, delayed-insert-with-collapse, immediate
// admit, or FIFO enqueue.
func (s *Scheduler) onRequestRun(ws *workerState, msg requestRunMsg) {
	key := msg.job.DedupKey()

	if !msg.runAt.IsZero() && msg.runAt.After(time.Now()) {
		if ws.isDuplicate(key) {
			// A delayed twin collapses toward the earliest run_at; a
			// twin that is already pending or running always wins.
			if i, ok := ws.findDelayed(key); ok && msg.runAt.Before(ws.delayed[i].runAt) {
				loser := ws.delayed[i]
				ws.removeDelayedAt(i)
				metrics.DroppedTotal.WithLabelValues(msg.wt.Name).Inc()
				loser.reply <- false
				ws.insertDelayed(delayedEntry{job: msg.job, runAt: msg.runAt, reply: msg.reply})
				return
			}
			metrics.DroppedTotal.WithLabelValues(msg.wt.Name).Inc()
			msg.reply <- false
			return
		}
		ws.insertDelayed(delayedEntry{job: msg.job, runAt: msg.runAt, reply: msg.reply})
		ws.markLive(key)
		return
	}

	if ws.isDuplicate(key) {
		if i, ok := ws.findDelayed(key); ok {
			// An immediate arrival supersedes its delayed twin: the
			// newcomer proceeds toward admission now and the twin's
			// waiter is dropped. A twin that is already pending or
			// running wins instead.
			loser := ws.delayed[i]
			ws.removeDelayedAt(i)
			metrics.DroppedTotal.WithLabelValues(msg.wt.Name).Inc()
			loser.reply <- false
		} else {
			metrics.DroppedTotal.WithLabelValues(msg.wt.Name).Inc()
			msg.reply <- false
			return
		}
	}

	if ws.hasCapacity() {
		ws.running++
		ws.markLive(key)
		msg.reply <- true
		return
	}

	ws.pending = append(ws.pending, pendingEntry{job: msg.job, reply: msg.reply})
	ws.markLive(key)
}

// onConfirmDone frees job's running slot and, per the documented
// admission-order decision, always drains the pending FIFO head before
// any due delayed entry gets a chance (those are only admitted by
// their own timer firing).
func (s *Scheduler) onConfirmDone(ws *workerState, job models.Job) {
	ws.running--
	if ws.running < 0 {
		panic(fmt.Sprintf("scheduler: running count for worker %q went negative", ws.wt.Name))
	}
	ws.clearLive(job.DedupKey())

	if head, ok := ws.popPendingHead(); ok {
		ws.running++
		head.reply <- true
	}
}

// onTimerFire admits every delayed entry across every worker whose
// run_at has elapsed, exactly as an immediate request would be
// admitted: straight into a running slot if capacity allows, otherwise
// onto the pending FIFO tail. The entry's dedup key stays live across
// the transition, so a burst of equal submissions arriving meanwhile
// is still suppressed.
func (s *Scheduler) onTimerFire(states map[string]*workerState) {
	now := time.Now()
	for name, ws := range states {
		for {
			entry, ok := ws.popDueDelayed(now)
			if !ok {
				break
			}
			if ws.hasCapacity() {
				ws.running++
				entry.reply <- true
			} else {
				ws.pending = append(ws.pending, pendingEntry{job: entry.job, reply: entry.reply})
			}
		}
		ws.observe(name)
	}
}
