package scheduler

import (
	"time"

	"skeenode/pkg/metrics"
	"skeenode/pkg/models"
)

type pendingEntry struct {
	job   models.Job
	reply chan bool
}

type delayedEntry struct {
	job   models.Job
	runAt time.Time
	reply chan bool
}

// workerState is the mutable admission state for one worker type.
// Every field here is touched only by the actor goroutine.
type workerState struct {
	wt      models.WorkerType
	running int
	pending []pendingEntry
	delayed []delayedEntry

	// dedup tracks, for DropDuplicates workers only, which keys
	// currently have a live instance somewhere in delayed, pending, or
	// running. At most one instance per key exists at a time.
	dedup map[string]struct{}
}

func newWorkerState(wt models.WorkerType) *workerState {
	return &workerState{wt: wt, dedup: make(map[string]struct{})}
}

func (ws *workerState) hasCapacity() bool {
	return ws.wt.Unbounded || ws.running < ws.wt.MaxConcurrent
}

func (ws *workerState) isDuplicate(key string) bool {
	if ws.wt.Duplicates != models.DropDuplicates {
		return false
	}
	_, ok := ws.dedup[key]
	return ok
}

func (ws *workerState) markLive(key string) {
	if ws.wt.Duplicates == models.DropDuplicates {
		ws.dedup[key] = struct{}{}
	}
}

func (ws *workerState) clearLive(key string) {
	delete(ws.dedup, key)
}

// insertDelayed inserts e into ws.delayed, kept sorted by runAt. Ties
// preserve insertion order: a new entry with the same runAt as an
// existing one is placed after it.
func (ws *workerState) insertDelayed(e delayedEntry) {
	i := len(ws.delayed)
	for i > 0 && ws.delayed[i-1].runAt.After(e.runAt) {
		i--
	}
	ws.delayed = append(ws.delayed, delayedEntry{})
	copy(ws.delayed[i+1:], ws.delayed[i:])
	ws.delayed[i] = e
}

// findDelayed returns the index of the delayed entry whose job has the
// given dedup key. At most one such entry can exist at a time.
func (ws *workerState) findDelayed(key string) (int, bool) {
	for i, e := range ws.delayed {
		if e.job.DedupKey() == key {
			return i, true
		}
	}
	return 0, false
}

func (ws *workerState) removeDelayedAt(i int) {
	ws.delayed = append(ws.delayed[:i], ws.delayed[i+1:]...)
}

func (ws *workerState) popPendingHead() (pendingEntry, bool) {
	if len(ws.pending) == 0 {
		return pendingEntry{}, false
	}
	head := ws.pending[0]
	ws.pending = ws.pending[1:]
	return head, true
}

func (ws *workerState) earliestDelayed() (time.Time, bool) {
	if len(ws.delayed) == 0 {
		return time.Time{}, false
	}
	return ws.delayed[0].runAt, true
}

func (ws *workerState) popDueDelayed(now time.Time) (delayedEntry, bool) {
	if len(ws.delayed) == 0 || ws.delayed[0].runAt.After(now) {
		return delayedEntry{}, false
	}
	head := ws.delayed[0]
	ws.delayed = ws.delayed[1:]
	return head, true
}

func (ws *workerState) stats() WorkerStats {
	return WorkerStats{Pending: len(ws.pending), Running: ws.running, Delayed: len(ws.delayed)}
}

func (ws *workerState) observe(name string) {
	metrics.QueuePending.WithLabelValues(name).Set(float64(len(ws.pending)))
	metrics.QueueRunning.WithLabelValues(name).Set(float64(ws.running))
	metrics.QueueDelayed.WithLabelValues(name).Set(float64(len(ws.delayed)))
}
