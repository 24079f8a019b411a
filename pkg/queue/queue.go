// Package queue is the surface an embedding application imports:
// register worker types, start the queue, enqueue jobs, and subscribe
// to their terminal events. Everything underneath — admission,
// delays, duplicate suppression, retries — is driven by the scheduler
// actor and the per-submission coordinator goroutines.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	config "skeenode/configs"
	"skeenode/pkg/coordinator"
	"skeenode/pkg/eventbus"
	"skeenode/pkg/logger"
	"skeenode/pkg/models"
	"skeenode/pkg/observability"
	"skeenode/pkg/retrypolicy"
	"skeenode/pkg/scheduler"
)

var (
	ErrAlreadyStarted = errors.New("queue: already started")
	ErrNotStarted     = errors.New("queue: not started")
	ErrUnknownWorker  = errors.New("queue: unknown worker")
	ErrWorkerExists   = errors.New("queue: worker already registered")
)

// Queue owns one scheduler actor, one event bus, and the registry of
// worker types. Worker registration is only allowed before Start;
// after Start the registry is immutable for the process lifetime.
type Queue struct {
	globalRetry *models.RetryConfigOverride

	mu      sync.Mutex
	workers map[string]models.WorkerType
	started bool
	closed  bool

	bus    *eventbus.Bus
	sched  *scheduler.Scheduler
	coord  *coordinator.Coordinator
	tracer *observability.Provider
	ctx    context.Context
	cancel context.CancelFunc

	tracingEnabled bool
}

// New validates the global retry configuration and prepares an
// unstarted queue. A nil cfg loads configuration from the environment.
func New(cfg *config.Config) (*Queue, error) {
	if cfg == nil {
		cfg = config.LoadConfig()
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, Service: "skeenode"})

	global := cfg.GlobalRetryOverride()
	if _, err := retrypolicy.Resolve(global, nil, nil); err != nil {
		return nil, fmt.Errorf("queue: global retry config: %w", err)
	}

	return &Queue{
		globalRetry:    global,
		workers:        make(map[string]models.WorkerType),
		bus:            eventbus.New(),
		tracingEnabled: cfg.TracingEnabled,
	}, nil
}

// RegisterWorker declares a worker type. Must be called before Start.
// Misconfiguration — a nil invoke, a non-positive concurrency bound, a
// retry override that does not resolve — is reported synchronously and
// never reaches the scheduler.
func (q *Queue) RegisterWorker(name string, invoke models.InvokeFunc, opts ...WorkerOption) error {
	if name == "" {
		return fmt.Errorf("queue: worker name must not be empty")
	}
	if invoke == nil {
		return fmt.Errorf("queue: worker %q has no invoke function", name)
	}

	wc := workerConfig{duplicates: models.AcceptDuplicates}
	for _, opt := range opts {
		opt(&wc)
	}
	if wc.err != nil {
		return fmt.Errorf("queue: worker %q: %w", name, wc.err)
	}
	if _, err := retrypolicy.Resolve(q.globalRetry, wc.retry, nil); err != nil {
		return fmt.Errorf("queue: worker %q: %w", name, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return ErrAlreadyStarted
	}
	if _, exists := q.workers[name]; exists {
		return fmt.Errorf("%w: %s", ErrWorkerExists, name)
	}
	q.workers[name] = models.WorkerType{
		Name:          name,
		MaxConcurrent: wc.maxConcurrent,
		Unbounded:     wc.maxConcurrent == 0,
		RetryOverride: wc.retry,
		Duplicates:    wc.duplicates,
		Invoke:        invoke,
	}
	return nil
}

// Start freezes the worker registry and brings up the scheduler actor.
func (q *Queue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return ErrAlreadyStarted
	}

	q.ctx, q.cancel = context.WithCancel(context.Background())
	if q.tracingEnabled {
		provider, err := observability.Init(q.ctx, observability.DefaultConfig("skeenode"))
		if err != nil {
			q.cancel()
			return fmt.Errorf("queue: tracing: %w", err)
		}
		q.tracer = provider
	}

	q.sched = scheduler.New(q.ctx, q.workers)
	q.coord = coordinator.New(q.sched, q.bus)
	q.started = true

	logger.Info("queue started")
	return nil
}

// Enqueue submits args to the named worker. It returns as soon as the
// job has been handed to its coordinator goroutine; execution, delays,
// and retries all happen in the background, observable through
// Subscribe. The recognized options are exactly WithRetry and
// WithDelay.
func (q *Queue) Enqueue(worker string, args any, opts ...EnqueueOption) (models.Job, error) {
	q.mu.Lock()
	if !q.started || q.closed {
		q.mu.Unlock()
		return models.Job{}, ErrNotStarted
	}
	wt, ok := q.workers[worker]
	q.mu.Unlock()
	if !ok {
		return models.Job{}, fmt.Errorf("%w: %s", ErrUnknownWorker, worker)
	}

	ec := enqueueConfig{}
	for _, opt := range opts {
		opt(&ec)
	}
	if ec.err != nil {
		return models.Job{}, fmt.Errorf("queue: enqueue %s: %w", worker, ec.err)
	}

	cfg, err := retrypolicy.Resolve(q.globalRetry, wt.RetryOverride, ec.retry)
	if err != nil {
		return models.Job{}, fmt.Errorf("queue: enqueue %s: %w", worker, err)
	}

	job := models.Job{
		ID:     models.NewJobID(),
		Worker: worker,
		Args:   args,
		Retry:  ec.retry,
	}
	if ec.delay > 0 {
		at := time.Now().Add(ec.delay)
		job.DelayUntil = &at
	}

	q.coord.Submit(q.ctx, job, wt, cfg, ec.delay)
	return job, nil
}

// Subscribe registers fn for every terminal event the queue publishes.
func (q *Queue) Subscribe(fn func(eventbus.Event)) eventbus.SubscriptionID {
	return q.bus.Subscribe(fn)
}

// Unsubscribe removes a previously registered listener.
func (q *Queue) Unsubscribe(id eventbus.SubscriptionID) {
	q.bus.Unsubscribe(id)
}

// Stats snapshots every worker's pending/running/delayed depths.
func (q *Queue) Stats() map[string]scheduler.WorkerStats {
	q.mu.Lock()
	started := q.started && !q.closed
	q.mu.Unlock()
	if !started {
		return nil
	}
	return q.sched.Stats()
}

// Diagnostics pairs the queue depths with a host snapshot.
type Diagnostics struct {
	Workers map[string]scheduler.WorkerStats
	Host    observability.HostSnapshot
}

// Diagnose returns a point-in-time diagnostic view of the queue and
// the host it runs on.
func (q *Queue) Diagnose() Diagnostics {
	return Diagnostics{Workers: q.Stats(), Host: observability.Host()}
}

// Close stops the scheduler actor. Nothing is persisted: pending and
// delayed jobs are discarded and their waiters never see a terminal
// event. A job whose Invoke is already executing is not stopped; its
// context is cancelled, and it still publishes a terminal event if it
// reaches one without another round trip through the scheduler.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.started || q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.sched.Stop()
	if q.tracer != nil {
		_ = q.tracer.Shutdown(context.Background())
	}
	_ = logger.Sync()
}
