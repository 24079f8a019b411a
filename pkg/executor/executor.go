// Package executor runs a single job's Invoke function in isolation.
// It owns no scheduling state and never retries: it reports exactly
// one Outcome per call. The invocation happens in a child goroutine so
// a panicking or vanishing worker body cannot take the caller down.
package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"skeenode/pkg/metrics"
	"skeenode/pkg/models"
)

// CrashError is the synthetic error surfaced when a job's Invoke
// function terminates unexpectedly instead of returning an error.
type CrashError struct {
	Detail string
	Stack  string
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("The job runner crashed. Reason: %s", e.Detail)
}

// Outcome is the result of running one attempt of a job.
type Outcome struct {
	Success  bool
	Err      error
	Stack    string
	Duration time.Duration
}

var tracer = otel.Tracer("skeenode/executor")

// Run invokes worker.Invoke for job in a child goroutine, recovering
// any panic into a CrashError and capturing its stack trace. It never
// inspects or mutates scheduler state and never retries.
func Run(ctx context.Context, job models.Job, worker models.WorkerType) Outcome {
	ctx, span := tracer.Start(ctx, "executor.Run", trace.WithAttributes(
		attribute.String("worker", job.Worker),
		attribute.String("job_id", string(job.ID)),
	))
	defer span.End()

	start := time.Now()

	type result struct {
		err   error
		stack string
		crash *CrashError
	}
	done := make(chan result, 1)

	go func() {
		reported := false
		defer func() {
			if r := recover(); r != nil {
				done <- result{
					crash: &CrashError{
						Detail: fmt.Sprintf("%v", r),
						Stack:  string(debug.Stack()),
					},
				}
				return
			}
			// The goroutine is exiting without having sent a result
			// (runtime.Goexit or similar): a crash, not an error.
			if !reported {
				done <- result{
					crash: &CrashError{Detail: "the worker terminated without reporting a result"},
				}
			}
		}()
		err := worker.Invoke(ctx, job.Args)
		reported = true
		done <- result{err: err}
	}()

	r := <-done
	dur := time.Since(start)

	var outcome Outcome
	switch {
	case r.crash != nil:
		outcome = Outcome{Success: false, Err: r.crash, Stack: r.crash.Stack, Duration: dur}
	case r.err != nil:
		outcome = Outcome{Success: false, Err: r.err, Stack: "", Duration: dur}
	default:
		outcome = Outcome{Success: true, Duration: dur}
	}

	if outcome.Err != nil {
		span.RecordError(outcome.Err)
		span.SetStatus(codes.Error, outcome.Err.Error())
	}

	outcomeLabel := "success"
	if !outcome.Success {
		outcomeLabel = "failure"
	}
	metrics.RecordExecution(job.Worker, outcomeLabel, dur.Seconds())

	return outcome
}
