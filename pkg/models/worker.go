package models

import "context"

// DuplicatePolicy controls whether structurally-equal jobs for the
// same worker are collapsed or run independently.
type DuplicatePolicy int

const (
	// AcceptDuplicates runs every submission independently (default).
	AcceptDuplicates DuplicatePolicy = iota
	// DropDuplicates suppresses a submission that is structurally
	// equal to one already pending, delayed, or running.
	DropDuplicates
)

// InvokeFunc is the function a worker registers to actually do the
// work. Its error return drives the retry decision: a nil error is
// success, any other error (including a panic recovered into a
// CrashError) is a failure attempt.
type InvokeFunc func(ctx context.Context, args any) error

// WorkerType is a named class of job, registered once at startup.
type WorkerType struct {
	Name string

	// MaxConcurrent bounds how many jobs of this worker may run at
	// once. Ignored when Unbounded is true.
	MaxConcurrent int
	Unbounded     bool

	RetryOverride *RetryConfigOverride
	Duplicates    DuplicatePolicy

	Invoke InvokeFunc
}
