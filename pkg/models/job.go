// Package models holds the value types shared by every layer of the
// queue: a job submission, a worker's registration, and a resolved
// retry policy. None of these types are persisted — they live only for
// the lifetime of the process.
package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// JobID identifies a single submission.
type JobID string

// NewJobID mints a new, process-unique job identifier.
func NewJobID() JobID {
	return JobID(fmt.Sprintf("job-%s", uuid.New().String()[:8]))
}

// Job is one submitted unit of work.
type Job struct {
	ID     JobID
	Worker string
	Args   any

	// Retry overrides the merged worker/global retry policy for this
	// job alone. Nil means "inherit the worker's policy unchanged".
	Retry *RetryConfigOverride

	// DelayUntil, when set, holds the job back until the given instant
	// before it is first offered for admission. Nil means eligible
	// immediately.
	DelayUntil *time.Time

	// Attempt is the 1-based attempt number the coordinator is
	// currently driving. It is never shared outside the goroutine that
	// owns a submission.
	Attempt int
}

// DedupKey returns the structural-equality key used for duplicate
// suppression: the worker name plus a deterministic encoding of Args.
// Two jobs for the same worker with deep-equal Args produce the same
// key regardless of map key order.
func (j Job) DedupKey() string {
	return j.Worker + ":" + canonicalJSON(j.Args)
}

func canonicalJSON(v any) string {
	normalized := normalize(v)
	b, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// normalize walks a decoded-JSON-shaped value and sorts map keys so
// that encoding/json's already-sorted map output is reproducible even
// when the input arrived as a Go map with nondeterministic iteration.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			out[k] = normalize(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}
