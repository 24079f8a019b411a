package models

// RetryConfig is a fully-resolved, validated retry policy: the result
// of merging the global default with a worker-level and job-level
// override. Every field here is absolute — no more "unset" sentinels
// remain once Resolve has run.
type RetryConfig struct {
	MaxAttempts          int
	MaxAttemptsUnbounded bool

	Delay    int64 // milliseconds
	Exponent int

	MaxDelay          int64 // milliseconds
	MaxDelayUnbounded bool
}

// DefaultRetryConfig matches the factory defaults described for a
// worker with no retry configuration at all.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		Delay:       250,
		Exponent:    4,
		MaxDelay:    3_600_000,
	}
}

// RetryConfigOverride is the shorthand union a caller may supply at
// any of the three layers (global, worker, job). A nil *field* leaves
// the corresponding RetryConfig field unchanged from the prior layer;
// a nil *RetryConfigOverride* leaves every field unchanged.
type RetryConfigOverride struct {
	MaxAttempts          *int
	MaxAttemptsUnbounded *bool
	Delay                *int64
	Exponent             *int
	MaxDelay             *int64
	MaxDelayUnbounded    *bool
}

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }
func boolp(v bool) *bool    { return &v }

// NoRetry disables retries entirely: exactly one attempt is made.
func NoRetry() *RetryConfigOverride {
	return &RetryConfigOverride{MaxAttempts: intp(0), MaxAttemptsUnbounded: boolp(false)}
}

// Immediately retries with zero delay, up to the prevailing
// max-attempts setting. A zero base delay yields zero backoff no
// matter the exponent, so only the delay field is pinned.
func Immediately() *RetryConfigOverride {
	return &RetryConfigOverride{Delay: int64p(0)}
}

// ImmediatelyN retries with zero delay, capped at n attempts.
func ImmediatelyN(n int) *RetryConfigOverride {
	return &RetryConfigOverride{Delay: int64p(0), MaxAttempts: intp(n)}
}

// Static retries with a fixed delay (no exponential growth) and the
// prevailing max-attempts setting.
func Static(delayMillis int64) *RetryConfigOverride {
	return &RetryConfigOverride{Delay: int64p(delayMillis), Exponent: intp(0), MaxDelayUnbounded: boolp(true)}
}

// StaticN retries with a fixed delay, capped at n attempts.
func StaticN(delayMillis int64, n int) *RetryConfigOverride {
	return &RetryConfigOverride{
		Delay:             int64p(delayMillis),
		Exponent:          intp(0),
		MaxDelayUnbounded: boolp(true),
		MaxAttempts:       intp(n),
	}
}
