// Package retrypolicy merges and validates the three-layer retry
// configuration (global, worker, job) and computes exponential backoff
// delays from the result.
package retrypolicy

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"skeenode/pkg/models"
)

var validate = validator.New()

// mergeable mirrors models.RetryConfig with validator tags; Resolve
// copies into this shape purely to run struct-tag validation over the
// merged result.
type mergeable struct {
	MaxAttempts int   `validate:"gte=0"`
	Delay       int64 `validate:"gte=0"`
	Exponent    int   `validate:"gte=0"`
	MaxDelay    int64 `validate:"gte=0"`
}

// Resolve merges the default policy with the global, worker, and job
// overrides, in that order, then validates the result. A nil override
// at any layer leaves the values computed so far untouched — this is
// the "no change, preserve the prior layer" semantics.
func Resolve(global, worker, job *models.RetryConfigOverride) (models.RetryConfig, error) {
	cfg := models.DefaultRetryConfig()
	applyOverride(&cfg, global)
	applyOverride(&cfg, worker)
	applyOverride(&cfg, job)

	if err := validate.Struct(mergeable{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.Delay,
		Exponent:    cfg.Exponent,
		MaxDelay:    cfg.MaxDelay,
	}); err != nil {
		return models.RetryConfig{}, fmt.Errorf("retrypolicy: invalid config: %w", err)
	}
	return cfg, nil
}

func applyOverride(cfg *models.RetryConfig, o *models.RetryConfigOverride) {
	if o == nil {
		return
	}
	if o.MaxAttempts != nil {
		cfg.MaxAttempts = *o.MaxAttempts
	}
	if o.MaxAttemptsUnbounded != nil {
		cfg.MaxAttemptsUnbounded = *o.MaxAttemptsUnbounded
	}
	if o.Delay != nil {
		cfg.Delay = *o.Delay
	}
	if o.Exponent != nil {
		cfg.Exponent = *o.Exponent
	}
	if o.MaxDelay != nil {
		cfg.MaxDelay = *o.MaxDelay
	}
	if o.MaxDelayUnbounded != nil {
		cfg.MaxDelayUnbounded = *o.MaxDelayUnbounded
	}
}

// ShouldRetry reports whether retry number attempt (1-based, counting
// retries after the initial run) is permitted. MaxAttempts bounds the
// retries, so total executions never exceed MaxAttempts+1.
func ShouldRetry(cfg models.RetryConfig, attempt int) bool {
	if cfg.MaxAttemptsUnbounded {
		return true
	}
	return attempt <= cfg.MaxAttempts
}

// DelayFor computes the backoff before the given (1-based) retry
// attempt: floor(attempt^exponent * delay), clamped to max_delay.
func DelayFor(cfg models.RetryConfig, attempt int) int64 {
	if cfg.Delay == 0 {
		return 0
	}
	raw := math.Floor(math.Pow(float64(attempt), float64(cfg.Exponent)) * float64(cfg.Delay))
	if cfg.MaxDelayUnbounded {
		return int64(raw)
	}
	if raw > float64(cfg.MaxDelay) {
		return cfg.MaxDelay
	}
	return int64(raw)
}
