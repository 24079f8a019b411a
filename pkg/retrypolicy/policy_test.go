package retrypolicy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skeenode/pkg/models"
	"skeenode/pkg/retrypolicy"
)

func TestResolveDefaults(t *testing.T) {
	cfg, err := retrypolicy.Resolve(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRetryConfig(), cfg)
}

func TestResolveLayering(t *testing.T) {
	global := models.StaticN(1000, 3)
	worker := &models.RetryConfigOverride{}
	job := models.NoRetry()

	cfg, err := retrypolicy.Resolve(global, worker, job)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxAttempts, "job layer's NoRetry should win over global's StaticN")
	assert.Equal(t, int64(1000), cfg.Delay, "worker layer's empty override must not clear global's delay")
}

func TestResolveNilLayerPreservesPrior(t *testing.T) {
	global := models.Static(500)
	cfg, err := retrypolicy.Resolve(global, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cfg.Delay)
}

func TestResolveRejectsInvalid(t *testing.T) {
	bad := &models.RetryConfigOverride{Delay: func() *int64 { v := int64(-1); return &v }()}
	_, err := retrypolicy.Resolve(bad, nil, nil)
	require.Error(t, err)
}

func TestShouldRetry(t *testing.T) {
	cfg := models.RetryConfig{MaxAttempts: 3}
	assert.True(t, retrypolicy.ShouldRetry(cfg, 1))
	assert.True(t, retrypolicy.ShouldRetry(cfg, 3))
	assert.False(t, retrypolicy.ShouldRetry(cfg, 4))
}

func TestShouldRetryNoRetry(t *testing.T) {
	cfg, err := retrypolicy.Resolve(nil, nil, models.NoRetry())
	require.NoError(t, err)
	assert.False(t, retrypolicy.ShouldRetry(cfg, 1))
}

func TestShouldRetryUnbounded(t *testing.T) {
	cfg := models.RetryConfig{MaxAttemptsUnbounded: true}
	assert.True(t, retrypolicy.ShouldRetry(cfg, 1000))
}

func TestDelayForExponential(t *testing.T) {
	cfg := models.RetryConfig{Delay: 250, Exponent: 4, MaxDelay: 3_600_000}
	assert.Equal(t, int64(0), retrypolicy.DelayFor(cfg, 0))
	assert.Equal(t, int64(250), retrypolicy.DelayFor(cfg, 1))
	assert.Equal(t, int64(4000), retrypolicy.DelayFor(cfg, 2))
}

func TestDelayForClampsToMax(t *testing.T) {
	cfg := models.RetryConfig{Delay: 250, Exponent: 4, MaxDelay: 1000}
	assert.Equal(t, int64(1000), retrypolicy.DelayFor(cfg, 10))
}

func TestDelayForZeroDelayAlwaysZero(t *testing.T) {
	cfg := models.RetryConfig{Delay: 0, Exponent: 4, MaxDelay: 3_600_000}
	assert.Equal(t, int64(0), retrypolicy.DelayFor(cfg, 5))
}
