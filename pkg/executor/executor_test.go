package executor_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skeenode/pkg/executor"
	"skeenode/pkg/models"
)

func TestRunSuccess(t *testing.T) {
	worker := models.WorkerType{
		Name: "noop",
		Invoke: func(ctx context.Context, args any) error {
			return nil
		},
	}
	out := executor.Run(context.Background(), models.Job{Worker: "noop"}, worker)
	assert.True(t, out.Success)
	assert.NoError(t, out.Err)
}

func TestRunFailure(t *testing.T) {
	boom := errors.New("boom")
	worker := models.WorkerType{
		Name: "fail",
		Invoke: func(ctx context.Context, args any) error {
			return boom
		},
	}
	out := executor.Run(context.Background(), models.Job{Worker: "fail"}, worker)
	require.False(t, out.Success)
	assert.ErrorIs(t, out.Err, boom)
}

func TestRunRecoversPanicAsCrashError(t *testing.T) {
	worker := models.WorkerType{
		Name: "panics",
		Invoke: func(ctx context.Context, args any) error {
			panic("unexpected nil pointer")
		},
	}
	out := executor.Run(context.Background(), models.Job{Worker: "panics"}, worker)
	require.False(t, out.Success)
	var crash *executor.CrashError
	require.ErrorAs(t, out.Err, &crash)
	assert.Contains(t, crash.Error(), "unexpected nil pointer")
	assert.NotEmpty(t, out.Stack)
}

func TestRunGoexitBecomesCrashError(t *testing.T) {
	worker := models.WorkerType{
		Name: "vanishes",
		Invoke: func(ctx context.Context, args any) error {
			runtime.Goexit()
			return nil
		},
	}
	out := executor.Run(context.Background(), models.Job{Worker: "vanishes"}, worker)
	require.False(t, out.Success)
	var crash *executor.CrashError
	require.ErrorAs(t, out.Err, &crash)
	assert.Empty(t, out.Stack)
}

func TestRunPassesArgsThrough(t *testing.T) {
	var received any
	worker := models.WorkerType{
		Name: "echo",
		Invoke: func(ctx context.Context, args any) error {
			received = args
			return nil
		},
	}
	executor.Run(context.Background(), models.Job{Worker: "echo", Args: map[string]any{"n": 42}}, worker)
	assert.Equal(t, map[string]any{"n": 42}, received)
}
