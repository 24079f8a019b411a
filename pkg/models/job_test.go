package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"skeenode/pkg/models"
)

func TestDedupKeyIgnoresIDAndTiming(t *testing.T) {
	j1 := models.Job{ID: "a", Worker: "w", Args: map[string]any{"x": 1, "y": 2}}
	later := time.Now().Add(time.Minute)
	j2 := models.Job{ID: "b", Worker: "w", Args: map[string]any{"y": 2, "x": 1}, DelayUntil: &later}
	assert.Equal(t, j1.DedupKey(), j2.DedupKey(), "id, delay and map key order must not affect structural equality")
}

func TestDedupKeyDistinguishesWorkerAndArgs(t *testing.T) {
	base := models.Job{Worker: "w", Args: "A"}
	otherArgs := models.Job{Worker: "w", Args: "B"}
	otherWorker := models.Job{Worker: "v", Args: "A"}
	assert.NotEqual(t, base.DedupKey(), otherArgs.DedupKey())
	assert.NotEqual(t, base.DedupKey(), otherWorker.DedupKey())
}

func TestDedupKeyNestedStructures(t *testing.T) {
	j1 := models.Job{Worker: "w", Args: []any{map[string]any{"b": 2, "a": 1}, "tail"}}
	j2 := models.Job{Worker: "w", Args: []any{map[string]any{"a": 1, "b": 2}, "tail"}}
	assert.Equal(t, j1.DedupKey(), j2.DedupKey())
}

func TestNewJobIDIsUnique(t *testing.T) {
	seen := make(map[models.JobID]struct{})
	for i := 0; i < 100; i++ {
		id := models.NewJobID()
		_, dup := seen[id]
		assert.False(t, dup, "job ids must be unique per submission")
		seen[id] = struct{}{}
	}
}
