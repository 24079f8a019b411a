package eventbus_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skeenode/pkg/eventbus"
	"skeenode/pkg/models"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := eventbus.New()
	var mu sync.Mutex
	var got []eventbus.Event
	done := make(chan struct{})

	bus.Subscribe(func(ev eventbus.Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
		close(done)
	})

	bus.Publish(eventbus.Event{Kind: eventbus.Finished, Job: models.Job{ID: "j1"}})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, eventbus.Finished, got[0].Kind)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := eventbus.New()
	var calls int
	var mu sync.Mutex

	id := bus.Subscribe(func(ev eventbus.Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	bus.Unsubscribe(id)
	bus.Publish(eventbus.Event{Kind: eventbus.Dropped})

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestUnsubscribeUnknownIsNoop(t *testing.T) {
	bus := eventbus.New()
	assert.NotPanics(t, func() { bus.Unsubscribe(999) })
}
