package messaging

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

type stubEvent struct {
	shared.BaseEvent
}

func (e stubEvent) Payload() map[string]interface{} { return nil }

func testEvent(t shared.EventType) shared.Event {
	return stubEvent{BaseEvent: shared.NewBaseEvent(t, "e-1")}
}

func TestEventBus_SyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})

	var typed, global int
	require.NoError(t, bus.Subscribe(shared.EventEnrollmentSubmitted, func(shared.Event) { typed++ }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) { global++ }))

	require.NoError(t, bus.Publish(testEvent(shared.EventEnrollmentSubmitted)))
	require.NoError(t, bus.Publish(testEvent(shared.EventBalanceRecharged)))

	// The typed handler sees only its type; the global handler sees both.
	assert.Equal(t, 1, typed)
	assert.Equal(t, 2, global)
}

func TestEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 4})

	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(20)
	require.NoError(t, bus.SubscribeAll(func(shared.Event) {
		count.Add(1)
		wg.Done()
	}))

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(testEvent(shared.EventBalanceDebited)))
	}
	wg.Wait()

	assert.Equal(t, int64(20), count.Load())
}

func TestEventBus_SyncPanicDoesNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})

	delivered := false
	require.NoError(t, bus.Subscribe(shared.EventEnrollmentRejected, func(shared.Event) { panic("boom") }))
	require.NoError(t, bus.Subscribe(shared.EventEnrollmentRejected, func(shared.Event) { delivered = true }))

	require.NoError(t, bus.Publish(testEvent(shared.EventEnrollmentRejected)))
	assert.True(t, delivered)
}

func TestEventBus_NoHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	assert.NoError(t, bus.Publish(testEvent(shared.EventEnrollmentApproved)))
}

func TestEventBus_NilArguments(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	assert.Error(t, bus.Subscribe(shared.EventEnrollmentSubmitted, nil))
	assert.Error(t, bus.SubscribeAll(nil))
	assert.Error(t, bus.Publish(nil))
}

func TestEventBus_Close(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	var count atomic.Int64
	require.NoError(t, bus.SubscribeAll(func(shared.Event) { count.Add(1) }))
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(testEvent(shared.EventBalanceRefunded)))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())
	assert.Equal(t, int64(5), count.Load())

	assert.ErrorIs(t, bus.Publish(testEvent(shared.EventBalanceRefunded)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventBalanceRefunded, func(shared.Event) {}), ErrEventBusClosed)
	assert.NoError(t, bus.Close())
}
