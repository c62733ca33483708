package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

func TestEventBus_PublishesToSpecificThenGlobal(t *testing.T) {
	bus := NewEventBus()

	var received []string
	bus.SubscribeAll(func(e *Event) { received = append(received, "global:"+string(e.Type)) })
	bus.Subscribe(EventStateChanged, func(e *Event) { received = append(received, "specific:"+string(e.Type)) })
	bus.Subscribe(EventSaveFailed, func(*Event) { received = append(received, "other") })

	bus.Publish(&Event{Type: EventStateChanged, Session: types.SessionUpload})

	assert.Equal(t, []string{
		"specific:session.state_changed",
		"global:session.state_changed",
	}, received)
}

func TestEventBus_PreservesPublishOrder(t *testing.T) {
	bus := NewEventBus()

	var seqs []uint64
	bus.SubscribeAll(func(e *Event) { seqs = append(seqs, e.Seq) })

	for i := uint64(1); i <= 5; i++ {
		bus.Publish(&Event{Type: EventStateChanged, Seq: i})
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, seqs)
}

func TestEventBus_RecoversFromPanic(t *testing.T) {
	bus := NewEventBus()

	called := false
	bus.Subscribe(EventSaveFailed, func(*Event) { panic("listener panic") })
	bus.Subscribe(EventSaveFailed, func(*Event) { called = true })

	assert.NotPanics(t, func() { bus.Publish(&Event{Type: EventSaveFailed}) })
	assert.True(t, called, "listener after panic should still fire")
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()

	count := 0
	unsub := bus.Subscribe(EventSaveStarted, func(*Event) { count++ })
	unsubAll := bus.SubscribeAll(func(*Event) { count++ })

	bus.Publish(&Event{Type: EventSaveStarted})
	assert.Equal(t, 2, count)

	unsub()
	unsubAll()
	unsub() // idempotent

	bus.Publish(&Event{Type: EventSaveStarted})
	assert.Equal(t, 2, count)
}

func TestEventBus_ClearAndNil(t *testing.T) {
	bus := NewEventBus()
	count := 0
	bus.SubscribeAll(func(*Event) { count++ })
	bus.Clear()
	bus.Publish(&Event{Type: EventSaveStarted})
	assert.Zero(t, count)

	var nilBus *EventBus
	assert.NotPanics(t, func() { nilBus.Publish(&Event{Type: EventSaveStarted}) })
	assert.NotPanics(t, func() { bus.Publish(nil) })
}

func TestEventBus_ConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewEventBus()

	var mu sync.Mutex
	total := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.SubscribeAll(func(*Event) {
				mu.Lock()
				total++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	bus.Publish(&Event{Type: EventStateChanged})
	assert.Equal(t, 10, total)
}
