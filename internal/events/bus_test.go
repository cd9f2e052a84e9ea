package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishIsSynchronous(t *testing.T) {
	bus := NewBus(nil)

	var received []Event
	bus.Subscribe(TopicProjectsUpdated, func(e Event) {
		received = append(received, e)
	})

	bus.Publish(TopicProjectsUpdated, "p1")

	// 返回时订阅者已收到事件
	require.Len(t, received, 1)
	assert.Equal(t, TopicProjectsUpdated, received[0].Topic)
	assert.Equal(t, "p1", received[0].Payload)
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus(nil)

	var order []int
	for i := 1; i <= 3; i++ {
		n := i
		bus.Subscribe(TopicMessagesUpdated, func(Event) { order = append(order, n) })
	}

	bus.Publish(TopicMessagesUpdated, nil)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestBus_TopicsAreIsolated(t *testing.T) {
	bus := NewBus(nil)

	called := false
	bus.Subscribe(TopicAdminAuthChanged, func(Event) { called = true })

	bus.Publish(TopicProjectsUpdated, nil)
	assert.False(t, called)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)

	count := 0
	unsubscribe := bus.Subscribe(TopicProjectsUpdated, func(Event) { count++ })
	assert.Equal(t, 1, bus.SubscriberCount(TopicProjectsUpdated))

	bus.Publish(TopicProjectsUpdated, nil)
	unsubscribe()
	unsubscribe()
	bus.Publish(TopicProjectsUpdated, nil)

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, bus.SubscriberCount(TopicProjectsUpdated))
}

func TestBus_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus(nil)

	bus.Subscribe(TopicProjectsUpdated, func(Event) { panic("boom") })
	reached := false
	bus.Subscribe(TopicProjectsUpdated, func(Event) { reached = true })

	assert.NotPanics(t, func() { bus.Publish(TopicProjectsUpdated, nil) })
	assert.True(t, reached)
}

func TestBus_ConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(TopicProjectsUpdated, func(Event) {
				mu.Lock()
				total++
				mu.Unlock()
			})
			defer unsub()
		}()
		go func() {
			defer wg.Done()
			bus.Publish(TopicProjectsUpdated, nil)
		}()
	}
	wg.Wait()

	mu.Lock()
	assert.GreaterOrEqual(t, total, 0)
	mu.Unlock()
	assert.Equal(t, 0, bus.SubscriberCount(TopicProjectsUpdated))
}
