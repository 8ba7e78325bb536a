package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesTopicSubscribers(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("employee:1")
	defer cleanup()
	other, cleanupOther := hub.Subscribe("employee:2")
	defer cleanupOther()

	hub.Publish("employee:1", Event{Name: "route.updated", Data: 7})

	require.Len(t, ch, 1)
	ev := <-ch
	assert.Equal(t, "employee:1", ev.Topic)
	assert.Equal(t, "route.updated", ev.Name)
	assert.Equal(t, 7, ev.Data)
	assert.Len(t, other, 0)
}

func TestHub_PublishToManyDeduplicatesTopics(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("area:Nord")
	defer cleanup()
	all, cleanupAll := hub.Subscribe(TopicAll)
	defer cleanupAll()

	hub.PublishToMany([]string{"area:Nord", "area:Nord", ""}, Event{Name: "routes.optimized"})

	assert.Len(t, ch, 1)
	assert.Len(t, all, 1)
}

func TestHub_CleanupRemovesSubscriber(t *testing.T) {
	hub := NewHub()
	_, cleanup := hub.Subscribe("employee:1")
	assert.Equal(t, 1, hub.SubscriberCount("employee:1"))
	assert.Equal(t, 1, hub.TotalSubscribers())

	cleanup()
	cleanup()

	assert.Equal(t, 0, hub.SubscriberCount("employee:1"))
	assert.Equal(t, 0, hub.TotalSubscribers())
}

func TestHub_PublishDoesNotBlockOnFullChannel(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("employee:1")
	defer cleanup()

	for i := 0; i < 50; i++ {
		hub.Publish("employee:1", Event{Name: "route.updated", Data: i})
	}

	assert.Equal(t, cap(ch), len(ch))
}
