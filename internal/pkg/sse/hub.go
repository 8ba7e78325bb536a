package sse

import (
	"sync"
)

// TopicAll receives every event published through PublishToMany.
const TopicAll = "all"

// Event is a route change pushed to subscribed clients.
type Event struct {
	Topic string
	Name  string
	Data  interface{}
}

// Hub fans route events out to subscribers keyed by topic. A topic is an
// actor key such as "employee:12" or "area:Nord".
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a subscriber for topic and returns the event channel and
// its cleanup function.
func (h *Hub) Subscribe(topic string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[chan Event]struct{})
	}
	h.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[topic], ch)
			close(ch)
			if len(h.subscribers[topic]) == 0 {
				delete(h.subscribers, topic)
			}
		})
	}

	return ch, cleanup
}

// Publish sends event to every subscriber of topic without blocking.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Topic = topic
	for ch := range h.subscribers[topic] {
		select {
		case ch <- event:
		default:
			// Slow subscriber, drop
		}
	}
}

// PublishToMany sends event to each topic and once to TopicAll.
func (h *Hub) PublishToMany(topics []string, event Event) {
	all := make([]string, 0, len(topics)+1)
	all = append(all, topics...)
	all = append(all, TopicAll)

	seen := make(map[string]bool, len(all))
	for _, topic := range all {
		if topic == "" || seen[topic] {
			continue
		}
		seen[topic] = true
		h.Publish(topic, event)
	}
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[topic])
}

func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}
