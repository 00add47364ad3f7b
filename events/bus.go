package events

import (
	"strings"
	"sync"
)

// EventBus routes scheduler lifecycle events to channel subscribers.
// The topic is derived from the event itself (the segment of EventType
// before the dot), so publishers hand over an event and nothing else.
//
// Delivery is non-blocking. Node events are dropped for a subscriber
// whose buffer is full; queue counter snapshots instead displace the
// oldest buffered event, so a slow monitor always converges on the
// latest counters rather than a stale backlog.
type EventBus struct {
	mu     sync.RWMutex
	subs   []subscriber
	closed bool
}

// subscriber pairs a delivery channel with its topic filter; an empty
// topic receives every event.
type subscriber struct {
	topic string
	ch    chan Event
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe creates a subscription to a specific topic. Returns a
// read-only channel that receives events published to that topic.
// bufSize determines the channel buffer size (defaults to 256 if <= 0).
func (b *EventBus) Subscribe(topic string, bufSize int) <-chan Event {
	return b.subscribe(topic, bufSize)
}

// SubscribeAll creates a subscription to ALL topics through a single
// read-only channel. bufSize defaults to 256 if <= 0.
func (b *EventBus) SubscribeAll(bufSize int) <-chan Event {
	return b.subscribe("", bufSize)
}

func (b *EventBus) subscribe(topic string, bufSize int) <-chan Event {
	if bufSize <= 0 {
		bufSize = 256
	}

	ch := make(chan Event, bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}

	b.subs = append(b.subs, subscriber{topic: topic, ch: ch})
	return ch
}

// Publish routes an event to every subscriber of its topic and to all
// cross-topic subscribers. Publishing never blocks the scheduler side.
func (b *EventBus) Publish(event Event) {
	topic := topicOf(event)

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if sub.topic == "" || sub.topic == topic {
			deliver(sub.ch, event)
		}
	}
}

// deliver hands the event to one subscriber. Counter snapshots are
// latest-wins: on a full buffer the oldest entry is displaced so the
// fresh snapshot gets through.
func deliver(ch chan Event, event Event) {
	select {
	case ch <- event:
		return
	default:
	}

	if _, snapshot := event.(QueueProgressEvent); !snapshot {
		// Buffer full, drop the event for this subscriber.
		return
	}

	select {
	case <-ch:
	default:
	}
	select {
	case ch <- event:
	default:
	}
}

// topicOf maps an event to its topic: the EventType segment before the
// dot ("node.spawned" publishes on TopicNode).
func topicOf(event Event) string {
	t := event.EventType()
	if i := strings.IndexByte(t, '.'); i >= 0 {
		return t[:i]
	}
	return t
}

// Close closes the event bus and all subscriber channels. Safe to call
// multiple times.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, sub := range b.subs {
		close(sub.ch)
	}
}
