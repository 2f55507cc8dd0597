// Package bus is the in-process fan-out channel for conversation
// events. Delivery is best effort: subscribers with a full buffer miss
// events and are expected to reconcile by polling the message list.
package bus

import (
	"sync"
	"time"
)

const (
	EventMessageCreated = "message.created"
	EventMessageDeleted = "message.deleted"
)

// Event is one conversation-scoped broadcast. Origin identifies the
// publishing process so a cross-instance bridge can skip its own
// events when they come back around.
type Event struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversationId"`
	Payload        any       `json:"payload"`
	Origin         string    `json:"origin,omitempty"`
	At             time.Time `json:"at"`
}

// Publisher is the write side of the bus. The workflow service depends
// on this interface so a Redis-bridged bus can slot in unchanged.
type Publisher interface {
	Publish(event Event)
}

// Bus is an explicitly owned topic registry, created at server start
// and torn down at shutdown.
type Bus struct {
	mu     sync.Mutex
	topics map[string]map[chan Event]struct{}
	closed bool
}

func New() *Bus {
	return &Bus{topics: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a buffered listener for one conversation. The
// caller must Unsubscribe when done or the channel leaks.
func (b *Bus) Subscribe(conversationID string, buffer int) chan Event {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	subs := b.topics[conversationID]
	if subs == nil {
		subs = make(map[chan Event]struct{})
		b.topics[conversationID] = subs
	}
	subs[ch] = struct{}{}
	return ch
}

func (b *Bus) Unsubscribe(conversationID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.topics[conversationID]
	if subs == nil {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	if len(subs) == 0 {
		delete(b.topics, conversationID)
	}
	close(ch)
}

// Publish delivers the event to every subscriber of its conversation.
// A subscriber whose buffer is full is skipped, never blocked on.
func (b *Bus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for ch := range b.topics[event.ConversationID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close tears down every topic and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for conversationID, subs := range b.topics {
		for ch := range subs {
			close(ch)
		}
		delete(b.topics, conversationID)
	}
}
