// Package pubsub provides a small per-owner publish/subscribe hub.
//
// Every component that emits events owns its own Hub. Delivery is
// synchronous and ordered by subscription; there are no priorities.
package pubsub

import "sync"

// Handler receives the payload passed to Publish.
type Handler func(payload any)

// Token identifies a subscription so it can be removed later.
type Token uint64

type subscription struct {
	token   Token
	handler Handler
}

// Hub is a registry of named-topic subscriber lists.
type Hub struct {
	mu     sync.Mutex
	next   Token
	topics map[string][]subscription
}

// New returns an empty hub.
func New() *Hub {
	return &Hub{topics: make(map[string][]subscription)}
}

// Subscribe registers handler for topic and returns its token.
func (h *Hub) Subscribe(topic string, handler Handler) Token {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics == nil {
		h.topics = make(map[string][]subscription)
	}
	h.next++
	h.topics[topic] = append(h.topics[topic], subscription{token: h.next, handler: handler})
	return h.next
}

// Unsubscribe removes the subscription identified by token from topic.
// Unknown tokens are ignored.
func (h *Hub) Unsubscribe(topic string, token Token) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.topics[topic]
	for i, s := range subs {
		if s.token == token {
			h.topics[topic] = append(subs[:i:i], subs[i+1:]...)
			if len(h.topics[topic]) == 0 {
				delete(h.topics, topic)
			}
			return
		}
	}
}

// Publish calls every handler subscribed to topic, in subscription order.
// Handlers added or removed during delivery take effect on the next Publish.
func (h *Hub) Publish(topic string, payload any) {
	h.mu.Lock()
	subs := append([]subscription(nil), h.topics[topic]...)
	h.mu.Unlock()

	for _, s := range subs {
		s.handler(payload)
	}
}

// Once subscribes a handler that removes itself after its first delivery.
func (h *Hub) Once(topic string, handler Handler) Token {
	var token Token
	fired := false
	token = h.Subscribe(topic, func(payload any) {
		if fired {
			return
		}
		fired = true
		h.Unsubscribe(topic, token)
		handler(payload)
	})
	return token
}

// Count returns the number of handlers subscribed to topic.
func (h *Hub) Count(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}

// Reset clears every subscription on this hub.
func (h *Hub) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.topics = make(map[string][]subscription)
}
