// Package watch is the in-process change feed behind the live subscription
// endpoints. Mutations publish a notification for a topic; each subscriber
// then re-queries the store and replaces its working set with the full
// snapshot. Notifications carry no payload on purpose: a subscription only
// learns that its scope changed, never a partial delta.
package watch

import "sync"

// Hub fans change notifications out to topic subscribers.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan struct{})}
}

// Subscription is one listener on a topic. Release it with Cancel when the
// owning view goes away or its scope changes, so stale-scope notifications
// stop arriving.
type Subscription struct {
	C      <-chan struct{}
	hub    *Hub
	topic  string
	id     int
	cancel sync.Once
}

// Subscribe registers a listener for the topic.
func (h *Hub) Subscribe(topic string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan struct{}, 1)
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan struct{})
	}
	h.subs[topic][id] = ch

	return &Subscription{C: ch, hub: h, topic: topic, id: id}
}

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancel.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if subs, ok := s.hub.subs[s.topic]; ok {
			delete(subs, s.id)
			if len(subs) == 0 {
				delete(s.hub.subs, s.topic)
			}
		}
	})
}

// Publish notifies every subscriber of the topic. A subscriber that already
// has a pending notification is not queued a second one; it will re-fetch a
// snapshot that covers both changes anyway.
func (h *Hub) Publish(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
