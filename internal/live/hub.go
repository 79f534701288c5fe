// Package live fans out full-snapshot replaces to subscribed clients, the
// server-side counterpart of the app's document listeners. Every publish
// replaces the topic's snapshot wholesale; subscribers never see diffs.
package live

import (
	"sync"
)

// Snapshot is one full replacement of a topic's state.
type Snapshot struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

type subscriber struct {
	topics map[string]bool
	ch     chan Snapshot
}

// Hub tracks the latest snapshot per topic and the subscribers per topic.
type Hub struct {
	mu     sync.Mutex
	latest map[string]Snapshot
	subs   map[*subscriber]bool
}

func NewHub() *Hub {
	return &Hub{
		latest: make(map[string]Snapshot),
		subs:   make(map[*subscriber]bool),
	}
}

// Topic name helpers. Topics are scoped per user.
func RacesTopic(uid string) string    { return "races:" + uid }
func WatchingTopic(uid string) string { return "watching:" + uid }
func DetailsTopic(uid string) string  { return "details:" + uid }

// Publish replaces the topic's snapshot and notifies subscribers. Slow
// subscribers drop intermediate snapshots; only the latest state matters.
func (h *Hub) Publish(topic string, data any) {
	snap := Snapshot{Topic: topic, Data: data}

	// sends stay under the lock so a concurrent cancel cannot close a
	// channel mid-send; they are non-blocking, so this stays cheap
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[topic] = snap
	for s := range h.subs {
		if !s.topics[topic] {
			continue
		}
		select {
		case s.ch <- snap:
		default:
			// drain the stale snapshot, then push the fresh one
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- snap:
			default:
			}
		}
	}
}

// Subscribe registers interest in a set of topics. The current snapshot of
// each topic (when one exists) is delivered immediately. The returned cancel
// func releases the subscription; after it returns the channel is closed.
func (h *Hub) Subscribe(topics []string) (<-chan Snapshot, func()) {
	// the seed loop below runs under the lock, so the buffer must hold one
	// snapshot per requested topic without blocking
	size := len(topics) + 16
	s := &subscriber{
		topics: make(map[string]bool, len(topics)),
		ch:     make(chan Snapshot, size),
	}
	for _, t := range topics {
		s.topics[t] = true
	}

	h.mu.Lock()
	h.subs[s] = true
	// seed with current state
	for _, t := range topics {
		if snap, ok := h.latest[t]; ok {
			s.ch <- snap
		}
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if h.subs[s] {
			delete(h.subs, s)
			close(s.ch)
		}
		h.mu.Unlock()
	}
	return s.ch, cancel
}
