// Package broadcast fans session snapshots out to live viewers.
package broadcast

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/coach"
)

var (
	ErrClosed             = errors.New("hub closed")
	ErrSubscriberExists   = errors.New("subscriber already exists")
	ErrSubscriberNotFound = errors.New("subscriber not found")
)

// Update is one snapshot of one workout.
type Update struct {
	WorkoutID string         `json:"workout_id"`
	Exercise  string         `json:"exercise"`
	Snapshot  coach.Snapshot `json:"snapshot"`
}

// Stats counts deliveries. Sent + Dropped equals Published times the number
// of subscribers at each publish.
type Stats struct {
	Published uint64
	Sent      uint64
	Dropped   uint64
}

type subscriber struct {
	ch      chan Update
	sent    uint64
	dropped uint64
}

// Hub delivers every published Update to every subscriber. A subscriber whose
// buffer is full misses the update instead of blocking the publisher.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	published   uint64
	sent        uint64
	dropped     uint64
	closed      bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]*subscriber)}
}

// Subscribe registers id with a buffered channel. The channel is closed by
// Unsubscribe or Close.
func (h *Hub) Subscribe(id string, buffer int) (<-chan Update, error) {
	if buffer < 1 {
		buffer = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	if _, exists := h.subscribers[id]; exists {
		return nil, ErrSubscriberExists
	}

	sub := &subscriber{ch: make(chan Update, buffer)}
	h.subscribers[id] = sub
	return sub.ch, nil
}

// Unsubscribe removes id and closes its channel.
func (h *Hub) Unsubscribe(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, exists := h.subscribers[id]
	if !exists {
		return ErrSubscriberNotFound
	}
	close(sub.ch)
	delete(h.subscribers, id)
	return nil
}

// Publish delivers u without blocking.
func (h *Hub) Publish(u Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	atomic.AddUint64(&h.published, 1)

	for _, sub := range h.subscribers {
		select {
		case sub.ch <- u:
			atomic.AddUint64(&sub.sent, 1)
			atomic.AddUint64(&h.sent, 1)
		default:
			atomic.AddUint64(&sub.dropped, 1)
			atomic.AddUint64(&h.dropped, 1)
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Stats returns hub-wide delivery counts.
func (h *Hub) Stats() Stats {
	return Stats{
		Published: atomic.LoadUint64(&h.published),
		Sent:      atomic.LoadUint64(&h.sent),
		Dropped:   atomic.LoadUint64(&h.dropped),
	}
}

// SubscriberStats returns delivery counts for one subscriber.
func (h *Hub) SubscriberStats(id string) (Stats, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sub, exists := h.subscribers[id]
	if !exists {
		return Stats{}, ErrSubscriberNotFound
	}
	return Stats{
		Published: atomic.LoadUint64(&h.published),
		Sent:      atomic.LoadUint64(&sub.sent),
		Dropped:   atomic.LoadUint64(&sub.dropped),
	}, nil
}

// Close closes every subscriber channel. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for _, sub := range h.subscribers {
		close(sub.ch)
	}
	h.subscribers = nil
}
