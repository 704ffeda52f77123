// Package store holds the storefront's state containers: cart, user, order
// history, UI visibility and toasts. Each container is an explicit instance
// guarded by its own mutex; observers subscribe through a Hub and are called
// after the mutation lock is released.
package store

import (
	"sync"
	"time"
)

const (
	NameCart   = "cart"
	NameUser   = "user"
	NameOrders = "orders"
	NameUI     = "ui"
	NameToasts = "toasts"
)

// Event describes one applied mutation. Seq increases per hub in mutation
// order.
type Event struct {
	Store  string    `json:"store"`
	Action string    `json:"action"`
	Seq    uint64    `json:"seq"`
	At     time.Time `json:"at"`
}

type Listener func(Event)

// Hub fans mutation events out to subscribers. Events queue in mutation
// order and are drained by whichever caller flushes first, so a listener may
// itself mutate a store without deadlocking.
type Hub struct {
	name string

	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
	seq       uint64
	pending   []Event
	draining  bool
}

func NewHub(name string) *Hub {
	return &Hub{name: name, listeners: make(map[int]Listener)}
}

func (h *Hub) Name() string {
	return h.name
}

// Subscribe registers fn and returns the function that removes it.
func (h *Hub) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// record queues the event for a mutation. Stores call it while still holding
// their own lock so the queue follows mutation order.
func (h *Hub) record(action string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	h.pending = append(h.pending, Event{Store: h.name, Action: action, Seq: h.seq, At: time.Now()})
}

// flush delivers queued events. Stores call it after releasing their lock.
func (h *Hub) flush() {
	h.mu.Lock()
	if h.draining {
		h.mu.Unlock()
		return
	}
	h.draining = true
	for len(h.pending) > 0 {
		events := h.pending
		h.pending = nil
		listeners := make([]Listener, 0, len(h.listeners))
		for id := 0; id < h.nextID; id++ {
			if fn, ok := h.listeners[id]; ok {
				listeners = append(listeners, fn)
			}
		}
		h.mu.Unlock()

		for _, event := range events {
			for _, fn := range listeners {
				fn(event)
			}
		}

		h.mu.Lock()
	}
	h.draining = false
	h.mu.Unlock()
}
