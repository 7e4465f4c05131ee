// Package notify fans "the vault of user X changed" signals out to every
// open watch stream of that user.
//
// Signals carry no payload: a watcher reacts by reading the current vault.
// Each subscription owns a channel with a single slot, so a burst of
// changes collapses into one wakeup and a slow watcher never blocks the
// publisher.
package notify

import (
	"context"
	"sync"
)

type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers interest in userID. The returned cancel function
// unregisters it and is safe to call more than once.
func (h *Hub) Subscribe(userID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.subs[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
		})
	}
	return ch, cancel
}

// Publish wakes every subscriber of userID without blocking.
func (h *Hub) Publish(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// PublishAll wakes every subscriber of every user.
func (h *Hub) PublishAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for ch := range set {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Notify implements the services change notifier for single-instance setups.
func (h *Hub) Notify(_ context.Context, userID string) error {
	h.Publish(userID)
	return nil
}

// Subscribers reports how many watchers userID currently has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
