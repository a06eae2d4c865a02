// Package realtime fans notifications out to per-user feed subscribers.
package realtime

import (
	"context"
	"sync"

	"github.com/fuelops/task-tracker/internal/models"
)

// Hub delivers notifications to subscribers keyed by recipient id.
type Hub interface {
	Publish(ctx context.Context, n models.Notification) error
	Subscribe(ctx context.Context, userID string) (*Subscription, error)
	Close() error
}

// Subscription is a live feed for one user. C is closed after Cancel.
type Subscription struct {
	C <-chan models.Notification

	once   sync.Once
	cancel func()
}

func newSubscription(c <-chan models.Notification, cancel func()) *Subscription {
	return &Subscription{C: c, cancel: cancel}
}

// Cancel stops delivery. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

const subscriberBuffer = 16

// MemoryHub is an in-process Hub for single-instance deployments and tests.
// A subscriber that falls behind by more than its buffer misses notifications;
// the unread list remains the source of truth.
type MemoryHub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan models.Notification]struct{}
	closed bool
}

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{subs: make(map[string]map[chan models.Notification]struct{})}
}

func (h *MemoryHub) Publish(ctx context.Context, n models.Notification) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[n.UserID] {
		select {
		case ch <- n:
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

func (h *MemoryHub) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	ch := make(chan models.Notification, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return newSubscription(ch, func() {}), nil
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan models.Notification]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	return newSubscription(ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[userID][ch]; ok {
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(ch)
		}
	}), nil
}

// Close ends every subscription.
func (h *MemoryHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, userID)
	}
	h.closed = true
	return nil
}
