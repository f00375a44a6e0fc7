package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const defaultStreamBuffer = 16

// StreamDeliverer delivers stored notifications to live in-app subscribers
// over per-user channels. An SSE or websocket handler subscribes for the
// duration of the connection; a user with no open connection simply has no
// subscribers and the notification waits in storage.
//
// Slow subscribers lose messages rather than block delivery: the feed is
// persisted first, so a dropped stream message costs a refresh, not a
// notification.
type StreamDeliverer struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*Subscription]struct{}
	buffer int
	closed bool
}

// Subscription is one live stream of a user's notifications.
type Subscription struct {
	ch     chan Notification
	cancel func()
	once   sync.Once
}

// C returns the channel stream messages arrive on. It is closed when the
// subscription ends.
func (s *Subscription) C() <-chan Notification {
	return s.ch
}

// Close ends the subscription. Safe to call multiple times.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// StreamOption configures a StreamDeliverer.
type StreamOption func(*StreamDeliverer)

// WithStreamBuffer sets the per-subscription channel buffer.
func WithStreamBuffer(n int) StreamOption {
	return func(d *StreamDeliverer) {
		if n > 0 {
			d.buffer = n
		}
	}
}

// NewStreamDeliverer creates a StreamDeliverer with no subscribers.
func NewStreamDeliverer(opts ...StreamOption) *StreamDeliverer {
	d := &StreamDeliverer{
		subs:   make(map[uuid.UUID]map[*Subscription]struct{}),
		buffer: defaultStreamBuffer,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe opens a stream of the user's notifications. The subscription
// ends when ctx is cancelled or Close is called.
func (d *StreamDeliverer) Subscribe(ctx context.Context, userID uuid.UUID) *Subscription {
	sub := &Subscription{ch: make(chan Notification, d.buffer)}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		sub.cancel = func() {}
		close(sub.ch)
		return sub
	}
	if d.subs[userID] == nil {
		d.subs[userID] = make(map[*Subscription]struct{})
	}
	d.subs[userID][sub] = struct{}{}
	d.mu.Unlock()

	sub.cancel = func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if set, ok := d.subs[userID]; ok {
			if _, live := set[sub]; live {
				delete(set, sub)
				if len(set) == 0 {
					delete(d.subs, userID)
				}
				close(sub.ch)
			}
		}
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Close()
		}()
	}
	return sub
}

// Deliver pushes the notification to every live subscription of its user.
func (d *StreamDeliverer) Deliver(ctx context.Context, notif Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for sub := range d.subs[notif.UserID] {
		select {
		case sub.ch <- notif:
		default:
			// Subscriber is not keeping up; it will catch up from storage.
		}
	}
	return nil
}

// DeliverBatch pushes each notification to its own user's subscriptions.
func (d *StreamDeliverer) DeliverBatch(ctx context.Context, notifs []Notification) error {
	for _, notif := range notifs {
		_ = d.Deliver(ctx, notif)
	}
	return nil
}

// Close ends every subscription and rejects new ones.
func (d *StreamDeliverer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	for _, set := range d.subs {
		for sub := range set {
			close(sub.ch)
		}
	}
	d.subs = make(map[uuid.UUID]map[*Subscription]struct{})
}
