// Package signalbus is the typed activity-signal channel between the chat
// collaborator and the polling scheduler.
package signalbus

import (
	"sync"
	"time"
)

// Signal is one user-activity notification: the user appears to have asked
// for an itinerary. A spurious signal only costs a temporary cadence change.
type Signal struct {
	Timestamp time.Time `json:"timestamp"`
}

// Broker is an in-process publish/subscribe channel with one event kind.
// Safe for concurrent use. The zero value is not usable; call NewBroker.
type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Signal)
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]func(Signal))}
}

// Subscribe registers a handler for activity signals and returns a cancel
// function. Handlers run synchronously on the publisher's goroutine and must
// not block.
func (b *Broker) Subscribe(handler func(Signal)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers a signal to all current subscribers.
func (b *Broker) Publish(sig Signal) {
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}

	b.mu.RLock()
	handlers := make([]func(Signal), 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(sig)
	}
}

// SubscriberCount reports the number of active subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
