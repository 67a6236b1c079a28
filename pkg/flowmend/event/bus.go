package event

import (
	"sync"

	"github.com/google/uuid"
)

// Handler receives published events. Handlers must not block: delivery is
// synchronous on the publisher's goroutine.
type Handler func(Event)

// Bus distributes events to subscribers.
type Bus interface {
	// Publish delivers an event to matching subscribers in subscription order.
	Publish(evt Event)

	// Subscribe registers a handler for specific event types.
	// An empty type list subscribes to all events.
	Subscribe(types []string, handler Handler) Subscription

	// Close removes all subscriptions. Publish becomes a no-op.
	Close()
}

// Subscription is a handle for removing a subscriber.
type Subscription interface {
	Unsubscribe()
}

// LocalBus is an in-memory Bus safe for concurrent use.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[string]*localSub
	order  []string
	closed bool
}

type localSub struct {
	id      string
	types   map[string]bool // empty means all types
	handler Handler
	bus     *LocalBus
}

// NewLocalBus creates an empty in-memory bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]*localSub)}
}

// Publish implements Bus.
func (b *LocalBus) Publish(evt Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	if !b.closed {
		for _, id := range b.order {
			sub, ok := b.subs[id]
			if !ok {
				continue
			}
			if len(sub.types) == 0 || sub.types[evt.Type] {
				handlers = append(handlers, sub.handler)
			}
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}

// Subscribe implements Bus.
func (b *LocalBus) Subscribe(types []string, handler Handler) Subscription {
	sub := &localSub{
		id:      uuid.NewString(),
		types:   make(map[string]bool, len(types)),
		handler: handler,
		bus:     b,
	}
	for _, t := range types {
		sub.types[t] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return sub
	}
	b.subs[sub.id] = sub
	b.order = append(b.order, sub.id)
	return sub
}

// Close implements Bus.
func (b *LocalBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string]*localSub)
	b.order = nil
}

// Unsubscribe implements Subscription.
func (s *localSub) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.id)
}
