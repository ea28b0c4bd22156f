package events

import "sync"

// Handler processes a published event. Handlers run synchronously on the
// publishing goroutine and must not panic; the bus does not recover, so a
// panicking handler is a caller bug that takes the publish down with it.
type Handler func(Event)

// Bus is an in-process publish/subscribe channel for file-operation events.
// Dispatch is fully synchronous: Publish invokes every handler currently
// subscribed to the event's type, in subscription order, before returning.
// Each Bus is an independent instance; subscribers hold Subscription handles
// scoped to the bus they came from. The Bus is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[EventType][]*Subscription
}

// Subscription is the scoped handle returned by Subscribe. Cancelling the
// handle is the only way to release a subscription; a leaked handle keeps
// its handler mutating captured state on every future publish.
type Subscription struct {
	bus     *Bus
	kind    EventType
	id      uint64
	handler Handler
}

// Cancel releases the subscription. It is idempotent and reports whether
// the subscription was still registered.
func (s *Subscription) Cancel() bool {
	if s == nil {
		return false
	}
	return s.bus.Unsubscribe(s)
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]*Subscription)}
}

// Subscribe registers handler for events of the given type and returns a
// handle the caller must eventually Cancel.
func (b *Bus) Subscribe(kind EventType, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{bus: b, kind: kind, id: b.nextID, handler: handler}
	b.subs[kind] = append(b.subs[kind], sub)
	return sub
}

// Unsubscribe removes the subscription from the bus, reporting whether it
// was still registered. Subscriptions from a different bus are rejected.
func (b *Bus) Unsubscribe(sub *Subscription) bool {
	if sub == nil || sub.bus != b {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	registered := b.subs[sub.kind]
	for i, s := range registered {
		if s.id == sub.id {
			b.subs[sub.kind] = append(registered[:i:i], registered[i+1:]...)
			if len(b.subs[sub.kind]) == 0 {
				delete(b.subs, sub.kind)
			}
			return true
		}
	}
	return false
}

// Publish delivers the event to every subscriber of its type, in
// subscription order, and returns once all handlers have run. The handler
// list is copied under the lock, so handlers may subscribe or cancel during
// dispatch without affecting the current delivery round.
func (b *Bus) Publish(event Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	registered := b.subs[event.Type()]
	handlers := make([]Handler, len(registered))
	for i, s := range registered {
		handlers[i] = s.handler
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
