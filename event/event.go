// Package event provides typed, synchronous publish/subscribe hooks used to wire
// panels, the join broadcaster and the selection coordinator together.
package event

import "sync"

// Event is a list of handlers invoked in subscription order. The zero value is ready to use.
type Event[T any] struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []handler[T]
}

type handler[T any] struct {
	id uint64
	fn func(T)
}

// Subscription detaches one handler from its event.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the handler. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Subscribe registers fn and returns the handle that removes it again.
func (e *Event[T]) Subscribe(fn func(T)) *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.handlers = append(e.handlers, handler[T]{id: id, fn: fn})

	return &Subscription{cancel: func() { e.remove(id) }}
}

func (e *Event[T]) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, h := range e.handlers {
		if h.id == id {
			e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
			return
		}
	}
}

// Emit calls every handler registered at the time of the call. Handlers may
// subscribe or unsubscribe while being invoked.
func (e *Event[T]) Emit(v T) {
	e.mu.Lock()
	handlers := make([]handler[T], len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()

	for _, h := range handlers {
		h.fn(v)
	}
}

// Len reports the number of live handlers.
func (e *Event[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

// Group collects subscriptions so an owner can drop all of them on teardown.
type Group struct {
	subs []*Subscription
}

// Add keeps track of s.
func (g *Group) Add(s *Subscription) {
	g.subs = append(g.subs, s)
}

// Len reports how many subscriptions are still held.
func (g *Group) Len() int { return len(g.subs) }

// UnsubscribeAll detaches every collected subscription and forgets them.
func (g *Group) UnsubscribeAll() {
	for _, s := range g.subs {
		s.Unsubscribe()
	}
	g.subs = nil
}
