// Package events provides the in-process host event bus that webhooks subscribe to.
package events

import (
	"context"
	"sort"
	"sync"
)

// Handler receives the positional arguments an event was fired with.
// Arity and types are defined by the event, not by the bus.
type Handler func(ctx context.Context, args ...any)

// Dispatcher is a synchronous publish/subscribe bus. Fire runs every handler
// inline, in subscription order, on the caller's goroutine.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Subscribe registers handler for event. There is no unsubscribe.
func (d *Dispatcher) Subscribe(event string, handler Handler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = append(d.handlers[event], handler)
}

// Fire invokes all handlers subscribed to event and returns how many ran.
// Handlers are called outside the lock so they may subscribe or fire themselves.
func (d *Dispatcher) Fire(ctx context.Context, event string, args ...any) int {
	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers[event]))
	copy(handlers, d.handlers[event])
	d.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, args...)
	}
	return len(handlers)
}

// Events returns the sorted names of events with at least one handler
func (d *Dispatcher) Events() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.handlers))
	for name, hs := range d.handlers {
		if len(hs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
