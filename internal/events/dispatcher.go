package events

import (
	"context"
	"sync"
	"time"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher delivers events to handlers on a separate goroutine.
// Ticket mutations are the durable fact; notification side effects are
// best-effort and must never block or roll back the mutation that
// triggered them, so delivery is detached from the caller's context.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	timeout   time.Duration
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		timeout:   30 * time.Second,
	}
}

// Publish invokes handlers for the given event asynchronously. Handler
// errors are swallowed; a handler that needs visibility logs for itself.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}
	go func() {
		handlerCtx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		for _, handler := range handlers {
			_ = handler(handlerCtx, event)
		}
	}()
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}
