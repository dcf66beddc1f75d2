// Package bridge is the asynchronous, ordered, named-event channel between
// the session core and background services (the SQL engine, file dialogs).
// A single dispatcher goroutine delivers events in emission order, so a
// round-trip's reply can never overtake its request; no ordering is promised
// across independent emitters.
package bridge

import "sync"

// Handler receives the payload of a named event. Payloads are the typed
// structs declared in events.go; handlers type-assert and ignore mismatches.
type Handler func(data any)

type message struct {
	name  string
	data  any
	flush chan struct{}
}

// Bus is the in-process event channel.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler

	queue chan message
	done  chan struct{}
	once  sync.Once
}

// New creates a Bus and starts its dispatcher.
func New() *Bus {
	b := &Bus{
		handlers: make(map[string][]Handler),
		queue:    make(chan message, 256),
		done:     make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// On registers a handler for a named event. Handlers run sequentially on the
// dispatcher goroutine in registration order.
func (b *Bus) On(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Emit queues an event for delivery. Safe to call from any goroutine,
// including from inside a handler.
func (b *Bus) Emit(name string, data any) {
	select {
	case b.queue <- message{name: name, data: data}:
	case <-b.done:
	}
}

// Flush blocks until every event emitted before the call has been delivered.
func (b *Bus) Flush() {
	ch := make(chan struct{})
	select {
	case b.queue <- message{flush: ch}:
		<-ch
	case <-b.done:
	}
}

// Close stops the dispatcher. Pending events are dropped.
func (b *Bus) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bus) dispatch() {
	for {
		select {
		case m := <-b.queue:
			if m.flush != nil {
				close(m.flush)
				continue
			}
			b.mu.RLock()
			hs := make([]Handler, len(b.handlers[m.name]))
			copy(hs, b.handlers[m.name])
			b.mu.RUnlock()
			for _, h := range hs {
				h(m.data)
			}
		case <-b.done:
			return
		}
	}
}
