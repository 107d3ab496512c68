// Package events provides the typed event bus connecting the processing
// pipeline to the presentation layer.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case ProgressEvent:
		event.Publish(b.dispatcher, e)
	case LogEvent:
		event.Publish(b.dispatcher, e)
	case StateEvent:
		event.Publish(b.dispatcher, e)
	case CompletedEvent:
		event.Publish(b.dispatcher, e)
	case FailedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes a handler function; the handler's parameter type
// determines which events it receives. Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e ProgressEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ProgressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FailedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
