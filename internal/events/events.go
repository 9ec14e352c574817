// Package events provides event publishing for the extension's integration
// components.
package events

import (
	"sync"
	"time"
)

// Event types published by this layer.
const (
	BuildStarted        = "build.started"
	BuildCompleted      = "build.completed"
	BuildDryRunDegraded = "build.dryrun.degraded"
	PreconfigureDone    = "preconfigure.completed"
	DebugSessionStarted = "debug.session.started"
	TerminalCreated     = "terminal.created"
	TerminalClosed      = "terminal.closed"
	SettingsChanged     = "settings.changed"
	MakefileChanged     = "makefile.changed"
)

// Publisher defines the interface for publishing extension events.
type Publisher interface {
	// Publish sends an event to subscribers.
	Publish(eventType string, data map[string]any)
}

// Event is a published event as delivered to handlers.
type Event struct {
	// Type identifies the event, e.g. "terminal.closed".
	Type string

	// Data carries event-specific payload fields.
	Data map[string]any

	// Time is when the event was published.
	Time time.Time
}

// Handler receives published events.
type Handler func(Event)

// Bus is a synchronous in-process Publisher with topic subscriptions.
// Handlers run on the publishing goroutine; they must not block.
//
// Bus is safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string]map[int]Handler),
	}
}

// Subscribe registers a handler for an event type. The type "*" receives
// every event. The returned function removes the subscription.
func (b *Bus) Subscribe(eventType string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	set, ok := b.handlers[eventType]
	if !ok {
		set = make(map[int]Handler)
		b.handlers[eventType] = set
	}
	set[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.handlers[eventType]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(b.handlers, eventType)
			}
		}
	}
}

// Publish delivers the event to subscribers of its type and of "*".
func (b *Bus) Publish(eventType string, data map[string]any) {
	ev := Event{
		Type: eventType,
		Data: data,
		Time: time.Now(),
	}

	b.mu.RLock()
	var targets []Handler
	for _, h := range b.handlers[eventType] {
		targets = append(targets, h)
	}
	for _, h := range b.handlers["*"] {
		targets = append(targets, h)
	}
	b.mu.RUnlock()

	for _, h := range targets {
		h(ev)
	}
}

// nopPublisher discards all events.
type nopPublisher struct{}

func (nopPublisher) Publish(string, map[string]any) {}

// Nop returns a Publisher that discards all events.
func Nop() Publisher {
	return nopPublisher{}
}
