package events

import (
	"sync"
	"testing"
)

// recorder accumulates delivered events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) getEvents() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func TestBusPublishToSubscriber(t *testing.T) {
	bus := NewBus()
	rec := &recorder{}
	bus.Subscribe(BuildStarted, rec.handle)

	bus.Publish(BuildStarted, map[string]any{"operation_id": "op-1"})

	got := rec.getEvents()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Type != BuildStarted {
		t.Errorf("expected type %q, got %q", BuildStarted, got[0].Type)
	}
	if got[0].Data["operation_id"] != "op-1" {
		t.Errorf("expected payload to carry operation_id, got %v", got[0].Data)
	}
	if got[0].Time.IsZero() {
		t.Error("expected a publish timestamp")
	}
}

func TestBusIgnoresOtherTypes(t *testing.T) {
	bus := NewBus()
	rec := &recorder{}
	bus.Subscribe(BuildStarted, rec.handle)

	bus.Publish(BuildCompleted, nil)
	bus.Publish(TerminalClosed, nil)

	if got := rec.getEvents(); len(got) != 0 {
		t.Errorf("expected no events for other types, got %d", len(got))
	}
}

func TestBusWildcardReceivesEverything(t *testing.T) {
	bus := NewBus()
	rec := &recorder{}
	bus.Subscribe("*", rec.handle)

	bus.Publish(BuildStarted, nil)
	bus.Publish(SettingsChanged, nil)
	bus.Publish("custom.event", nil)

	got := rec.getEvents()
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[2].Type != "custom.event" {
		t.Errorf("expected last type 'custom.event', got %q", got[2].Type)
	}
}

func TestBusTypedAndWildcardBothFire(t *testing.T) {
	bus := NewBus()
	typed := &recorder{}
	wild := &recorder{}
	bus.Subscribe(MakefileChanged, typed.handle)
	bus.Subscribe("*", wild.handle)

	bus.Publish(MakefileChanged, nil)

	if got := typed.getEvents(); len(got) != 1 {
		t.Errorf("expected typed handler to fire once, got %d", len(got))
	}
	if got := wild.getEvents(); len(got) != 1 {
		t.Errorf("expected wildcard handler to fire once, got %d", len(got))
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	rec := &recorder{}
	unsubscribe := bus.Subscribe(BuildStarted, rec.handle)

	bus.Publish(BuildStarted, nil)
	unsubscribe()
	bus.Publish(BuildStarted, nil)

	if got := rec.getEvents(); len(got) != 1 {
		t.Errorf("expected 1 event after unsubscribe, got %d", len(got))
	}

	// Unsubscribing twice is harmless.
	unsubscribe()
}

func TestBusUnsubscribeLeavesOthers(t *testing.T) {
	bus := NewBus()
	first := &recorder{}
	second := &recorder{}
	unsubscribe := bus.Subscribe(BuildStarted, first.handle)
	bus.Subscribe(BuildStarted, second.handle)

	unsubscribe()
	bus.Publish(BuildStarted, nil)

	if got := first.getEvents(); len(got) != 0 {
		t.Errorf("expected unsubscribed handler to stay silent, got %d events", len(got))
	}
	if got := second.getEvents(); len(got) != 1 {
		t.Errorf("expected remaining handler to fire, got %d events", len(got))
	}
}

func TestBusConcurrentPublish(t *testing.T) {
	bus := NewBus()
	rec := &recorder{}
	bus.Subscribe("*", rec.handle)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(BuildStarted, nil)
			}
		}()
	}
	wg.Wait()

	if got := rec.getEvents(); len(got) != 1000 {
		t.Errorf("expected 1000 events, got %d", len(got))
	}
}

func TestNopPublisher(t *testing.T) {
	// Nop must accept publishes without blowing up.
	Nop().Publish(BuildStarted, map[string]any{"x": 1})
	Nop().Publish("", nil)
}
