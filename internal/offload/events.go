package offload

import "sync"

// Event represents a session lifecycle event.
type Event struct {
	Name    string
	Session uint64
	Fields  map[string]any
}

// Event names.
const (
	EventSessionStart  = "session_start"
	EventLayerDone     = "layer_done"
	EventSessionDone   = "session_done"
	EventSessionFailed = "session_failed"
	EventSessionBusy   = "session_busy"
)

// EventPublisher receives events from the controller. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher stores events in-memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// FanOut forwards every event to each publisher in order.
type FanOut []EventPublisher

func (f FanOut) Publish(e Event) {
	for _, p := range f {
		p.Publish(e)
	}
}
