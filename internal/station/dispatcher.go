package station

import "sync"

// EventKind identifies a station event stream.
type EventKind int

// Station event kinds.
const (
	// NewLoopPacket fires for every live sample the station emits.
	NewLoopPacket EventKind = iota

	// NewArchiveRecord fires once per archive interval.
	NewArchiveRecord
)

func (k EventKind) String() string {
	switch k {
	case NewLoopPacket:
		return "loop"
	case NewArchiveRecord:
		return "archive"
	}
	return "unknown"
}

// Event is a decoded record together with the stream it arrived on.
type Event struct {
	Kind   EventKind
	Record *Record
}

// Handler receives dispatched events. Handlers must not block: they run
// inline on the dispatching goroutine (the MQTT message callback).
type Handler func(Event)

// Dispatcher fans station events out to bound handlers. It is the
// in-process stand-in for the station engine's event binding mechanism.
//
// Thread Safety: Bind and Dispatch are safe for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[EventKind][]Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[EventKind][]Handler),
	}
}

// Bind registers a handler for an event kind.
func (d *Dispatcher) Bind(kind EventKind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Dispatch delivers an event to every handler bound to its kind,
// in registration order.
func (d *Dispatcher) Dispatch(ev Event) {
	d.mu.RLock()
	bound := d.handlers[ev.Kind]
	d.mu.RUnlock()

	for _, h := range bound {
		h(ev)
	}
}
