// Package events provides the in-process event bus that carries simulation
// run lifecycle and dataset change notifications to streaming clients.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies the kind of event flowing through the bus
type EventType string

const (
	// Simulation run lifecycle
	RunQueued    EventType = "RunQueued"
	RunStarted   EventType = "RunStarted"
	RunProgress  EventType = "RunProgress"
	RunCompleted EventType = "RunCompleted"
	RunFailed    EventType = "RunFailed"
	RunCancelled EventType = "RunCancelled"

	// Dataset changes
	DatasetImported EventType = "DatasetImported"
	DatasetCleared  EventType = "DatasetCleared"

	// System
	ErrorOccurred EventType = "ErrorOccurred"
)

// subscriberBufferSize is the per-subscriber channel depth. Slow consumers
// drop events rather than block emitters.
const subscriberBufferSize = 100

type subscriber struct {
	types map[EventType]bool // empty = all event types
	ch    chan EventWithData
}

// Manager is the central event bus. Emitters publish typed events, consumers
// subscribe with buffered channels. Emitting never blocks: events to full
// subscriber channels are dropped and counted.
type Manager struct {
	mu          sync.RWMutex
	subscribers map[int]*subscriber
	nextID      int
	log         zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		subscribers: make(map[int]*subscriber),
		log:         log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a consumer for the given event types (all types when
// none are given). Returns the event channel and an unsubscribe function.
// The channel is closed on unsubscribe.
func (m *Manager) Subscribe(types ...EventType) (<-chan EventWithData, func()) {
	sub := &subscriber{
		types: make(map[EventType]bool, len(types)),
		ch:    make(chan EventWithData, subscriberBufferSize),
	}
	for _, t := range types {
		sub.types[t] = true
	}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = sub
	m.mu.Unlock()

	unsubscribe := func() {
		m.mu.Lock()
		if s, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(s.ch)
		}
		m.mu.Unlock()
	}

	return sub.ch, unsubscribe
}

// EmitTyped publishes a typed event to all matching subscribers
func (m *Manager) EmitTyped(eventType EventType, module string, data EventData) {
	m.dispatch(EventWithData{
		Type:      eventType,
		Timestamp: time.Now(),
		Module:    module,
		Data:      data,
	})
}

// Emit publishes an event with loosely-typed map data. Prefer EmitTyped for
// events that have a payload struct.
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	m.dispatch(EventWithData{
		Type:      eventType,
		Timestamp: time.Now(),
		Module:    module,
		Data:      &GenericEventData{Type: eventType, Data: data},
	})
}

// SubscriberCount returns the number of active subscribers
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

func (m *Manager) dispatch(event EventWithData) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		if len(sub.types) > 0 && !sub.types[event.Type] {
			continue
		}

		select {
		case sub.ch <- event:
		default:
			// Subscriber buffer full, drop rather than block the emitter
			m.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Dropped event for slow subscriber")
		}
	}
}
