package core

import "sync"

// EventType defines the type of event being published.
type EventType string

const (
	StateChangedEvent      EventType = "StateChanged"
	DeviceConnectedEvent   EventType = "DeviceConnected"
	PatternChangedEvent    EventType = "PatternChanged"
	BrightnessChangedEvent EventType = "BrightnessChanged"
	ScriptChangedEvent     EventType = "ScriptChanged"
	ScheduleChangedEvent   EventType = "ScheduleChanged"
)

// PatternChange is the payload of PatternChangedEvent. Pattern is empty once the strip
// is off.
type PatternChange struct {
	Pattern string
	Command string
	Status  string
}

// BrightnessChange is the payload of BrightnessChangedEvent.
type BrightnessChange struct {
	Level uint8
}

// ConnectionChange is the payload of DeviceConnectedEvent.
type ConnectionChange struct {
	Connected bool
	RSSI      int16
}

// ScriptChange is the payload of ScriptChangedEvent. Name is empty when no script runs.
type ScriptChange struct {
	Name string
}

// Event is the envelope for all system events.
type Event struct {
	Type    EventType
	Payload any
}

// Subscriber is a channel that receives events.
type Subscriber chan Event

// EventBus handles pub/sub messaging for the application.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
}

// NewEventBus creates a new EventBus.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
	}
}

// Subscribe returns a channel that receives events of the given types.
func (eb *EventBus) Subscribe(eventTypes ...EventType) Subscriber {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(Subscriber, 100) // buffered so publishers don't block
	for _, t := range eventTypes {
		eb.subscribers[t] = append(eb.subscribers[t], ch)
	}

	return ch
}

// Unsubscribe removes a subscriber channel.
func (eb *EventBus) Unsubscribe(ch Subscriber, eventTypes ...EventType) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, t := range eventTypes {
		subs := eb.subscribers[t]
		for i, sub := range subs {
			if sub == ch {
				eb.subscribers[t] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Publish distributes an event to all active subscribers for its type. A nil bus
// discards the event.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, sub := range eb.subscribers[event.Type] {
		select {
		case sub <- event:
		default:
			// subscriber is full; drop rather than stall the frame loop
		}
	}
}
