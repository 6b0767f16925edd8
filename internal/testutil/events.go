package testutil

import (
	"sync"

	"github.com/Yuqi1124/TownRecord/internal/model"
)

// EventRecorder is a town listener that keeps every event it receives
type EventRecorder struct {
	mu     sync.Mutex
	events []model.Event
}

// NewEventRecorder creates an empty EventRecorder
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// HandleEvent records the event
func (r *EventRecorder) HandleEvent(event model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events
func (r *EventRecorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]model.Event, len(r.events))
	copy(events, r.events)
	return events
}

// Types returns the recorded event types in order
func (r *EventRecorder) Types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]model.EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

// Last returns the most recent event of the given type
func (r *EventRecorder) Last(eventType model.EventType) (model.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == eventType {
			return r.events[i], true
		}
	}
	return model.Event{}, false
}

// Reset discards the recorded events
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
