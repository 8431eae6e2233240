package testutil

import (
	"context"
	"sync"

	"github.com/dinarbooks/backend/internal/domain/shared"
)

// EventRecorder records every event handed to it. It satisfies the
// application event handler interface.
type EventRecorder struct {
	mu      sync.Mutex
	handled []shared.DomainEvent
}

// NewEventRecorder creates an empty recorder
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// Handle records the event
func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled = append(r.handled, event)
}

// Handled returns a copy of the recorded events
func (r *EventRecorder) Handled() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, len(r.handled))
	copy(out, r.handled)
	return out
}

// Types returns the recorded event types in order
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.handled))
	for i, e := range r.handled {
		out[i] = e.EventType()
	}
	return out
}

// Count returns how many events of eventType were recorded
func (r *EventRecorder) Count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.handled {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

// Reset forgets everything recorded so far
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled = nil
}
