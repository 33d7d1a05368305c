package shared

// EventSource is a record that collects domain events while a request changes
// it. The events are published once the ledger and status writes succeed.
type EventSource interface {
	PendingEvents() []DomainEvent
	TakeEvents() []DomainEvent
}

// EventRecorder is embedded by records that raise events. Records are
// identified by business key and row position, so it carries no id or version.
type EventRecorder struct {
	pending []DomainEvent
}

// RecordEvent queues an event for publication
func (r *EventRecorder) RecordEvent(event DomainEvent) {
	r.pending = append(r.pending, event)
}

// PendingEvents returns the queued events without removing them
func (r *EventRecorder) PendingEvents() []DomainEvent {
	return r.pending
}

// TakeEvents returns the queued events and empties the queue
func (r *EventRecorder) TakeEvents() []DomainEvent {
	events := r.pending
	r.pending = nil
	return events
}
