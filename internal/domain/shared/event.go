package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is something the ledger recorded. Aggregates are addressed
// by business key (lot id, "order/row"), never by surrogate id.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateKey() string
	AggregateType() string
}

// EventHeader carries the fields every event shares. Embed it to satisfy
// DomainEvent.
type EventHeader struct {
	ID        uuid.UUID `json:"event_id"`
	Type      string    `json:"event_type"`
	At        time.Time `json:"occurred_at"`
	Aggregate string    `json:"aggregate_type"`
	Key       string    `json:"aggregate_key"`
}

// NewEventHeader stamps a fresh id and the current UTC time
func NewEventHeader(eventType, aggregateType, key string) EventHeader {
	return EventHeader{
		ID:        uuid.New(),
		Type:      eventType,
		At:        time.Now().UTC(),
		Aggregate: aggregateType,
		Key:       key,
	}
}

func (h *EventHeader) EventID() uuid.UUID    { return h.ID }
func (h *EventHeader) EventType() string     { return h.Type }
func (h *EventHeader) OccurredAt() time.Time { return h.At }
func (h *EventHeader) AggregateKey() string  { return h.Key }
func (h *EventHeader) AggregateType() string { return h.Aggregate }

// EventPublisher hands recorded events to subscribers once the rows they
// describe are written
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventHandler is a subscriber. A nil EventTypes receives every event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}
