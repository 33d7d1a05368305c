package event

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lotledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var errHandlerPanicked = errors.New("event handler panicked")

// JournalHandler writes every domain event to the structured log, giving
// operators an audit trail of ledger writes and status transitions
type JournalHandler struct {
	logger *zap.Logger
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(logger *zap.Logger) *JournalHandler {
	return &JournalHandler{logger: logger.Named("journal")}
}

// Handle implements shared.EventHandler
func (h *JournalHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_key", event.AggregateKey()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}

// EventTypes implements shared.EventHandler; an empty list receives every event
func (h *JournalHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*JournalHandler)(nil)
