package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "lotledger"

// LedgerMetrics holds the service-level instruments. It also subscribes to
// the event bus so ledger writes are counted where they are published.
type LedgerMetrics struct {
	operations   metric.Int64Counter
	duration     metric.Float64Histogram
	movements    metric.Int64Counter
	reservations metric.Int64Counter
	events       metric.Int64Counter
}

// NewLedgerMetrics creates the ledger instruments on the given meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	in := NewInstruments(meter)
	m := &LedgerMetrics{
		operations:   in.Counter("lotledger.operations", "Service operations by outcome", "{operation}"),
		duration:     in.Histogram("lotledger.operation.duration", "Service operation latency", "s", OperationDurationBuckets...),
		movements:    in.Counter("lotledger.movements", "Movements appended to the ledger", "{movement}"),
		reservations: in.Counter("lotledger.reservations", "Reservations by allocation policy", "{reservation}"),
		events:       in.Counter("lotledger.events", "Domain events published", "{event}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewLedgerMetricsFrom creates the instruments on the provider's meter.
func NewLedgerMetricsFrom(mp *MeterProvider) (*LedgerMetrics, error) {
	return NewLedgerMetrics(mp.Meter(meterName))
}

// Observe records the outcome and latency of a service operation.
// A nil receiver is a no-op so services can run without metrics.
func (m *LedgerMetrics) Observe(ctx context.Context, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	op := AttrOperation.String(operation)
	outcome := []attribute.KeyValue{op, AttrOutcome.String("ok")}
	if err != nil {
		outcome = []attribute.KeyValue{op, AttrOutcome.String("error"), AttrErrorCode.String(errorCode(err))}
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(outcome...))
	m.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(op))
}

// Handle implements shared.EventHandler
func (m *LedgerMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	m.events.Add(ctx, 1, metric.WithAttributes(AttrEventType.String(event.EventType())))
	switch e := event.(type) {
	case *inventory.MovementRecordedEvent:
		m.movements.Add(ctx, 1, metric.WithAttributes(AttrMovementType.String(string(e.Type))))
	case *inventory.ReservationRecordedEvent:
		m.reservations.Add(ctx, 1, metric.WithAttributes(AttrPolicy.String(e.Policy)))
	}
	return nil
}

// EventTypes implements shared.EventHandler; nil subscribes to every event
func (m *LedgerMetrics) EventTypes() []string {
	return nil
}

func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "CANCELED"
	}
	return "INTERNAL_ERROR"
}

var _ shared.EventHandler = (*LedgerMetrics)(nil)
