package fulfillment

import (
	"time"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Progress is the running-sum state of a line after a fulfillment delta
type Progress struct {
	Requested decimal.Decimal `json:"requested"`
	Already   decimal.Decimal `json:"already_fulfilled"`
	Delta     decimal.Decimal `json:"delta"`
	Total     decimal.Decimal `json:"total"`
	Remaining decimal.Decimal `json:"remaining"`
	Complete  bool            `json:"complete"`
}

// Evaluate checks that delta can be fulfilled against requested given what
// has already been fulfilled. Totals never exceed requested: a delta that
// would push past it is rejected with an over-allocation error carrying the
// figures involved.
func Evaluate(requested, alreadyFulfilled, delta decimal.Decimal) (Progress, error) {
	if !delta.IsPositive() {
		return Progress{}, shared.NewValidationError("quantity must be greater than zero")
	}
	if !requested.IsPositive() {
		return Progress{}, shared.NewValidationError("requested quantity must be greater than zero")
	}
	total := alreadyFulfilled.Add(delta)
	if total.GreaterThan(requested) {
		return Progress{}, shared.NewOverAllocationError(requested, alreadyFulfilled, delta)
	}
	remaining := requested.Sub(total)
	return Progress{
		Requested: requested,
		Already:   alreadyFulfilled,
		Delta:     delta,
		Total:     total,
		Remaining: remaining,
		Complete:  remaining.IsZero(),
	}, nil
}

// DispatchDecision is the outcome of a dispatch against an order line
type DispatchDecision struct {
	Progress      Progress
	Status        LineStatus
	FirstDispatch bool
}

// DispatchTracker decides order line dispatches
type DispatchTracker struct{}

// NewDispatchTracker creates a DispatchTracker
func NewDispatchTracker() *DispatchTracker {
	return &DispatchTracker{}
}

// Decide evaluates dispatching delta against line given the quantity the
// ledger already shows dispatched for it
func (t *DispatchTracker) Decide(line *OrderLine, alreadyDispatched, delta decimal.Decimal) (DispatchDecision, error) {
	if !line.Status.CanDispatch() {
		return DispatchDecision{}, shared.NewInvalidStateError("order line is already delivered")
	}
	progress, err := Evaluate(line.Requested, alreadyDispatched, delta)
	if err != nil {
		return DispatchDecision{}, err
	}
	status := LineStatusPartialDispatch
	if progress.Complete {
		status = LineStatusDispatched
	}
	return DispatchDecision{
		Progress:      progress,
		Status:        status,
		FirstDispatch: line.FirstDispatchAt == "",
	}, nil
}

// WarehouseDecision is the outcome of a warehouse delivery against a cutting item
type WarehouseDecision struct {
	Progress Progress
	Status   ItemStatus
}

// WarehouseTracker decides cutting item deliveries to the warehouse
type WarehouseTracker struct{}

// NewWarehouseTracker creates a WarehouseTracker
func NewWarehouseTracker() *WarehouseTracker {
	return &WarehouseTracker{}
}

// Decide evaluates delivering delta of item to the warehouse given the
// quantity the ledger already shows delivered for it
func (t *WarehouseTracker) Decide(item *CuttingItem, alreadyDelivered, delta decimal.Decimal) (WarehouseDecision, error) {
	progress, err := Evaluate(item.Requested, alreadyDelivered, delta)
	if err != nil {
		return WarehouseDecision{}, err
	}
	status := ItemStatusPartialDelivery
	if progress.Complete {
		status = ItemStatusWarehouse
	}
	return WarehouseDecision{Progress: progress, Status: status}, nil
}

// RollupCuttingOrder closes order when every one of its items is in the
// warehouse. It returns true only when this call closed the order.
func RollupCuttingOrder(order *CuttingOrder, items []CuttingItem, now time.Time) bool {
	if order.IsClosed() || len(items) == 0 {
		return false
	}
	for i := range items {
		if items[i].Status != ItemStatusWarehouse {
			return false
		}
	}
	order.Close(now)
	return true
}

// ConfirmDelivery records customer receipt of a dispatched line. The
// transition happens once and is never undone.
func ConfirmDelivery(line *OrderLine, date string) error {
	date = valueobject.NormalizeText(date)
	if date == "" {
		return shared.NewValidationError("delivery date is required")
	}
	if line.Status == LineStatusDelivered {
		return shared.NewInvalidStateError("order line delivery was already confirmed")
	}
	if !line.Status.CanConfirmDelivery() {
		return shared.NewInvalidStateError("order line has not been dispatched, status is " + line.Status.String())
	}
	line.Status = LineStatusDelivered
	line.DeliveredAt = date
	line.RecordEvent(NewOrderLineDeliveredEvent(line))
	return nil
}
