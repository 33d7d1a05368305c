package fulfillment

import (
	"errors"
	"testing"
	"time"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newLine(status LineStatus) *OrderLine {
	return &OrderLine{
		OrderID:     "K1",
		Row:         52,
		Description: "Film|Clear|100|50|",
		Requested:   d("100"),
		Status:      status,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		already   string
		delta     string
		wantCode  string
		total     string
		remaining string
		complete  bool
	}{
		{name: "partial", requested: "100", already: "20", delta: "30", total: "50", remaining: "50"},
		{name: "exact completion", requested: "100", already: "70", delta: "30", total: "100", remaining: "0", complete: true},
		{name: "decimal quantities", requested: "12.5", already: "0", delta: "12.5", total: "12.5", remaining: "0", complete: true},
		{name: "over allocation", requested: "100", already: "80", delta: "30", wantCode: shared.CodeOverAllocation},
		{name: "zero delta", requested: "100", already: "0", delta: "0", wantCode: shared.CodeValidation},
		{name: "negative delta", requested: "100", already: "0", delta: "-5", wantCode: shared.CodeValidation},
		{name: "zero requested", requested: "0", already: "0", delta: "1", wantCode: shared.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Evaluate(d(tt.requested), d(tt.already), d(tt.delta))
			if tt.wantCode != "" {
				var de *shared.DomainError
				require.True(t, errors.As(err, &de))
				assert.Equal(t, tt.wantCode, de.Code)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.Total.Equal(d(tt.total)), "total %s", p.Total)
			assert.True(t, p.Remaining.Equal(d(tt.remaining)), "remaining %s", p.Remaining)
			assert.Equal(t, tt.complete, p.Complete)
		})
	}
}

func TestEvaluate_OverAllocationCarriesFigures(t *testing.T) {
	_, err := Evaluate(d("100"), d("80"), d("30"))

	require.True(t, errors.Is(err, shared.ErrOverAllocation))
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "100", de.Details["requested"])
	assert.Equal(t, "80", de.Details["already_fulfilled"])
	assert.Equal(t, "30", de.Details["attempted"])
	assert.Equal(t, "20", de.Details["remaining"])
}

func TestDispatchTracker_Decide(t *testing.T) {
	tracker := NewDispatchTracker()

	t.Run("rejects over allocation and leaves the line alone", func(t *testing.T) {
		line := newLine(LineStatusPartialDispatch)
		_, err := tracker.Decide(line, d("80"), d("30"))
		assert.True(t, errors.Is(err, shared.ErrOverAllocation))
		assert.Equal(t, LineStatusPartialDispatch, line.Status)
		assert.Empty(t, line.PendingEvents())
	})

	t.Run("exact completion is terminal", func(t *testing.T) {
		line := newLine(LineStatusPartialDispatch)
		line.FirstDispatchAt = "2024-03-01T10:00:00Z"
		decision, err := tracker.Decide(line, d("70"), d("30"))
		require.NoError(t, err)
		assert.Equal(t, LineStatusDispatched, decision.Status)
		assert.True(t, decision.Progress.Total.Equal(d("100")))
		assert.True(t, decision.Progress.Remaining.IsZero())
		assert.False(t, decision.FirstDispatch)
	})

	t.Run("first partial dispatch", func(t *testing.T) {
		line := newLine(LineStatusWarehouse)
		decision, err := tracker.Decide(line, decimal.Zero, d("40"))
		require.NoError(t, err)
		assert.Equal(t, LineStatusPartialDispatch, decision.Status)
		assert.True(t, decision.FirstDispatch)

		at := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
		line.ApplyDispatch(decision, "L1", at)
		assert.Equal(t, LineStatusPartialDispatch, line.Status)
		assert.Equal(t, "2024-03-02T08:30:00Z", line.FirstDispatchAt)
		require.Len(t, line.PendingEvents(), 1)
		assert.Equal(t, EventTypeOrderLineDispatched, line.PendingEvents()[0].EventType())
		assert.Equal(t, "K1-R52", line.PendingEvents()[0].AggregateKey())
	})

	t.Run("delivered lines take no more dispatches", func(t *testing.T) {
		_, err := tracker.Decide(newLine(LineStatusDelivered), d("10"), d("1"))
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestDispatchTracker_SumNeverExceedsRequested(t *testing.T) {
	tracker := NewDispatchTracker()
	line := newLine(LineStatusPending)
	dispatched := decimal.Zero

	for _, delta := range []string{"30", "50", "30", "15", "5", "0.5", "1"} {
		decision, err := tracker.Decide(line, dispatched, d(delta))
		if err != nil {
			continue
		}
		dispatched = decision.Progress.Total
		line.ApplyDispatch(decision, "L1", time.Now())
		assert.True(t, dispatched.LessThanOrEqual(line.Requested))
	}

	assert.True(t, dispatched.Equal(d("100")))
	assert.Equal(t, LineStatusDispatched, line.Status)
}

func TestWarehouseTracker_Decide(t *testing.T) {
	tracker := NewWarehouseTracker()
	item := &CuttingItem{CuttingOrderID: "C7", Row: 3, OriginLotID: "L9", Requested: d("40")}

	decision, err := tracker.Decide(item, d("10"), d("10"))
	require.NoError(t, err)
	assert.Equal(t, ItemStatusPartialDelivery, decision.Status)

	decision, err = tracker.Decide(item, d("10"), d("30"))
	require.NoError(t, err)
	assert.Equal(t, ItemStatusWarehouse, decision.Status)

	item.ApplyDelivery(decision, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-04-01T00:00:00Z", item.DeliveredAt)
	assert.Equal(t, EventTypeCuttingItemDelivered, item.PendingEvents()[0].EventType())

	_, err = tracker.Decide(item, d("40"), d("1"))
	assert.True(t, errors.Is(err, shared.ErrOverAllocation))
}

func TestRollupCuttingOrder(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	items := []CuttingItem{
		{CuttingOrderID: "C7", Row: 2, Status: ItemStatusWarehouse},
		{CuttingOrderID: "C7", Row: 3, Status: ItemStatusPartialDelivery},
	}

	order := &CuttingOrder{ID: "C7", Row: 4, Status: OrderStatusOpen}
	assert.False(t, RollupCuttingOrder(order, items, now))
	assert.Equal(t, OrderStatusOpen, order.Status)

	items[1].Status = ItemStatusWarehouse
	assert.True(t, RollupCuttingOrder(order, items, now))
	assert.Equal(t, OrderStatusClosed, order.Status)
	assert.Equal(t, "2024-05-06T07:08:09Z", order.ClosedAt)
	assert.Len(t, order.PendingEvents(), 1)

	assert.False(t, RollupCuttingOrder(order, items, now.Add(time.Hour)), "closing is idempotent")
	assert.Equal(t, "2024-05-06T07:08:09Z", order.ClosedAt)
	assert.Len(t, order.PendingEvents(), 1)

	assert.False(t, RollupCuttingOrder(&CuttingOrder{ID: "C8"}, nil, now))
}

func TestConfirmDelivery(t *testing.T) {
	t.Run("from dispatched", func(t *testing.T) {
		line := newLine(LineStatusDispatched)
		require.NoError(t, ConfirmDelivery(line, " 2024-06-01 "))
		assert.Equal(t, LineStatusDelivered, line.Status)
		assert.Equal(t, "2024-06-01", line.DeliveredAt)

		err := ConfirmDelivery(line, "2024-06-02")
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Equal(t, "2024-06-01", line.DeliveredAt)
	})

	t.Run("from partial dispatch", func(t *testing.T) {
		line := newLine(LineStatusPartialDispatch)
		assert.NoError(t, ConfirmDelivery(line, "2024-06-01"))
	})

	t.Run("requires a date", func(t *testing.T) {
		line := newLine(LineStatusDispatched)
		err := ConfirmDelivery(line, "  ")
		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.Equal(t, LineStatusDispatched, line.Status)
	})

	t.Run("not yet dispatched", func(t *testing.T) {
		for _, status := range []LineStatus{LineStatusPending, LineStatusWarehouse} {
			err := ConfirmDelivery(newLine(status), "2024-06-01")
			assert.True(t, errors.Is(err, shared.ErrInvalidState), status.String())
		}
	})
}
