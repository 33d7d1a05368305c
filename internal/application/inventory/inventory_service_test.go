package inventory

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lotledger/backend/internal/domain/fulfillment"
	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/infrastructure/cache"
	"github.com/lotledger/backend/internal/infrastructure/event"
	"github.com/lotledger/backend/internal/infrastructure/lock"
	"github.com/lotledger/backend/internal/infrastructure/persistence"
	"github.com/lotledger/backend/internal/infrastructure/rowstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	return nil
}

func (h *recordingHandler) EventTypes() []string { return nil }

func (h *recordingHandler) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.EventType())
	}
	return out
}

type fixture struct {
	store     *rowstore.MemoryStore
	schema    rowstore.Schema
	lots      *persistence.RowLotRepository
	movements *persistence.RowMovementRepository
	service   *InventoryService
	events    *recordingHandler
}

func seed(t *testing.T, store *rowstore.MemoryStore, schema rowstore.Schema, logical string, rows ...[]string) {
	t.Helper()
	ts, err := schema.Table(logical)
	require.NoError(t, err)
	store.Seed(ts.Name, ts.Headers(), rows...)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	schema := rowstore.DefaultSchema()
	store := rowstore.NewMemoryStore()

	seed(t, store, schema, rowstore.TableLots,
		[]string{"L-1", "Canvas|Red|1,5|50|Matte", "finished_good", "Main", "100", "", "available"},
		[]string{"L-2", "Canvas|Red|1,5|30|Matte", "finished_good", "Main", "40", "", "available"},
		[]string{"L-3", "Film|Clear|100|50|", "raw_material", "North", "", "120,5", "available"},
		[]string{"L-4", "Canvas|Red|1,5|50|Matte", "finished_good", "Main", "10", "", "Consumed"},
	)
	seed(t, store, schema, rowstore.TableMovements,
		[]string{"m-1", "L-1", "Reservation", "-20", "", "", "", "K1-R2", "", "2026-01-01T00:00:00Z", "ana"},
		[]string{"m-2", "L-3", "Dispatch", "", "-20,5", "", "", "K2-R3", "", "2026-01-02T00:00:00Z", "ana"},
	)
	seed(t, store, schema, rowstore.TableOrderLines,
		[]string{"K1", "Canvas|Red|1,5|50|Matte", "100", "Pending", "", "", "", "", "", ""},
		[]string{"K2", "Film|Clear|100|50|", "50", "partialdispatch", "2026-01-02T00:00:00Z", "", "", "", "", ""},
	)

	lots, err := persistence.NewRowLotRepository(store, schema)
	require.NoError(t, err)
	movements, err := persistence.NewRowMovementRepository(store, schema)
	require.NoError(t, err)
	lines, err := persistence.NewRowOrderLineRepository(store, schema)
	require.NoError(t, err)

	bus := event.NewInMemoryEventBus(zap.NewNop())
	events := &recordingHandler{}
	bus.Subscribe(events)

	svc := NewInventoryService(lots, movements, lines, inventory.NewBalanceProjection(), lock.NewLocalLocker(time.Second), zap.NewNop())
	svc.SetEventPublisher(bus)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	return &fixture{store: store, schema: schema, lots: lots, movements: movements, service: svc, events: events}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestInventoryService_QueryAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.QueryAvailability(ctx, AvailabilityQuery{})
	require.NoError(t, err)

	require.Len(t, resp.Lots, 3, "consumed lot is excluded")
	assert.Equal(t, "L-1", resp.Lots[0].LotID)
	assert.True(t, resp.Lots[0].Available.Units.Equal(dec("80")))
	assert.True(t, resp.Lots[1].Available.Units.Equal(dec("40")))
	assert.Equal(t, "meters", resp.Lots[2].Measure)
	assert.True(t, resp.Lots[2].Available.Meters.Equal(dec("100")))

	assert.True(t, resp.Total.Units.Equal(dec("120")))
	assert.True(t, resp.Total.Meters.Equal(dec("100")))

	require.Len(t, resp.Products, 3)
	assert.Equal(t, "Canvas|Red|1,5|30|Matte", resp.Products[0].ProductKey)
	assert.Equal(t, []string{"L-1"}, resp.Products[1].LotIDs)

	t.Run("filters by warehouse ignoring case", func(t *testing.T) {
		resp, err := f.service.QueryAvailability(ctx, AvailabilityQuery{Warehouse: " north "})
		require.NoError(t, err)
		require.Len(t, resp.Lots, 1)
		assert.Equal(t, "L-3", resp.Lots[0].LotID)
	})

	t.Run("repeated queries give the same report", func(t *testing.T) {
		again, err := f.service.QueryAvailability(ctx, AvailabilityQuery{})
		require.NoError(t, err)
		assert.Equal(t, resp, again)
	})
}

func TestInventoryService_ProjectionFollowsAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Reserve(ctx, ReserveRequest{OrderID: "K9", Row: 7, LotID: "L-2", Quantity: dec("15")})
	require.NoError(t, err)

	resp, err := f.service.QueryAvailability(ctx, AvailabilityQuery{ProductKey: "canvas|red|1,5|30|matte"})
	require.NoError(t, err)
	require.Len(t, resp.Lots, 1)
	assert.True(t, resp.Lots[0].Available.Units.Equal(dec("25")))

	// a row written straight to the store shows up on the next query
	_, err = f.store.AppendRow(ctx, "Movements", []string{"m-x", "L-2", "Adjustment", "-5", "", "", "", "", "count", "", "bob"})
	require.NoError(t, err)

	resp, err = f.service.QueryAvailability(ctx, AvailabilityQuery{ProductKey: "canvas|red|1,5|30|matte"})
	require.NoError(t, err)
	assert.True(t, resp.Lots[0].Available.Units.Equal(dec("20")))

	options, err := f.service.AllocationOptions(ctx, AllocationOptionsRequest{Requests: []AllocationOptionRequest{
		{Product: "Canvas|Red|1,5|30|Matte", Destination: "warehouse_direct"},
	}})
	require.NoError(t, err)
	require.Len(t, options[0].Candidates, 1)
	assert.True(t, options[0].Candidates[0].Quantity.Equal(dec("20")))

	rebuilt, err := f.service.RebuildProjection(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, rebuilt.Movements)

	resp, err = f.service.QueryAvailability(ctx, AvailabilityQuery{ProductKey: "canvas|red|1,5|30|matte"})
	require.NoError(t, err)
	assert.True(t, resp.Lots[0].Available.Units.Equal(dec("20")), "rebuild agrees with the incremental path")
}

func TestInventoryService_AvailabilityMatchesFullRescan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.QueryAvailability(ctx, AvailabilityQuery{})
	require.NoError(t, err)

	_, err = f.service.Reserve(ctx, ReserveRequest{OrderID: "K9", Row: 7, LotID: "L-1", Quantity: dec("10")})
	require.NoError(t, err)
	_, err = f.store.AppendRow(ctx, "Movements", []string{"m-y", "L-1", "Adjustment", "-50", "", "", "", "", "count", "", "bob"})
	require.NoError(t, err)

	resp, err := f.service.QueryAvailability(ctx, AvailabilityQuery{})
	require.NoError(t, err)

	lots, err := f.lots.FindAll(ctx)
	require.NoError(t, err)
	ledger, err := f.movements.FindAll(ctx)
	require.NoError(t, err)
	want := inventory.NewAvailabilityCalculator().Compute(lots, inventory.SumByLot(ledger, inventory.AllMovements), inventory.AvailabilityFilter{})

	require.Len(t, resp.Lots, len(want.Lots))
	for i, la := range want.Lots {
		assert.Equal(t, la.Lot.ID, resp.Lots[i].LotID)
		assert.True(t, la.Available.Units.Equal(resp.Lots[i].Available.Units), "lot %s", la.Lot.ID)
		assert.True(t, la.Available.Meters.Equal(resp.Lots[i].Available.Meters), "lot %s", la.Lot.ID)
	}
}

func TestInventoryService_AllocationOptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.AllocationOptions(ctx, AllocationOptionsRequest{Requests: []AllocationOptionRequest{
		{Product: "Canvas|Red|1,5|25|", Destination: "cutting"},
		{Name: "Canvas", Color: "Red", Width: "1,5", Length: "50", Finish: "Matte", Destination: "Warehouse_Direct"},
		{Product: "Canvas|Red|1,5|60|", Destination: "cutting"},
	}})
	require.NoError(t, err)
	require.Len(t, resp, 3)

	cutting := resp[0]
	assert.Equal(t, "cutting", cutting.Destination)
	require.Len(t, cutting.Candidates, 2)
	assert.Equal(t, "L-2", cutting.Candidates[0].LotID, "shortest sufficient length first")
	assert.Equal(t, "L-1", cutting.Candidates[1].LotID)
	assert.True(t, cutting.Candidates[1].Quantity.Equal(dec("80")))

	exact := resp[1]
	require.Len(t, exact.Candidates, 1)
	assert.Equal(t, "L-1", exact.Candidates[0].LotID)

	assert.Empty(t, resp[2].Candidates)

	t.Run("rejects unknown destinations", func(t *testing.T) {
		_, err := f.service.AllocationOptions(ctx, AllocationOptionsRequest{Requests: []AllocationOptionRequest{
			{Product: "Canvas", Destination: "dock"},
		}})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects an empty batch", func(t *testing.T) {
		_, err := f.service.AllocationOptions(ctx, AllocationOptionsRequest{})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestInventoryService_ReserveAdvisory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.Reserve(ctx, ReserveRequest{
		OrderID: " K9 ", Row: 7, LotID: "l-3", Quantity: dec("30"), Reason: "hold", Actor: "ana",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.MovementID)
	assert.Equal(t, "K9-R7", resp.Reference)
	assert.Equal(t, "advisory", resp.Policy)
	assert.Equal(t, 4, resp.LedgerRow)
	assert.True(t, resp.Quantity.Meters.Equal(dec("-30")), "written in the lot's primary measure")

	ledger, err := f.movements.FindByLot(ctx, "L-3")
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, inventory.MovementTypeReservation, ledger[1].Type)
	assert.Equal(t, "ana", ledger[1].Actor)
	assert.Equal(t, "2026-03-01T09:00:00Z", ledger[1].Timestamp)

	assert.Equal(t, []string{inventory.EventTypeMovementRecorded, inventory.EventTypeReservationRecorded}, f.events.types())

	t.Run("advisory ignores the order line", func(t *testing.T) {
		_, err := f.service.Reserve(ctx, ReserveRequest{OrderID: "K1", Row: 2, LotID: "L-1", Quantity: dec("500")})
		assert.NoError(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := f.service.Reserve(ctx, ReserveRequest{OrderID: "K1", Row: 2, LotID: "L-1"})
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = f.service.Reserve(ctx, ReserveRequest{OrderID: "K1", Row: 1, LotID: "L-1", Quantity: dec("1")})
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = f.service.Reserve(ctx, ReserveRequest{OrderID: "", Row: 2, LotID: "L-1", Quantity: dec("1")})
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = f.service.Reserve(ctx, ReserveRequest{OrderID: "K1", Row: 2, LotID: "#N/A", Quantity: dec("1")})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown lot", func(t *testing.T) {
		_, err := f.service.Reserve(ctx, ReserveRequest{OrderID: "K1", Row: 2, LotID: "L-9", Quantity: dec("1")})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestInventoryService_ReserveHard(t *testing.T) {
	f := newFixture(t)
	f.service.SetReservationPolicy(fulfillment.ReservationHard)
	ctx := context.Background()

	_, err := f.service.Reserve(ctx, ReserveRequest{OrderID: "K1", Row: 2, LotID: "L-2", Quantity: dec("50")})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock, "L-2 only has 40")

	resp, err := f.service.Reserve(ctx, ReserveRequest{OrderID: "k1", Row: 2, LotID: "L-1", Quantity: dec("80")})
	require.NoError(t, err)
	assert.Equal(t, "K1-R2", resp.Reference, "reference uses the key as stored")
	assert.Equal(t, "hard", resp.Policy)

	_, err = f.service.Reserve(ctx, ReserveRequest{OrderID: "K1", Row: 2, LotID: "L-2", Quantity: dec("1")})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeOverAllocation, de.Code)
	assert.Equal(t, "100", de.Details["requested"])
	assert.Equal(t, "100", de.Details["already_fulfilled"])

	_, err = f.service.Reserve(ctx, ReserveRequest{OrderID: "K2", Row: 2, LotID: "L-1", Quantity: dec("1")})
	assert.ErrorIs(t, err, shared.ErrRowIdentityMismatch)

	ledger, err := f.movements.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, ledger, 3, "only the accepted reservation was appended")
}

func TestInventoryService_ReserveIdempotency(t *testing.T) {
	f := newFixture(t)
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	f.service.SetIdempotencyStore(store, time.Minute)
	ctx := context.Background()

	_, err := f.service.Reserve(ctx, ReserveRequest{OrderID: "K1", Row: 2, LotID: "L-9", Quantity: dec("1"), IdempotencyKey: "req-1"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.service.Reserve(ctx, ReserveRequest{OrderID: "K1", Row: 2, LotID: "L-1", Quantity: dec("1"), IdempotencyKey: "req-1"})
	require.NoError(t, err, "a failed key can be retried")

	_, err = f.service.Reserve(ctx, ReserveRequest{OrderID: "K1", Row: 2, LotID: "L-1", Quantity: dec("1"), IdempotencyKey: "req-1"})
	assert.ErrorIs(t, err, shared.ErrDuplicateRequest)

	ledger, err := f.movements.FindByLot(ctx, "L-1")
	require.NoError(t, err)
	assert.Len(t, ledger, 2)
}

func TestInventoryService_ListMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.ListMovements(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, "L-1", resp.LotID)
	require.Len(t, resp.Movements, 1)
	assert.Equal(t, "K1-R2", resp.Movements[0].Reference)
	assert.True(t, resp.Balance.Units.Equal(dec("-20")))
	assert.True(t, resp.Available.Units.Equal(dec("80")))

	consumed, err := f.service.ListMovements(ctx, "L-4")
	require.NoError(t, err)
	assert.True(t, consumed.Excluded)
	assert.True(t, consumed.Available.Units.IsZero())

	_, err = f.service.ListMovements(ctx, "L-9")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInventoryService_ExportAvailability(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	require.NoError(t, f.service.ExportAvailability(context.Background(), AvailabilityQuery{}, &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	lots, err := wb.GetRows(ExportLotsSheet)
	require.NoError(t, err)
	require.Len(t, lots, 4)
	assert.Equal(t, "Lot ID", lots[0][0])
	assert.Equal(t, []string{"L-1", "Canvas|Red|1,5|50|Matte", "finished_good", "Main", "available", "units", "100", "0", "80", "0"}, lots[1])
	assert.Equal(t, "L-3", lots[3][0])

	products, err := wb.GetRows(ExportProductsSheet)
	require.NoError(t, err)
	require.Len(t, products, 5)
	assert.Equal(t, []string{"Total", "3", "120", "100"}, products[4])
}
