package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	fulfillmentapp "github.com/lotledger/backend/internal/application/fulfillment"
	inventoryapp "github.com/lotledger/backend/internal/application/inventory"
	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/infrastructure/lock"
	"github.com/lotledger/backend/internal/infrastructure/persistence"
	"github.com/lotledger/backend/internal/infrastructure/rowstore"
	"github.com/lotledger/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// apiFixture serves both handlers over one seeded in-memory workbook:
//   - lot L-1, 500 units, 180 drawn by dispatches and a reservation
//   - lot L-2, 200 meters in North
//   - order line K1 at row 2, 80 of 100 dispatched
//   - order line K3 at row 3, 70 of 100 dispatched and 30 reserved on L-1
//   - order line K4 at row 4, pending, produced by cutting item row 2
//   - order line K5 at row 5, dispatched
//   - cutting order C1 with item row 2 (10 from L-2)
type apiFixture struct {
	store       *rowstore.MemoryStore
	schema      rowstore.Schema
	movements   *persistence.RowMovementRepository
	inventory   *inventoryapp.InventoryService
	fulfillment *fulfillmentapp.FulfillmentService
	engine      *gin.Engine
}

func seedTable(t *testing.T, store *rowstore.MemoryStore, schema rowstore.Schema, logical string, rows ...[]string) {
	t.Helper()
	ts, err := schema.Table(logical)
	require.NoError(t, err)
	store.Seed(ts.Name, ts.Headers(), rows...)
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	middleware.SetupValidator()
	schema := rowstore.DefaultSchema()
	store := rowstore.NewMemoryStore()

	seedTable(t, store, schema, rowstore.TableLots,
		[]string{"L-1", "Canvas|Red|1,5|50|Matte", "finished_good", "Main", "500", "", "available"},
		[]string{"L-2", "Film|Clear|100|50|", "raw_material", "North", "", "200", "available"},
	)
	seedTable(t, store, schema, rowstore.TableMovements,
		[]string{"m-1", "L-1", "Dispatch", "-80", "", "Main", "Customer", "K1-R2", "", "2026-01-01T00:00:00Z", "ana"},
		[]string{"m-2", "L-1", "Dispatch", "-70", "", "Main", "Customer", "K3-R3", "", "2026-01-02T00:00:00Z", "ana"},
		[]string{"m-3", "L-1", "Reservation", "-30", "", "", "", "K3-R3", "", "2026-01-03T00:00:00Z", "ana"},
	)
	seedTable(t, store, schema, rowstore.TableOrderLines,
		[]string{"K1", "Canvas|Red|1,5|50|Matte", "100", "PartialDispatch", "2026-01-01T00:00:00Z", "", "", "", "", ""},
		[]string{"K3", "Canvas|Red|1,5|50|Matte", "100", "PartialDispatch", "2026-01-02T00:00:00Z", "", "", "", "", ""},
		[]string{"K4", "Film|Clear|50|50|", "10", "Pending", "", "", "", "", "", ""},
		[]string{"K5", "Canvas|Red|1,5|50|Matte", "5", "Dispatched", "2026-01-04T00:00:00Z", "", "Acme", "", "", ""},
	)
	seedTable(t, store, schema, rowstore.TableCuttingOrders,
		[]string{"C1", "Open", ""},
	)
	seedTable(t, store, schema, rowstore.TableCuttingItems,
		[]string{"C1", "L-2", "Film|Clear|50|50|", "10", "Pending", "K4", "4", ""},
	)

	lots, err := persistence.NewRowLotRepository(store, schema)
	require.NoError(t, err)
	movements, err := persistence.NewRowMovementRepository(store, schema)
	require.NoError(t, err)
	lines, err := persistence.NewRowOrderLineRepository(store, schema)
	require.NoError(t, err)
	cutting, err := persistence.NewRowCuttingOrderRepository(store, schema)
	require.NoError(t, err)
	writer := persistence.NewRowTransitionWriter(store, schema, zap.NewNop())

	projection := inventory.NewBalanceProjection()
	locker := lock.NewLocalLocker(time.Second)
	inventorySvc := inventoryapp.NewInventoryService(lots, movements, lines, projection, locker, zap.NewNop())
	fulfillmentSvc := fulfillmentapp.NewFulfillmentService(lots, movements, lines, cutting, writer, projection, locker, zap.NewNop())

	inventoryHandler := NewInventoryHandler(inventorySvc)
	inventoryHandler.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	fulfillmentHandler := NewFulfillmentHandler(fulfillmentSvc)

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Actor())
	api := engine.Group("/api/v1")
	inv := api.Group("/inventory")
	inv.GET("/availability", inventoryHandler.GetAvailability)
	inv.GET("/availability/export", inventoryHandler.ExportAvailability)
	inv.POST("/allocation-options", inventoryHandler.AllocationOptions)
	inv.POST("/reservations", inventoryHandler.Reserve)
	inv.GET("/lots/:id/movements", inventoryHandler.ListMovements)
	inv.POST("/projection/rebuild", inventoryHandler.RebuildProjection)
	orders := api.Group("/orders/:order_id/lines/:row")
	orders.GET("", fulfillmentHandler.GetOrderLine)
	orders.POST("/dispatch", fulfillmentHandler.Dispatch)
	orders.POST("/confirm-delivery", fulfillmentHandler.ConfirmDelivery)
	orders.PUT("/shipment", fulfillmentHandler.UpdateShipment)
	api.POST("/cutting-orders/:order_id/items/:row/deliveries", fulfillmentHandler.DeliverToWarehouse)

	return &apiFixture{
		store:       store,
		schema:      schema,
		movements:   movements,
		inventory:   inventorySvc,
		fulfillment: fulfillmentSvc,
		engine:      engine,
	}
}

// do sends a request through the fixture's engine. body may be nil, a string or any JSON value.
func (f *apiFixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) ledgerLen(t *testing.T) int {
	t.Helper()
	all, err := f.movements.FindAll(t.Context())
	require.NoError(t, err)
	return len(all)
}

// dataOf decodes the data member of a success envelope into out
func dataOf(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope APIResponse[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) (code string, details map[string]any) {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code, resp.Error.Details
}
