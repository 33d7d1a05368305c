package persistence

import (
	"context"
	"strconv"

	"github.com/lotledger/backend/internal/domain/fulfillment"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/lotledger/backend/internal/infrastructure/rowstore"
)

// RowCuttingOrderRepository implements fulfillment.CuttingOrderRepository
// over the cutting orders and cutting items tables
type RowCuttingOrderRepository struct {
	orders rowTable
	items  rowTable
}

// NewRowCuttingOrderRepository creates a new RowCuttingOrderRepository
func NewRowCuttingOrderRepository(store rowstore.Store, schema rowstore.Schema) (*RowCuttingOrderRepository, error) {
	orders, err := newRowTable(store, schema, rowstore.TableCuttingOrders)
	if err != nil {
		return nil, err
	}
	items, err := newRowTable(store, schema, rowstore.TableCuttingItems)
	if err != nil {
		return nil, err
	}
	return &RowCuttingOrderRepository{orders: orders, items: items}, nil
}

// FindOrder returns the first cutting order with the given id
func (r *RowCuttingOrderRepository) FindOrder(ctx context.Context, id string) (*fulfillment.CuttingOrder, error) {
	if valueobject.NormalizeText(id) == "" {
		return nil, shared.NewValidationError("cutting order id is required")
	}
	table, cm, err := r.orders.read(ctx)
	if err != nil {
		return nil, err
	}
	for i, row := range table.Rows {
		if !valueobject.EqualKey(cm.Get(row, "id"), id) {
			continue
		}
		return &fulfillment.CuttingOrder{
			ID:       valueobject.NormalizeText(cm.Get(row, "id")),
			Row:      table.RowNumber(i),
			Status:   fulfillment.ParseOrderStatus(cm.Get(row, "status")),
			ClosedAt: valueobject.NormalizeText(cm.Get(row, "closed_at")),
		}, nil
	}
	return nil, shared.NewNotFoundError("cutting order", id)
}

// FindItemByRow returns whatever item occupies row
func (r *RowCuttingOrderRepository) FindItemByRow(ctx context.Context, row int) (*fulfillment.CuttingItem, error) {
	if row < rowstore.FirstDataRow {
		return nil, shared.NewValidationError("cutting item row must be a data row")
	}
	table, cm, err := r.items.read(ctx)
	if err != nil {
		return nil, err
	}
	cells, ok := table.Row(row)
	if !ok {
		return nil, shared.NewNotFoundError("cutting item row", rowKey(row))
	}
	item := itemFromRow(cm, cells, row)
	return &item, nil
}

// FindItems returns every item of a cutting order in row order
func (r *RowCuttingOrderRepository) FindItems(ctx context.Context, orderID string) ([]fulfillment.CuttingItem, error) {
	table, cm, err := r.items.read(ctx)
	if err != nil {
		return nil, err
	}
	var items []fulfillment.CuttingItem
	for i, row := range table.Rows {
		if valueobject.EqualKey(cm.Get(row, "cutting_order_id"), orderID) {
			items = append(items, itemFromRow(cm, row, table.RowNumber(i)))
		}
	}
	return items, nil
}

func itemFromRow(cm rowstore.ColumnMap, row []string, rowNumber int) fulfillment.CuttingItem {
	return fulfillment.CuttingItem{
		CuttingOrderID: valueobject.NormalizeText(cm.Get(row, "cutting_order_id")),
		Row:            rowNumber,
		OriginLotID:    valueobject.NormalizeText(cm.Get(row, "origin_lot_id")),
		Description:    valueobject.NormalizeText(cm.Get(row, "description")),
		Requested:      parseQuantity(cm.Get(row, "requested")),
		Status:         fulfillment.ParseItemStatus(cm.Get(row, "status")),
		LinkedOrderID:  valueobject.NormalizeText(cm.Get(row, "linked_order_id")),
		LinkedOrderRow: parseRowNumber(cm.Get(row, "linked_order_row")),
		DeliveredAt:    valueobject.NormalizeText(cm.Get(row, "delivered_at")),
	}
}

func rowKey(row int) string {
	return strconv.Itoa(row)
}
