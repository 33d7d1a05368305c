package persistence

import (
	"context"

	"github.com/lotledger/backend/internal/domain/fulfillment"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/lotledger/backend/internal/infrastructure/rowstore"
)

// RowOrderLineRepository implements fulfillment.OrderLineRepository over the order lines table
type RowOrderLineRepository struct {
	table rowTable
}

// NewRowOrderLineRepository creates a new RowOrderLineRepository
func NewRowOrderLineRepository(store rowstore.Store, schema rowstore.Schema) (*RowOrderLineRepository, error) {
	t, err := newRowTable(store, schema, rowstore.TableOrderLines)
	if err != nil {
		return nil, err
	}
	return &RowOrderLineRepository{table: t}, nil
}

// FindByRow returns whatever line occupies row
func (r *RowOrderLineRepository) FindByRow(ctx context.Context, row int) (*fulfillment.OrderLine, error) {
	if row < rowstore.FirstDataRow {
		return nil, shared.NewValidationError("order line row must be a data row")
	}
	table, cm, err := r.table.read(ctx)
	if err != nil {
		return nil, err
	}
	cells, ok := table.Row(row)
	if !ok {
		return nil, shared.NewNotFoundError("order line row", rowKey(row))
	}
	return &fulfillment.OrderLine{
		OrderID:         valueobject.NormalizeText(cm.Get(cells, "order_id")),
		Row:             row,
		Description:     valueobject.NormalizeText(cm.Get(cells, "description")),
		Requested:       parseQuantity(cm.Get(cells, "requested")),
		Status:          fulfillment.ParseLineStatus(cm.Get(cells, "status")),
		FirstDispatchAt: valueobject.NormalizeText(cm.Get(cells, "first_dispatch_at")),
		DeliveredAt:     valueobject.NormalizeText(cm.Get(cells, "delivered_at")),
		Shipment: fulfillment.Shipment{
			Carrier:        valueobject.NormalizeText(cm.Get(cells, "carrier")),
			TrackingNumber: valueobject.NormalizeText(cm.Get(cells, "tracking_number")),
			Invoice:        valueobject.NormalizeText(cm.Get(cells, "invoice")),
			DeliveryNote:   valueobject.NormalizeText(cm.Get(cells, "delivery_note")),
		},
	}, nil
}
