package persistence

import (
	"context"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/lotledger/backend/internal/infrastructure/rowstore"
)

// RowLotRepository implements inventory.LotRepository over the lots table
type RowLotRepository struct {
	table rowTable
}

// NewRowLotRepository creates a new RowLotRepository
func NewRowLotRepository(store rowstore.Store, schema rowstore.Schema) (*RowLotRepository, error) {
	t, err := newRowTable(store, schema, rowstore.TableLots)
	if err != nil {
		return nil, err
	}
	return &RowLotRepository{table: t}, nil
}

// FindAll returns every lot with a usable id, in table order.
// Duplicate ids are all returned; availability keeps the first.
func (r *RowLotRepository) FindAll(ctx context.Context) ([]inventory.Lot, error) {
	table, cm, err := r.table.read(ctx)
	if err != nil {
		return nil, err
	}

	lots := make([]inventory.Lot, 0, table.Len())
	for i, row := range table.Rows {
		lot := lotFromRow(cm, row, table.RowNumber(i))
		if !inventory.IsValidLotID(lot.ID) {
			continue
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

// FindByID returns the first lot with the given id
func (r *RowLotRepository) FindByID(ctx context.Context, id string) (*inventory.Lot, error) {
	if !inventory.IsValidLotID(id) {
		return nil, shared.NewValidationError("lot id is required")
	}
	lots, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	key := inventory.LotKey(id)
	for i := range lots {
		if inventory.LotKey(lots[i].ID) == key {
			return &lots[i], nil
		}
	}
	return nil, shared.NewNotFoundError("lot", id)
}

func lotFromRow(cm rowstore.ColumnMap, row []string, rowNumber int) inventory.Lot {
	description := valueobject.NormalizeText(cm.Get(row, "description"))
	return inventory.Lot{
		ID:          valueobject.NormalizeText(cm.Get(row, "id")),
		Class:       inventory.InventoryClass(valueobject.NormalizeText(cm.Get(row, "class"))),
		Warehouse:   valueobject.NormalizeText(cm.Get(row, "warehouse")),
		Description: description,
		Descriptor:  inventory.ParseProductDescriptor(description),
		Initial: inventory.NewAmount(
			parseQuantity(cm.Get(row, "units")),
			parseQuantity(cm.Get(row, "meters")),
		),
		Status: valueobject.NormalizeText(cm.Get(row, "status")),
		Row:    rowNumber,
	}
}
