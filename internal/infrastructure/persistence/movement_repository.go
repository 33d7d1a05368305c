package persistence

import (
	"context"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/lotledger/backend/internal/infrastructure/rowstore"
)

// RowMovementRepository implements inventory.MovementRepository over the
// movements table. Rows are only ever appended.
type RowMovementRepository struct {
	table rowTable
}

// NewRowMovementRepository creates a new RowMovementRepository
func NewRowMovementRepository(store rowstore.Store, schema rowstore.Schema) (*RowMovementRepository, error) {
	t, err := newRowTable(store, schema, rowstore.TableMovements)
	if err != nil {
		return nil, err
	}
	return &RowMovementRepository{table: t}, nil
}

// FindAll returns every ledger row, including rows aggregation will skip
func (r *RowMovementRepository) FindAll(ctx context.Context) ([]inventory.Movement, error) {
	table, cm, err := r.table.read(ctx)
	if err != nil {
		return nil, err
	}
	movements := make([]inventory.Movement, 0, table.Len())
	for i, row := range table.Rows {
		movements = append(movements, movementFromRow(cm, row, table.RowNumber(i)))
	}
	return movements, nil
}

// FindByLot returns the movements of one lot in row order
func (r *RowMovementRepository) FindByLot(ctx context.Context, lotID string) ([]inventory.Movement, error) {
	if !inventory.IsValidLotID(lotID) {
		return nil, shared.NewValidationError("lot id is required")
	}
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	key := inventory.LotKey(lotID)
	var out []inventory.Movement
	for _, m := range all {
		if inventory.IsValidLotID(m.LotID) && inventory.LotKey(m.LotID) == key {
			out = append(out, m)
		}
	}
	return out, nil
}

// Append writes the movements as one batch and returns them with their rows set
func (r *RowMovementRepository) Append(ctx context.Context, movements ...inventory.Movement) ([]inventory.Movement, error) {
	if len(movements) == 0 {
		return nil, nil
	}
	// the header row decides where each field lands
	_, cm, err := r.table.read(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(movements))
	for i := range movements {
		rows[i] = cm.Build(movementValues(&movements[i]))
	}
	numbers, err := r.table.store.AppendRows(ctx, r.table.schema.Name, rows)
	if err != nil {
		return nil, err
	}

	out := make([]inventory.Movement, len(movements))
	for i := range movements {
		out[i] = movements[i]
		out[i].Row = numbers[i]
	}
	return out, nil
}

func movementFromRow(cm rowstore.ColumnMap, row []string, rowNumber int) inventory.Movement {
	return inventory.Movement{
		ID:    valueobject.NormalizeText(cm.Get(row, "id")),
		LotID: valueobject.NormalizeText(cm.Get(row, "lot_id")),
		Type:  inventory.MovementType(valueobject.NormalizeText(cm.Get(row, "type"))),
		Quantity: inventory.NewAmount(
			parseQuantity(cm.Get(row, "units")),
			parseQuantity(cm.Get(row, "meters")),
		),
		Origin:      valueobject.NormalizeText(cm.Get(row, "origin")),
		Destination: valueobject.NormalizeText(cm.Get(row, "destination")),
		Reference:   valueobject.NormalizeText(cm.Get(row, "reference")),
		Reason:      cm.Get(row, "reason"),
		Timestamp:   valueobject.NormalizeText(cm.Get(row, "timestamp")),
		Actor:       valueobject.NormalizeText(cm.Get(row, "actor")),
		Row:         rowNumber,
	}
}

func movementValues(m *inventory.Movement) map[string]string {
	return map[string]string{
		"id":          m.ID,
		"lot_id":      m.LotID,
		"type":        m.Type.String(),
		"units":       formatQuantity(m.Quantity.Units),
		"meters":      formatQuantity(m.Quantity.Meters),
		"origin":      m.Origin,
		"destination": m.Destination,
		"reference":   m.Reference,
		"reason":      m.Reason,
		"timestamp":   m.Timestamp,
		"actor":       m.Actor,
	}
}
