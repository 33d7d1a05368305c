package persistence

import (
	"context"
	"strconv"

	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/lotledger/backend/internal/infrastructure/rowstore"
	"github.com/shopspring/decimal"
)

// rowTable binds a logical table of the schema to a store
type rowTable struct {
	store  rowstore.Store
	schema rowstore.TableSchema
}

func newRowTable(store rowstore.Store, schema rowstore.Schema, logical string) (rowTable, error) {
	ts, err := schema.Table(logical)
	if err != nil {
		return rowTable{}, err
	}
	return rowTable{store: store, schema: ts}, nil
}

// read returns the table snapshot with its columns resolved
func (t rowTable) read(ctx context.Context) (*rowstore.Table, rowstore.ColumnMap, error) {
	table, err := t.store.ReadAll(ctx, t.schema.Name)
	if err != nil {
		return nil, rowstore.ColumnMap{}, err
	}
	cm, err := t.schema.Resolve(table)
	if err != nil {
		return nil, rowstore.ColumnMap{}, err
	}
	return table, cm, nil
}

// parseQuantity reads a quantity cell written with either decimal separator.
// Blank or unparsable cells count as zero.
func parseQuantity(s string) decimal.Decimal {
	return valueobject.ParseLocaleDecimal(s)
}

// formatQuantity writes a quantity with a decimal comma, leaving zero blank
func formatQuantity(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return valueobject.FormatLocaleDecimal(d)
}

// parseRowNumber reads a row reference cell such as "52" or "52,0"
func parseRowNumber(s string) int {
	s = valueobject.NormalizeText(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	d, ok := valueobject.ParseLocaleDecimalStrict(s)
	if !ok || !d.Equal(d.Truncate(0)) {
		return 0
	}
	return int(d.IntPart())
}
