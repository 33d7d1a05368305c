// Package rowstore adapts tabular backing stores (workbooks, SQL tables,
// memory) to row-addressed reads and writes. Tables have a header row at
// row 1; data rows start at row 2 and keep their position for life.
package rowstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
)

const (
	// HeaderRow is the row holding column names
	HeaderRow = 1
	// FirstDataRow is the row of the first record
	FirstDataRow = 2
)

// Table is a snapshot of one table: its headers and every data row
type Table struct {
	Name    string
	Headers []string
	// Rows[i] is the record at row FirstDataRow+i
	Rows [][]string
}

// RowNumber returns the row number of Rows[i]
func (t *Table) RowNumber(i int) int {
	return i + FirstDataRow
}

// Row returns the record at a row number
func (t *Table) Row(row int) ([]string, bool) {
	i := row - FirstDataRow
	if i < 0 || i >= len(t.Rows) {
		return nil, false
	}
	return t.Rows[i], true
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// CellUpdate sets the cell at a zero-based column index
type CellUpdate struct {
	Column int
	Value  string
}

// Store is a row-addressed tabular store.
// Every backend failure is reported as an upstream-unavailable error.
type Store interface {
	// ReadAll returns the headers and all data rows of a table
	ReadAll(ctx context.Context, table string) (*Table, error)

	// AppendRow appends one row and returns its row number
	AppendRow(ctx context.Context, table string, row []string) (int, error)

	// AppendRows appends rows as one batch and returns their row numbers
	AppendRows(ctx context.Context, table string, rows [][]string) ([]int, error)

	// UpdateCells writes every update to one row as a single batch
	UpdateCells(ctx context.Context, table string, row int, updates []CellUpdate) error
}

// TableCreator is implemented by stores that can create missing tables
type TableCreator interface {
	// EnsureTable creates the table with the given headers if it does not exist
	EnsureTable(ctx context.Context, table string, headers []string) error
}

// FindColumn returns the index of the first header matching one of the
// candidates, or -1. Every candidate is tried as an exact match (after
// normalization) before any is tried as a substring of a header.
func FindColumn(headers []string, candidates ...string) int {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = valueobject.NormalizeKey(h)
	}
	for _, c := range candidates {
		want := valueobject.NormalizeKey(c)
		if want == "" {
			continue
		}
		for i, k := range keys {
			if k == want {
				return i
			}
		}
	}
	for _, c := range candidates {
		if valueobject.NormalizeKey(c) == "" {
			continue
		}
		for i, h := range headers {
			if valueobject.ContainsFold(h, c) {
				return i
			}
		}
	}
	return -1
}

var errMissingTable = errors.New("table does not exist")

func unavailable(op, table string, err error) error {
	return shared.NewUpstreamUnavailableError(fmt.Sprintf("%s %s", op, table), err)
}

func checkRow(table string, row int) error {
	if row < FirstDataRow {
		return shared.NewValidationError(fmt.Sprintf("row %d of %s is not a data row", row, table))
	}
	return nil
}

func rowNotFound(table string, row int) error {
	return shared.NewNotFoundError(table+" row", fmt.Sprintf("%d", row))
}

// applyUpdates returns a copy of row with updates written, widened as needed
func applyUpdates(row []string, updates []CellUpdate) ([]string, error) {
	width := len(row)
	for _, u := range updates {
		if u.Column < 0 {
			return nil, shared.NewValidationError(fmt.Sprintf("invalid column index %d", u.Column))
		}
		if u.Column+1 > width {
			width = u.Column + 1
		}
	}
	out := make([]string, width)
	copy(out, row)
	for _, u := range updates {
		out[u.Column] = u.Value
	}
	return out, nil
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
