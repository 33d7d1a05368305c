package rowstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// rawNumber matches the invariant-culture text excelize returns for numeric cells
var rawNumber = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][-+]?\d+)?$`)

// WorkbookStore keeps each table in a sheet of an xlsx workbook.
// Values are written as text so that what people type and what the service
// writes read back the same way. Cells that people entered as numbers are
// read back in the comma-decimal form used everywhere else.
type WorkbookStore struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// OpenWorkbook opens the workbook at path, creating an empty one if it does not exist
func OpenWorkbook(path string) (*WorkbookStore, error) {
	var (
		f   *excelize.File
		err error
	)
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		f = excelize.NewFile()
		if err = f.SaveAs(path); err != nil {
			return nil, unavailable("create workbook", path, err)
		}
	} else {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, unavailable("open workbook", path, err)
		}
	}
	return &WorkbookStore{path: path, file: f}, nil
}

// Close releases the workbook
func (s *WorkbookStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func (s *WorkbookStore) hasSheet(table string) bool {
	idx, err := s.file.GetSheetIndex(table)
	return err == nil && idx >= 0
}

// EnsureTable implements TableCreator
func (s *WorkbookStore) EnsureTable(_ context.Context, table string, headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasSheet(table) {
		return nil
	}
	if _, err := s.file.NewSheet(table); err != nil {
		return unavailable("create sheet", table, err)
	}
	if err := s.writeRow(table, HeaderRow, headers); err != nil {
		return unavailable("create sheet", table, err)
	}
	if err := s.file.Save(); err != nil {
		return unavailable("save", s.path, err)
	}
	return nil
}

// ReadAll implements Store
func (s *WorkbookStore) ReadAll(_ context.Context, table string) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readRows(table)
	if err != nil {
		return nil, err
	}
	t := &Table{Name: table}
	if len(rows) > 0 {
		t.Headers = rows[0]
		t.Rows = rows[1:]
	}
	return t, nil
}

// readRows returns every row of a sheet, header included, with numeric cells
// rendered in comma-decimal form
func (s *WorkbookStore) readRows(table string) ([][]string, error) {
	if !s.hasSheet(table) {
		return nil, unavailable("read", table, errMissingTable)
	}
	rows, err := s.file.GetRows(table, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, unavailable("read", table, err)
	}
	for r, row := range rows {
		for c, value := range row {
			if !rawNumber.MatchString(value) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			cellType, err := s.file.GetCellType(table, cell)
			if err != nil {
				continue
			}
			if cellType != excelize.CellTypeNumber && cellType != excelize.CellTypeUnset {
				continue
			}
			if d, err := decimal.NewFromString(value); err == nil {
				rows[r][c] = valueobject.FormatLocaleDecimal(d)
			}
		}
	}
	return rows, nil
}

// AppendRow implements Store
func (s *WorkbookStore) AppendRow(ctx context.Context, table string, row []string) (int, error) {
	rows, err := s.AppendRows(ctx, table, [][]string{row})
	if err != nil {
		return 0, err
	}
	return rows[0], nil
}

// AppendRows implements Store
func (s *WorkbookStore) AppendRows(_ context.Context, table string, rows [][]string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSheet(table) {
		return nil, unavailable("append to", table, errMissingTable)
	}
	existing, err := s.file.GetRows(table)
	if err != nil {
		return nil, unavailable("append to", table, err)
	}
	next := len(existing) + 1
	if next < FirstDataRow {
		next = FirstDataRow
	}
	numbers := make([]int, len(rows))
	for i, r := range rows {
		if err := s.writeRow(table, next+i, r); err != nil {
			return nil, unavailable("append to", table, err)
		}
		numbers[i] = next + i
	}
	if err := s.file.Save(); err != nil {
		return nil, unavailable("save", s.path, err)
	}
	return numbers, nil
}

// UpdateCells implements Store
func (s *WorkbookStore) UpdateCells(_ context.Context, table string, row int, updates []CellUpdate) error {
	if err := checkRow(table, row); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSheet(table) {
		return unavailable("update", table, errMissingTable)
	}
	existing, err := s.file.GetRows(table)
	if err != nil {
		return unavailable("update", table, err)
	}
	if row > len(existing) {
		return rowNotFound(table, row)
	}
	if _, err := applyUpdates(nil, updates); err != nil {
		return err
	}
	cells := make([]string, len(updates))
	previous := make([]string, len(updates))
	for i, u := range updates {
		cell, err := excelize.CoordinatesToCellName(u.Column+1, row)
		if err != nil {
			return shared.NewValidationError(fmt.Sprintf("invalid column index %d: %v", u.Column, err))
		}
		if previous[i], err = s.file.GetCellValue(table, cell, excelize.Options{RawCellValue: true}); err != nil {
			return unavailable("update", table, err)
		}
		cells[i] = cell
	}
	for i, u := range updates {
		if err := s.file.SetCellStr(table, cells[i], u.Value); err != nil {
			s.restoreCells(table, cells[:i], previous)
			return unavailable("update", table, err)
		}
	}
	if err := s.file.Save(); err != nil {
		s.restoreCells(table, cells, previous)
		return unavailable("save", s.path, err)
	}
	return nil
}

// restoreCells puts back the values cells held before a failed batch
func (s *WorkbookStore) restoreCells(table string, cells, previous []string) {
	for i := len(cells) - 1; i >= 0; i-- {
		_ = s.file.SetCellStr(table, cells[i], previous[i])
	}
}

func (s *WorkbookStore) writeRow(table string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return s.file.SetSheetRow(table, cell, &cells)
}

var _ Store = (*WorkbookStore)(nil)
var _ TableCreator = (*WorkbookStore)(nil)
