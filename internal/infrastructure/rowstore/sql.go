package rowstore

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
)

// RowModel is one row of a table kept in SQL. The header row is stored as
// row 1 like any other row.
type RowModel struct {
	ID        uint64   `gorm:"primaryKey;autoIncrement"`
	Sheet     string   `gorm:"column:sheet;type:varchar(100);not null;uniqueIndex:idx_row_store_sheet_row"`
	RowNumber int      `gorm:"column:row_no;not null;uniqueIndex:idx_row_store_sheet_row"`
	Cells     []string `gorm:"column:cells;type:text;serializer:json;not null"`
}

// TableName returns the table name for GORM
func (RowModel) TableName() string {
	return "row_store_rows"
}

// SQLStore keeps tables in a single SQL table of JSON-encoded rows.
// Appends are serialized in process; the unique (sheet, row_no) index
// rejects a concurrent append from another process.
type SQLStore struct {
	db       *gorm.DB
	appendMu sync.Mutex
}

// NewSQLStore creates a SQLStore over an open connection
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// AutoMigrate creates the row table when migrations are not run separately
func (s *SQLStore) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&RowModel{}); err != nil {
		return unavailable("migrate", RowModel{}.TableName(), err)
	}
	return nil
}

// EnsureTable implements TableCreator
func (s *SQLStore) EnsureTable(ctx context.Context, table string, headers []string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&RowModel{}).
		Where("sheet = ? AND row_no = ?", table, HeaderRow).
		Count(&count).Error
	if err != nil {
		return unavailable("read", table, err)
	}
	if count > 0 {
		return nil
	}
	header := RowModel{Sheet: table, RowNumber: HeaderRow, Cells: headers}
	if err := s.db.WithContext(ctx).Create(&header).Error; err != nil {
		return unavailable("create", table, err)
	}
	return nil
}

// ReadAll implements Store
func (s *SQLStore) ReadAll(ctx context.Context, table string) (*Table, error) {
	var models []RowModel
	err := s.db.WithContext(ctx).
		Where("sheet = ?", table).
		Order("row_no").
		Find(&models).Error
	if err != nil {
		return nil, unavailable("read", table, err)
	}
	if len(models) == 0 || models[0].RowNumber != HeaderRow {
		return nil, unavailable("read", table, errMissingTable)
	}

	t := &Table{Name: table, Headers: models[0].Cells}
	last := models[len(models)-1].RowNumber
	t.Rows = make([][]string, last-HeaderRow)
	for _, m := range models[1:] {
		t.Rows[m.RowNumber-FirstDataRow] = m.Cells
	}
	return t, nil
}

// AppendRow implements Store
func (s *SQLStore) AppendRow(ctx context.Context, table string, row []string) (int, error) {
	rows, err := s.AppendRows(ctx, table, [][]string{row})
	if err != nil {
		return 0, err
	}
	return rows[0], nil
}

// AppendRows implements Store
func (s *SQLStore) AppendRows(ctx context.Context, table string, rows [][]string) ([]int, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	var numbers []int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&RowModel{}).
			Where("sheet = ?", table).
			Select("COALESCE(MAX(row_no), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		if last < HeaderRow {
			return errMissingTable
		}
		models := make([]RowModel, len(rows))
		numbers = make([]int, len(rows))
		for i, r := range rows {
			numbers[i] = last + 1 + i
			models[i] = RowModel{Sheet: table, RowNumber: numbers[i], Cells: r}
		}
		return tx.Create(&models).Error
	})
	if err != nil {
		return nil, unavailable("append to", table, err)
	}
	return numbers, nil
}

// UpdateCells implements Store
func (s *SQLStore) UpdateCells(ctx context.Context, table string, row int, updates []CellUpdate) error {
	if err := checkRow(table, row); err != nil {
		return err
	}
	var notFound bool
	var invalid error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m RowModel
		if err := tx.Where("sheet = ? AND row_no = ?", table, row).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				notFound = true
			}
			return err
		}
		cells, err := applyUpdates(m.Cells, updates)
		if err != nil {
			invalid = err
			return err
		}
		m.Cells = cells
		return tx.Model(&m).Select("cells").Updates(&m).Error
	})
	switch {
	case err == nil:
		return nil
	case notFound:
		return rowNotFound(table, row)
	case invalid != nil:
		return invalid
	}
	return unavailable("update", table, err)
}

var _ Store = (*SQLStore)(nil)
var _ TableCreator = (*SQLStore)(nil)
