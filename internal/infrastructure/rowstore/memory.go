package rowstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and the memory backend
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*Table)}
}

// EnsureTable implements TableCreator
func (s *MemoryStore) EnsureTable(_ context.Context, table string, headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[table]; !ok {
		s.tables[table] = &Table{Name: table, Headers: append([]string(nil), headers...)}
	}
	return nil
}

// Seed replaces a table's headers and rows
func (s *MemoryStore) Seed(table string, headers []string, rows ...[]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = &Table{
		Name:    table,
		Headers: append([]string(nil), headers...),
		Rows:    cloneRows(rows),
	}
}

// ReadAll implements Store
func (s *MemoryStore) ReadAll(_ context.Context, table string) (*Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[table]
	if !ok {
		return nil, unavailable("read", table, errMissingTable)
	}
	return &Table{
		Name:    t.Name,
		Headers: append([]string(nil), t.Headers...),
		Rows:    cloneRows(t.Rows),
	}, nil
}

// AppendRow implements Store
func (s *MemoryStore) AppendRow(ctx context.Context, table string, row []string) (int, error) {
	rows, err := s.AppendRows(ctx, table, [][]string{row})
	if err != nil {
		return 0, err
	}
	return rows[0], nil
}

// AppendRows implements Store
func (s *MemoryStore) AppendRows(_ context.Context, table string, rows [][]string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[table]
	if !ok {
		return nil, unavailable("append to", table, errMissingTable)
	}
	numbers := make([]int, len(rows))
	for i, r := range rows {
		t.Rows = append(t.Rows, append([]string(nil), r...))
		numbers[i] = t.RowNumber(len(t.Rows) - 1)
	}
	return numbers, nil
}

// UpdateCells implements Store
func (s *MemoryStore) UpdateCells(_ context.Context, table string, row int, updates []CellUpdate) error {
	if err := checkRow(table, row); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[table]
	if !ok {
		return unavailable("update", table, errMissingTable)
	}
	current, ok := t.Row(row)
	if !ok {
		return rowNotFound(table, row)
	}
	updated, err := applyUpdates(current, updates)
	if err != nil {
		return err
	}
	t.Rows[row-FirstDataRow] = updated
	return nil
}

var _ Store = (*MemoryStore)(nil)
var _ TableCreator = (*MemoryStore)(nil)
