package rowstore

import (
	"fmt"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/infrastructure/config"
)

// Logical tables
const (
	TableLots          = "lots"
	TableMovements     = "movements"
	TableOrderLines    = "order_lines"
	TableCuttingOrders = "cutting_orders"
	TableCuttingItems  = "cutting_items"
)

// FieldSpec maps a logical field to the header names that may hold it,
// tried in order
type FieldSpec struct {
	Name       string
	Candidates []string
	Required   bool
}

// TableSchema maps a logical table to a physical one
type TableSchema struct {
	// Name is the physical table (sheet) name
	Name   string
	Fields []FieldSpec
}

// Headers returns the first candidate of every field, used when a table is created
func (ts TableSchema) Headers() []string {
	headers := make([]string, 0, len(ts.Fields))
	for _, f := range ts.Fields {
		if len(f.Candidates) > 0 {
			headers = append(headers, f.Candidates[0])
		}
	}
	return headers
}

// Resolve locates every field's column in the table's headers. A required
// field without a column is an upstream error naming the field; optional
// fields without a column are left out of the map. A column is claimed by at
// most one field, the first in schema order.
func (ts TableSchema) Resolve(t *Table) (ColumnMap, error) {
	cm := ColumnMap{index: make(map[string]int, len(ts.Fields)), width: len(t.Headers)}
	claimed := make(map[int]bool, len(ts.Fields))
	for _, f := range ts.Fields {
		idx := FindColumn(t.Headers, f.Candidates...)
		if idx >= 0 && !claimed[idx] {
			cm.index[f.Name] = idx
			claimed[idx] = true
			continue
		}
		if f.Required {
			return ColumnMap{}, shared.NewUpstreamUnavailableError(
				fmt.Sprintf("resolve columns of %s", ts.Name),
				fmt.Errorf("required column for %q not found, tried %v", f.Name, f.Candidates),
			)
		}
	}
	return cm, nil
}

// ColumnMap is the resolved position of each logical field in a table
type ColumnMap struct {
	index map[string]int
	width int
}

// Has reports whether the field has a column
func (cm ColumnMap) Has(field string) bool {
	_, ok := cm.index[field]
	return ok
}

// Index returns the column of a field, or -1
func (cm ColumnMap) Index(field string) int {
	if idx, ok := cm.index[field]; ok {
		return idx
	}
	return -1
}

// Get returns the field's cell in row, or "" when the field has no column or
// the row is shorter than the column
func (cm ColumnMap) Get(row []string, field string) string {
	idx, ok := cm.index[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Build lays out field values as a full-width row. Fields without a column are dropped.
func (cm ColumnMap) Build(values map[string]string) []string {
	row := make([]string, cm.width)
	for field, value := range values {
		if idx, ok := cm.index[field]; ok {
			row[idx] = value
		}
	}
	return row
}

// Updates turns field values into cell updates. Fields without a column are
// returned separately so callers can report them.
func (cm ColumnMap) Updates(fields map[string]string) ([]CellUpdate, []string) {
	var (
		updates []CellUpdate
		missing []string
	)
	for field, value := range fields {
		idx, ok := cm.index[field]
		if !ok {
			missing = append(missing, field)
			continue
		}
		updates = append(updates, CellUpdate{Column: idx, Value: value})
	}
	return updates, missing
}

// Schema maps every logical table
type Schema struct {
	Tables map[string]TableSchema
}

// Table returns the mapping of a logical table
func (s Schema) Table(logical string) (TableSchema, error) {
	ts, ok := s.Tables[logical]
	if !ok {
		return TableSchema{}, shared.NewUpstreamUnavailableError(
			"resolve schema", fmt.Errorf("no mapping for table %q", logical))
	}
	return ts, nil
}

// Override replaces the physical name and candidate headers of a table's
// fields. Empty values keep the defaults; unknown fields are ignored.
func (s Schema) Override(logical, name string, fields map[string][]string) Schema {
	ts, ok := s.Tables[logical]
	if !ok {
		return s
	}
	if name != "" {
		ts.Name = name
	}
	updated := make([]FieldSpec, len(ts.Fields))
	for i, f := range ts.Fields {
		if candidates := fields[f.Name]; len(candidates) > 0 {
			f.Candidates = append([]string(nil), candidates...)
		}
		updated[i] = f
	}
	ts.Fields = updated

	tables := make(map[string]TableSchema, len(s.Tables))
	for k, v := range s.Tables {
		tables[k] = v
	}
	tables[logical] = ts
	return Schema{Tables: tables}
}

func required(name string, candidates ...string) FieldSpec {
	return FieldSpec{Name: name, Candidates: candidates, Required: true}
}

func optional(name string, candidates ...string) FieldSpec {
	return FieldSpec{Name: name, Candidates: candidates}
}

// DefaultSchema returns the built-in column mapping
func DefaultSchema() Schema {
	return Schema{Tables: map[string]TableSchema{
		TableLots: {
			Name: "Lots",
			Fields: []FieldSpec{
				required("id", "Lot ID", "Lot"),
				required("description", "Product", "Description"),
				optional("class", "Inventory Class", "Class"),
				optional("warehouse", "Warehouse", "Location"),
				optional("units", "Initial Units", "Units"),
				optional("meters", "Initial Meters", "Meters"),
				optional("status", "Status"),
			},
		},
		TableMovements: {
			Name: "Movements",
			Fields: []FieldSpec{
				optional("id", "Movement ID"),
				required("lot_id", "Lot ID", "Lot"),
				required("type", "Type", "Movement Type"),
				optional("units", "Units"),
				optional("meters", "Meters"),
				optional("origin", "Origin"),
				optional("destination", "Destination"),
				required("reference", "Reference", "Operation Reference"),
				optional("reason", "Reason"),
				optional("timestamp", "Timestamp", "Date"),
				optional("actor", "Actor", "User"),
			},
		},
		TableOrderLines: {
			Name: "Order Lines",
			Fields: []FieldSpec{
				required("order_id", "Order ID", "Order"),
				optional("description", "Product", "Description"),
				required("requested", "Requested Quantity", "Quantity"),
				required("status", "Status"),
				optional("first_dispatch_at", "First Dispatch", "Dispatch Date"),
				optional("delivered_at", "Delivered At", "Delivery Date"),
				optional("carrier", "Carrier"),
				optional("tracking_number", "Tracking Number", "Tracking"),
				optional("invoice", "Invoice"),
				optional("delivery_note", "Delivery Note"),
			},
		},
		TableCuttingOrders: {
			Name: "Cutting Orders",
			Fields: []FieldSpec{
				required("id", "Cutting Order ID", "Cutting Order"),
				required("status", "Status"),
				optional("closed_at", "Closed At", "Close Date"),
			},
		},
		TableCuttingItems: {
			Name: "Cutting Items",
			Fields: []FieldSpec{
				required("cutting_order_id", "Cutting Order ID", "Cutting Order"),
				required("origin_lot_id", "Origin Lot", "Lot ID"),
				optional("description", "Target Product", "Product", "Description"),
				required("requested", "Requested Quantity", "Quantity"),
				required("status", "Status"),
				optional("linked_order_id", "Order ID", "Linked Order"),
				optional("linked_order_row", "Order Row", "Linked Row"),
				optional("delivered_at", "Delivered At", "Warehouse Date"),
			},
		},
	}}
}

// SchemaFromConfig applies configured overrides to the built-in mapping
func SchemaFromConfig(cfg config.SchemaConfig) Schema {
	s := DefaultSchema()
	for logical, table := range cfg.Tables {
		s = s.Override(logical, table.Name, table.Fields)
	}
	return s
}
