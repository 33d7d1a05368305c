package inventory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
)

// refPattern matches "OWNER-R<row>"; the owner itself may contain dashes
var refPattern = regexp.MustCompile(`^(.+)-R(\d+)$`)

// OperationRef binds a movement to the record that caused it: the logical key
// of the owning record (order id or cutting order id) and the row that record
// occupies in its table.
type OperationRef struct {
	Owner string
	Row   int
}

// NewOperationRef creates a reference, validating owner and row
func NewOperationRef(owner string, row int) (OperationRef, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return OperationRef{}, shared.NewValidationError("reference owner is required")
	}
	if row < 1 {
		return OperationRef{}, shared.NewValidationError(fmt.Sprintf("reference row must be positive, got %d", row))
	}
	return OperationRef{Owner: owner, Row: row}, nil
}

// Key is the comparison form of the reference. Owners are typed by hand in
// the ledger, so they match case-insensitively.
func (r OperationRef) Key() OperationRef {
	return OperationRef{Owner: valueobject.NormalizeKey(r.Owner), Row: r.Row}
}

// Matches reports whether r and other name the same record
func (r OperationRef) Matches(other OperationRef) bool {
	return r.Row == other.Row && valueobject.EqualKey(r.Owner, other.Owner)
}

// String renders the reference as "OWNER-R<row>"
func (r OperationRef) String() string {
	return fmt.Sprintf("%s-R%d", r.Owner, r.Row)
}

// ParseOperationRef decodes "OWNER-R<row>". Anything else is not row-keyed.
func ParseOperationRef(s string) (OperationRef, bool) {
	m := refPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return OperationRef{}, false
	}
	row, err := strconv.Atoi(m[2])
	if err != nil || row < 1 {
		return OperationRef{}, false
	}
	owner := strings.TrimSpace(m[1])
	if owner == "" {
		return OperationRef{}, false
	}
	return OperationRef{Owner: owner, Row: row}, true
}
