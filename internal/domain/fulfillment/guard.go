package fulfillment

import (
	"fmt"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
)

// GuardMode selects what the integrity guard does on a mismatch
type GuardMode int

const (
	// GuardStrict aborts the write with a row identity mismatch
	GuardStrict GuardMode = iota
	// GuardLenient lets the write proceed and returns a warning
	GuardLenient
)

// String returns the string representation of GuardMode
func (m GuardMode) String() string {
	if m == GuardLenient {
		return "lenient"
	}
	return "strict"
}

// RowIdentity is the logical key a record is expected to hold at a row
type RowIdentity struct {
	Table string
	Row   int
	Key   string
}

// String renders the identity for messages
func (r RowIdentity) String() string {
	return fmt.Sprintf("%s row %d (%s)", r.Table, r.Row, r.Key)
}

// IntegrityGuard confirms that a row still holds the record a request was
// addressed to before anything is written for it. Rows are addressed by
// position, and people insert and delete rows in the backing tables.
type IntegrityGuard struct{}

// NewIntegrityGuard creates an IntegrityGuard
func NewIntegrityGuard() *IntegrityGuard {
	return &IntegrityGuard{}
}

// Verify compares the identity a request expects with what the row holds.
// In strict mode a mismatch is an error; in lenient mode it is returned as a
// warning and the caller proceeds.
func (g *IntegrityGuard) Verify(expected, actual RowIdentity, mode GuardMode) (string, error) {
	if expected.Row == actual.Row &&
		valueobject.NormalizeText(actual.Key) != "" &&
		valueobject.EqualKey(expected.Key, actual.Key) {
		return "", nil
	}
	if mode == GuardLenient {
		return fmt.Sprintf("row %d of %s holds %q, expected %q",
			expected.Row, expected.Table, actual.Key, expected.Key), nil
	}
	return "", shared.NewRowIdentityMismatchError(expected.Table, expected.Row, expected.Key, actual.Key)
}
