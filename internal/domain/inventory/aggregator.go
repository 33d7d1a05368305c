package inventory

import (
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MovementPredicate selects ledger movements for aggregation
type MovementPredicate func(m *Movement) bool

// AllMovements selects every movement
func AllMovements(*Movement) bool {
	return true
}

// TypeIs selects movements whose type equals one of types, ignoring case
func TypeIs(types ...MovementType) MovementPredicate {
	return func(m *Movement) bool {
		for _, t := range types {
			if m.Type.Is(t) {
				return true
			}
		}
		return false
	}
}

// TypeContains selects movements whose type contains substr, ignoring case
func TypeContains(substr string) MovementPredicate {
	return func(m *Movement) bool {
		return valueobject.ContainsFold(string(m.Type), substr)
	}
}

// RefEntry is the movement that currently stands for a reference
type RefEntry struct {
	MovementID string
	LotID      string
	Quantity   Amount
	Timestamp  string
}

// SumByLot accumulates signed quantities per lot for the selected movements.
// The map is keyed by LotKey. Movements with a malformed lot id are skipped.
func SumByLot(movements []Movement, pred MovementPredicate) map[string]Amount {
	sums := make(map[string]Amount)
	for i := range movements {
		m := &movements[i]
		if !IsValidLotID(m.LotID) || !pred(m) {
			continue
		}
		key := LotKey(m.LotID)
		sums[key] = sums[key].Add(m.Quantity)
	}
	return sums
}

// SumByRef accumulates signed quantities per decoded operation reference,
// keyed by OperationRef.Key. Movements without a row-keyed reference or with a
// malformed lot id are skipped.
func SumByRef(movements []Movement, pred MovementPredicate) map[OperationRef]Amount {
	sums := make(map[OperationRef]Amount)
	for i := range movements {
		m := &movements[i]
		if !IsValidLotID(m.LotID) || !pred(m) {
			continue
		}
		ref, ok := m.OperationRef()
		if !ok {
			continue
		}
		key := ref.Key()
		sums[key] = sums[key].Add(m.Quantity)
	}
	return sums
}

// LatestByRef keeps, per decoded operation reference, the most recent of the
// selected movements, keyed by OperationRef.Key. Recency compares timestamp text; an entry without a
// timestamp loses to any entry with one, and on equal timestamps the later
// ledger row wins.
func LatestByRef(movements []Movement, pred MovementPredicate) map[OperationRef]RefEntry {
	latest := make(map[OperationRef]RefEntry)
	for i := range movements {
		m := &movements[i]
		if !IsValidLotID(m.LotID) || !pred(m) {
			continue
		}
		ref, ok := m.OperationRef()
		if !ok {
			continue
		}
		candidate := RefEntry{
			MovementID: m.ID,
			LotID:      m.LotID,
			Quantity:   m.Quantity,
			Timestamp:  m.Timestamp,
		}
		key := ref.Key()
		current, seen := latest[key]
		if !seen || supersedes(candidate.Timestamp, current.Timestamp) {
			latest[key] = candidate
		}
	}
	return latest
}

// supersedes reports whether a movement stamped candidate replaces one stamped current
func supersedes(candidate, current string) bool {
	switch {
	case current == "":
		return true
	case candidate == "":
		return false
	default:
		return candidate >= current
	}
}

// FilterByRef returns the selected movements carrying the given reference,
// in ledger order
func FilterByRef(movements []Movement, ref OperationRef, pred MovementPredicate) []Movement {
	var out []Movement
	for i := range movements {
		m := &movements[i]
		if !IsValidLotID(m.LotID) || !pred(m) {
			continue
		}
		if r, ok := m.OperationRef(); ok && r.Matches(ref) {
			out = append(out, *m)
		}
	}
	return out
}

// FulfilledByRef is the net progress of the selected movements bound to ref.
// Fulfillment movements are decreases, so each one counts negated; an
// offsetting increase appended as a correction takes progress back. The net
// never reads below zero.
func FulfilledByRef(movements []Movement, ref OperationRef, pred MovementPredicate) decimal.Decimal {
	total := decimal.Zero
	for _, m := range FilterByRef(movements, ref, pred) {
		total = total.Sub(m.Quantity.Units.Add(m.Quantity.Meters))
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// OutstandingReservation is what the reservations bound to ref still hold:
// reserved minus released, never below zero. An empty lotID spans every lot.
func OutstandingReservation(movements []Movement, ref OperationRef, lotID string) decimal.Decimal {
	pred := func(m *Movement) bool {
		if lotID != "" && LotKey(m.LotID) != LotKey(lotID) {
			return false
		}
		return m.Type.Is(MovementTypeReservation) || m.Type.Is(MovementTypeRelease)
	}
	held := decimal.Zero
	for _, m := range FilterByRef(movements, ref, pred) {
		held = held.Sub(m.Quantity.Units.Add(m.Quantity.Meters))
	}
	if held.IsNegative() {
		return decimal.Zero
	}
	return held
}
