package inventory

import (
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func units(s string) Amount {
	return Amount{Units: d(s)}
}

func meters(s string) Amount {
	return Amount{Meters: d(s)}
}

func newTestLot(id, key string, initial Amount) Lot {
	return Lot{
		ID:         id,
		Class:      ClassFinishedGood,
		Warehouse:  "Main",
		Descriptor: ParseProductDescriptor(key),
		Initial:    initial,
		Status:     LotStatusAvailable,
	}
}

func mv(lotID string, t MovementType, q Amount, ref, ts string) Movement {
	return Movement{LotID: lotID, Type: t, Quantity: q, Reference: ref, Timestamp: ts}
}
