package inventory

import (
	"sort"

	"github.com/lotledger/backend/internal/domain/shared/valueobject"
)

// AvailabilityFilter narrows an availability report. Empty fields match everything.
type AvailabilityFilter struct {
	ProductKey string
	Warehouse  string
	Class      InventoryClass
}

// matches compares a lot against the filter using normalized text
func (f AvailabilityFilter) matches(lot *Lot) bool {
	if f.ProductKey != "" && !valueobject.EqualKey(f.ProductKey, lot.ProductKey()) {
		return false
	}
	if f.Warehouse != "" && !valueobject.EqualKey(f.Warehouse, lot.Warehouse) {
		return false
	}
	if f.Class != "" && !valueobject.EqualKey(string(f.Class), string(lot.Class)) {
		return false
	}
	return true
}

// LotAvailability is one qualifying lot with its derived balance
type LotAvailability struct {
	Lot       Lot
	Movements Amount
	Available Amount
}

// Primary returns the available quantity in the lot's primary measure
func (a LotAvailability) Primary() Amount {
	m := a.Lot.PrimaryMeasure()
	return AmountOf(m, a.Available.Of(m))
}

// ProductAvailability aggregates every qualifying lot sharing a product key
type ProductAvailability struct {
	ProductKey string
	Available  Amount
	LotIDs     []string
}

// AvailabilityReport is the result of an availability computation
type AvailabilityReport struct {
	Lots     []LotAvailability
	Products []ProductAvailability
	Total    Amount
}

// FindLot returns the availability of a lot by id
func (r *AvailabilityReport) FindLot(id string) (LotAvailability, bool) {
	key := LotKey(id)
	for _, la := range r.Lots {
		if LotKey(la.Lot.ID) == key {
			return la, true
		}
	}
	return LotAvailability{}, false
}

// AvailabilityCalculator derives available quantity from initial balances and
// ledger sums. It holds no state; the same inputs always give the same report.
type AvailabilityCalculator struct{}

// NewAvailabilityCalculator creates a new calculator
func NewAvailabilityCalculator() *AvailabilityCalculator {
	return &AvailabilityCalculator{}
}

// Compute returns available = initial + Σ movements for every lot that is not
// consumed or nonconforming and that passes the filter. balances is keyed by
// LotKey, as produced by SumByLot or BalanceProjection. A lot id listed twice
// counts once, with its first row.
func (c *AvailabilityCalculator) Compute(lots []Lot, balances map[string]Amount, filter AvailabilityFilter) AvailabilityReport {
	report := AvailabilityReport{}
	seen := make(map[string]bool, len(lots))
	byProduct := make(map[string]*ProductAvailability)

	for i := range lots {
		lot := lots[i]
		if !IsValidLotID(lot.ID) || lot.Excluded() || !filter.matches(&lot) {
			continue
		}
		key := LotKey(lot.ID)
		if seen[key] {
			continue
		}
		seen[key] = true

		movements := balances[key]
		la := LotAvailability{
			Lot:       lot,
			Movements: movements,
			Available: lot.Initial.Add(movements),
		}
		report.Lots = append(report.Lots, la)
		report.Total = report.Total.Add(la.Available)

		productKey := valueobject.NormalizeKey(lot.ProductKey())
		pa, ok := byProduct[productKey]
		if !ok {
			pa = &ProductAvailability{ProductKey: lot.ProductKey()}
			byProduct[productKey] = pa
		}
		pa.Available = pa.Available.Add(la.Available)
		pa.LotIDs = append(pa.LotIDs, lot.ID)
	}

	sort.SliceStable(report.Lots, func(i, j int) bool {
		return LotKey(report.Lots[i].Lot.ID) < LotKey(report.Lots[j].Lot.ID)
	})

	keys := make([]string, 0, len(byProduct))
	for k := range byProduct {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pa := byProduct[k]
		sort.Strings(pa.LotIDs)
		report.Products = append(report.Products, *pa)
	}

	return report
}
