package inventory

import (
	"fmt"
	"sort"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DestinationClass is the fulfillment path that governs which lots may serve a request
type DestinationClass string

const (
	// DestinationWarehouseDirect ships a lot as it is
	DestinationWarehouseDirect DestinationClass = "warehouse_direct"
	// DestinationCutting cuts a longer lot down to the requested length
	DestinationCutting DestinationClass = "cutting"
	// DestinationProduction feeds a lot into production unchanged
	DestinationProduction DestinationClass = "production"
)

// String returns the string representation of DestinationClass
func (d DestinationClass) String() string {
	return string(d)
}

// IsValid returns true if the destination class is known
func (d DestinationClass) IsValid() bool {
	switch d {
	case DestinationWarehouseDirect, DestinationCutting, DestinationProduction:
		return true
	}
	return false
}

// ParseDestinationClass reads a destination class, ignoring case and spacing
func ParseDestinationClass(s string) (DestinationClass, error) {
	for _, d := range []DestinationClass{DestinationWarehouseDirect, DestinationCutting, DestinationProduction} {
		if valueobject.EqualKey(s, string(d)) {
			return d, nil
		}
	}
	return "", shared.NewValidationError(fmt.Sprintf("unknown destination class %q", s))
}

// AllocationRequest asks for lots able to serve a product at a destination
type AllocationRequest struct {
	Descriptor  ProductDescriptor
	Destination DestinationClass
}

// Validate checks the request fields
func (r AllocationRequest) Validate() error {
	if valueobject.NormalizeText(r.Descriptor.Name) == "" {
		return shared.NewValidationError("product name is required")
	}
	if !r.Destination.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("unknown destination class %q", r.Destination))
	}
	return nil
}

// AllocationCandidate is a lot recommended for a request
type AllocationCandidate struct {
	LotID      string
	ProductKey string
	Warehouse  string
	Length     string
	Measure    Measure
	// Available is the lot balance in both measures
	Available Amount
	// Quantity is the balance in the lot's primary measure, the ranking figure
	Quantity decimal.Decimal
}

// RankingStrategy filters and orders candidate lots for one destination class
type RankingStrategy interface {
	// Name identifies the strategy in logs and responses
	Name() string
	// Accepts reports whether a lot can serve the request
	Accepts(req AllocationRequest, lot *Lot) bool
	// Less orders two accepted candidates; the engine breaks remaining ties by lot id
	Less(a, b AllocationCandidate) bool
}

// ExactMatchStrategy serves warehouse-direct and production requests: every
// descriptor field must match and the largest balance comes first
type ExactMatchStrategy struct{}

// NewExactMatchStrategy creates the exact-match strategy
func NewExactMatchStrategy() *ExactMatchStrategy {
	return &ExactMatchStrategy{}
}

// Name implements RankingStrategy
func (s *ExactMatchStrategy) Name() string { return "exact_match" }

// Accepts implements RankingStrategy
func (s *ExactMatchStrategy) Accepts(req AllocationRequest, lot *Lot) bool {
	want, have := req.Descriptor, lot.Descriptor
	return sameText(want.Name, have.Name) &&
		sameText(want.Color, have.Color) &&
		sameDimension(want.Width, have.Width) &&
		sameDimension(want.Length, have.Length) &&
		sameText(want.Finish, have.Finish)
}

// Less implements RankingStrategy
func (s *ExactMatchStrategy) Less(a, b AllocationCandidate) bool {
	return a.Quantity.GreaterThan(b.Quantity)
}

// CuttingSubstitutionStrategy serves cutting requests: product, color and
// width must match, the lot must be at least as long as requested, and the
// shortest sufficient lot comes first so the least material is wasted
type CuttingSubstitutionStrategy struct{}

// NewCuttingSubstitutionStrategy creates the cutting strategy
func NewCuttingSubstitutionStrategy() *CuttingSubstitutionStrategy {
	return &CuttingSubstitutionStrategy{}
}

// Name implements RankingStrategy
func (s *CuttingSubstitutionStrategy) Name() string { return "cutting_substitution" }

// Accepts implements RankingStrategy. Finish is not constrained because
// cutting re-finishes the material. With no requested length any lot of the
// right product, color and width qualifies.
func (s *CuttingSubstitutionStrategy) Accepts(req AllocationRequest, lot *Lot) bool {
	want, have := req.Descriptor, lot.Descriptor
	if !sameText(want.Name, have.Name) || !sameText(want.Color, have.Color) || !sameDimension(want.Width, have.Width) {
		return false
	}
	if valueobject.NormalizeText(want.Length) == "" {
		return true
	}
	wantLen, ok := want.LengthValue()
	if !ok {
		return sameDimension(want.Length, have.Length)
	}
	haveLen, ok := have.LengthValue()
	if !ok {
		return false
	}
	return haveLen.GreaterThanOrEqual(wantLen)
}

// Less implements RankingStrategy: shorter first, then larger balance.
// Lots whose length does not parse sort after those that do.
func (s *CuttingSubstitutionStrategy) Less(a, b AllocationCandidate) bool {
	al, aok := valueobject.ParseLocaleDecimalStrict(a.Length)
	bl, bok := valueobject.ParseLocaleDecimalStrict(b.Length)
	switch {
	case aok && !bok:
		return true
	case !aok && bok:
		return false
	case aok && bok && !al.Equal(bl):
		return al.LessThan(bl)
	}
	return a.Quantity.GreaterThan(b.Quantity)
}

// AllocationEngine selects and ranks lots for allocation requests.
// It only recommends; nothing is reserved until an operator picks a lot.
type AllocationEngine struct {
	strategies map[DestinationClass]RankingStrategy
}

// AllocationEngineOption configures an AllocationEngine
type AllocationEngineOption func(*AllocationEngine)

// WithRankingStrategy replaces the strategy used for a destination class
func WithRankingStrategy(dest DestinationClass, s RankingStrategy) AllocationEngineOption {
	return func(e *AllocationEngine) {
		e.strategies[dest] = s
	}
}

// NewAllocationEngine creates an engine with the default strategy per destination
func NewAllocationEngine(opts ...AllocationEngineOption) *AllocationEngine {
	exact := NewExactMatchStrategy()
	e := &AllocationEngine{
		strategies: map[DestinationClass]RankingStrategy{
			DestinationWarehouseDirect: exact,
			DestinationProduction:      exact,
			DestinationCutting:         NewCuttingSubstitutionStrategy(),
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StrategyFor returns the strategy serving a destination class
func (e *AllocationEngine) StrategyFor(dest DestinationClass) (RankingStrategy, error) {
	s, ok := e.strategies[dest]
	if !ok {
		return nil, shared.NewValidationError(fmt.Sprintf("no allocation strategy for destination %q", dest))
	}
	return s, nil
}

// Rank returns the lots able to serve req, best first. Lots that are excluded
// or have nothing available in their primary measure never appear.
func (e *AllocationEngine) Rank(req AllocationRequest, lots []LotAvailability) ([]AllocationCandidate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s, err := e.StrategyFor(req.Destination)
	if err != nil {
		return nil, err
	}

	candidates := make([]AllocationCandidate, 0)
	for i := range lots {
		la := lots[i]
		if la.Lot.Excluded() {
			continue
		}
		measure := la.Lot.PrimaryMeasure()
		quantity := la.Available.Of(measure)
		if !quantity.IsPositive() {
			continue
		}
		if !s.Accepts(req, &la.Lot) {
			continue
		}
		candidates = append(candidates, AllocationCandidate{
			LotID:      la.Lot.ID,
			ProductKey: la.Lot.ProductKey(),
			Warehouse:  la.Lot.Warehouse,
			Length:     la.Lot.Descriptor.Length,
			Measure:    measure,
			Available:  la.Available,
			Quantity:   quantity,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if s.Less(a, b) {
			return true
		}
		if s.Less(b, a) {
			return false
		}
		return LotKey(a.LotID) < LotKey(b.LotID)
	})

	return candidates, nil
}
