package inventory

import (
	"strconv"
	"sync"
)

// BalanceProjection keeps the per-lot sum of ledger movements up to date as
// movements are appended, so availability does not re-aggregate the ledger.
//
// It covers a prefix of the ledger (Applied rows) plus the movements this
// process appended and folded in with Apply before any ledger read showed
// them. The ledger is append-only, so Sync only folds the rows past the
// covered prefix; after a Sync the balances equal
// SumByLot(ledger, AllMovements).
type BalanceProjection struct {
	mu       sync.RWMutex
	balances map[string]Amount
	applied  int
	covered  map[string]struct{}
	ahead    map[string]Movement
}

// NewBalanceProjection creates an empty projection
func NewBalanceProjection() *BalanceProjection {
	return &BalanceProjection{
		balances: make(map[string]Amount),
		covered:  make(map[string]struct{}),
		ahead:    make(map[string]Movement),
	}
}

// identity names a movement across appends and ledger reads: its row when the
// store assigned one, else its id. Empty means it cannot be matched.
func identity(m *Movement) string {
	if m.Row > 0 {
		return "row:" + strconv.Itoa(m.Row)
	}
	if m.ID != "" {
		return "id:" + m.ID
	}
	return ""
}

func (p *BalanceProjection) fold(m *Movement) {
	if !IsValidLotID(m.LotID) {
		return
	}
	key := LotKey(m.LotID)
	p.balances[key] = p.balances[key].Add(m.Quantity)
}

// Rebuild replaces the projection with the sums of ledger. Movements applied
// since ledger was read stay folded in, so a snapshot taken before a
// concurrent append loses nothing.
func (p *BalanceProjection) Rebuild(ledger []Movement) {
	balances := SumByLot(ledger, AllMovements)
	covered := make(map[string]struct{}, len(ledger))
	for i := range ledger {
		if id := identity(&ledger[i]); id != "" {
			covered[id] = struct{}{}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances = balances
	p.covered = covered
	p.applied = len(ledger)
	for id, m := range p.ahead {
		if _, ok := covered[id]; ok {
			delete(p.ahead, id)
			continue
		}
		p.fold(&m)
	}
}

// Sync folds in the ledger rows past the covered prefix, skipping those
// already applied, and returns how many rows changed the projection.
// A ledger shorter than the covered prefix is a stale read and is ignored.
func (p *BalanceProjection) Sync(ledger []Movement) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(ledger) <= p.applied {
		return 0
	}
	folded := 0
	for i := p.applied; i < len(ledger); i++ {
		m := &ledger[i]
		if id := identity(m); id != "" {
			p.covered[id] = struct{}{}
			if _, ok := p.ahead[id]; ok {
				delete(p.ahead, id)
				continue
			}
		}
		p.fold(m)
		folded++
	}
	p.applied = len(ledger)
	return folded
}

// Apply folds movements this process just appended. Each must carry the row
// the store gave it or its id; one already covered by a ledger read is
// skipped. Movements with a malformed lot id change no balance.
func (p *BalanceProjection) Apply(movements ...Movement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range movements {
		m := movements[i]
		if id := identity(&m); id != "" {
			if _, ok := p.covered[id]; ok {
				continue
			}
			if _, ok := p.ahead[id]; ok {
				continue
			}
			p.ahead[id] = m
		}
		p.fold(&m)
	}
}

// Balances returns a copy of the per-lot sums keyed by LotKey
func (p *BalanceProjection) Balances() map[string]Amount {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]Amount, len(p.balances))
	for k, v := range p.balances {
		out[k] = v
	}
	return out
}

// Balance returns the movement sum of one lot
func (p *BalanceProjection) Balance(lotID string) Amount {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balances[LotKey(lotID)]
}

// Applied returns how many leading ledger rows the projection covers
func (p *BalanceProjection) Applied() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.applied
}

// Pending returns how many applied movements no ledger read has shown yet
func (p *BalanceProjection) Pending() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ahead)
}
