package inventory

import "context"

// LotRepository reads the lots table
type LotRepository interface {
	// FindAll returns every lot in table order
	FindAll(ctx context.Context) ([]Lot, error)

	// FindByID returns the first lot with the given id (compared via LotKey)
	FindByID(ctx context.Context, id string) (*Lot, error)
}

// MovementRepository reads and appends to the movement ledger.
// The ledger is append-only: there is no update or delete.
type MovementRepository interface {
	// FindAll returns the whole ledger in row order
	FindAll(ctx context.Context) ([]Movement, error)

	// FindByLot returns the movements of one lot in row order
	FindByLot(ctx context.Context, lotID string) ([]Movement, error)

	// Append writes movements as one batch and returns them with their rows set
	Append(ctx context.Context, movements ...Movement) ([]Movement, error)
}
