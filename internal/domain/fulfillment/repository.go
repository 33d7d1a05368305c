package fulfillment

import "context"

// OrderLineRepository reads the order lines table
type OrderLineRepository interface {
	// FindByRow returns whatever line occupies row, without checking its key.
	// Rows past the end of the table are not found.
	FindByRow(ctx context.Context, row int) (*OrderLine, error)
}

// CuttingOrderRepository reads the cutting order and cutting item tables
type CuttingOrderRepository interface {
	// FindOrder returns the first cutting order with the given id
	FindOrder(ctx context.Context, id string) (*CuttingOrder, error)

	// FindItemByRow returns whatever item occupies row, without checking its key
	FindItemByRow(ctx context.Context, row int) (*CuttingItem, error)

	// FindItems returns every item of a cutting order in row order
	FindItems(ctx context.Context, orderID string) ([]CuttingItem, error)
}

// TransitionWriter persists a status transition as one batch of cell updates
type TransitionWriter interface {
	Apply(ctx context.Context, t Transition) error
}
