package inventory

import (
	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AvailabilityQuery narrows an availability report. Empty fields match every lot.
type AvailabilityQuery struct {
	ProductKey string `form:"product_key" json:"product_key"`
	Warehouse  string `form:"warehouse" json:"warehouse"`
	Class      string `form:"class" json:"class"`
}

func (q AvailabilityQuery) filter() inventory.AvailabilityFilter {
	return inventory.AvailabilityFilter{
		ProductKey: valueobject.NormalizeText(q.ProductKey),
		Warehouse:  valueobject.NormalizeText(q.Warehouse),
		Class:      inventory.InventoryClass(valueobject.NormalizeText(q.Class)),
	}
}

// QuantityResponse is a quantity in both measures
type QuantityResponse struct {
	Units  decimal.Decimal `json:"units"`
	Meters decimal.Decimal `json:"meters"`
}

// ToQuantityResponse converts an Amount
func ToQuantityResponse(a inventory.Amount) QuantityResponse {
	return QuantityResponse{Units: a.Units, Meters: a.Meters}
}

// LotAvailabilityResponse is one qualifying lot in an availability report
type LotAvailabilityResponse struct {
	LotID      string           `json:"lot_id"`
	ProductKey string           `json:"product_key"`
	Class      string           `json:"class"`
	Warehouse  string           `json:"warehouse"`
	Status     string           `json:"status"`
	Measure    string           `json:"measure"`
	Row        int              `json:"row"`
	Initial    QuantityResponse `json:"initial"`
	Movements  QuantityResponse `json:"movements"`
	Available  QuantityResponse `json:"available"`
}

// ProductAvailabilityResponse aggregates every qualifying lot of one product key
type ProductAvailabilityResponse struct {
	ProductKey string           `json:"product_key"`
	Available  QuantityResponse `json:"available"`
	LotIDs     []string         `json:"lot_ids"`
}

// AvailabilityResponse is the result of an availability query
type AvailabilityResponse struct {
	Total    QuantityResponse              `json:"total"`
	Lots     []LotAvailabilityResponse     `json:"lots"`
	Products []ProductAvailabilityResponse `json:"products"`
}

// ToAvailabilityResponse converts a domain report
func ToAvailabilityResponse(r inventory.AvailabilityReport) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		Total:    ToQuantityResponse(r.Total),
		Lots:     make([]LotAvailabilityResponse, 0, len(r.Lots)),
		Products: make([]ProductAvailabilityResponse, 0, len(r.Products)),
	}
	for _, la := range r.Lots {
		resp.Lots = append(resp.Lots, LotAvailabilityResponse{
			LotID:      la.Lot.ID,
			ProductKey: la.Lot.ProductKey(),
			Class:      la.Lot.Class.String(),
			Warehouse:  la.Lot.Warehouse,
			Status:     la.Lot.Status,
			Measure:    la.Lot.PrimaryMeasure().String(),
			Row:        la.Lot.Row,
			Initial:    ToQuantityResponse(la.Lot.Initial),
			Movements:  ToQuantityResponse(la.Movements),
			Available:  ToQuantityResponse(la.Available),
		})
	}
	for _, pa := range r.Products {
		resp.Products = append(resp.Products, ProductAvailabilityResponse{
			ProductKey: pa.ProductKey,
			Available:  ToQuantityResponse(pa.Available),
			LotIDs:     pa.LotIDs,
		})
	}
	return resp
}

// AllocationOptionRequest asks for lots able to serve one product at a
// destination. Product is a pipe-delimited key; when empty the separate
// descriptor fields are used.
type AllocationOptionRequest struct {
	Product     string `json:"product"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Width       string `json:"width"`
	Length      string `json:"length"`
	Finish      string `json:"finish"`
	Destination string `json:"destination" binding:"required,destination"`
}

func (r AllocationOptionRequest) descriptor() inventory.ProductDescriptor {
	if valueobject.NormalizeText(r.Product) != "" {
		return inventory.ParseProductDescriptor(r.Product)
	}
	return inventory.ProductDescriptor{
		Name:   valueobject.NormalizeText(r.Name),
		Color:  valueobject.NormalizeText(r.Color),
		Width:  valueobject.NormalizeText(r.Width),
		Length: valueobject.NormalizeText(r.Length),
		Finish: valueobject.NormalizeText(r.Finish),
	}
}

// AllocationOptionsRequest batches allocation requests
type AllocationOptionsRequest struct {
	Requests []AllocationOptionRequest `json:"requests" binding:"required,min=1,dive"`
}

// AllocationCandidateResponse is one recommended lot
type AllocationCandidateResponse struct {
	LotID      string           `json:"lot_id"`
	ProductKey string           `json:"product_key"`
	Warehouse  string           `json:"warehouse"`
	Length     string           `json:"length"`
	Measure    string           `json:"measure"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Available  QuantityResponse `json:"available"`
}

// AllocationOptionResponse is the ranked candidates for one request
type AllocationOptionResponse struct {
	ProductKey  string                        `json:"product_key"`
	Destination string                        `json:"destination"`
	Candidates  []AllocationCandidateResponse `json:"candidates"`
}

func toAllocationOptionResponse(req inventory.AllocationRequest, cs []inventory.AllocationCandidate) AllocationOptionResponse {
	resp := AllocationOptionResponse{
		ProductKey:  req.Descriptor.Key(),
		Destination: req.Destination.String(),
		Candidates:  make([]AllocationCandidateResponse, 0, len(cs)),
	}
	for _, c := range cs {
		resp.Candidates = append(resp.Candidates, AllocationCandidateResponse{
			LotID:      c.LotID,
			ProductKey: c.ProductKey,
			Warehouse:  c.Warehouse,
			Length:     c.Length,
			Measure:    c.Measure.String(),
			Quantity:   c.Quantity,
			Available:  ToQuantityResponse(c.Available),
		})
	}
	return resp
}

// ReserveRequest reserves lot stock for an order line
type ReserveRequest struct {
	OrderID  string          `json:"order_id" binding:"required"`
	Row      int             `json:"row" binding:"required,min=2"`
	LotID    string          `json:"lot_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"gt=0"`
	Reason   string          `json:"reason"`

	Actor          string `json:"-"`
	IdempotencyKey string `json:"-"`
}

// ReserveResponse describes the appended reservation
type ReserveResponse struct {
	MovementID string           `json:"movement_id"`
	LotID      string           `json:"lot_id"`
	Reference  string           `json:"reference"`
	Quantity   QuantityResponse `json:"quantity"`
	Policy     string           `json:"policy"`
	LedgerRow  int              `json:"ledger_row"`
}

// MovementResponse is one ledger entry
type MovementResponse struct {
	ID          string           `json:"id"`
	LotID       string           `json:"lot_id"`
	Type        string           `json:"type"`
	Quantity    QuantityResponse `json:"quantity"`
	Origin      string           `json:"origin,omitempty"`
	Destination string           `json:"destination,omitempty"`
	Reference   string           `json:"reference,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	Timestamp   string           `json:"timestamp,omitempty"`
	Actor       string           `json:"actor,omitempty"`
	Row         int              `json:"row"`
}

// ToMovementResponse converts a ledger movement
func ToMovementResponse(m inventory.Movement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		LotID:       m.LotID,
		Type:        m.Type.String(),
		Quantity:    ToQuantityResponse(m.Quantity),
		Origin:      m.Origin,
		Destination: m.Destination,
		Reference:   m.Reference,
		Reason:      m.Reason,
		Timestamp:   m.Timestamp,
		Actor:       m.Actor,
		Row:         m.Row,
	}
}

// LotLedgerResponse is a lot with its movements and derived balance
type LotLedgerResponse struct {
	LotID     string             `json:"lot_id"`
	Initial   QuantityResponse   `json:"initial"`
	Balance   QuantityResponse   `json:"balance"`
	Available QuantityResponse   `json:"available"`
	Excluded  bool               `json:"excluded"`
	Movements []MovementResponse `json:"movements"`
}

// RebuildResponse reports a projection rebuild
type RebuildResponse struct {
	Movements int    `json:"movements"`
	Lots      int    `json:"lots"`
	Duration  string `json:"duration"`
}
