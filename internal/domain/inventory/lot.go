package inventory

import (
	"strings"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
)

// InventoryClass is the stage of the supply chain a lot belongs to.
// Values read from the backing store are kept as written; the constants below
// are the ones this service produces.
type InventoryClass string

const (
	ClassRawMaterial    InventoryClass = "raw_material"
	ClassWorkInProgress InventoryClass = "work_in_progress"
	ClassFinishedGood   InventoryClass = "finished_good"
)

// String returns the string representation of InventoryClass
func (c InventoryClass) String() string {
	return string(c)
}

// Common lot statuses
const (
	LotStatusAvailable     = "available"
	LotStatusConsumed      = "consumed"
	LotStatusNonconforming = "nonconforming"
)

// excludedStatusMarkers are matched as case-insensitive substrings of a lot status
var excludedStatusMarkers = []string{
	"consumed",
	"nonconforming",
	"non-conforming",
	"non conforming",
}

// Lot is a physical batch of one product variant.
// The initial quantity never changes after intake; every later change is a
// Movement in the ledger.
type Lot struct {
	ID          string            `json:"id"`
	Class       InventoryClass    `json:"class"`
	Warehouse   string            `json:"warehouse"`
	Description string            `json:"description"`
	Descriptor  ProductDescriptor `json:"descriptor"`
	Initial     Amount            `json:"initial"`
	Status      string            `json:"status"`
	Row         int               `json:"row"`
}

// ProductKey returns the pipe-delimited key of the lot's product
func (l *Lot) ProductKey() string {
	return l.Descriptor.Key()
}

// Excluded returns true if the lot's status removes it from availability
func (l *Lot) Excluded() bool {
	for _, marker := range excludedStatusMarkers {
		if valueobject.ContainsFold(l.Status, marker) {
			return true
		}
	}
	return false
}

// PrimaryMeasure is the measure movements against this lot are written in.
// Lots intaken in linear meters only are measured in meters; all others in units.
func (l *Lot) PrimaryMeasure() Measure {
	if l.Initial.Units.IsZero() && !l.Initial.Meters.IsZero() {
		return MeasureMeters
	}
	return MeasureUnits
}

// Validate checks the fields required to use a lot
func (l *Lot) Validate() error {
	if !IsValidLotID(l.ID) {
		return shared.NewValidationError("lot id is required")
	}
	return nil
}

// LotKey is the comparison form of a lot identifier used to join lots with
// ledger movements
func LotKey(id string) string {
	return valueobject.NormalizeKey(id)
}

// IsValidLotID returns false for empty identifiers and spreadsheet error
// literals such as "#N/A" or "#REF!"
func IsValidLotID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, "#") {
		return false
	}
	for _, r := range id {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}
