package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLot_Excluded(t *testing.T) {
	tests := []struct {
		status   string
		excluded bool
	}{
		{"available", false},
		{"", false},
		{"consumed", true},
		{"CONSUMED", true},
		{"Consumed 2024-03-01", true},
		{"nonconforming", true},
		{"NonConforming - scratched", true},
		{"non-conforming", true},
		{"on hold", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			lot := Lot{ID: "L1", Status: tt.status}
			assert.Equal(t, tt.excluded, lot.Excluded())
		})
	}
}

func TestLot_PrimaryMeasure(t *testing.T) {
	assert.Equal(t, MeasureUnits, (&Lot{Initial: units("10")}).PrimaryMeasure())
	assert.Equal(t, MeasureUnits, (&Lot{Initial: NewAmount(d("2"), d("500"))}).PrimaryMeasure())
	assert.Equal(t, MeasureMeters, (&Lot{Initial: meters("500")}).PrimaryMeasure())
	assert.Equal(t, MeasureUnits, (&Lot{}).PrimaryMeasure())
}

func TestIsValidLotID(t *testing.T) {
	assert.True(t, IsValidLotID("L-001"))
	assert.True(t, IsValidLotID(" LOT 7 "))
	assert.False(t, IsValidLotID(""))
	assert.False(t, IsValidLotID("   "))
	assert.False(t, IsValidLotID("#N/A"))
	assert.False(t, IsValidLotID("#REF!"))
	assert.False(t, IsValidLotID("L\x00"))
}

func TestLot_Validate(t *testing.T) {
	lot := Lot{ID: ""}
	assert.Error(t, lot.Validate())

	lot.ID = "L1"
	assert.NoError(t, lot.Validate())
}
