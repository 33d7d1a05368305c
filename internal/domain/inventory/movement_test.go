package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMovement(t *testing.T) {
	t.Run("decrease types are stored negative", func(t *testing.T) {
		for _, mt := range []MovementType{MovementTypeReservation, MovementTypeDispatch, MovementTypeCuttingDelivery, MovementTypeConsumption} {
			m, err := NewMovement("L1", mt, MeasureUnits, d("5"))
			require.NoError(t, err)
			assert.True(t, m.Quantity.Units.Equal(d("-5")), mt)
		}
	})

	t.Run("increase types are stored positive", func(t *testing.T) {
		m, err := NewMovement("L1", MovementTypeRelease, MeasureMeters, d("-3"))
		require.NoError(t, err)
		assert.True(t, m.Quantity.Meters.Equal(d("3")))
		assert.True(t, m.Quantity.Units.IsZero())
	})

	t.Run("adjustment keeps its sign", func(t *testing.T) {
		m, err := NewMovement("L1", MovementTypeAdjustment, MeasureUnits, d("-2"))
		require.NoError(t, err)
		assert.True(t, m.Quantity.Units.Equal(d("-2")))
	})

	t.Run("sets id and timestamp", func(t *testing.T) {
		m, err := NewMovement(" L1 ", MovementTypeEntry, MeasureUnits, d("1"))
		require.NoError(t, err)
		assert.NotEmpty(t, m.ID)
		assert.Equal(t, "L1", m.LotID)
		_, err = time.Parse(TimestampLayout, m.Timestamp)
		assert.NoError(t, err)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewMovement("", MovementTypeEntry, MeasureUnits, d("1"))
		assert.True(t, errors.Is(err, shared.ErrValidation))

		_, err = NewMovement("L1", MovementType("Teleport"), MeasureUnits, d("1"))
		assert.True(t, errors.Is(err, shared.ErrValidation))

		_, err = NewMovement("L1", MovementTypeEntry, Measure("kg"), d("1"))
		assert.True(t, errors.Is(err, shared.ErrValidation))

		_, err = NewMovement("L1", MovementTypeEntry, MeasureUnits, d("0"))
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestMovement_Builders(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.FixedZone("X", 3600))
	m, err := NewMovement("L1", MovementTypeReservation, MeasureUnits, d("4"))
	require.NoError(t, err)

	m.WithReference(OperationRef{Owner: "ORD-9", Row: 12}).
		WithLocations("Main", "Dock").
		WithReason("customer order").
		WithActor("ana").
		WithTimestamp(at)

	assert.Equal(t, "ORD-9-R12", m.Reference)
	assert.Equal(t, "Main", m.Origin)
	assert.Equal(t, "Dock", m.Destination)
	assert.Equal(t, "customer order", m.Reason)
	assert.Equal(t, "ana", m.Actor)
	assert.Equal(t, "2024-05-01T09:30:00Z", m.Timestamp)

	ref, ok := m.OperationRef()
	assert.True(t, ok)
	assert.Equal(t, OperationRef{Owner: "ORD-9", Row: 12}, ref)
}

func TestMovementType_Is(t *testing.T) {
	assert.True(t, MovementType(" reservation ").Is(MovementTypeReservation))
	assert.False(t, MovementTypeRelease.Is(MovementTypeReservation))
}
