package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceState_CanTransition(t *testing.T) {
	assert.True(t, ResourceStateAvailable.CanTransition(ResourceStateLocked))
	assert.True(t, ResourceStateAvailable.CanTransition(ResourceStateBlocked))
	assert.True(t, ResourceStateLocked.CanTransition(ResourceStateBooked))
	assert.True(t, ResourceStateLocked.CanTransition(ResourceStateAvailable))
	assert.True(t, ResourceStateBlocked.CanTransition(ResourceStateAvailable))

	assert.False(t, ResourceStateAvailable.CanTransition(ResourceStateBooked))
	assert.False(t, ResourceStateBooked.CanTransition(ResourceStateAvailable))
	assert.False(t, ResourceStateBlocked.CanTransition(ResourceStateLocked))
	assert.False(t, ResourceStateLocked.CanTransition(ResourceStateBlocked))
}

func TestReservationStatus_CanTransition(t *testing.T) {
	assert.True(t, ReservationStatusPending.CanTransition(ReservationStatusConfirmed))
	assert.True(t, ReservationStatusPending.CanTransition(ReservationStatusExpired))
	assert.True(t, ReservationStatusPending.CanTransition(ReservationStatusCancelled))

	for _, terminal := range []ReservationStatus{
		ReservationStatusConfirmed,
		ReservationStatusExpired,
		ReservationStatusCancelled,
	} {
		assert.True(t, terminal.Terminal())
		assert.False(t, terminal.CanTransition(ReservationStatusPending))
	}
	assert.False(t, ReservationStatusPending.Terminal())
}

func TestReservation_Clone(t *testing.T) {
	rsv := &Reservation{
		ID:          "r1",
		HolderID:    "u1",
		ResourceIDs: []string{"a", "b"},
		Status:      ReservationStatusPending,
	}

	cp := rsv.Clone()
	cp.ResourceIDs[0] = "mutated"
	cp.Status = ReservationStatusConfirmed

	assert.Equal(t, "a", rsv.ResourceIDs[0])
	assert.Equal(t, ReservationStatusPending, rsv.Status)
}

func TestReservation_ExpiredAt(t *testing.T) {
	expiry := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rsv := &Reservation{ExpiresAt: expiry}

	assert.False(t, rsv.ExpiredAt(expiry.Add(-time.Nanosecond)))
	assert.True(t, rsv.ExpiredAt(expiry))
	assert.True(t, rsv.ExpiredAt(expiry.Add(time.Second)))
}

func TestUnavailableError(t *testing.T) {
	err := error(&UnavailableError{Conflicting: []string{"a", "b"}})

	assert.ErrorIs(t, err, ErrResourceUnavailable)
	assert.Equal(t, "resource unavailable: a, b", err.Error())

	var ue *UnavailableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, []string{"a", "b"}, ue.Conflicting)
}

func TestTransitionError(t *testing.T) {
	err := error(&TransitionError{Entity: "resource", From: "booked", To: "locked"})

	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, "illegal resource transition: booked -> locked", err.Error())
}
