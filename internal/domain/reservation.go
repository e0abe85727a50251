package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

var reservationTransitions = map[ReservationStatus]map[ReservationStatus]bool{
	ReservationStatusPending: {
		ReservationStatusConfirmed: true,
		ReservationStatusExpired:   true,
		ReservationStatusCancelled: true,
	},
	ReservationStatusConfirmed: {},
	ReservationStatusExpired:   {},
	ReservationStatusCancelled: {},
}

func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	return reservationTransitions[s][to]
}

// Terminal reports whether the status admits no further transitions.
func (s ReservationStatus) Terminal() bool {
	return len(reservationTransitions[s]) == 0
}

type Reservation struct {
	ID          string            `json:"id"`
	HolderID    string            `json:"holder_id"`
	ResourceIDs []string          `json:"resource_ids"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// Clone returns a deep copy safe to hand to callers outside the engine's
// critical section.
func (r *Reservation) Clone() *Reservation {
	cp := *r
	cp.ResourceIDs = append([]string(nil), r.ResourceIDs...)
	return &cp
}

// ExpiredAt reports whether the reservation has logically lapsed at the
// given instant. Expiry is a pure function of time, not of the sweeper.
func (r *Reservation) ExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
