package domain

import "time"

// StateChange is a single resource state-change notification. Delivery is
// at-least-once and best-effort; subscribers reconcile against the registry.
type StateChange struct {
	ResourceID    string        `json:"resource_id"`
	Category      string        `json:"category"`
	State         ResourceState `json:"state"`
	ReservationID string        `json:"reservation_id,omitempty"`
	At            time.Time     `json:"at"`
}
