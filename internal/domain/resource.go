package domain

type ResourceState string

const (
	ResourceStateAvailable ResourceState = "available"
	ResourceStateLocked    ResourceState = "locked"
	ResourceStateBooked    ResourceState = "booked"
	ResourceStateBlocked   ResourceState = "blocked"
)

// resourceTransitions is the full set of legal resource state changes.
// Everything else is rejected with a TransitionError.
var resourceTransitions = map[ResourceState]map[ResourceState]bool{
	ResourceStateAvailable: {
		ResourceStateLocked:  true,
		ResourceStateBlocked: true,
	},
	ResourceStateLocked: {
		ResourceStateBooked:    true,
		ResourceStateAvailable: true,
	},
	ResourceStateBlocked: {
		ResourceStateAvailable: true,
	},
	ResourceStateBooked: {},
}

func (s ResourceState) CanTransition(to ResourceState) bool {
	return resourceTransitions[s][to]
}

type Resource struct {
	ID       string        `json:"id"`
	Category string        `json:"category"`
	State    ResourceState `json:"state"`
	// LockRef is the id of the pending reservation holding this resource.
	// Empty unless State is locked.
	LockRef string `json:"lock_ref,omitempty"`
}
