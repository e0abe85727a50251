// Package registry holds the canonical state of every resource. It performs
// no locking of its own: all mutation goes through the engine's critical
// section, which is the single writer.
package registry

import (
	"fmt"

	"github.com/dsavch/reskeeper/internal/domain"
)

type Registry struct {
	resources map[string]*domain.Resource
	// available indexes currently-available resource ids per category so
	// candidate selection is O(k) instead of a full scan.
	available map[string]map[string]struct{}
	counts    map[domain.ResourceState]int
}

func New() *Registry {
	return &Registry{
		resources: make(map[string]*domain.Resource),
		available: make(map[string]map[string]struct{}),
		counts:    make(map[domain.ResourceState]int),
	}
}

// Add registers a new resource in the available state.
func (r *Registry) Add(id, category string) error {
	if id == "" || category == "" {
		return fmt.Errorf("%w: resource id and category required", domain.ErrInvalidRequest)
	}
	if _, ok := r.resources[id]; ok {
		return fmt.Errorf("%w: resource %q already registered", domain.ErrInvalidRequest, id)
	}

	r.resources[id] = &domain.Resource{
		ID:       id,
		Category: category,
		State:    domain.ResourceStateAvailable,
	}
	r.indexAvailable(id, category)
	r.counts[domain.ResourceStateAvailable]++

	return nil
}

// Lookup returns a copy of the resource so callers never observe a
// mid-transition value.
func (r *Registry) Lookup(id string) (domain.Resource, error) {
	res, ok := r.resources[id]
	if !ok {
		return domain.Resource{}, fmt.Errorf("resource %q: %w", id, domain.ErrResourceNotFound)
	}
	return *res, nil
}

// CandidatesFor returns up to count available resource ids in the category.
func (r *Registry) CandidatesFor(category string, count int) []string {
	ids := r.available[category]
	if count <= 0 || len(ids) == 0 {
		return nil
	}

	out := make([]string, 0, count)
	for id := range ids {
		out = append(out, id)
		if len(out) == count {
			break
		}
	}
	return out
}

// SetState transitions a resource, validating against the transition table
// and keeping the availability index and per-state counts consistent.
// lockRef is the holding reservation id; pass "" unless the new state is
// locked.
func (r *Registry) SetState(id string, state domain.ResourceState, lockRef string) error {
	res, ok := r.resources[id]
	if !ok {
		return fmt.Errorf("resource %q: %w", id, domain.ErrResourceNotFound)
	}
	if !res.State.CanTransition(state) {
		return &domain.TransitionError{
			Entity: "resource",
			From:   string(res.State),
			To:     string(state),
		}
	}

	if res.State == domain.ResourceStateAvailable {
		delete(r.available[res.Category], id)
	}
	if state == domain.ResourceStateAvailable {
		r.indexAvailable(id, res.Category)
	}

	r.counts[res.State]--
	r.counts[state]++

	res.State = state
	res.LockRef = lockRef

	return nil
}

// Block takes an available resource out of circulation (admin operation).
func (r *Registry) Block(id string) error {
	return r.SetState(id, domain.ResourceStateBlocked, "")
}

// Unblock returns a blocked resource to the pool.
func (r *Registry) Unblock(id string) error {
	return r.SetState(id, domain.ResourceStateAvailable, "")
}

// AvailableCount reports how many resources in the category are available.
func (r *Registry) AvailableCount(category string) int {
	return len(r.available[category])
}

// Counts returns the number of resources per state.
func (r *Registry) Counts() map[domain.ResourceState]int {
	out := make(map[domain.ResourceState]int, len(r.counts))
	for state, n := range r.counts {
		if n > 0 {
			out[state] = n
		}
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.resources)
}

func (r *Registry) indexAvailable(id, category string) {
	ids, ok := r.available[category]
	if !ok {
		ids = make(map[string]struct{})
		r.available[category] = ids
	}
	ids[id] = struct{}{}
}
