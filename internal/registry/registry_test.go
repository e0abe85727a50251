package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsavch/reskeeper/internal/domain"
)

func newSeeded(t *testing.T) *Registry {
	t.Helper()
	r := New()
	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, r.Add(id, "standard"))
	}
	require.NoError(t, r.Add("v1", "vip"))
	return r
}

func TestRegistry_Add_Duplicate(t *testing.T) {
	r := newSeeded(t)

	err := r.Add("s1", "standard")

	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Equal(t, 4, r.Len())
}

func TestRegistry_Add_MissingFields(t *testing.T) {
	r := New()

	assert.ErrorIs(t, r.Add("", "standard"), domain.ErrInvalidRequest)
	assert.ErrorIs(t, r.Add("s1", ""), domain.ErrInvalidRequest)
}

func TestRegistry_Lookup(t *testing.T) {
	r := newSeeded(t)

	res, err := r.Lookup("s1")
	require.NoError(t, err)
	assert.Equal(t, "standard", res.Category)
	assert.Equal(t, domain.ResourceStateAvailable, res.State)

	// Lookup returns a copy; mutating it must not touch the registry.
	res.State = domain.ResourceStateBooked
	again, err := r.Lookup("s1")
	require.NoError(t, err)
	assert.Equal(t, domain.ResourceStateAvailable, again.State)

	_, err = r.Lookup("ghost")
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestRegistry_CandidatesFor(t *testing.T) {
	r := newSeeded(t)

	assert.Len(t, r.CandidatesFor("standard", 2), 2)
	assert.Len(t, r.CandidatesFor("standard", 10), 3)
	assert.Empty(t, r.CandidatesFor("standard", 0))
	assert.Empty(t, r.CandidatesFor("ghost", 2))

	require.NoError(t, r.SetState("s1", domain.ResourceStateLocked, "rsv-1"))
	require.NoError(t, r.SetState("s2", domain.ResourceStateLocked, "rsv-1"))

	assert.Equal(t, []string{"s3"}, r.CandidatesFor("standard", 10))
}

func TestRegistry_SetState_MaintainsIndexAndCounts(t *testing.T) {
	r := newSeeded(t)

	require.NoError(t, r.SetState("s1", domain.ResourceStateLocked, "rsv-1"))

	res, err := r.Lookup("s1")
	require.NoError(t, err)
	assert.Equal(t, domain.ResourceStateLocked, res.State)
	assert.Equal(t, "rsv-1", res.LockRef)
	assert.Equal(t, 2, r.AvailableCount("standard"))

	counts := r.Counts()
	assert.Equal(t, 3, counts[domain.ResourceStateAvailable])
	assert.Equal(t, 1, counts[domain.ResourceStateLocked])

	require.NoError(t, r.SetState("s1", domain.ResourceStateAvailable, ""))
	assert.Equal(t, 3, r.AvailableCount("standard"))

	res, err = r.Lookup("s1")
	require.NoError(t, err)
	assert.Empty(t, res.LockRef)
}

func TestRegistry_SetState_IllegalTransition(t *testing.T) {
	r := newSeeded(t)

	require.NoError(t, r.SetState("s1", domain.ResourceStateLocked, "rsv-1"))
	require.NoError(t, r.SetState("s1", domain.ResourceStateBooked, ""))

	// Booked is terminal during normal operation.
	err := r.SetState("s1", domain.ResourceStateAvailable, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "booked", te.From)
	assert.Equal(t, "available", te.To)

	err = r.SetState("ghost", domain.ResourceStateLocked, "rsv-1")
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestRegistry_BlockUnblock(t *testing.T) {
	r := newSeeded(t)

	require.NoError(t, r.Block("v1"))
	assert.Equal(t, 0, r.AvailableCount("vip"))

	// Cannot block what is not available.
	require.NoError(t, r.SetState("s1", domain.ResourceStateLocked, "rsv-1"))
	assert.ErrorIs(t, r.Block("s1"), domain.ErrIllegalTransition)

	require.NoError(t, r.Unblock("v1"))
	assert.Equal(t, 1, r.AvailableCount("vip"))
}
