package locktable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsavch/reskeeper/internal/domain"
)

func pending(id string, expiresAt time.Time) *domain.Reservation {
	return &domain.Reservation{
		ID:          id,
		HolderID:    "u1",
		ResourceIDs: []string{"r-" + id},
		Status:      domain.ReservationStatusPending,
		CreatedAt:   expiresAt.Add(-time.Minute),
		ExpiresAt:   expiresAt,
	}
}

func TestTable_InsertGetRemove(t *testing.T) {
	tbl := New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rsv := pending("a", base)
	tbl.Insert(rsv)

	assert.Equal(t, 1, tbl.Len())
	assert.Same(t, rsv, tbl.Get("a"))
	assert.Nil(t, tbl.Get("b"))

	// Duplicate insert is ignored.
	tbl.Insert(pending("a", base.Add(time.Hour)))
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, base, tbl.Get("a").ExpiresAt)

	tbl.Remove("a")
	assert.Equal(t, 0, tbl.Len())
	assert.Nil(t, tbl.Get("a"))

	// Removing twice is safe.
	tbl.Remove("a")
}

func TestTable_PeekExpired_Order(t *testing.T) {
	tbl := New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tbl.Insert(pending("late", base.Add(3*time.Minute)))
	tbl.Insert(pending("early", base.Add(1*time.Minute)))
	tbl.Insert(pending("mid", base.Add(2*time.Minute)))

	assert.Nil(t, tbl.PeekExpired(base))

	// Draining at a later instant yields entries in expiry order.
	now := base.Add(2 * time.Minute)
	first := tbl.PeekExpired(now)
	require.NotNil(t, first)
	assert.Equal(t, "early", first.ID)
	tbl.Remove(first.ID)

	second := tbl.PeekExpired(now)
	require.NotNil(t, second)
	assert.Equal(t, "mid", second.ID)
	tbl.Remove(second.ID)

	assert.Nil(t, tbl.PeekExpired(now))
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_Fix_AfterExtend(t *testing.T) {
	tbl := New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := pending("a", base.Add(time.Minute))
	b := pending("b", base.Add(2*time.Minute))
	tbl.Insert(a)
	tbl.Insert(b)

	// Extending "a" past "b" must reorder the heap.
	a.ExpiresAt = base.Add(3 * time.Minute)
	tbl.Fix("a")

	now := base.Add(2 * time.Minute)
	first := tbl.PeekExpired(now)
	require.NotNil(t, first)
	assert.Equal(t, "b", first.ID)
	tbl.Remove(first.ID)

	assert.Nil(t, tbl.PeekExpired(now))

	// Fix on an unknown id is a no-op.
	tbl.Fix("ghost")
}
