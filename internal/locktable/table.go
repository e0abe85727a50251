// Package locktable tracks active (pending) reservations. A min-heap on
// expiry lets the sweeper drain lapsed entries without scanning the table.
package locktable

import (
	"container/heap"
	"time"

	"github.com/dsavch/reskeeper/internal/domain"
)

type entry struct {
	rsv   *domain.Reservation
	index int
}

type Table struct {
	byID map[string]*entry
	heap expiryHeap
}

func New() *Table {
	return &Table{byID: make(map[string]*entry)}
}

// Insert adds a pending reservation. The reservation id must be unique.
func (t *Table) Insert(rsv *domain.Reservation) {
	if _, ok := t.byID[rsv.ID]; ok {
		return
	}
	e := &entry{rsv: rsv}
	t.byID[rsv.ID] = e
	heap.Push(&t.heap, e)
}

// Get returns the live reservation, or nil if it is not in the table.
func (t *Table) Get(id string) *domain.Reservation {
	e, ok := t.byID[id]
	if !ok {
		return nil
	}
	return e.rsv
}

// Remove drops the reservation from the table. No-op when absent.
func (t *Table) Remove(id string) {
	e, ok := t.byID[id]
	if !ok {
		return
	}
	delete(t.byID, id)
	heap.Remove(&t.heap, e.index)
}

// Fix restores heap order after the reservation's expiry changed (Extend).
func (t *Table) Fix(id string) {
	e, ok := t.byID[id]
	if !ok {
		return
	}
	heap.Fix(&t.heap, e.index)
}

// PeekExpired returns a reservation whose expiry is at or before now, or nil
// if none has lapsed. Callers remove the returned entry before peeking again.
func (t *Table) PeekExpired(now time.Time) *domain.Reservation {
	if t.heap.Len() == 0 {
		return nil
	}
	rsv := t.heap[0].rsv
	if now.Before(rsv.ExpiresAt) {
		return nil
	}
	return rsv
}

func (t *Table) Len() int {
	return len(t.byID)
}

type expiryHeap []*entry

func (h expiryHeap) Len() int { return len(h) }

func (h expiryHeap) Less(i, j int) bool {
	return h[i].rsv.ExpiresAt.Before(h[j].rsv.ExpiresAt)
}

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
