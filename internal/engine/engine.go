// Package engine is the serialized core of the reservation system. It is the
// only component allowed to mutate the registry and the lock table, and it
// does so under a single write lock so no operation ever observes a
// half-applied effect of another.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/logger"

	"github.com/dsavch/reskeeper/internal/clock"
	"github.com/dsavch/reskeeper/internal/domain"
	"github.com/dsavch/reskeeper/internal/locktable"
	"github.com/dsavch/reskeeper/internal/obs"
	"github.com/dsavch/reskeeper/internal/registry"
)

// EventSink receives resource state-change events. Publish is called outside
// the engine's critical section and must not be relied on for correctness.
type EventSink interface {
	Publish(ctx context.Context, events []domain.StateChange)
}

const (
	defaultMinTTL       = 1 * time.Second
	defaultMaxTTL       = 15 * time.Minute
	defaultMaxResources = 16
)

type Engine struct {
	mu sync.RWMutex

	reg   *registry.Registry
	table *locktable.Table
	// archive keeps terminal reservations for audit and idempotent retries.
	archive map[string]*domain.Reservation

	clk     clock.Clock
	sink    EventSink
	log     logger.Logger
	metrics *obs.Metrics

	minTTL       time.Duration
	maxTTL       time.Duration
	maxResources int
}

type Option func(*Engine)

// WithTTLBounds overrides the accepted TTL window. maxTTL also caps the total
// lifetime reachable through Extend.
func WithTTLBounds(min, max time.Duration) Option {
	return func(e *Engine) {
		if min > 0 {
			e.minTTL = min
		}
		if max > 0 {
			e.maxTTL = max
		}
	}
}

// WithMaxResources overrides the per-reservation resource limit.
func WithMaxResources(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxResources = n
		}
	}
}

func WithMetrics(m *obs.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func New(reg *registry.Registry, clk clock.Clock, sink EventSink, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		reg:          reg,
		table:        locktable.New(),
		archive:      make(map[string]*domain.Reservation),
		clk:          clk,
		sink:         sink,
		log:          log,
		minTTL:       defaultMinTTL,
		maxTTL:       defaultMaxTTL,
		maxResources: defaultMaxResources,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reserve atomically locks every requested resource for holderID, or locks
// none of them. On conflict the error carries every unavailable id so the
// caller can retry with alternatives.
func (e *Engine) Reserve(ctx context.Context, holderID string, resourceIDs []string, ttl time.Duration) (*domain.Reservation, error) {
	start := time.Now()

	if holderID == "" {
		e.count("reserve", "invalid")
		return nil, fmt.Errorf("%w: holder id required", domain.ErrInvalidRequest)
	}
	ids, err := normalizeIDs(resourceIDs)
	if err != nil {
		e.count("reserve", "invalid")
		return nil, err
	}
	if len(ids) > e.maxResources {
		e.count("reserve", "invalid")
		return nil, fmt.Errorf("%w: at most %d resources per reservation", domain.ErrInvalidRequest, e.maxResources)
	}
	if ttl < e.minTTL || ttl > e.maxTTL {
		e.count("reserve", "invalid")
		return nil, fmt.Errorf("%w: ttl %s outside [%s, %s]", domain.ErrInvalidRequest, ttl, e.minTTL, e.maxTTL)
	}

	e.mu.Lock()
	now := e.clk.Now()

	// All-or-nothing: verify every id before touching any state.
	var conflicts []string
	for _, id := range ids {
		res, err := e.reg.Lookup(id)
		if err != nil {
			e.mu.Unlock()
			e.count("reserve", "not_found")
			return nil, err
		}
		if res.State != domain.ResourceStateAvailable {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		e.mu.Unlock()
		e.count("reserve", "unavailable")
		return nil, &domain.UnavailableError{Conflicting: conflicts}
	}

	rsv := &domain.Reservation{
		ID:          uuid.New().String(),
		HolderID:    holderID,
		ResourceIDs: ids,
		Status:      domain.ReservationStatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	events := make([]domain.StateChange, 0, len(ids))
	for _, id := range ids {
		if err := e.lockResource(id, rsv.ID, now, &events); err != nil {
			// Unreachable after the availability check, but never leave a
			// partial hold behind.
			e.rollbackLocks(events)
			e.mu.Unlock()
			e.count("reserve", "invalid")
			return nil, err
		}
	}
	e.table.Insert(rsv)
	e.updateGauges()
	out := rsv.Clone()
	e.mu.Unlock()

	e.publish(ctx, events)
	e.count("reserve", "success")
	e.observe("reserve", start)
	e.log.Info("reservation created",
		logger.String("reservation_id", rsv.ID),
		logger.String("holder_id", holderID),
		logger.Int("resources", len(ids)),
		logger.Duration("ttl", ttl),
	)

	return out, nil
}

// Confirm finalizes a pending reservation. Expiry is evaluated logically at
// call time, so a lapsed hold fails with ErrLockExpired even if the sweeper
// has not run yet; the lapsed hold is reclaimed on the spot. Confirming an
// already-confirmed reservation again returns the original result.
func (e *Engine) Confirm(ctx context.Context, reservationID, holderID string) (*domain.Reservation, error) {
	start := time.Now()

	e.mu.Lock()
	now := e.clk.Now()

	rsv := e.table.Get(reservationID)
	if rsv == nil {
		prev := e.archive[reservationID]
		e.mu.Unlock()
		return e.confirmArchived(prev, holderID)
	}
	if rsv.HolderID != holderID {
		e.mu.Unlock()
		e.count("confirm", "not_holder")
		return nil, domain.ErrNotHolder
	}
	if rsv.ExpiredAt(now) {
		events := e.expireLocked(rsv, now)
		e.updateGauges()
		e.mu.Unlock()

		e.publish(ctx, events)
		e.count("confirm", "expired")
		return nil, domain.ErrLockExpired
	}

	events := make([]domain.StateChange, 0, len(rsv.ResourceIDs))
	for _, id := range rsv.ResourceIDs {
		// Cannot fail: the resource is locked by this reservation.
		_ = e.reg.SetState(id, domain.ResourceStateBooked, "")
		events = append(events, e.stateChange(id, domain.ResourceStateBooked, rsv.ID, now))
	}
	rsv.Status = domain.ReservationStatusConfirmed
	e.table.Remove(rsv.ID)
	e.archive[rsv.ID] = rsv
	e.updateGauges()
	out := rsv.Clone()
	e.mu.Unlock()

	e.publish(ctx, events)
	e.count("confirm", "success")
	e.observe("confirm", start)
	e.log.Info("reservation confirmed",
		logger.String("reservation_id", reservationID),
		logger.String("holder_id", holderID),
	)

	return out, nil
}

func (e *Engine) confirmArchived(prev *domain.Reservation, holderID string) (*domain.Reservation, error) {
	if prev == nil {
		e.count("confirm", "not_found")
		return nil, domain.ErrReservationNotFound
	}
	if prev.HolderID != holderID {
		e.count("confirm", "not_holder")
		return nil, domain.ErrNotHolder
	}

	switch prev.Status {
	case domain.ReservationStatusConfirmed:
		// Client retry after a lost response.
		e.count("confirm", "idempotent")
		return prev.Clone(), nil
	case domain.ReservationStatusExpired:
		e.count("confirm", "expired")
		return nil, domain.ErrLockExpired
	default:
		e.count("confirm", "not_found")
		return nil, domain.ErrReservationNotFound
	}
}

// Extend pushes the expiry of a pending reservation further out. The total
// lifetime is capped at createdAt + maxTTL so a holder cannot starve other
// callers indefinitely.
func (e *Engine) Extend(ctx context.Context, reservationID, holderID string, additional time.Duration) (time.Time, error) {
	start := time.Now()

	if additional <= 0 {
		e.count("extend", "invalid")
		return time.Time{}, fmt.Errorf("%w: extension must be positive", domain.ErrInvalidRequest)
	}

	e.mu.Lock()
	now := e.clk.Now()

	rsv := e.table.Get(reservationID)
	if rsv == nil {
		e.mu.Unlock()
		e.count("extend", "not_found")
		return time.Time{}, domain.ErrReservationNotFound
	}
	if rsv.HolderID != holderID {
		e.mu.Unlock()
		e.count("extend", "not_holder")
		return time.Time{}, domain.ErrNotHolder
	}
	if rsv.ExpiredAt(now) {
		events := e.expireLocked(rsv, now)
		e.updateGauges()
		e.mu.Unlock()

		e.publish(ctx, events)
		e.count("extend", "expired")
		return time.Time{}, domain.ErrLockExpired
	}

	newExpiry := rsv.ExpiresAt.Add(additional)
	if newExpiry.After(rsv.CreatedAt.Add(e.maxTTL)) {
		e.mu.Unlock()
		e.count("extend", "ttl_exceeded")
		return time.Time{}, domain.ErrTTLExceeded
	}

	rsv.ExpiresAt = newExpiry
	e.table.Fix(rsv.ID)
	e.mu.Unlock()

	e.count("extend", "success")
	e.observe("extend", start)
	e.log.Info("reservation extended",
		logger.String("reservation_id", reservationID),
		logger.Duration("additional", additional),
	)

	return newExpiry, nil
}

// Release cancels a pending reservation and returns its resources to the
// pool. It is idempotent: releasing a missing or already-terminal
// reservation succeeds without effect, so callers may release defensively on
// every exit path.
func (e *Engine) Release(ctx context.Context, reservationID, holderID string) error {
	start := time.Now()

	e.mu.Lock()
	now := e.clk.Now()

	rsv := e.table.Get(reservationID)
	if rsv == nil {
		e.mu.Unlock()
		e.count("release", "noop")
		return nil
	}
	if rsv.HolderID != holderID {
		e.mu.Unlock()
		e.count("release", "not_holder")
		return domain.ErrNotHolder
	}

	events := make([]domain.StateChange, 0, len(rsv.ResourceIDs))
	for _, id := range rsv.ResourceIDs {
		_ = e.reg.SetState(id, domain.ResourceStateAvailable, "")
		events = append(events, e.stateChange(id, domain.ResourceStateAvailable, rsv.ID, now))
	}
	rsv.Status = domain.ReservationStatusCancelled
	e.table.Remove(rsv.ID)
	e.archive[rsv.ID] = rsv
	e.updateGauges()
	e.mu.Unlock()

	e.publish(ctx, events)
	e.count("release", "success")
	e.observe("release", start)
	e.log.Info("reservation released",
		logger.String("reservation_id", reservationID),
		logger.String("holder_id", holderID),
	)

	return nil
}

// ReclaimExpired releases every reservation whose expiry has lapsed,
// stamping them Expired to distinguish timeouts from explicit cancellation.
// It shares the critical section with Confirm, so at most one of
// {sweeper-expire, client-confirm} wins for any reservation.
func (e *Engine) ReclaimExpired(ctx context.Context) ([]*domain.Reservation, error) {
	start := time.Now()

	e.mu.Lock()
	now := e.clk.Now()

	var (
		expired []*domain.Reservation
		events  []domain.StateChange
	)
	for {
		rsv := e.table.PeekExpired(now)
		if rsv == nil {
			break
		}
		events = append(events, e.expireLocked(rsv, now)...)
		expired = append(expired, rsv.Clone())
	}
	if len(expired) > 0 {
		e.updateGauges()
	}
	e.mu.Unlock()

	e.publish(ctx, events)
	e.observe("reclaim", start)
	if e.metrics != nil {
		e.metrics.ExpiredTotal.Add(float64(len(expired)))
	}

	return expired, nil
}

// expireLocked transitions a pending reservation to Expired and frees its
// resources. Callers hold the write lock.
func (e *Engine) expireLocked(rsv *domain.Reservation, now time.Time) []domain.StateChange {
	events := make([]domain.StateChange, 0, len(rsv.ResourceIDs))
	for _, id := range rsv.ResourceIDs {
		_ = e.reg.SetState(id, domain.ResourceStateAvailable, "")
		events = append(events, e.stateChange(id, domain.ResourceStateAvailable, rsv.ID, now))
	}
	rsv.Status = domain.ReservationStatusExpired
	e.table.Remove(rsv.ID)
	e.archive[rsv.ID] = rsv
	return events
}

func (e *Engine) lockResource(id, reservationID string, now time.Time, events *[]domain.StateChange) error {
	if err := e.reg.SetState(id, domain.ResourceStateLocked, reservationID); err != nil {
		return err
	}
	*events = append(*events, e.stateChange(id, domain.ResourceStateLocked, reservationID, now))
	return nil
}

func (e *Engine) rollbackLocks(applied []domain.StateChange) {
	for _, ev := range applied {
		_ = e.reg.SetState(ev.ResourceID, domain.ResourceStateAvailable, "")
	}
}

func (e *Engine) stateChange(id string, state domain.ResourceState, reservationID string, now time.Time) domain.StateChange {
	res, _ := e.reg.Lookup(id)
	return domain.StateChange{
		ResourceID:    id,
		Category:      res.Category,
		State:         state,
		ReservationID: reservationID,
		At:            now,
	}
}

// Resource returns a consistent snapshot of a single resource.
func (e *Engine) Resource(id string) (domain.Resource, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reg.Lookup(id)
}

// Reservation returns a snapshot of a live or archived reservation.
func (e *Engine) Reservation(id string) (*domain.Reservation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if rsv := e.table.Get(id); rsv != nil {
		return rsv.Clone(), nil
	}
	if rsv := e.archive[id]; rsv != nil {
		return rsv.Clone(), nil
	}
	return nil, domain.ErrReservationNotFound
}

// AvailableCount reports currently available resources in a category.
func (e *Engine) AvailableCount(category string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reg.AvailableCount(category)
}

// Candidates returns up to count available resource ids in a category,
// suitable for a follow-up Reserve call.
func (e *Engine) Candidates(category string, count int) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reg.CandidatesFor(category, count)
}

// Block takes an available resource out of circulation.
func (e *Engine) Block(ctx context.Context, id string) error {
	e.mu.Lock()
	now := e.clk.Now()
	err := e.reg.Block(id)
	var events []domain.StateChange
	if err == nil {
		events = append(events, e.stateChange(id, domain.ResourceStateBlocked, "", now))
		e.updateGauges()
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.publish(ctx, events)
	return nil
}

// Unblock returns a blocked resource to the pool.
func (e *Engine) Unblock(ctx context.Context, id string) error {
	e.mu.Lock()
	now := e.clk.Now()
	err := e.reg.Unblock(id)
	var events []domain.StateChange
	if err == nil {
		events = append(events, e.stateChange(id, domain.ResourceStateAvailable, "", now))
		e.updateGauges()
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.publish(ctx, events)
	return nil
}

func (e *Engine) publish(ctx context.Context, events []domain.StateChange) {
	if e.sink == nil || len(events) == 0 {
		return
	}
	e.sink.Publish(ctx, events)
}

func (e *Engine) updateGauges() {
	if e.metrics == nil {
		return
	}
	e.metrics.SetResourceCounts(e.reg.Counts())
	e.metrics.ActiveReservations.Set(float64(e.table.Len()))
}

func (e *Engine) count(op, result string) {
	if e.metrics == nil {
		return
	}
	switch op {
	case "reserve":
		e.metrics.ReserveTotal.WithLabelValues(result).Inc()
	case "confirm":
		e.metrics.ConfirmTotal.WithLabelValues(result).Inc()
	case "extend":
		e.metrics.ExtendTotal.WithLabelValues(result).Inc()
	case "release":
		e.metrics.ReleaseTotal.WithLabelValues(result).Inc()
	}
}

func (e *Engine) observe(op string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.OpLatencyMS.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000)
}

func normalizeIDs(resourceIDs []string) ([]string, error) {
	if len(resourceIDs) == 0 {
		return nil, fmt.Errorf("%w: resource ids required", domain.ErrInvalidRequest)
	}

	seen := make(map[string]struct{}, len(resourceIDs))
	ids := make([]string, 0, len(resourceIDs))
	for _, id := range resourceIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: empty resource id", domain.ErrInvalidRequest)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: duplicate resource id %q", domain.ErrInvalidRequest, id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
