// Package notifier fans resource state-change events out to subscribers.
// Delivery is at-least-once and best-effort: a slow subscriber loses events
// rather than blocking the engine, and reconciles against registry state.
package notifier

import (
	"context"
	"sync"

	"github.com/wb-go/wbf/logger"

	"github.com/dsavch/reskeeper/internal/domain"
	"github.com/dsavch/reskeeper/internal/obs"
)

// Sink is an additional delivery target for published events (e.g. Redis).
type Sink interface {
	Publish(ctx context.Context, events []domain.StateChange)
}

const defaultBuffer = 64

// Filter selects which events a subscription receives. Zero value matches
// everything; set ResourceID or Category to narrow.
type Filter struct {
	ResourceID string
	Category   string
}

func (f Filter) matches(ev domain.StateChange) bool {
	if f.ResourceID != "" && f.ResourceID != ev.ResourceID {
		return false
	}
	if f.Category != "" && f.Category != ev.Category {
		return false
	}
	return true
}

type Subscription struct {
	id     int
	filter Filter
	ch     chan domain.StateChange
	broker *Broker
	once   sync.Once
}

// Events is the subscriber's stream. The channel is closed by Close.
func (s *Subscription) Events() <-chan domain.StateChange {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s.id)
	})
}

type Broker struct {
	mu     sync.RWMutex
	subs   map[int]*Subscription
	nextID int

	buffer  int
	sinks   []Sink
	logger  logger.Logger
	metrics *obs.Metrics
}

type BrokerOption func(*Broker)

// WithBuffer sets the per-subscription channel capacity.
func WithBuffer(n int) BrokerOption {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithSink adds a forwarding target alongside in-process subscribers.
func WithSink(s Sink) BrokerOption {
	return func(b *Broker) {
		b.sinks = append(b.sinks, s)
	}
}

func WithMetrics(m *obs.Metrics) BrokerOption {
	return func(b *Broker) {
		b.metrics = m
	}
}

func NewBroker(log logger.Logger, opts ...BrokerOption) *Broker {
	b := &Broker{
		subs:   make(map[int]*Subscription),
		buffer: defaultBuffer,
		logger: log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a filtered event stream. Callers must Close the
// subscription when done.
func (b *Broker) Subscribe(f Filter) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		filter: f,
		ch:     make(chan domain.StateChange, b.buffer),
		broker: b,
	}
	b.subs[sub.id] = sub
	return sub
}

// Publish fans events out to matching subscribers without blocking; a full
// subscriber buffer drops the event. Forwarding sinks run after local
// delivery.
func (b *Broker) Publish(ctx context.Context, events []domain.StateChange) {
	b.mu.RLock()
	var dropped int
	for _, ev := range events {
		for _, sub := range b.subs {
			if !sub.filter.matches(ev) {
				continue
			}
			select {
			case sub.ch <- ev:
			default:
				dropped++
			}
		}
	}
	b.mu.RUnlock()

	if dropped > 0 {
		if b.metrics != nil {
			b.metrics.EventsDroppedTotal.Add(float64(dropped))
		}
		b.logger.Debug("events dropped for slow subscribers",
			logger.Int("dropped", dropped),
		)
	}

	for _, sink := range b.sinks {
		sink.Publish(ctx, events)
	}
}

func (b *Broker) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.ch)
}
