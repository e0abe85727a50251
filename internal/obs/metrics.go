package obs

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dsavch/reskeeper/internal/domain"
)

type Metrics struct {
	ReserveTotal *prometheus.CounterVec // result=success|unavailable|not_found|invalid
	ConfirmTotal *prometheus.CounterVec // result=success|idempotent|expired|not_holder|not_found
	ExtendTotal  *prometheus.CounterVec // result=success|ttl_exceeded|expired|not_holder|not_found|invalid
	ReleaseTotal *prometheus.CounterVec // result=success|noop|not_holder

	OpLatencyMS *prometheus.HistogramVec // op=reserve|confirm|extend|release|reclaim

	ResourcesByState   *prometheus.GaugeVec // state=available|locked|booked|blocked
	ActiveReservations prometheus.Gauge
	ExpiredTotal       prometheus.Counter
	EventsDroppedTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		ReserveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reskeeper_reserve_total",
				Help: "Total reserve attempts by result",
			},
			[]string{"result"},
		),
		ConfirmTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reskeeper_confirm_total",
				Help: "Total confirm attempts by result",
			},
			[]string{"result"},
		),
		ExtendTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reskeeper_extend_total",
				Help: "Total extend attempts by result",
			},
			[]string{"result"},
		),
		ReleaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reskeeper_release_total",
				Help: "Total release attempts by result",
			},
			[]string{"result"},
		),
		OpLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reskeeper_op_latency_ms",
				Help:    "Latency of engine operations (ms)",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
			},
			[]string{"op"},
		),
		ResourcesByState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reskeeper_resources",
				Help: "Number of resources per state",
			},
			[]string{"state"},
		),
		ActiveReservations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reskeeper_active_reservations",
			Help: "Number of pending (unexpired) reservations",
		}),
		ExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reskeeper_reservations_expired_total",
			Help: "Total reservations reclaimed by expiry",
		}),
		EventsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reskeeper_events_dropped_total",
			Help: "State-change events dropped due to slow subscribers",
		}),
	}

	prometheus.MustRegister(
		m.ReserveTotal,
		m.ConfirmTotal,
		m.ExtendTotal,
		m.ReleaseTotal,
		m.OpLatencyMS,
		m.ResourcesByState,
		m.ActiveReservations,
		m.ExpiredTotal,
		m.EventsDroppedTotal,
	)

	return m
}

// SetResourceCounts refreshes the per-state resource gauge. Missing states
// are zeroed so a drained state does not keep a stale value.
func (m *Metrics) SetResourceCounts(counts map[domain.ResourceState]int) {
	for _, state := range []domain.ResourceState{
		domain.ResourceStateAvailable,
		domain.ResourceStateLocked,
		domain.ResourceStateBooked,
		domain.ResourceStateBlocked,
	} {
		m.ResourcesByState.WithLabelValues(string(state)).Set(float64(counts[state]))
	}
}
