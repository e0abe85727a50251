// Package sweeper reclaims resources from reservations whose holders never
// confirmed or released in time. It is a backstop: the engine re-validates
// expiry on Confirm, so a late sweep delays reclamation but never corrupts
// state.
package sweeper

import (
	"context"
	"time"

	"github.com/wb-go/wbf/logger"

	"github.com/dsavch/reskeeper/internal/domain"
)

type expiredReclaimer interface {
	ReclaimExpired(ctx context.Context) ([]*domain.Reservation, error)
}

type Sweeper struct {
	reclaimer expiredReclaimer
	interval  time.Duration
	logger    logger.Logger
}

func New(reclaimer expiredReclaimer, interval time.Duration, log logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Second
	}
	return &Sweeper{
		reclaimer: reclaimer,
		interval:  interval,
		logger:    log,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started",
		logger.Duration("interval", s.interval),
	)

	// Sweep once immediately so a restart reclaims stale holds right away.
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	expired, err := s.reclaimer.ReclaimExpired(ctx)
	if err != nil {
		// Transient failure: log and retry on the next interval.
		s.logger.Error("failed to reclaim expired reservations",
			logger.String("error", err.Error()),
		)
		return
	}

	for _, rsv := range expired {
		s.logger.Info("reservation expired",
			logger.String("reservation_id", rsv.ID),
			logger.String("holder_id", rsv.HolderID),
			logger.Int("resources", len(rsv.ResourceIDs)),
		)
	}
}
