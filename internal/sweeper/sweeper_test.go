package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wb-go/wbf/logger"

	"github.com/dsavch/reskeeper/internal/domain"
	"github.com/dsavch/reskeeper/internal/sweeper/mocks"
)

func newTestLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.InitLogger("slog", "test", "test", logger.WithLevel(logger.ErrorLevel))
	if err != nil {
		t.Fatalf("init test logger: %v", err)
	}
	return log
}

func TestSweeper_ReclaimsOnTick(t *testing.T) {
	reclaimer := mocks.NewMockExpiredReclaimer(t)
	log := newTestLogger(t)

	s := New(reclaimer, 50*time.Millisecond, log)

	expired := []*domain.Reservation{
		{ID: "r1", HolderID: "u1", ResourceIDs: []string{"a"}, Status: domain.ReservationStatusExpired},
	}
	reclaimer.EXPECT().ReclaimExpired(mock.Anything).Return(expired, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	s.Start(ctx)

	assert.GreaterOrEqual(t, len(reclaimer.Calls), 1)
}

func TestSweeper_RetriesAfterError(t *testing.T) {
	reclaimer := mocks.NewMockExpiredReclaimer(t)
	log := newTestLogger(t)

	s := New(reclaimer, 30*time.Millisecond, log)

	// A failed sweep is logged and retried on the next interval.
	reclaimer.EXPECT().ReclaimExpired(mock.Anything).Return(nil, errors.New("store unavailable"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	s.Start(ctx)

	assert.GreaterOrEqual(t, len(reclaimer.Calls), 2)
}

func TestSweeper_SweepsImmediatelyOnStart(t *testing.T) {
	reclaimer := mocks.NewMockExpiredReclaimer(t)
	log := newTestLogger(t)

	// Interval far longer than the test: only the startup sweep can run.
	s := New(reclaimer, time.Minute, log)

	reclaimer.EXPECT().ReclaimExpired(mock.Anything).Return(nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s.Start(ctx)

	assert.Equal(t, 1, len(reclaimer.Calls))
}

func TestSweeper_StopsOnContextCancel(t *testing.T) {
	reclaimer := mocks.NewMockExpiredReclaimer(t)
	log := newTestLogger(t)

	s := New(reclaimer, time.Second, log)
	reclaimer.EXPECT().ReclaimExpired(mock.Anything).Return(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}

func TestSweeper_DefaultInterval(t *testing.T) {
	reclaimer := mocks.NewMockExpiredReclaimer(t)
	log := newTestLogger(t)

	s := New(reclaimer, 0, log)

	assert.Equal(t, time.Second, s.interval)
}
