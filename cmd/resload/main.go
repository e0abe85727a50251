// resload drives the reservation engine in-process with many concurrent
// holders and verifies mutual exclusion under load: a successful Reserve over
// a live, unexpired claim of another holder is reported as a violation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/dsavch/reskeeper/internal/app"
	"github.com/dsavch/reskeeper/internal/config"
	"github.com/dsavch/reskeeper/internal/domain"
	"github.com/dsavch/reskeeper/internal/engine"
)

type counters struct {
	reserved   int64
	conflicts  int64
	confirmed  int64
	released   int64
	abandoned  int64
	starved    int64
	errors     int64
	violations int64
}

// claimTracker mirrors what each holder believes it holds. A second
// successful reserve of a resource whose previous claim has not expired and
// was not released means two holders held it at once.
type claimTracker struct {
	mu     sync.Mutex
	claims map[string]claim
}

type claim struct {
	holderID  string
	expiresAt time.Time
}

func newClaimTracker() *claimTracker {
	return &claimTracker{claims: make(map[string]claim)}
}

func (t *claimTracker) acquire(rsv *domain.Reservation, now time.Time) (violations int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range rsv.ResourceIDs {
		if prev, ok := t.claims[id]; ok && now.Before(prev.expiresAt) {
			violations++
		}
		t.claims[id] = claim{holderID: rsv.HolderID, expiresAt: rsv.ExpiresAt}
	}
	return violations
}

func (t *claimTracker) drop(rsv *domain.Reservation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range rsv.ResourceIDs {
		delete(t.claims, id)
	}
}

func main() {
	var (
		clients   = flag.Int("clients", 16, "number of concurrent holders")
		duration  = flag.Duration("duration", 15*time.Second, "test duration")
		rps       = flag.Float64("rate", 200, "total reserve attempts per second")
		ttl       = flag.Duration("ttl", 2*time.Second, "reservation ttl")
		batch     = flag.Int("batch", 2, "resources per reservation")
		category  = flag.String("category", "", "category to target (default: first seeded)")
		confirmP  = flag.Float64("confirm", 0.05, "probability a hold is confirmed (booked resources leave the pool)")
		abandonP  = flag.Float64("abandon", 0.25, "probability a hold is abandoned to the sweeper")
		inventory = flag.String("inventory", "standard:256", "inventory seed when INVENTORY is unset")
	)
	flag.Parse()

	cfg := config.MustLoad()
	if cfg.Inventory.Spec == "" {
		cfg.Inventory.Spec = *inventory
	}

	specs, err := cfg.Inventory.Parse()
	if err != nil || len(specs) == 0 {
		log.Fatalf("invalid inventory %q: %v", cfg.Inventory.Spec, err)
	}
	target := *category
	if target == "" {
		target = specs[0].Category
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("app init: %v", err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithTimeout(sigCtx, *duration)
	defer cancel()

	appDone := make(chan error, 1)
	go func() { appDone <- application.Run(runCtx) }()

	eng := application.Engine()
	limiter := rate.NewLimiter(rate.Limit(*rps), *clients)
	tracker := newClaimTracker()

	var stats counters
	var wg sync.WaitGroup
	wg.Add(*clients)

	start := time.Now()
	for i := 0; i < *clients; i++ {
		holderID := fmt.Sprintf("loader-%d", i)
		rng := rand.New(rand.NewSource(int64(i) + start.UnixNano()))

		go func() {
			defer wg.Done()
			runHolder(runCtx, eng, limiter, tracker, &stats, holderID, target, *batch, *ttl, *confirmP, *abandonP, rng)
		}()
	}

	wg.Wait()
	cancel()
	if err := <-appDone; err != nil {
		log.Printf("app run: %v", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("\n--- resload summary (%s, %d clients, category %q) ---\n", elapsed.Round(time.Millisecond), *clients, target)
	fmt.Printf("reserved:   %d\n", atomic.LoadInt64(&stats.reserved))
	fmt.Printf("conflicts:  %d\n", atomic.LoadInt64(&stats.conflicts))
	fmt.Printf("confirmed:  %d\n", atomic.LoadInt64(&stats.confirmed))
	fmt.Printf("released:   %d\n", atomic.LoadInt64(&stats.released))
	fmt.Printf("abandoned:  %d\n", atomic.LoadInt64(&stats.abandoned))
	fmt.Printf("starved:    %d\n", atomic.LoadInt64(&stats.starved))
	fmt.Printf("errors:     %d\n", atomic.LoadInt64(&stats.errors))
	fmt.Printf("violations: %d\n", atomic.LoadInt64(&stats.violations))
	fmt.Printf("available now: %d\n", eng.AvailableCount(target))

	if atomic.LoadInt64(&stats.violations) > 0 {
		fmt.Println("MUTUAL EXCLUSION VIOLATED")
		os.Exit(1)
	}
}

func runHolder(
	ctx context.Context,
	eng *engine.Engine,
	limiter *rate.Limiter,
	tracker *claimTracker,
	stats *counters,
	holderID, category string,
	batch int,
	ttl time.Duration,
	confirmP, abandonP float64,
	rng *rand.Rand,
) {
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		ids := eng.Candidates(category, batch)
		if len(ids) == 0 {
			atomic.AddInt64(&stats.starved, 1)
			continue
		}

		rsv, err := eng.Reserve(ctx, holderID, ids, ttl)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrResourceUnavailable):
			// Another holder won the race for a candidate; expected.
			atomic.AddInt64(&stats.conflicts, 1)
			continue
		default:
			atomic.AddInt64(&stats.errors, 1)
			continue
		}

		atomic.AddInt64(&stats.reserved, 1)
		if v := tracker.acquire(rsv, time.Now()); v > 0 {
			atomic.AddInt64(&stats.violations, int64(v))
		}

		switch roll := rng.Float64(); {
		case roll < confirmP:
			if _, err := eng.Confirm(ctx, rsv.ID, holderID); err != nil {
				atomic.AddInt64(&stats.errors, 1)
			} else {
				atomic.AddInt64(&stats.confirmed, 1)
			}
			// Booked resources never return; keep the claim so a re-reserve
			// of a booked id would still count as a violation.
		case roll < confirmP+abandonP:
			// Walk away; the sweeper reclaims after the ttl lapses.
			atomic.AddInt64(&stats.abandoned, 1)
		default:
			if err := eng.Release(ctx, rsv.ID, holderID); err != nil {
				atomic.AddInt64(&stats.errors, 1)
			} else {
				atomic.AddInt64(&stats.released, 1)
				tracker.drop(rsv)
			}
		}
	}
}
