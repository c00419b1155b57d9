package settlement

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wealthdesk/ledger/internal/database"
)

const (
	leaseKey = "wealthledger:settlement:lease"
	leaseTTL = 30 * time.Second
)

// Scheduler sweeps pending transfers past their maturation delay and
// settles them. It is owned by the process lifecycle: main starts it
// once and stops it by cancelling the context. The window is a minimum
// delay only; a pending transfer that ages past any nominal maximum is
// still settled by a later tick.
type Scheduler struct {
	db       *database.DB
	redis    *redis.Client
	interval time.Duration
	minAge   time.Duration
}

// NewScheduler creates a settlement scheduler. rdb may be nil when the
// service runs as a single instance; with multiple instances the Redis
// lease keeps two sweeps from running at once.
func NewScheduler(db *database.DB, rdb *redis.Client, interval, minAge time.Duration) *Scheduler {
	return &Scheduler{
		db:       db,
		redis:    rdb,
		interval: interval,
		minAge:   minAge,
	}
}

// Run ticks until ctx is cancelled. Errors inside a tick are logged and
// swallowed so one failing sweep never stops future sweeps.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("Settlement scheduler started (interval=%s, min age=%s)", s.interval, s.minAge)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Settlement scheduler shutting down...")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one settlement pass. Exposed so tests and operational
// tooling can trigger a pass without the ticker.
func (s *Scheduler) Sweep(ctx context.Context) {
	if !s.acquireLease(ctx) {
		return
	}
	defer s.releaseLease(ctx)

	cutoff := time.Now().Add(-s.minAge)
	settled, err := s.db.CompleteMaturedTransfers(ctx, cutoff)
	if err != nil {
		log.Printf("Settlement sweep failed: %v", err)
		return
	}
	if len(settled) > 0 {
		log.Printf("Settled %d pending transfers: %v", len(settled), settled)
	}
}

// acquireLease takes the cross-instance sweep lease. Best effort: if
// Redis is unreachable the sweep proceeds anyway rather than stalling
// settlement.
func (s *Scheduler) acquireLease(ctx context.Context) bool {
	if s.redis == nil {
		return true
	}
	ok, err := s.redis.SetNX(ctx, leaseKey, "1", leaseTTL).Result()
	if err != nil {
		log.Printf("Settlement lease check failed, sweeping anyway: %v", err)
		return true
	}
	return ok
}

func (s *Scheduler) releaseLease(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, leaseKey).Err(); err != nil {
		log.Printf("Failed to release settlement lease: %v", err)
	}
}
