package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// QuotaSnapshot is a read-only view of the ledger for status reporting.
type QuotaSnapshot struct {
	DailyLimit int64
	Used       int64
	Remaining  int64
	ResetsAt   time.Time
}

// QuotaStore persists ledger state across restarts. Implementations live in
// quotastore.go (SQLite) and quotastore_pg.go (Postgres).
type QuotaStore interface {
	Load(ctx context.Context) (used int64, lastReset time.Time, err error)
	Save(ctx context.Context, used int64, lastReset time.Time) error
	Close() error
}

// QuotaLedger tracks the authenticated API's daily call budget. It is the
// only mutable state shared between concurrent analyze calls, so every
// access goes through the mutex: two requests racing on a near-zero budget
// must not both believe they have quota. Callers Reserve the nominal cost
// before issuing a call and Settle with the actual cost afterwards, so
// reservations keep concurrent calls honest while the persisted counter
// only ever reflects completed calls.
type QuotaLedger struct {
	mu         sync.Mutex
	dailyLimit int64
	used       int64
	reserved   int64     // claimed by in-flight calls, not yet settled
	lastReset  time.Time // start of the UTC day the counter belongs to
	store      QuotaStore
	now        func() time.Time
}

// NewQuotaLedger builds a ledger, restoring persisted state when a store is
// given. Without a store the ledger assumes full budget at startup and
// accepts the risk of over-calling in the first post-restart window.
func NewQuotaLedger(dailyLimit int64, store QuotaStore) *QuotaLedger {
	q := &QuotaLedger{
		dailyLimit: dailyLimit,
		store:      store,
		now:        time.Now,
	}
	q.lastReset = utcDayStart(q.now())
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		used, lastReset, err := store.Load(ctx)
		if err != nil {
			slog.Warn("quota: restore failed, assuming full budget", slog.Any("error", err))
		} else if !lastReset.IsZero() {
			q.used = used
			q.lastReset = lastReset
		}
	}
	return q
}

// HasBudget reports whether cost more units fit in today's budget,
// counting outstanding reservations and resetting the counter first if the
// UTC day has rolled over.
func (q *QuotaLedger) HasBudget(cost int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfStale()
	return q.used+q.reserved+cost <= q.dailyLimit
}

// Reserve atomically claims cost units ahead of a call. Two requests racing
// on a near-zero budget cannot both win the same units: the second Reserve
// sees the first one's claim. Every successful Reserve must be paired with
// a Settle once the call finishes.
func (q *QuotaLedger) Reserve(cost int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfStale()
	if q.used+q.reserved+cost > q.dailyLimit {
		return false
	}
	q.reserved += cost
	return true
}

// Settle releases a reservation and charges what the call actually
// consumed. actual may exceed or undercut the reserved amount; a failed or
// cancelled call settles with actual 0 and just frees the claim.
func (q *QuotaLedger) Settle(reservedCost, actual int64) {
	q.mu.Lock()
	q.reserved = max(0, q.reserved-reservedCost)
	q.mu.Unlock()
	q.Charge(actual)
}

// Charge records units actually consumed by a completed call.
func (q *QuotaLedger) Charge(cost int64) {
	if cost <= 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfStale()
	q.used += cost
	q.persist()
}

// Exhaust marks today's budget as spent. Called when the upstream rejects a
// call with a quota error: the remote counter is authoritative, not ours.
func (q *QuotaLedger) Exhaust() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfStale()
	if q.used < q.dailyLimit {
		q.used = q.dailyLimit
		q.persist()
	}
}

// Snapshot returns the current ledger state.
func (q *QuotaLedger) Snapshot() QuotaSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfStale()
	return QuotaSnapshot{
		DailyLimit: q.dailyLimit,
		Used:       q.used,
		Remaining:  max(0, q.dailyLimit-q.used),
		ResetsAt:   q.lastReset.Add(24 * time.Hour),
	}
}

// resetIfStale zeroes the counter when the UTC day boundary has passed.
// Caller must hold q.mu.
func (q *QuotaLedger) resetIfStale() {
	day := utcDayStart(q.now())
	if day.After(q.lastReset) {
		slog.Debug("quota: daily reset",
			slog.Int64("used", q.used),
			slog.Time("boundary", day))
		q.used = 0
		q.lastReset = day
		q.persist()
	}
}

// persist writes the current state to the store, best effort.
// Caller must hold q.mu.
func (q *QuotaLedger) persist() {
	if q.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := q.store.Save(ctx, q.used, q.lastReset); err != nil {
		slog.Warn("quota: persist failed", slog.Any("error", err))
	}
}

func utcDayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
