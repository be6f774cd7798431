package fetch

import (
	"context"
	"strconv"
	"time"

	"github.com/dharmasatrya/flightagent/internal/cache"
)

const usagePrefix = "usage:"

// QuotaTracker keeps the persisted monthly count of provider calls. The
// counter is a plain integer under a month-scoped key in the shared cache
// store, so it survives process runs, resets itself on month rollover, and
// is bumped through the store's atomic increment: concurrent runs sharing
// one backing store never lose updates.
type QuotaTracker struct {
	store cache.Store
	limit int
	now   func() time.Time
}

func NewQuotaTracker(store cache.Store, monthlyLimit int) *QuotaTracker {
	return &QuotaTracker{store: store, limit: monthlyLimit, now: time.Now}
}

// WithClock replaces the tracker's time source. Test hook.
func (q *QuotaTracker) WithClock(now func() time.Time) *QuotaTracker {
	q.now = now
	return q
}

func (q *QuotaTracker) Limit() int {
	return q.limit
}

// Usage returns the number of provider calls recorded for the current
// month. A missing or malformed counter counts as zero.
func (q *QuotaTracker) Usage(ctx context.Context) int {
	data, ok, err := q.store.Get(ctx, q.key())
	if err != nil || !ok {
		return 0
	}
	n, err := strconv.Atoi(string(data))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Add records n provider calls and returns the new monthly count. A
// malformed stored counter is reset to n rather than failing the run.
func (q *QuotaTracker) Add(ctx context.Context, n int) int {
	if n <= 0 {
		return q.Usage(ctx)
	}
	count, err := q.store.Incr(ctx, q.key(), int64(n))
	if err != nil {
		_ = q.store.Set(ctx, q.key(), []byte(strconv.Itoa(n)), 0)
		return n
	}
	return int(count)
}

// Increment records one provider call and returns the new monthly count.
func (q *QuotaTracker) Increment(ctx context.Context) int {
	return q.Add(ctx, 1)
}

func (q *QuotaTracker) key() string {
	return usagePrefix + q.now().UTC().Format("2006-01")
}
