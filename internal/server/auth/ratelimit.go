package auth

import (
	"context"
	"sync"
	"time"

	"github.com/localbizsite/localbiz/internal/timex"
)

// Policy names one rate-limit rule. SkipSuccessful means a request that
// ends well is not charged against the client.
type Policy struct {
	Name           string
	Limit          int
	Window         time.Duration
	SkipSuccessful bool
}

// Decision is the outcome of charging one request to a key.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per key in fixed windows that start at the first
// request seen for the key.
type Limiter interface {
	// Hit charges one request to key. A rejected request is not counted.
	Hit(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)

	// Undo refunds one previously charged request.
	Undo(ctx context.Context, key string) error
}

type bucket struct {
	resetAt time.Time
	count   int
}

// sweepEvery is how many hits pass between purges of expired buckets.
const sweepEvery = 1024

// MemoryLimiter keeps counters in process memory. Counters are lost on
// restart and not shared between instances; see RedisLimiter for that.
type MemoryLimiter struct {
	mu    sync.Mutex
	data  map[string]*bucket
	clock timex.Clock
	hits  int
}

func NewMemoryLimiter(clock timex.Clock) *MemoryLimiter {
	if clock == nil {
		clock = timex.RealClock{}
	}
	return &MemoryLimiter{data: make(map[string]*bucket), clock: clock}
}

func (l *MemoryLimiter) Hit(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	l.hits++
	if l.hits%sweepEvery == 0 {
		l.sweep(now)
	}

	b, ok := l.data[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		l.data[key] = b
	}

	if b.count >= limit {
		return Decision{Allowed: false, Limit: limit, RetryAfter: b.resetAt.Sub(now)}, nil
	}

	b.count++
	return Decision{
		Allowed:    true,
		Limit:      limit,
		Remaining:  limit - b.count,
		RetryAfter: b.resetAt.Sub(now),
	}, nil
}

func (l *MemoryLimiter) Undo(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.data[key]; ok && b.count > 0 {
		b.count--
	}
	return nil
}

// sweep drops expired buckets. Callers hold l.mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, b := range l.data {
		if !now.Before(b.resetAt) {
			delete(l.data, k)
		}
	}
}

// Len reports how many keys are tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.data)
}
